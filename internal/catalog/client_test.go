package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/glossary/internal/glossary"
)

// ---- Client ----

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient("", "", time.Second)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewClient("ftp://catalog.local", "", time.Second)
	assert.Error(t, err)

	c, err := NewClient("http://catalog.local:8585/", "", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "http://catalog.local:8585", c.baseURL.String())
}

func TestCreateTerm_Success(t *testing.T) {
	var got CreateTermRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/glossaryTerms", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"t-1","name":"Revenue","fullyQualifiedName":"Finance.Revenue"}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "secret", time.Second)
	require.NoError(t, err)

	term, err := c.CreateTerm(context.Background(), CreateTermRequest{Glossary: "Finance", Name: "Revenue"})
	require.NoError(t, err)
	assert.Equal(t, "t-1", term.ID)
	assert.Equal(t, "Finance.Revenue", term.FullyQualifiedName)
	assert.Equal(t, "Finance", got.Glossary)
	assert.Equal(t, "Revenue", got.Name)
}

func TestCreateTerm_NoTokenNoHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":"t-2"}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "", time.Second)
	require.NoError(t, err)
	_, err = c.CreateTerm(context.Background(), CreateTermRequest{Name: "x"})
	require.NoError(t, err)
}

func TestCreateTerm_APIError(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantMessage  string
		conflict     bool
		unauthorized bool
	}{
		{"json message", http.StatusConflict, `{"code":409,"message":"Entity already exists"}`, "Entity already exists", true, false},
		{"plain body", http.StatusBadRequest, "bad term", "bad term", false, false},
		{"empty body", http.StatusUnauthorized, "", "Unauthorized", false, true},
		{"forbidden", http.StatusForbidden, `{"message":"no"}`, "no", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := NewClient(srv.URL, "", time.Second)
			require.NoError(t, err)

			_, err = c.CreateTerm(context.Background(), CreateTermRequest{Name: "x"})
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "want *APIError, got %v", err)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
			assert.Equal(t, tt.conflict, apiErr.IsConflict())
			assert.Equal(t, tt.unauthorized, apiErr.IsUnauthorized())
		})
	}
}

func TestCreateTerm_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "", time.Second)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.CreateTerm(ctx, CreateTermRequest{Name: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

// ---- BuildTermRequest ----

func TestBuildTermRequest(t *testing.T) {
	rec := glossary.TargetRecord{
		Parent:         "Finance",
		Name:           " Revenue ",
		DisplayName:    "Revenue",
		Description:    "Money in",
		Synonyms:       "sales; turnover;",
		RelatedTerms:   "Finance.Cost",
		References:     "wiki;https://wiki/rev",
		Tags:           "PII.None;Tier.Tier1",
		Reviewers:      "user:Alice;team:data",
		Owner:          "bob",
		GlossaryStatus: "Approved",
		Extension:      `id:R1;businessDomain:"Sales, EU";dataReadiness:0. Chưa có dữ liệu`,
	}

	req, err := BuildTermRequest("Finance", rec)
	require.NoError(t, err)

	assert.Equal(t, "Finance", req.Glossary)
	assert.Equal(t, "Revenue", req.Name)
	assert.Equal(t, []string{"sales", "turnover"}, req.Synonyms)
	assert.Equal(t, []string{"Finance.Cost"}, req.RelatedTerms)
	assert.Equal(t, []TermReference{{Name: "wiki", Endpoint: "https://wiki/rev"}}, req.References)
	require.Len(t, req.Tags, 2)
	assert.Equal(t, "Tier.Tier1", req.Tags[1].TagFQN)
	assert.Equal(t, "Classification", req.Tags[1].Source)
	assert.Equal(t, []EntityReference{{Type: "user", Name: "Alice"}, {Type: "team", Name: "data"}}, req.Reviewers)
	assert.Equal(t, []EntityReference{{Type: "user", Name: "bob"}}, req.Owners)
	assert.Equal(t, "Approved", req.Status)
	assert.Equal(t, map[string]string{
		"id":             "R1",
		"businessDomain": "Sales, EU",
		"dataReadiness":  "0. Chưa có dữ liệu",
	}, req.Extension)
}

// packedRecord converts one source row that sets only the given columns.
func packedRecord(t *testing.T, values map[string]string) glossary.TargetRecord {
	t.Helper()
	header := glossary.RequiredColumns()
	cells := make([]glossary.Cell, len(header))
	for i, col := range header {
		if v, ok := values[col]; ok {
			cells[i] = glossary.Text(v)
		}
	}
	recs, err := glossary.Convert(header, [][]glossary.Cell{cells})
	require.NoError(t, err)
	return recs[0]
}

func TestBuildTermRequest_PackedExtension(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
		want   map[string]string
	}{
		{
			name:   "semicolon in readiness",
			values: map[string]string{"name*": "a", "dataReadiness": "đang thu thập;một phần", "ID": "A1"},
			want:   map[string]string{"dataReadiness": "đang thu thập;một phần", "id": "A1"},
		},
		{
			name:   "leading quote",
			values: map[string]string{"name*": "b", "ID": `"A1`, "unit": "Sở Tài chính"},
			want:   map[string]string{"id": `"A1`, "unit": "Sở Tài chính"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := BuildTermRequest("g", packedRecord(t, tt.values))
			require.NoError(t, err)
			assert.Equal(t, tt.want, req.Extension)
		})
	}
}

func TestBuildTermRequest_Errors(t *testing.T) {
	_, err := BuildTermRequest("g", glossary.TargetRecord{Name: "  "})
	assert.ErrorContains(t, err, "name is empty")

	_, err = BuildTermRequest("g", glossary.TargetRecord{Name: "x", References: "only-name"})
	assert.ErrorContains(t, err, "name;endpoint pairs")
}

func TestBuildTermRequest_EmptyOptionalFields(t *testing.T) {
	req, err := BuildTermRequest("g", glossary.TargetRecord{Name: "x"})
	require.NoError(t, err)
	assert.Nil(t, req.Synonyms)
	assert.Nil(t, req.References)
	assert.Nil(t, req.Tags)
	assert.Nil(t, req.Extension)
}
