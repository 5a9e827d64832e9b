package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/glossary/internal/glossary"
)

// fakeCreator records calls and fails for configured names.
type fakeCreator struct {
	mu       sync.Mutex
	names    []string
	failFor  map[string]error
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
}

func (f *fakeCreator) CreateTerm(ctx context.Context, req CreateTermRequest) (*Term, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.names = append(f.names, req.Name)
	f.mu.Unlock()

	if err, ok := f.failFor[req.Name]; ok {
		return nil, err
	}
	return &Term{ID: "id-" + req.Name, Name: req.Name}, nil
}

func records(names ...string) []glossary.TargetRecord {
	out := make([]glossary.TargetRecord, len(names))
	for i, n := range names {
		out[i] = glossary.TargetRecord{Name: n}
	}
	return out
}

func TestImport_OrderAndIsolation(t *testing.T) {
	fc := &fakeCreator{failFor: map[string]error{
		"b": &APIError{StatusCode: 409, Message: "exists"},
	}}
	im := NewImporter(fc, "Finance", 2)

	statuses := im.Import(context.Background(), records("a", "b", "c", ""))
	require.Len(t, statuses, 4)

	assert.Equal(t, 1, statuses[0].Row)
	assert.True(t, statuses[0].OK)
	assert.Equal(t, "id-a", statuses[0].TermID)

	assert.False(t, statuses[1].OK)
	assert.Contains(t, statuses[1].Error, "exists")

	assert.True(t, statuses[2].OK)
	assert.Equal(t, 3, statuses[2].Row)

	// empty name is rejected before any request
	assert.False(t, statuses[3].OK)
	assert.Contains(t, statuses[3].Error, "name is empty")
	assert.ElementsMatch(t, []string{"a", "b", "c"}, fc.names)

	ok, failed := Summarize(statuses)
	assert.Equal(t, 2, ok)
	assert.Equal(t, 2, failed)
}

func TestImport_BoundedConcurrency(t *testing.T) {
	fc := &fakeCreator{delay: 10 * time.Millisecond}
	im := NewImporter(fc, "g", 3)

	statuses := im.Import(context.Background(), records("a", "b", "c", "d", "e", "f", "g", "h"))
	ok, _ := Summarize(statuses)
	assert.Equal(t, 8, ok)
	assert.LessOrEqual(t, fc.peak.Load(), int32(3))
}

func TestImport_CancelledContext(t *testing.T) {
	fc := &fakeCreator{}
	im := NewImporter(fc, "g", 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	statuses := im.Import(ctx, records("a", "b"))
	for _, st := range statuses {
		assert.False(t, st.OK)
		assert.Equal(t, context.Canceled.Error(), st.Error)
	}
	assert.Empty(t, fc.names)
}

func TestImport_Empty(t *testing.T) {
	im := NewImporter(&fakeCreator{}, "g", 0)
	assert.Equal(t, DefaultConcurrency, im.concurrency)
	assert.Empty(t, im.Import(context.Background(), nil))
}

type nilTermCreator struct{}

func (nilTermCreator) CreateTerm(context.Context, CreateTermRequest) (*Term, error) {
	return nil, nil
}

func TestImport_NilTerm(t *testing.T) {
	statuses := NewImporter(nilTermCreator{}, "g", 1).Import(context.Background(), records("a"))

	require.Len(t, statuses, 1)
	assert.True(t, statuses[0].OK)
	assert.Empty(t, statuses[0].TermID)
}

func TestSummarize(t *testing.T) {
	ok, failed := Summarize([]RowStatus{{OK: true}, {OK: false, Error: errors.New("x").Error()}})
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, failed)
}
