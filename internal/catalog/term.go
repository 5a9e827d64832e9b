package catalog

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/glossary/internal/glossary"
)

// CreateTermRequest is the body of a glossary term create call.
type CreateTermRequest struct {
	Glossary     string            `json:"glossary"`
	Parent       string            `json:"parent,omitempty"`
	Name         string            `json:"name"`
	DisplayName  string            `json:"displayName,omitempty"`
	Description  string            `json:"description"`
	Synonyms     []string          `json:"synonyms,omitempty"`
	RelatedTerms []string          `json:"relatedTerms,omitempty"`
	References   []TermReference   `json:"references,omitempty"`
	Tags         []TagLabel        `json:"tags,omitempty"`
	Reviewers    []EntityReference `json:"reviewers,omitempty"`
	Owners       []EntityReference `json:"owners,omitempty"`
	Status       string            `json:"status,omitempty"`
	Extension    map[string]string `json:"extension,omitempty"`
}

// TermReference is an external link attached to a term.
type TermReference struct {
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
}

// TagLabel attaches a classification tag.
type TagLabel struct {
	TagFQN    string `json:"tagFQN"`
	Source    string `json:"source"`
	LabelType string `json:"labelType"`
	State     string `json:"state"`
}

// EntityReference points to a user or team.
type EntityReference struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// Term is the subset of the created entity the importer records.
type Term struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	FullyQualifiedName string `json:"fullyQualifiedName"`
}

// BuildTermRequest maps one converted record onto a create request for the
// named glossary. List cells use ';' like the bulk CSV format: references are
// name;endpoint pairs and reviewers/owner are type:name entries.
func BuildTermRequest(glossaryName string, rec glossary.TargetRecord) (CreateTermRequest, error) {
	if strings.TrimSpace(rec.Name) == "" {
		return CreateTermRequest{}, fmt.Errorf("term name is empty")
	}

	refs, err := parseReferences(rec.References)
	if err != nil {
		return CreateTermRequest{}, err
	}

	ext, err := glossary.Unpack(rec.Extension)
	if err != nil {
		return CreateTermRequest{}, err
	}
	if len(ext) == 0 {
		ext = nil
	}

	req := CreateTermRequest{
		Glossary:     glossaryName,
		Parent:       strings.TrimSpace(rec.Parent),
		Name:         strings.TrimSpace(rec.Name),
		DisplayName:  strings.TrimSpace(rec.DisplayName),
		Description:  rec.Description,
		Synonyms:     splitList(rec.Synonyms),
		RelatedTerms: splitList(rec.RelatedTerms),
		References:   refs,
		Reviewers:    parseEntityRefs(rec.Reviewers),
		Owners:       parseEntityRefs(rec.Owner),
		Status:       strings.TrimSpace(rec.GlossaryStatus),
		Extension:    ext,
	}
	for _, fqn := range splitList(rec.Tags) {
		req.Tags = append(req.Tags, TagLabel{
			TagFQN:    fqn,
			Source:    "Classification",
			LabelType: "Manual",
			State:     "Confirmed",
		})
	}
	return req, nil
}

// splitList splits a ';'-separated cell, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseReferences(s string) ([]TermReference, error) {
	parts := splitList(s)
	if len(parts)%2 != 0 {
		return nil, fmt.Errorf("references must be name;endpoint pairs, got %d values", len(parts))
	}

	refs := make([]TermReference, 0, len(parts)/2)
	for i := 0; i < len(parts); i += 2 {
		refs = append(refs, TermReference{Name: parts[i], Endpoint: parts[i+1]})
	}
	if len(refs) == 0 {
		return nil, nil
	}
	return refs, nil
}

// parseEntityRefs reads "user:alice;team:data". Entries without a type are users.
func parseEntityRefs(s string) []EntityReference {
	var refs []EntityReference
	for _, part := range splitList(s) {
		typ, name, ok := strings.Cut(part, ":")
		if !ok {
			typ, name = "user", part
		}
		refs = append(refs, EntityReference{
			Type: strings.ToLower(strings.TrimSpace(typ)),
			Name: strings.TrimSpace(name),
		})
	}
	return refs
}
