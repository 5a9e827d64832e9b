package glossary

// normalize.go holds the per-attribute rule table used by the packer.
//
// Each packable attribute has exactly one AttributeSpec. The table order is
// the serialization order, so reordering entries changes the output format.

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Enumerated dataReadiness values understood by the catalog.
const (
	ReadinessNoData       = "0. Chưa có dữ liệu"
	ReadinessUnsystematic = "1. Có dữ liệu, chưa hệ thống"
)

// Patterns that map a free-form dataReadiness value onto ReadinessUnsystematic.
var readinessUnsystematicPatterns = []string{
	"chưa hệ thống",
	"1. có dữ liệu",
}

// AttributeSpec describes one packable attribute.
type AttributeSpec struct {
	Key       string              // Name written into the packed string
	Column    string              // Source column header
	Normalize func(string) string // Optional cleanup, nil means identity
	NoQuote   bool                // Never quote, whatever the value contains
}

// AttributeCount is the number of packable attributes.
const AttributeCount = 16

// Attributes is the fixed, ordered packable attribute set.
var Attributes = [AttributeCount]AttributeSpec{
	{Key: "codeDocuments", Column: "codeDocuments", Normalize: NormalizeCodeDocuments},
	{Key: "confidentialData", Column: "confidentialData"},
	{Key: "corePersonalData", Column: "corePersonalData"},
	{Key: "dataReadiness", Column: "dataReadiness", Normalize: NormalizeDataReadiness, NoQuote: true},
	{Key: "dataSource", Column: "dataSource"},
	{Key: "frequency", Column: "frequency"},
	{Key: "functionsAndDuties", Column: "functionsAndDuties"},
	{Key: "id", Column: "ID"},
	{Key: "importantData", Column: "importantData"},
	{Key: "masterData", Column: "masterData"},
	{Key: "nameSurveyUnit", Column: "nameSurveyUnit"},
	{Key: "nationalConfidentialData", Column: "nationalConfidentialData"},
	{Key: "openData", Column: "openData"},
	{Key: "referenceData", Column: "referenceData"},
	{Key: "sensitivePersonalData", Column: "sensitivePersonalData"},
	{Key: "unit", Column: "unit"},
}

var attributeIndex = func() map[string]int {
	idx := make(map[string]int, AttributeCount)
	for i, spec := range Attributes {
		idx[spec.Key] = i
	}
	return idx
}()

// LookupAttribute returns the spec for key.
func LookupAttribute(key string) (AttributeSpec, bool) {
	i, ok := attributeIndex[key]
	if !ok {
		return AttributeSpec{}, false
	}
	return Attributes[i], true
}

// Normalize converts a raw attribute cell to its canonical string.
// An absent cell is normalized as the empty string. Unknown keys pass through.
func Normalize(key string, c Cell) string {
	v := c.String()
	spec, ok := LookupAttribute(key)
	if !ok || spec.Normalize == nil {
		return v
	}
	return spec.Normalize(v)
}

// lineBreaks replaces CRLF as one break, then lone CR and LF.
var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// NormalizeCodeDocuments replaces every line break with a single space so the
// value stays on one line inside the packed string.
func NormalizeCodeDocuments(s string) string {
	return lineBreaks.Replace(s)
}

// NormalizeDataReadiness maps free-form readiness text onto the catalog's
// enumeration. Values matching no pattern are returned lower-cased and trimmed.
func NormalizeDataReadiness(s string) string {
	v := strings.TrimSpace(strings.ToLower(s))
	if v == "" {
		return ReadinessNoData
	}

	// Spreadsheets often carry decomposed Vietnamese diacritics.
	composed := norm.NFC.String(v)
	for _, p := range readinessUnsystematicPatterns {
		if strings.Contains(composed, p) {
			return ReadinessUnsystematic
		}
	}
	return v
}
