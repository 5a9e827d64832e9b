package glossary

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Cell is one raw input value. Valid is false for empty, null and NaN cells.
type Cell struct {
	Value string
	Valid bool
}

// Text returns a present cell holding s. An empty s is still present.
func Text(s string) Cell {
	return Cell{Value: s, Valid: true}
}

// Null is the absent cell.
var Null = Cell{}

// String returns the cell value, or "" when the cell is absent.
func (c Cell) String() string {
	if !c.Valid {
		return ""
	}
	return c.Value
}

// CellOf converts a decoded value (JSON, spreadsheet, CSV) into a Cell.
// nil and NaN become Null, numbers use their shortest decimal form and
// anything else is formatted with fmt.
func CellOf(v any) Cell {
	switch x := v.(type) {
	case nil:
		return Null
	case Cell:
		return x
	case string:
		return Text(x)
	case fmt.Stringer:
		return Text(x.String())
	case float64:
		if math.IsNaN(x) {
			return Null
		}
		return Text(strconv.FormatFloat(x, 'f', -1, 64))
	case float32:
		if math.IsNaN(float64(x)) {
			return Null
		}
		return Text(strconv.FormatFloat(float64(x), 'f', -1, 32))
	case int:
		return Text(strconv.Itoa(x))
	case int64:
		return Text(strconv.FormatInt(x, 10))
	case int32:
		return Text(strconv.FormatInt(int64(x), 10))
	case uint64:
		return Text(strconv.FormatUint(x, 10))
	case bool:
		return Text(strconv.FormatBool(x))
	default:
		return Text(fmt.Sprint(x))
	}
}

// Field indexes into SourceRow.Fields and RecordColumns.
const (
	FieldParent = iota
	FieldName
	FieldDisplayName
	FieldDescription
	FieldSynonyms
	FieldRelatedTerms
	FieldReferences
	FieldTags
	FieldReviewers
	FieldOwner
	FieldGlossaryStatus

	FieldCount
)

// RecordColumns are the source columns projected 1:1 onto a TargetRecord.
// They double as the first output columns.
var RecordColumns = [FieldCount]string{
	FieldParent:         "parent",
	FieldName:           "name*",
	FieldDisplayName:    "displayName",
	FieldDescription:    "description",
	FieldSynonyms:       "synonyms",
	FieldRelatedTerms:   "relatedTerms",
	FieldReferences:     "references",
	FieldTags:           "tags",
	FieldReviewers:      "reviewers",
	FieldOwner:          "owner",
	FieldGlossaryStatus: "glossaryStatus",
}

// ExtensionColumn is the last output column, holding the packed attributes.
const ExtensionColumn = "extension"

// OutputHeader returns the header row of the converted CSV.
func OutputHeader() []string {
	header := make([]string, 0, FieldCount+1)
	header = append(header, RecordColumns[:]...)
	return append(header, ExtensionColumn)
}

// RequiredColumns returns every column a source header must contain.
func RequiredColumns() []string {
	cols := make([]string, 0, FieldCount+AttributeCount)
	cols = append(cols, RecordColumns[:]...)
	for _, spec := range Attributes {
		cols = append(cols, spec.Column)
	}
	return cols
}

// SourceRow is one validated input row. It is built by Schema.Row, so every
// required column has a slot even when its cell is absent.
type SourceRow struct {
	Fields     [FieldCount]Cell
	Attributes [AttributeCount]Cell
}

// Attribute returns the raw cell for a packable attribute key.
func (r SourceRow) Attribute(key string) (Cell, bool) {
	i, ok := attributeIndex[key]
	if !ok {
		return Null, false
	}
	return r.Attributes[i], true
}

// TargetRecord is one output row in the catalog import format.
type TargetRecord struct {
	Parent         string `json:"parent"`
	Name           string `json:"name"`
	DisplayName    string `json:"displayName"`
	Description    string `json:"description"`
	Synonyms       string `json:"synonyms"`
	RelatedTerms   string `json:"relatedTerms"`
	References     string `json:"references"`
	Tags           string `json:"tags"`
	Reviewers      string `json:"reviewers"`
	Owner          string `json:"owner"`
	GlossaryStatus string `json:"glossaryStatus"`
	Extension      string `json:"extension"`
}

// Values returns the record in output column order.
func (r TargetRecord) Values() []string {
	return []string{
		r.Parent,
		r.Name,
		r.DisplayName,
		r.Description,
		r.Synonyms,
		r.RelatedTerms,
		r.References,
		r.Tags,
		r.Reviewers,
		r.Owner,
		r.GlossaryStatus,
		r.Extension,
	}
}

// SourceRow rebuilds the non-extension part of a source row from the record.
// Projecting the result again yields the same fields.
func (r TargetRecord) SourceRow() SourceRow {
	var row SourceRow
	for i, v := range r.Values()[:FieldCount] {
		row.Fields[i] = Text(v)
	}
	return row
}

// SchemaError reports required columns missing from a source header.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required column: %s", strings.Join(e.Missing, ", "))
}
