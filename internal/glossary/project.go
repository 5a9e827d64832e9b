package glossary

import (
	"sort"
	"strings"
)

// Schema resolves the required columns of one source header. It is built once
// per table, before any row is read.
type Schema struct {
	header []string
	fields [FieldCount]int
	attrs  [AttributeCount]int
}

// NewSchema trims every header name and locates the required columns.
// Matching is exact and case-sensitive. When a name repeats, the first
// occurrence wins. A *SchemaError naming every missing column is returned
// if any required column is absent.
func NewSchema(header []string) (*Schema, error) {
	s := &Schema{header: make([]string, len(header))}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		s.header[i] = name
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}

	var missing []string
	lookup := func(col string) int {
		pos, ok := idx[col]
		if !ok {
			missing = append(missing, col)
			return -1
		}
		return pos
	}

	for i, col := range RecordColumns {
		s.fields[i] = lookup(col)
	}
	for i, spec := range Attributes {
		s.attrs[i] = lookup(spec.Column)
	}

	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}
	return s, nil
}

// Header returns the trimmed header names.
func (s *Schema) Header() []string {
	return s.header
}

// Row builds a typed SourceRow from cells in header order. Cells past the end
// of a short row are treated as absent and extra cells are ignored.
func (s *Schema) Row(cells []Cell) SourceRow {
	var row SourceRow
	for i, pos := range s.fields {
		row.Fields[i] = cellAt(cells, pos)
	}
	for i, pos := range s.attrs {
		row.Attributes[i] = cellAt(cells, pos)
	}
	return row
}

func cellAt(cells []Cell, pos int) Cell {
	if pos < 0 || pos >= len(cells) {
		return Null
	}
	return cells[pos]
}

// RowFromMap builds a SourceRow from a column-name mapping, validating it the
// same way as a table header. Values are converted with CellOf.
func RowFromMap(m map[string]any) (SourceRow, error) {
	header := make([]string, 0, len(m))
	for k := range m {
		header = append(header, k)
	}
	sort.Strings(header)

	cells := make([]Cell, len(header))
	for i, k := range header {
		cells[i] = CellOf(m[k])
	}

	schema, err := NewSchema(header)
	if err != nil {
		return SourceRow{}, err
	}
	return schema.Row(cells), nil
}

// Project fills the fixed, non-extension fields of a TargetRecord. Absent
// values become "".
func Project(row SourceRow) TargetRecord {
	f := row.Fields
	return TargetRecord{
		Parent:         f[FieldParent].String(),
		Name:           f[FieldName].String(),
		DisplayName:    f[FieldDisplayName].String(),
		Description:    f[FieldDescription].String(),
		Synonyms:       f[FieldSynonyms].String(),
		RelatedTerms:   f[FieldRelatedTerms].String(),
		References:     f[FieldReferences].String(),
		Tags:           f[FieldTags].String(),
		Reviewers:      f[FieldReviewers].String(),
		Owner:          f[FieldOwner].String(),
		GlossaryStatus: f[FieldGlossaryStatus].String(),
	}
}
