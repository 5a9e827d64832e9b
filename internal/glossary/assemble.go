package glossary

// Assemble builds the complete output record for one row.
func Assemble(row SourceRow) TargetRecord {
	rec := Project(row)
	rec.Extension = Pack(row)
	return rec
}

// Convert validates header and assembles one record per row, in input order.
// A schema failure returns no records at all.
func Convert(header []string, rows [][]Cell) ([]TargetRecord, error) {
	schema, err := NewSchema(header)
	if err != nil {
		return nil, err
	}

	records := make([]TargetRecord, len(rows))
	for i, cells := range rows {
		records[i] = Assemble(schema.Row(cells))
	}
	return records, nil
}
