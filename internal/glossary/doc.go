// Package glossary converts spreadsheet rows describing glossary terms into
// the flat CSV layout accepted by the metadata catalog's bulk import.
//
// # Pipeline
//
// A source header is validated once with [NewSchema]. Every data row is then
// turned into a typed [SourceRow] and assembled into a [TargetRecord]:
//
//	schema, err := glossary.NewSchema(header)
//	if err != nil {
//	    // *glossary.SchemaError lists the missing columns
//	}
//	rec := glossary.Assemble(schema.Row(cells))
//
// [Project] copies the fixed columns, substituting "" for absent cells.
// [Pack] serializes the sixteen [Attributes] into the extension field as
// key:value pairs joined by ';'. [Encoder] writes the final CSV.
//
// # Packed attributes
//
// Attributes are emitted in table order and only when present. Values are
// normalized per key (see [NormalizeCodeDocuments], [NormalizeDataReadiness])
// and quoted when they contain a space, comma, semicolon or colon.
//
// dataReadiness is never quoted. Its enumerated value
// "1. Có dữ liệu, chưa hệ thống" therefore carries a bare comma inside the
// extension field. The catalog accepts this today, and [Unpack] tolerates it.
//
// All functions are pure and safe for concurrent use.
package glossary
