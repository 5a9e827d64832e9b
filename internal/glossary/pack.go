package glossary

import "strings"

// Separators of the packed attribute string.
const (
	pairSeparator  = ";"
	valueSeparator = ":"
)

// quoteTriggers are the characters that force a value into quotes.
const quoteTriggers = " ,;:"

// Pack serializes the row's packable attributes as key:value pairs joined by
// ';', in Attributes order. Absent attributes are left out entirely, so a row
// without any attribute packs to "".
func Pack(row SourceRow) string {
	var b strings.Builder
	for i, spec := range Attributes {
		c := row.Attributes[i]
		if !c.Valid {
			continue
		}

		v := c.Value
		if spec.Normalize != nil {
			v = spec.Normalize(v)
		}
		v = Quote(spec.Key, v)

		if b.Len() > 0 {
			b.WriteString(pairSeparator)
		}
		b.WriteString(spec.Key)
		b.WriteString(valueSeparator)
		b.WriteString(v)
	}
	return b.String()
}

// Quote applies the quoting rule for key to an already normalized value.
// Quoting-exempt keys such as dataReadiness are returned unchanged.
func Quote(key, v string) string {
	if spec, ok := LookupAttribute(key); ok && spec.NoQuote {
		return v
	}
	return QuoteValue(v)
}

// QuoteValue wraps v in double quotes, doubling embedded quotes, when it
// contains a space, comma, semicolon or colon. Other values are returned as is.
func QuoteValue(v string) string {
	if !strings.ContainsAny(v, quoteTriggers) {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}
