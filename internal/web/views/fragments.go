package views

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/glossary/internal/glossary"
)

// ConvertResult is the data behind the conversion fragment.
type ConvertResult struct {
	FileName  string
	Sheet     string
	TotalRows int
	Preview   []glossary.TargetRecord
	CSV       []byte
}

// DownloadHref embeds csv in a data URL for the download link.
func DownloadHref(csv []byte) string {
	return "data:text/csv;charset=utf-8;base64," + base64.StdEncoding.EncodeToString(csv)
}

// ConvertFragment shows the preview table and the download link.
func ConvertFragment(res ConvertResult) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<div class="card"><p>`)
		h.text(fmt.Sprintf("Converted %d rows from sheet %q. Showing the first %d.", res.TotalRows, res.Sheet, len(res.Preview)))
		h.raw(`</p><a class="btn"`)
		h.attr("href", DownloadHref(res.CSV))
		h.attr("download", res.FileName)
		h.raw(`>Download `)
		h.text(res.FileName)
		h.raw(`</a><div class="scroll"><table><thead><tr>`)
		for _, col := range glossary.OutputHeader() {
			h.raw(`<th>`)
			h.text(col)
			h.raw(`</th>`)
		}
		h.raw(`</tr></thead><tbody>`)
		for _, rec := range res.Preview {
			h.raw(`<tr>`)
			for _, v := range rec.Values() {
				h.raw(`<td>`)
				h.text(v)
				h.raw(`</td>`)
			}
			h.raw(`</tr>`)
		}
		h.raw(`</tbody></table></div></div>`)
		return h.err
	})
}

// ErrorAlert renders a user-facing error with its support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<div class="alert" role="alert"><strong>`)
		h.text(message)
		h.raw(`</strong>`)
		if action != "" {
			h.raw(`<div>`)
			h.text(action)
			h.raw(`</div>`)
		}
		if code != "" {
			h.raw(`<div class="code">Code: `)
			h.text(code)
			h.raw(`</div>`)
		}
		h.raw(`</div>`)
		return h.err
	})
}
