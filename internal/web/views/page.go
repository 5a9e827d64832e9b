package views

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

const styles = `
body{font-family:system-ui,sans-serif;margin:0;background:#f6f7f9;color:#1f2933}
main{max-width:1100px;margin:2rem auto;padding:0 1rem}
h1{font-size:1.5rem;margin-bottom:.25rem}
.muted{color:#616e7c;font-size:.9rem}
.card{background:#fff;border:1px solid #e4e7eb;border-radius:6px;padding:1rem 1.25rem;margin-top:1rem}
.btn{background:#2563eb;color:#fff;border:0;border-radius:4px;padding:.5rem 1rem;cursor:pointer;text-decoration:none;display:inline-block}
.alert{border-left:4px solid #dc2626;background:#fef2f2;padding:.75rem 1rem;margin-top:1rem}
.alert .code{font-family:monospace;color:#991b1b}
table{border-collapse:collapse;width:100%;font-size:.8rem;margin-top:.75rem}
th,td{border:1px solid #e4e7eb;padding:.3rem .4rem;text-align:left;vertical-align:top}
th{background:#f1f5f9}
.scroll{overflow-x:auto}
`

// uploadScript posts the form in the background and swaps the result in.
const uploadScript = `
document.getElementById('upload').addEventListener('submit', async function (e) {
  e.preventDefault();
  const target = document.getElementById('result');
  target.textContent = 'Converting…';
  const resp = await fetch(this.action, {method: 'POST', body: new FormData(this), headers: {'HX-Request': 'true'}});
  target.innerHTML = await resp.text();
});
`

// UploadPage is the data shown on the index page.
type UploadPage struct {
	MaxFileSize   int64
	PreviewRows   int
	ImportEnabled bool
	Glossary      string
}

// Page wraps body in the HTML document shell.
func Page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
		h.text(title)
		h.raw(`</title><style>` + styles + `</style></head><body><main>`)
		if h.err != nil {
			return h.err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		h.raw(`</main></body></html>`)
		return h.err
	})
}

// Index renders the upload form.
func Index(p UploadPage) templ.Component {
	return Page("Glossary converter", templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<h1>Glossary converter</h1><p class="muted">`)
		h.text("Upload a glossary workbook (.xlsx). The first sheet is converted to the bulk-import CSV.")
		h.raw(`</p><div class="card"><form id="upload" method="post" action="/convert" enctype="multipart/form-data">`)
		h.raw(`<input type="file" name="file" accept=".xlsx,.xlsm,.csv" required> `)
		h.raw(`<button class="btn" type="submit">Convert</button><p class="muted">`)
		h.text(fmt.Sprintf("Maximum file size %s. The preview shows the first %d rows.", formatBytes(p.MaxFileSize), p.PreviewRows))
		h.raw(`</p></form>`)
		if p.ImportEnabled {
			h.raw(`<p class="muted">`)
			h.text(fmt.Sprintf("Direct import to glossary %q is available at POST /api/import.", p.Glossary))
			h.raw(`</p>`)
		}
		h.raw(`</div><div id="result"></div><script>` + uploadScript + `</script>`)
		return h.err
	}))
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
