package report

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

const printCSS = `@page { size: A4; margin: 15mm; }
body { font-family: Helvetica, Arial, sans-serif; font-size: 10pt; color: #222; }
h1 { font-size: 18pt; margin: 0 0 4pt; }
h2 { font-size: 13pt; margin: 14pt 0 4pt; }
table { border-collapse: collapse; }
th, td { border: 1px solid #999; padding: 2pt 6pt; }
th { background: #e6ecf5; }
td.num { text-align: right; }
thead { display: table-header-group; }
tr { page-break-inside: avoid; }
.meta, .notice { color: #555; }
.notice { font-style: italic; }`

// HTMLRenderer writes a standalone HTML page styled for printing.
type HTMLRenderer struct{}

func (HTMLRenderer) Render(w io.Writer, doc Document) error {
	if err := reportPage(doc).Render(context.Background(), w); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

func reportPage(doc Document) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>`+
			templ.EscapeString(doc.Title)+`</title><style>`+printCSS+`</style></head><body>`); err != nil {
			return err
		}

		header := fmt.Sprintf(`<h1>%s</h1><p class="meta">Batch #%d &middot; %s<br>Generated %s</p>`,
			templ.EscapeString(doc.Title), doc.BatchID,
			templ.EscapeString(doc.FileName), templ.EscapeString(doc.GeneratedAt))
		if _, err := io.WriteString(w, header); err != nil {
			return err
		}

		for _, c := range []templ.Component{
			pairTable("Summary", doc.Summary),
			pairTable("Equipment Type Distribution", doc.Types),
			detailTable(doc),
		} {
			if err := c.Render(ctx, w); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

func pairTable(title string, rows []Row) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, "<h2>"+templ.EscapeString(title)+"</h2><table><tbody>"); err != nil {
			return err
		}
		for _, r := range rows {
			line := `<tr><th scope="row">` + templ.EscapeString(r.Label) + `</th><td class="num">` +
				templ.EscapeString(r.Value) + `</td></tr>`
			if _, err := io.WriteString(w, line); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</tbody></table>")
		return err
	})
}

func detailTable(doc Document) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<h2>Equipment Details</h2><table><thead><tr>`); err != nil {
			return err
		}
		for _, col := range DetailColumns {
			if _, err := io.WriteString(w, "<th>"+templ.EscapeString(col)+"</th>"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "</tr></thead><tbody>"); err != nil {
			return err
		}
		for _, row := range doc.Details {
			if _, err := io.WriteString(w, "<tr>"); err != nil {
				return err
			}
			for i, cell := range row {
				open := "<td>"
				if i >= 2 {
					open = `<td class="num">`
				}
				if _, err := io.WriteString(w, open+templ.EscapeString(cell)+"</td>"); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, "</tr>"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "</tbody></table>"); err != nil {
			return err
		}
		if doc.Notice != "" {
			notice := `<p class="notice" data-total="` + strconv.Itoa(doc.TotalRecords) + `">` +
				templ.EscapeString(doc.Notice) + `</p>`
			if _, err := io.WriteString(w, notice); err != nil {
				return err
			}
		}
		return nil
	})
}
