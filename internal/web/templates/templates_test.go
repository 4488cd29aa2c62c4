package templates

import (
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/sheetview/internal/core"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var b strings.Builder
	require.NoError(t, c.Render(context.Background(), &b))
	return b.String()
}

func sampleView() core.SessionView {
	return core.SessionView{
		ID:        "sess-1",
		Source:    "https://example.com/book.xlsx",
		Sheets:    []core.SheetSummary{{Name: "Data", RowCount: 3, Columns: 3}, {Name: "Other", RowCount: 0}},
		SheetName: "Data",
		Columns:   []string{"A", "B", "C"},
		Filter: &core.FilterSpec{
			PrimaryColumn:    "A",
			OperationColumns: []string{"B", "C"},
			Type:             core.OpTypeOr,
			Operation:        core.OpIsNotNull,
		},
		TotalRows: 3,
		ShownRows: 2,
		Table: core.DisplayTable{
			Headers: []string{"A", "B", "C"},
			Rows:    [][]string{{"1", "NULL", "3"}, {"2", "5", "NULL"}},
		},
	}
}

func TestTable(t *testing.T) {
	out := render(t, Table(core.DisplayTable{
		Headers: []string{"<b>name</b>"},
		Rows:    [][]string{{"a & b"}, {"NULL"}},
	}))

	assert.Contains(t, out, "<th>&lt;b&gt;name&lt;/b&gt;</th>")
	assert.Contains(t, out, "<td>a &amp; b</td>")
	assert.Contains(t, out, `<td class="null">NULL</td>`)
	assert.NotContains(t, out, "No data available")
}

func TestTable_NoData(t *testing.T) {
	out := render(t, Table(core.DisplayTable{NoData: true}))
	assert.Contains(t, out, "No data available")
	assert.NotContains(t, out, "<table")
}

func TestViewer(t *testing.T) {
	out := render(t, Viewer(sampleView(), nil))

	assert.True(t, strings.HasPrefix(out, `<section id="viewer"`))
	assert.Contains(t, out, `<option value="Data" selected>Data (3 rows)</option>`)
	assert.Contains(t, out, `<option value="Other">Other (0 rows)</option>`)
	assert.Contains(t, out, `name="primaryColumn" list="columns" value="A"`)
	assert.Contains(t, out, `value="B, C"`)
	assert.Contains(t, out, `<option value="or" selected>OR</option>`)
	assert.Contains(t, out, `<option value="notnull" selected>IS NOT NULL</option>`)
	assert.Contains(t, out, `action="/s/sess-1/export"`)
	assert.Contains(t, out, "Showing 2 of 3 rows")
	assert.NotContains(t, out, "<html")
}

func TestViewer_DefaultsWithoutFilter(t *testing.T) {
	v := sampleView()
	v.Filter = nil

	out := render(t, Viewer(v, &Notice{Message: "Primary column is required", Code: "FLT001"}))

	assert.Contains(t, out, `<option value="and" selected>AND</option>`)
	assert.Contains(t, out, `<option value="notnull" selected>IS NOT NULL</option>`)
	assert.Contains(t, out, "Primary column is required")
	assert.Contains(t, out, "Code: FLT001")
}

func TestViewerPage(t *testing.T) {
	out := render(t, ViewerPage(sampleView(), nil))

	assert.True(t, strings.HasPrefix(out, "<!doctype html>"))
	assert.Contains(t, out, "<title>Data - sheetview</title>")
	assert.Contains(t, out, `<section id="viewer"`)
}

func TestLanding(t *testing.T) {
	out := render(t, Landing(`https://x/"q".xlsx`, false, nil))

	assert.Contains(t, out, `action="/load"`)
	assert.Contains(t, out, `value="https://x/&#34;q&#34;.xlsx"`)
	assert.NotContains(t, out, "alert")
	assert.NotContains(t, out, `hx-trigger="load"`)
}

func TestLanding_AutoLoad(t *testing.T) {
	out := render(t, Landing("https://example.com/book.xlsx", true, nil))

	assert.Contains(t, out, `hx-post="/load" hx-trigger="load"`)
	assert.Contains(t, out, `<input type="hidden" name="fileUrl" value="https://example.com/book.xlsx">`)
	assert.Contains(t, out, `placeholder="https://example.com/book.xlsx" value="https://example.com/book.xlsx"`)

	out = render(t, Landing("", true, nil))
	assert.NotContains(t, out, `hx-trigger="load"`)
}

func TestLayout_HTMXSwapsErrors(t *testing.T) {
	out := render(t, Layout("t", templ.NopComponent))

	assert.Contains(t, out, `<meta name="htmx-config" content="{&#34;responseHandling&#34;`)
	assert.Contains(t, out, "<main></main>")
}

func TestLoadForm_SanitizesAction(t *testing.T) {
	out := render(t, LoadForm("javascript:alert(1)", ""))
	assert.NotContains(t, out, "javascript:")
}

func TestErrorAlert(t *testing.T) {
	out := render(t, ErrorAlert("Bad <input>", "", "ERR000"))

	assert.Contains(t, out, "Bad &lt;input&gt;")
	assert.NotContains(t, out, "alert-action")
	assert.Contains(t, out, "Code: ERR000")
}
