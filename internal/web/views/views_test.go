package views

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_RendersStripedTableAndLink(t *testing.T) {
	var buf bytes.Buffer
	err := Result(ResultPage{
		FileName:    "<b>x</b>.csv",
		CleanedName: "cleaned_data.csv",
		DownloadURL: "/download/abc/cleaned_data.csv",
		Columns:     []string{"country", "cases"},
		Rows:        [][]string{{"Usa", "5"}, {"France & Co", "1"}},
		Summary:     []SummaryItem{{Label: "Rows in", Value: "3"}},
	}).Render(context.Background(), &buf)
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, `class="dataframe table table-striped"`)
	assert.Contains(t, html, `<th></th><th>country</th><th>cases</th>`)
	assert.Contains(t, html, `<tr><th>0</th><td>Usa</td><td>5</td></tr>`)
	assert.Contains(t, html, `<td>France &amp; Co</td>`)
	assert.Contains(t, html, `href="/download/abc/cleaned_data.csv"`)
	assert.Contains(t, html, `&lt;b&gt;x&lt;/b&gt;.csv`)
	assert.Contains(t, html, `<dt>Rows in</dt><dd>3</dd>`)
}

func TestIndex_HasFileField(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Index("32 MiB").Render(context.Background(), &buf))

	html := buf.String()
	assert.Contains(t, html, `enctype="multipart/form-data"`)
	assert.Contains(t, html, `name="file"`)
	assert.Contains(t, html, "32 MiB")
}

func TestErrorAlert_Escapes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ErrorAlert("bad <input>", "retry", "FILE002").Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "bad &lt;input&gt;")
	assert.Contains(t, buf.String(), "Code: FILE002")
}
