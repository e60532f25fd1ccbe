package knowledge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const samplePage = `<!DOCTYPE html>
<html>
<head><title>Working with missing data</title></head>
<body>
<nav><a href="index.html">Home</a></nav>
<div role="main">
  <h1>Working with missing data</h1>
  <p>Values considered missing include <code>NaN</code> and <code>None</code>.</p>
  <ul>
    <li>Drop rows with too many gaps</li>
    <li>Impute numeric columns with the median</li>
  </ul>
  <pre>df.fillna(0)</pre>
</div>
<footer>Generated by Sphinx</footer>
</body>
</html>`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestConvertHTMLDir(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()

	writeFile(t, filepath.Join(inDir, "missing_data.html"), samplePage)
	writeFile(t, filepath.Join(inDir, "user_guide", "dedup.html"), samplePage)
	writeFile(t, filepath.Join(inDir, "_static", "style.html"), samplePage)
	writeFile(t, filepath.Join(inDir, "genindex.html"), samplePage)
	writeFile(t, filepath.Join(inDir, "index.html"), samplePage)

	conv := NewConverter(t.TempDir(), outDir, zap.NewNop())
	result, err := conv.ConvertHTMLDir(inDir, outDir, false)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Converted)
	assert.Zero(t, result.Failed)

	content, err := os.ReadFile(filepath.Join(outDir, "missing_data.md"))
	require.NoError(t, err)
	md := string(content)

	assert.Contains(t, md, "# Working with missing data")
	assert.Contains(t, md, "Source: missing_data.html")
	assert.Contains(t, md, "`NaN`")
	assert.Contains(t, md, "- Drop rows with too many gaps")
	assert.Contains(t, md, "```\ndf.fillna(0)\n```")
	assert.NotContains(t, md, "Home")
	assert.NotContains(t, md, "Generated by Sphinx")

	// Mirror the input layout.
	assert.FileExists(t, filepath.Join(outDir, "user_guide", "dedup.md"))

	// Excluded inputs produce no output.
	assert.NoFileExists(t, filepath.Join(outDir, "_static", "style.md"))
	assert.NoFileExists(t, filepath.Join(outDir, "genindex.md"))
	assert.NoFileExists(t, filepath.Join(outDir, "index.md"))
}

func TestConvertHTMLDirSkipsUpToDate(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	writeFile(t, filepath.Join(inDir, "page.html"), samplePage)

	conv := NewConverter(t.TempDir(), outDir, zap.NewNop())

	first, err := conv.ConvertHTMLDir(inDir, outDir, false)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Converted)

	second, err := conv.ConvertHTMLDir(inDir, outDir, false)
	require.NoError(t, err)
	assert.Zero(t, second.Converted)
	assert.Equal(t, 1, second.Skipped)

	forced, err := conv.ConvertHTMLDir(inDir, outDir, true)
	require.NoError(t, err)
	assert.Equal(t, 1, forced.Converted)
}

func TestMainContainerFallsBackToBody(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	writeFile(t, filepath.Join(inDir, "bare.html"),
		`<html><head><title>Bare</title></head><body><p>Just a paragraph.</p></body></html>`)

	conv := NewConverter(t.TempDir(), outDir, zap.NewNop())
	_, err := conv.ConvertHTMLDir(inDir, outDir, false)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(outDir, "bare.md"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "Just a paragraph.")
}
