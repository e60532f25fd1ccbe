package knowledge

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// ConvertResult summarizes an HTML directory conversion.
type ConvertResult struct {
	Converted int
	Skipped   int
	Failed    int
}

// Sphinx build artifacts and navigation pages that carry no strategy
// content.
var (
	htmlExcludeDirs = map[string]bool{
		"_static":               true,
		"_images":               true,
		"_sources":              true,
		"_sphinx_design_static": true,
		"generated":             true,
	}

	htmlExcludeFiles = map[string]bool{
		"genindex.html":    true,
		"py-modindex.html": true,
		"search.html":      true,
		"index.html":       true,
	}

	noiseTags = map[string]bool{
		"script": true, "style": true, "noscript": true,
		"nav": true, "header": true, "footer": true,
		"form": true, "button": true, "svg": true,
		"canvas": true, "iframe": true,
	}

	noiseClasses = map[string]bool{
		"sphinxsidebar": true, "sphinxsidebarwrapper": true,
		"sidebar": true, "toc": true, "contents": true,
		"related": true, "headerlink": true, "searchbox": true,
		"breadcrumb": true, "wy-nav-side": true,
		"wy-breadcrumbs": true, "admonition-title": true,
	}

	blankLines = regexp.MustCompile(`\n{3,}`)
)

// ConvertHTMLDir mirrors a Sphinx-style HTML documentation tree into
// markdown under outDir, preserving the relative layout. Outputs that
// are newer than their input are skipped unless force is set. Per-file
// failures are counted, not fatal.
func (c *Converter) ConvertHTMLDir(inDir, outDir string, force bool) (*ConvertResult, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	result := &ConvertResult{}

	err := filepath.WalkDir(inDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if htmlExcludeDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".html") || htmlExcludeFiles[d.Name()] {
			return nil
		}

		rel, err := filepath.Rel(inDir, path)
		if err != nil {
			return err
		}
		outPath := filepath.Join(outDir, strings.TrimSuffix(rel, ".html")+".md")
		if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
			return err
		}

		if !force && upToDate(outPath, path) {
			result.Skipped++
			return nil
		}

		if err := convertHTMLFile(path, outPath, filepath.ToSlash(rel)); err != nil {
			c.logger.Warn("html conversion failed",
				zap.String("html", path),
				zap.Error(err),
			)
			result.Failed++
			return nil
		}
		result.Converted++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", inDir, err)
	}

	c.logger.Info("converted html directory",
		zap.String("input", inDir),
		zap.String("output", outDir),
		zap.Int("converted", result.Converted),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func upToDate(outPath, inPath string) bool {
	outInfo, err := os.Stat(outPath)
	if err != nil {
		return false
	}
	inInfo, err := os.Stat(inPath)
	if err != nil {
		return false
	}
	return !outInfo.ModTime().Before(inInfo.ModTime())
}

func convertHTMLFile(inPath, outPath, rel string) error {
	f, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		return fmt.Errorf("parsing html: %w", err)
	}

	title := documentTitle(doc)
	if title == "" {
		title = rel
	}

	container := mainContainer(doc)
	stripNoise(container)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\nSource: %s\n\n", title, rel)

	var md markdownWriter
	md.walk(container)
	body := strings.TrimSpace(blankLines.ReplaceAllString(md.b.String(), "\n\n"))
	b.WriteString(body)
	b.WriteString("\n")

	return os.WriteFile(outPath, []byte(b.String()), 0644)
}

// documentTitle returns the text of the <title> element.
func documentTitle(doc *html.Node) string {
	node := findFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "title"
	})
	if node == nil {
		return ""
	}
	return strings.Join(strings.Fields(textContent(node)), " ")
}

// mainContainer picks the content node the way Sphinx themes lay pages
// out: main, div[role=main], div.document, div.body, article, then the
// whole body as a fallback.
func mainContainer(doc *html.Node) *html.Node {
	matchers := []func(n *html.Node) bool{
		func(n *html.Node) bool { return n.Data == "main" },
		func(n *html.Node) bool { return n.Data == "div" && attr(n, "role") == "main" },
		func(n *html.Node) bool { return n.Data == "div" && hasClass(n, "document") },
		func(n *html.Node) bool { return n.Data == "div" && hasClass(n, "body") },
		func(n *html.Node) bool { return n.Data == "div" && hasClass(n, "bodywrapper") },
		func(n *html.Node) bool { return n.Data == "article" },
	}
	for _, match := range matchers {
		node := findFirst(doc, func(n *html.Node) bool {
			return n.Type == html.ElementNode && match(n)
		})
		if node != nil {
			return node
		}
	}
	if body := findFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "body"
	}); body != nil {
		return body
	}
	return doc
}

// stripNoise removes script/style/navigation elements and Sphinx chrome
// in place.
func stripNoise(node *html.Node) {
	var next *html.Node
	for child := node.FirstChild; child != nil; child = next {
		next = child.NextSibling
		if child.Type == html.ElementNode && (noiseTags[child.Data] || hasNoiseClass(child)) {
			node.RemoveChild(child)
			continue
		}
		stripNoise(child)
	}
}

func hasNoiseClass(n *html.Node) bool {
	for _, class := range strings.Fields(attr(n, "class")) {
		if noiseClasses[class] {
			return true
		}
	}
	return false
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findFirst(child, match); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}

// markdownWriter renders a cleaned HTML subtree as markdown: ATX
// headings, dash bullets, fenced code blocks, plain paragraphs.
type markdownWriter struct {
	b         strings.Builder
	listDepth int
}

func (w *markdownWriter) walk(n *html.Node) {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		w.render(child)
	}
}

func (w *markdownWriter) render(n *html.Node) {
	if n.Type != html.ElementNode {
		if n.Type == html.TextNode && w.listDepth == 0 {
			// Loose text outside block elements.
			if text := strings.TrimSpace(n.Data); text != "" {
				w.b.WriteString(text)
				w.b.WriteString("\n")
			}
		}
		return
	}

	switch n.Data {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(n.Data[1] - '0')
		text := inlineText(n)
		if text != "" {
			w.b.WriteString("\n" + strings.Repeat("#", level) + " " + text + "\n\n")
		}
	case "p", "dt", "dd", "figcaption", "caption":
		if text := inlineText(n); text != "" {
			w.b.WriteString(text + "\n\n")
		}
	case "pre":
		code := strings.TrimRight(textContent(n), "\n")
		if code != "" {
			w.b.WriteString("```\n" + code + "\n```\n\n")
		}
	case "ul", "ol":
		w.listDepth++
		w.walk(n)
		w.listDepth--
		if w.listDepth == 0 {
			w.b.WriteString("\n")
		}
	case "li":
		if text := inlineText(n); text != "" {
			indent := strings.Repeat("  ", max(w.listDepth-1, 0))
			w.b.WriteString(indent + "- " + text + "\n")
		}
		// Nested lists inside the item.
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == html.ElementNode && (child.Data == "ul" || child.Data == "ol") {
				w.render(child)
			}
		}
	case "blockquote":
		if text := inlineText(n); text != "" {
			w.b.WriteString("> " + text + "\n\n")
		}
	case "table":
		if text := inlineText(n); text != "" {
			w.b.WriteString(text + "\n\n")
		}
	default:
		w.walk(n)
	}
}

// inlineText flattens an element's content to a single line, keeping
// inline code markers.
func inlineText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode && n.Data == "code":
			b.WriteString("`" + textContent(n) + "`")
			return
		case n.Type == html.ElementNode && (n.Data == "ul" || n.Data == "ol"):
			// Nested lists are rendered as their own blocks.
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
