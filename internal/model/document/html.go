package document

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/net/html"

	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/record"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/tokenizer"
)

// ParseHTML turns an HTML page into a document named by its <title>, or by
// fallback when the page has none. The description is the visible body
// text; script and style contents are skipped.
func ParseHTML(id int, r io.Reader, fallback string, analyze tokenizer.Analyzer) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	var (
		title string
		text  []string
	)
	var walk func(n *html.Node, inBody bool)
	walk = func(n *html.Node, inBody bool) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			case "title":
				if title == "" && n.FirstChild != nil {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
				return
			case "body":
				inBody = true
			}
		}
		if inBody && n.Type == html.TextNode {
			if s := strings.TrimSpace(n.Data); s != "" {
				text = append(text, s)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inBody)
		}
	}
	walk(root, false)

	if title == "" {
		title = fallback
	}
	return New(id, title, strings.Join(text, " "), analyze), nil
}

// LoadHTMLDir indexes every .html and .htm file directly inside dir. Ids
// follow the lexical order of the file names.
func LoadHTMLDir(dir string, analyze tokenizer.Analyzer) (*record.Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading html directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.Type().IsRegular() && (ext == ".html" || ext == ".htm") {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)

	docs := record.NewSet()
	for _, name := range names {
		doc, err := loadHTMLFile(docs.Len(), filepath.Join(dir, name), analyze)
		if err != nil {
			return nil, err
		}
		docs.Add(doc)
	}
	return docs, nil
}

func loadHTMLFile(id int, path string, analyze tokenizer.Analyzer) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening html file: %w", err)
	}
	defer f.Close()
	fallback := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	doc, err := ParseHTML(id, f, fallback, analyze)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}
