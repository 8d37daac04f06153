package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// AddRowHTML reads markup from r, adds n rows to the first element matching
// sectionSelector and writes the result to w. Full documents are written
// back as documents; fragments are written back as fragments.
func (r *Replicator) AddRowHTML(in io.Reader, w io.Writer, sectionSelector string, n int) ([]Added, error) {
	selector := strings.TrimSpace(sectionSelector)
	if selector == "" {
		selector = r.opts.SectionSelector
	}

	var added []Added
	err := Transform(in, w, func(doc *goquery.Document) error {
		section := doc.Find(selector).First()
		if section.Length() == 0 {
			return fmt.Errorf("%w: %q", ErrNoSection, selector)
		}
		var err error
		added, err = r.AddRows(section, n)
		return err
	})
	return added, err
}

// Transform parses markup from in, applies fn and writes the mutated markup
// to w. Nothing is written when fn fails.
func Transform(in io.Reader, w io.Writer, fn func(*goquery.Document) error) error {
	raw, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("dom: read markup: %w", err)
	}
	doc, root, err := parseMarkup(raw)
	if err != nil {
		return err
	}
	if fn != nil {
		if err := fn(doc); err != nil {
			return err
		}
	}
	return renderMarkup(w, doc, root)
}

// AddRowHTML runs a default replicator over markup.
func AddRowHTML(in io.Reader, w io.Writer, sectionSelector string, n int) ([]Added, error) {
	return New().AddRowHTML(in, w, sectionSelector, n)
}

// parseMarkup returns the document and, for fragments, the synthetic
// container holding the parsed nodes.
func parseMarkup(raw []byte) (*goquery.Document, *html.Node, error) {
	if isFullDocument(raw) {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
		if err != nil {
			return nil, nil, fmt.Errorf("dom: parse document: %w", err)
		}
		return doc, nil, nil
	}

	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(bytes.NewReader(raw), context)
	if err != nil {
		return nil, nil, fmt.Errorf("dom: parse fragment: %w", err)
	}
	container := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	for _, node := range nodes {
		container.AppendChild(node)
	}
	return goquery.NewDocumentFromNode(container), container, nil
}

func renderMarkup(w io.Writer, doc *goquery.Document, fragment *html.Node) error {
	if fragment == nil {
		for _, node := range doc.Nodes {
			if err := html.Render(w, node); err != nil {
				return fmt.Errorf("dom: render document: %w", err)
			}
		}
		return nil
	}
	for child := fragment.FirstChild; child != nil; child = child.NextSibling {
		if err := html.Render(w, child); err != nil {
			return fmt.Errorf("dom: render fragment: %w", err)
		}
	}
	return nil
}

func isFullDocument(raw []byte) bool {
	head := bytes.ToLower(bytes.TrimSpace(raw))
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.HasPrefix(head, []byte("<!doctype")) || bytes.Contains(head, []byte("<html"))
}
