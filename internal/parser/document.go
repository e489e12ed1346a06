package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Document is a parsed HTML page. CSS queries go through goquery and XPath
// queries through htmlquery, both over the same node tree.
type Document struct {
	root *html.Node
	dom  *goquery.Document
}

// NewDocument parses body as HTML.
func NewDocument(body []byte) (*Document, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{
		root: root,
		dom:  goquery.NewDocumentFromNode(root),
	}, nil
}

// Find returns every element matching the CSS selector.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.dom.Find(selector)
}

// Has reports whether at least one element matches the CSS selector.
func (d *Document) Has(selector string) bool {
	return d.dom.Find(selector).Length() > 0
}

// Text returns the cleaned text of the first element matching selector.
func (d *Document) Text(selector string) (string, bool) {
	return firstText(d.dom.Selection, selector)
}

// XPathAttr returns attribute attr of the first node matching expr.
// A missing node or attribute yields "".
func (d *Document) XPathAttr(expr, attr string) (string, error) {
	node, err := htmlquery.Query(d.root, expr)
	if err != nil {
		return "", fmt.Errorf("invalid xpath %q: %w", expr, err)
	}
	if node == nil {
		return "", nil
	}
	return htmlquery.SelectAttr(node, attr), nil
}

// firstText returns the cleaned text of the first descendant of sel matching selector.
func firstText(sel *goquery.Selection, selector string) (string, bool) {
	match := sel.Find(selector).First()
	if match.Length() == 0 {
		return "", false
	}
	return cleanText(match.Text()), true
}

// cleanText trims and collapses runs of whitespace to single spaces.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
