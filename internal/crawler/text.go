package crawler

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// skippedElements hold no visible text.
var skippedElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Iframe:   true,
}

// inlineElements do not separate words.
var inlineElements = map[atom.Atom]bool{
	atom.A:      true,
	atom.B:      true,
	atom.I:      true,
	atom.U:      true,
	atom.Em:     true,
	atom.Strong: true,
	atom.Span:   true,
	atom.Small:  true,
	atom.Sub:    true,
	atom.Sup:    true,
	atom.Mark:   true,
	atom.Code:   true,
}

// ExtractText returns the visible text of an HTML fragment such as a
// product description, with runs of whitespace collapsed to one space.
// Markup that cannot be parsed is returned with whitespace collapsed.
func ExtractText(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return collapseSpace(html.UnescapeString(fragment))
	}

	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return collapseSpace(fragment)
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if skippedElements[n.DataAtom] {
				return
			}
			if !inlineElements[n.DataAtom] {
				b.WriteByte(' ')
			}
		case html.TextNode:
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}

	return collapseSpace(b.String())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
