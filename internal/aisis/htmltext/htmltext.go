// Package htmltext prepares raw AISIS page source for extraction: it strips
// scripts and unsafe markup, parses the remainder into a DOM, and can flatten
// the page into tab-separated text for the line-based parsers.
package htmltext

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

var reHTML = regexp.MustCompile(`(?i)<\s*(?:html|body|table|tr|td|select|option)\b`)

// policy keeps table structure, the class attribute used to locate sections,
// and the selected state of dropdown options. Script and style content is
// dropped entirely.
var policy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"table", "thead", "tbody", "tfoot", "tr", "td", "th", "caption",
		"select", "option", "br", "div", "span", "p", "b", "strong", "i", "em",
		"font", "center", "h1", "h2", "h3", "h4", "h5", "h6", "form", "label",
	)
	p.AllowAttrs("class").Globally()
	p.AllowAttrs("colspan", "rowspan").OnElements("td", "th")
	p.AllowAttrs("selected", "value").OnElements("option")
	p.AllowAttrs("name").OnElements("select")
	return p
}()

// LooksLikeHTML reports whether s appears to be page source rather than text
// copied from a rendered page.
func LooksLikeHTML(s string) bool {
	return reHTML.MatchString(s)
}

// Sanitize removes everything but the structural markup extraction needs.
func Sanitize(html string) string {
	return policy.Sanitize(html)
}

// Document sanitizes html and parses it. Line breaks inside elements are
// turned into newline text nodes so that Text() keeps them.
func Document(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(Sanitize(html)))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	doc.Find("br").ReplaceWithHtml("\n")
	return doc, nil
}

// CellText returns the text of s with runs of spaces collapsed, keeping
// explicit line breaks.
func CellText(s *goquery.Selection) string {
	lines := strings.Split(s.Text(), "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.Join(strings.Fields(l), " "); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

// ToText flattens a page into the tab-separated form a browser produces when
// the rendered page is copied: selected dropdown values first, then one line
// per innermost table row with cells joined by tabs.
func ToText(html string) (string, error) {
	doc, err := Document(html)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	doc.Find("option[selected]").Each(func(_ int, o *goquery.Selection) {
		if t := CellText(o); t != "" {
			b.WriteString(t)
			b.WriteByte('\n')
		}
	})
	doc.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.Find("table").Length() > 0 {
			return
		}
		var cells []string
		tr.ChildrenFiltered("td, th").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, CellText(td))
		})
		line := strings.Join(cells, "\t")
		if strings.TrimSpace(line) == "" {
			return
		}
		b.WriteString(line)
		b.WriteByte('\n')
	})
	return b.String(), nil
}
