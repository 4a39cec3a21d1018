package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PlainText renders an HTML fragment as whitespace-collapsed text. Text from adjacent block
// elements is separated by a space; script and style contents are dropped.
func PlainText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return collapse(fragment)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return collapse(fragment)
	}

	var parts []string
	collectText(doc.Find("body"), &parts)
	return collapse(strings.Join(parts, " "))
}

func collectText(sel *goquery.Selection, parts *[]string) {
	sel.Contents().Each(func(_ int, child *goquery.Selection) {
		switch goquery.NodeName(child) {
		case "#text":
			*parts = append(*parts, child.Text())
		case "script", "style", "#comment":
		default:
			collectText(child, parts)
		}
	})
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
