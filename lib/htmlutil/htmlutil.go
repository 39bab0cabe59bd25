// Package htmlutil has small helpers for pulling text out of parsed markup.
package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// GetText concatenates every text node under the given node.
func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s+`)

// NormalizeSpace trims a string, collapses runs of inner whitespace to a
// single space and strips non-printable characters. Table cells on rendered
// pages tend to carry formatting whitespace and invisible characters.
func NormalizeSpace(s string) string {
	var printable strings.Builder
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			printable.WriteRune(c)
		}
	}
	return strings.TrimSpace(innerWhitespace.ReplaceAllString(printable.String(), " "))
}

// CellText returns the normalized text of a selection, typically a single
// table cell.
func CellText(sel *goquery.Selection) string {
	return NormalizeSpace(sel.Text())
}
