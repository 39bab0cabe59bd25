package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestCellText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<table><tbody><tr><td>  Mar 15,
		2023 </td><td><span>1.0650</span></td></tr></tbody></table>`,
	))
	require.NoError(t, err)

	cells := doc.Find("td")
	require.Equal(t, "Mar 15, 2023", CellText(cells.Eq(0)))
	require.Equal(t, "1.0650", CellText(cells.Eq(1)))
}

func TestNormalizeSpace(t *testing.T) {
	require.Equal(t, "a b c", NormalizeSpace("  a \t b \n\n c "))
	require.Equal(t, "", NormalizeSpace("   \n\t "))
}

func TestGetText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<div><span>Date</span><b>Close</b></div>`,
	))
	require.NoError(t, err)

	div := doc.Find("div")
	require.Len(t, div.Nodes, 1)
	require.Equal(t, "DateClose", GetText(div.Nodes[0]))
}
