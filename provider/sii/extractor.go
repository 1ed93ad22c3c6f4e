package sii

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sig-0/ufrates/failure"
	"github.com/sig-0/ufrates/registry"
)

// Extract returns the trimmed text of the cell holding the value for the
// given day and month. An empty string is a valid result, meaning no value
// was published for that day. Every structural miss is a failure.NotFound
func Extract(html string, day, month int, sel registry.Selectors) (string, error) {
	// Construct document for parsing
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", failure.Wrap(failure.NotFound, "unable to parse page", err)
	}

	table := doc.Find("table").FilterFunction(func(_ int, s *goquery.Selection) bool {
		id, ok := s.Attr("id")

		return ok && id == sel.TableID
	}).First()
	if table.Length() == 0 {
		return "", failure.NewNotFound(fmt.Sprintf("table #%s not found", sel.TableID))
	}

	body := findTag(table, sel.BodyTag).First()
	if body.Length() == 0 {
		return "", failure.NewNotFound(fmt.Sprintf("table body <%s> not found", sel.BodyTag))
	}

	rows := findTag(body, sel.RowTag)
	if rows.Length() == 0 {
		return "", failure.NewNotFound(fmt.Sprintf("no rows <%s> found", sel.RowTag))
	}

	if day < 1 || day > rows.Length() {
		return "", failure.NewNotFound(
			fmt.Sprintf("row for day %d out of range (%d rows)", day, rows.Length()),
		)
	}

	cells := findTag(rows.Eq(day-1), sel.CellTag)
	if cells.Length() == 0 {
		return "", failure.NewNotFound(fmt.Sprintf("no cells <%s> found for day %d", sel.CellTag, day))
	}

	if month < 1 || month > cells.Length() {
		return "", failure.NewNotFound(
			fmt.Sprintf("cell for month %d out of range (%d cells)", month, cells.Length()),
		)
	}

	return strings.TrimSpace(cells.Eq(month - 1).Text()), nil
}

// findTag returns every descendant of s with the given tag name.
// Matching is by node name, so no tag value can form an invalid selector
func findTag(s *goquery.Selection, tag string) *goquery.Selection {
	tag = strings.ToLower(strings.TrimSpace(tag))

	return s.Find("*").FilterFunction(func(_ int, n *goquery.Selection) bool {
		return goquery.NodeName(n) == tag
	})
}
