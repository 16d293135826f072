package site

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/rahul-omni/court-scraper/internal/normalize"
)

// tableSpec describes how one portal's result table maps onto
// canonical row keys.
type tableSpec struct {
	// tableSelector locates the results table; the first table on the
	// page is the fallback.
	tableSelector string
	// headerToKey maps lowercase header fragments to canonical keys,
	// used when the table has a header row.
	headerToKey map[string]string
	// positional is the column-order fallback for headerless tables.
	positional []string
	// linkKey receives the first href found in any cell, resolved
	// against baseURL.
	linkKey string
	baseURL string
}

// extractRows walks a result table into raw rows. Header rows are
// passed through untouched; rejecting them is the normalizer's job.
func extractRows(html string, spec tableSpec) ([]normalize.RawRow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse result html: %w", err)
	}

	table := doc.Find(spec.tableSelector).First()
	if table.Length() == 0 {
		table = doc.Find("table").First()
	}
	if table.Length() == 0 {
		return nil, nil
	}

	headerIdx := map[int]string{}
	hasHeader := false
	table.Find("tr").First().Find("th").Each(func(i int, th *goquery.Selection) {
		text := strings.ToLower(strings.TrimSpace(th.Text()))
		if text == "" {
			return
		}
		hasHeader = true
		for fragment, key := range spec.headerToKey {
			if strings.Contains(text, fragment) {
				headerIdx[i] = key
				break
			}
		}
	})

	var rows []normalize.RawRow
	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		if i == 0 && hasHeader {
			return
		}
		cells := tr.Find("td")
		if cells.Length() == 0 {
			return
		}

		row := normalize.RawRow{}
		cells.Each(func(j int, cell *goquery.Selection) {
			text := strings.TrimSpace(cell.Text())
			var key string
			if hasHeader {
				key = headerIdx[j]
			} else if j < len(spec.positional) {
				key = spec.positional[j]
			}
			if key != "" && text != "" {
				row[key] = text
			}

			if spec.linkKey != "" && row[spec.linkKey] == "" {
				if href, ok := cell.Find("a").First().Attr("href"); ok {
					row[spec.linkKey] = resolveURL(spec.baseURL, href)
				}
			}
		})

		if len(row) > 0 {
			rows = append(rows, row)
		}
	})

	return rows, nil
}

func resolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if u.IsAbs() {
		return href
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(u).String()
}
