/**
 * @description
 * Catalog list extractor.
 * Fetches a catalog page through the shared Fetcher and returns the product
 * page URLs it links to. A fetch or parse failure is reported as an error so
 * callers can tell "list fetch failed" from "list is genuinely empty"; the
 * sync engine must not unlink relations on a transient failure.
 *
 * @dependencies
 * - github.com/PuerkitoBio/goquery
 * - backend/internal/scraper Fetcher
 */

package scraper

import (
	"bytes"
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

const selBookLinks = ".portadaProducto > a"

// ExtractBookLinks fetches a catalog page and returns its product URLs
func ExtractBookLinks(ctx context.Context, fetcher *Fetcher, url string) ([]string, error) {
	body, err := fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing catalog page: %v", ErrFetch, err)
	}

	var links []string
	doc.Find(selBookLinks).Each(func(_ int, sel *goquery.Selection) {
		if href, ok := sel.Attr("href"); ok && href != "" {
			links = append(links, href)
		}
	})
	return links, nil
}
