/**
 * @description
 * Product page extractor.
 * Parses a bookstore product page into a structured BookData record using a
 * fixed set of selectors for the one supported page layout. Missing elements
 * yield empty fields, never errors; only HTML the tokenizer cannot parse at
 * all is reported as a failure.
 *
 * @dependencies
 * - github.com/PuerkitoBio/goquery: Selector-driven HTML parsing
 */

package scraper

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Selectors for the supported product page layout
const (
	selTitle       = "#data-info-libro > div > div > p.tituloProducto"
	selISBN13      = "#metadata-isbn13"
	selImage       = "#imgPortada"
	selPrice       = "#detallePrecio > div.opcionForm.idx1 > strong.precio"
	selDiscount    = "#opciones > div.opcionPrecio.selected > div.colDescuento > div > span"
	selAuthor      = "#data-info-libro > div > div > p.font-weight-light.margin-0.font-size-h1 > a.font-color-bl.link-underline"
	selDetails     = "#producto > div.row.product-info > div.col-xs-12.col-md-3 > div > div > div > div > div > div:nth-child(6) > div > div"
	selDescription = "#texto-descripcion"
)

var (
	nonDigits  = regexp.MustCompile(`\D`)
	whitespace = regexp.MustCompile(`\s+`)
)

// BookData is the structured result of extracting one product page
type BookData struct {
	Title       string
	ISBN13      string
	Link        string
	ImageURL    string
	Price       int64
	Discount    string
	Author      string
	Details     string
	Description string
	OutOfStock  bool
}

// ExtractBookData parses a product page. Deterministic: the same html and
// link always produce the same record.
func ExtractBookData(html, link string) (*BookData, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	price := cleanCurrency(strings.TrimSpace(doc.Find(selPrice).Text()))

	imageURL, _ := doc.Find(selImage).Attr("data-src")

	return &BookData{
		Title:       strings.TrimSpace(doc.Find(selTitle).Text()),
		ISBN13:      strings.TrimSpace(doc.Find(selISBN13).Text()),
		Link:        link,
		ImageURL:    imageURL,
		Price:       price,
		Discount:    strings.TrimSpace(doc.Find(selDiscount).Text()),
		Author:      strings.TrimSpace(doc.Find(selAuthor).Text()),
		Details:     cleanDetails(doc.Find(selDetails).Text()),
		Description: strings.TrimSpace(doc.Find(selDescription).Text()),
		OutOfStock:  price == 0,
	}, nil
}

// cleanCurrency strips every non-digit character and parses what remains.
// An empty or unparseable price yields 0, the out-of-stock sentinel.
func cleanCurrency(s string) int64 {
	digits := nonDigits.ReplaceAllString(s, "")
	if digits == "" {
		return 0
	}
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// cleanDetails collapses runs of whitespace into single spaces
func cleanDetails(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
