/**
 * @description
 * HTML templates for price alert emails.
 * Renders the discount and back-in-stock bodies from the reconciliation
 * decision plus recent price history context.
 *
 * @dependencies
 * - standard html/template
 */

package mailer

import (
	"fmt"
	"html/template"
	"strings"
	"time"
)

// PricePoint is one historical observation shown in the email
type PricePoint struct {
	Price int64
	Date  time.Time
}

// AlertInfo is the template context for both alert emails
type AlertInfo struct {
	Title          string
	Author         string
	ImageURL       string
	Link           string
	CurrentPrice   int64
	LastPrice      int64
	Discount       int64
	DiscountPct    int
	PreviousPrices []PricePoint
	LowestPrice    int64
	LowestPriceAt  time.Time
}

var discountTemplate = template.Must(template.New("discount").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Price drop: {{.Title}}</h2>
  {{if .ImageURL}}<img src="{{.ImageURL}}" alt="{{.Title}}" width="120">{{end}}
  <p>{{if .Author}}by {{.Author}}{{end}}</p>
  <p>
    Now <strong>${{.CurrentPrice}}</strong>
    (was ${{.LastPrice}}, save ${{.Discount}} / {{.DiscountPct}}%)
  </p>
  {{if .LowestPrice}}<p>Lowest recorded price: ${{.LowestPrice}} on {{.LowestPriceAt.Format "2006-01-02"}}</p>{{end}}
  {{if .PreviousPrices}}
  <h4>Recent prices</h4>
  <ul>
    {{range .PreviousPrices}}<li>${{.Price}} on {{.Date.Format "2006-01-02"}}</li>{{end}}
  </ul>
  {{end}}
  <p><a href="{{.Link}}">View the book</a></p>
</body>
</html>`))

var backInStockTemplate = template.Must(template.New("backinstock").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Back in stock: {{.Title}}</h2>
  {{if .ImageURL}}<img src="{{.ImageURL}}" alt="{{.Title}}" width="120">{{end}}
  <p>{{if .Author}}by {{.Author}}{{end}}</p>
  <p>Available again at <strong>${{.CurrentPrice}}</strong></p>
  {{if .LowestPrice}}<p>Lowest recorded price: ${{.LowestPrice}} on {{.LowestPriceAt.Format "2006-01-02"}}</p>{{end}}
  <p><a href="{{.Link}}">View the book</a></p>
</body>
</html>`))

// RenderDiscountEmail returns the subject and body for a price-drop alert
func RenderDiscountEmail(info AlertInfo) (string, string, error) {
	subject := fmt.Sprintf("Price drop! %s is now %d%% off", info.Title, info.DiscountPct)
	var body strings.Builder
	if err := discountTemplate.Execute(&body, info); err != nil {
		return "", "", err
	}
	return subject, body.String(), nil
}

// RenderBackInStockEmail returns the subject and body for a back-in-stock alert
func RenderBackInStockEmail(info AlertInfo) (string, string, error) {
	subject := fmt.Sprintf("Back in stock: %s", info.Title)
	var body strings.Builder
	if err := backInStockTemplate.Execute(&body, info); err != nil {
		return "", "", err
	}
	return subject, body.String(), nil
}
