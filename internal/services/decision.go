/**
 * @description
 * Price transition classifier.
 * Pure comparison of a freshly observed price against the last known price;
 * the monitor service acts on the resulting Decision (history append, stored
 * price update, notification dispatch).
 *
 * @dependencies
 * - standard "math"
 */

package services

import (
	"math"
	"time"
)

// Change is the kind of price transition observed for a book
type Change string

const (
	ChangeNone          Change = "no_change"
	ChangePriceDrop     Change = "price_drop"
	ChangePriceIncrease Change = "price_increase"
	ChangeBackInStock   Change = "back_in_stock"
	ChangeOutOfStock    Change = "went_out_of_stock"
	ChangeFirstSeen     Change = "first_seen"
)

// Decision carries everything needed to act on one observed transition
type Decision struct {
	Change      Change `json:"change"`
	OldPrice    int64  `json:"old_price"`
	NewPrice    int64  `json:"new_price"`
	Discount    int64  `json:"discount"`
	DiscountPct int    `json:"discount_pct"`
	// LowestPrice is the historical minimum among in-stock observations;
	// 0 when no positive observation exists yet.
	LowestPrice   int64     `json:"lowest_price"`
	LowestPriceAt time.Time `json:"lowest_price_at"`
}

// Classify compares prices and returns the transition decision.
// A price of 0 means out of stock on either side of the comparison.
func Classify(lastPrice, newPrice int64) Decision {
	d := Decision{
		OldPrice: lastPrice,
		NewPrice: newPrice,
	}

	switch {
	case newPrice == lastPrice:
		d.Change = ChangeNone
	case lastPrice == 0 && newPrice > 0:
		d.Change = ChangeBackInStock
	case newPrice == 0:
		d.Change = ChangeOutOfStock
	case newPrice < lastPrice:
		d.Change = ChangePriceDrop
		d.Discount = lastPrice - newPrice
		d.DiscountPct = int(math.Round(float64(d.Discount) / float64(lastPrice) * 100))
	default:
		d.Change = ChangePriceIncrease
	}

	return d
}
