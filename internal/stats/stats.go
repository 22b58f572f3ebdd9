// Package stats folds stored receipt history into the summary figures the
// dashboard and commentary layers consume.
package stats

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/akoval/checkwatch/internal/history"
	"github.com/akoval/checkwatch/internal/receipt"
)

// DefaultTopLimit is used when a caller asks for a non-positive limit.
const DefaultTopLimit = 10

// Sale pairs one sale item with the timestamp of the record it came from.
type Sale struct {
	Timestamp string
	Item      receipt.SaleItem
}

// Flatten expands records into one Sale per item, preserving order.
func Flatten(records []history.Record) []Sale {
	var entries []Sale
	for _, rec := range records {
		for _, item := range rec.Items {
			entries = append(entries, Sale{Timestamp: rec.Timestamp, Item: item})
		}
	}
	return entries
}

// Summary holds the aggregate figures over a set of entries.
type Summary struct {
	TotalItems     int            `json:"total_items"`
	TotalSales     float64        `json:"total_sales"`
	UniqueProducts int            `json:"unique_products"`
	SalesByHour    map[string]int `json:"sales_by_hour"`
}

// Totals computes aggregate statistics over entries. Non-numeric quantities
// count as zero items and non-numeric prices as zero revenue; entries with
// unparseable timestamps are left out of the hourly histogram only.
func Totals(entries []Sale) Summary {
	summary := Summary{SalesByHour: make(map[string]int)}
	products := make(map[string]struct{})
	totalSales := decimal.Zero

	for _, e := range entries {
		if qty, err := strconv.Atoi(e.Item.Quantity); err == nil {
			summary.TotalItems += qty
		}
		if price, err := parsePrice(e.Item.TotalPrice); err == nil {
			totalSales = totalSales.Add(price)
		}
		if e.Item.ProductName != "" {
			products[e.Item.ProductName] = struct{}{}
		}
		if ts, err := history.ParseTimestamp(e.Timestamp); err == nil {
			summary.SalesByHour[fmt.Sprintf("%02d:00", ts.Hour())]++
		}
	}

	summary.TotalSales = totalSales.Round(2).InexactFloat64()
	summary.UniqueProducts = len(products)
	return summary
}

// SortKey selects the ordering of TopProducts.
type SortKey string

const (
	ByQuantity SortKey = "quantity"
	ByRevenue  SortKey = "revenue"
)

// ProductStat is the accumulated figures for one product name group.
type ProductStat struct {
	ProductName   string  `json:"product_name"`
	TotalQuantity int     `json:"total_quantity"`
	TotalRevenue  float64 `json:"total_revenue"`
	Occurrences   int     `json:"occurrences"`
	AvgRevenue    float64 `json:"avg_revenue"`
}

// TopProducts groups entries by exact product name (no normalization), sorts
// descending by the requested key and truncates to limit. Ties keep the
// first-encountered group order.
func TopProducts(entries []Sale, by SortKey, limit int) []ProductStat {
	if limit <= 0 {
		limit = DefaultTopLimit
	}

	index := make(map[string]int)
	groups := make([]ProductStat, 0)
	revenues := make([]decimal.Decimal, 0)

	for _, e := range entries {
		name := e.Item.ProductName
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, ProductStat{ProductName: name})
			revenues = append(revenues, decimal.Zero)
		}

		groups[i].Occurrences++
		if qty, err := strconv.Atoi(e.Item.Quantity); err == nil {
			groups[i].TotalQuantity += qty
		}
		if price, err := parsePrice(e.Item.TotalPrice); err == nil {
			revenues[i] = revenues[i].Add(price)
		}
	}

	for i := range groups {
		groups[i].TotalRevenue = revenues[i].Round(2).InexactFloat64()
		if groups[i].Occurrences > 0 {
			avg := revenues[i].Div(decimal.NewFromInt(int64(groups[i].Occurrences)))
			groups[i].AvgRevenue = avg.Round(2).InexactFloat64()
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if by == ByRevenue {
			return groups[i].TotalRevenue > groups[j].TotalRevenue
		}
		return groups[i].TotalQuantity > groups[j].TotalQuantity
	})

	if len(groups) > limit {
		groups = groups[:limit]
	}
	return groups
}

func parsePrice(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(receipt.NormalizeNumber(s))
}
