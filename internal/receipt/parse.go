package receipt

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Parse splits a raw multi-item text block into item segments and extracts a
// SaleItem from each. A block without the separator is treated as a single
// segment, which keeps older single-position pages working. ItemIndex follows
// segment position, so dropped segments leave gaps rather than renumbering.
func Parse(raw string) []SaleItem {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var items []SaleItem
	for i, segment := range strings.Split(raw, ItemSeparator) {
		item := ParseItem(splitLines(segment))
		if item == nil {
			continue
		}
		item.ItemIndex = i
		items = append(items, *item)
	}
	return items
}

// ParseItem assembles a SaleItem from one item's lines. It returns nil when
// nothing identifying could be recovered; that is the expected outcome for
// decorative or summary segments, not an error.
func ParseItem(lines []string) *SaleItem {
	if len(lines) == 0 {
		return nil
	}

	item := &SaleItem{Quantity: "1", Currency: Currency}
	matched := make(map[string]bool)

	for _, line := range lines {
		cls := Classify(line, item.TotalPrice != "")
		switch cls.Role {
		case RoleTaxCode:
			if item.TaxCode == "" {
				item.TaxCode = cls.Value
			}
		case RoleBarcode:
			if item.Barcode == "" {
				item.Barcode = cls.Value
			}
		case RolePriceDetails:
			if item.PriceDetails == "" {
				item.PriceDetails = line
				item.UnitPrice = cls.UnitPrice
				if cls.Quantity != "" {
					item.Quantity = cls.Quantity
				}
			}
		case RoleBreakdown:
			// First-wins applies per field: a later breakdown line can
			// still fill the total when the first one carried no amount.
			if item.PriceBreakdown == "" {
				item.PriceBreakdown = line
			}
			if cls.Value != "" && item.TotalPrice == "" {
				item.TotalPrice = cls.Value
			}
		case RoleBarePrice:
			// Classify only yields this role while no total is recorded,
			// so the first bare numeric wins and later ones fall through
			// to free text.
			item.TotalPrice = cls.Value
		case RoleFreeText:
			continue
		}
		matched[line] = true
	}

	item.ProductName = pickProductName(lines, matched)
	deriveMissingPrices(item)

	if item.ProductName == "" && item.TaxCode == "" && item.Barcode == "" {
		return nil
	}
	return item
}

// pickProductName chooses the longest unmatched line as the product name,
// skipping numeric-looking and very short lines. Ties at maximal length keep
// the first occurrence in scan order. When no line survives the filters the
// first unmatched line in original order is used as a fallback.
func pickProductName(lines []string, matched map[string]bool) string {
	best, bestLen := "", 0
	for _, line := range lines {
		if matched[line] {
			continue
		}
		if pureDigits(line) || decimalToken.MatchString(line) {
			continue
		}
		if utf8.RuneCountInString(line) < 5 {
			continue
		}
		// Labels should already be in the matched set; filter again in case
		// a label line slipped through with an unexpected role.
		if strings.Contains(line, taxCodeLabel) || strings.Contains(line, barcodeLabel) {
			continue
		}
		if n := utf8.RuneCountInString(line); n > bestLen {
			best, bestLen = line, n
		}
	}
	if best != "" {
		return best
	}
	for _, line := range lines {
		if !matched[line] {
			return line
		}
	}
	return ""
}

// deriveMissingPrices fills in whichever of unit/total price is absent from
// the other and the quantity, with 2-decimal rounding. A missing, zero or
// non-numeric quantity silently skips derivation.
func deriveMissingPrices(item *SaleItem) {
	qty, err := decimal.NewFromString(NormalizeNumber(item.Quantity))
	if err != nil {
		return
	}

	switch {
	case item.UnitPrice == "" && item.TotalPrice != "" && item.Quantity != "" && item.Quantity != "1":
		total, err := decimal.NewFromString(NormalizeNumber(item.TotalPrice))
		if err != nil || qty.IsZero() {
			return
		}
		item.UnitPrice = total.Div(qty).StringFixed(2)
	case item.UnitPrice != "" && item.TotalPrice == "" && item.Quantity != "":
		unit, err := decimal.NewFromString(NormalizeNumber(item.UnitPrice))
		if err != nil {
			return
		}
		item.TotalPrice = unit.Mul(qty).StringFixed(2)
	}
}

// NormalizeNumber converts the page's comma decimal separator to a dot.
func NormalizeNumber(s string) string {
	return strings.ReplaceAll(s, ",", ".")
}

func splitLines(segment string) []string {
	var out []string
	for _, line := range strings.Split(segment, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
