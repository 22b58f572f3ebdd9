package receipt

import (
	"regexp"
	"strings"
	"unicode"
)

// Role identifies which receipt field a classified line feeds.
type Role int

const (
	RoleTaxCode Role = iota
	RoleBarcode
	RolePriceDetails
	RoleBreakdown
	RoleBarePrice
	RoleFreeText
)

// Field labels and tokens as rendered on the page. The layout has no stable
// delimiters beyond these, so classification is substring and pattern based.
const (
	taxCodeLabel = "УКТЗЕД"
	barcodeLabel = "Штрих-код"
	unitSuffix   = "шт"
)

// taxMarkers are the fiscal VAT group letters printed after a price total.
var taxMarkers = []string{"(А)", "(Б)", "(В)", "(Г)"}

var (
	quantityPattern = regexp.MustCompile(`(\d+)\s*` + unitSuffix)
	leadingNumber   = regexp.MustCompile(`^([\d.,]+)`)
	pureNumber      = regexp.MustCompile(`^\d+([.,]\d+)?$`)
	decimalToken    = regexp.MustCompile(`^\d+[.,]\d+$`)
)

// Classification is the outcome of running the rule table over one line.
// Value carries the extracted sub-value for label and price roles; UnitPrice
// and Quantity are only set for RolePriceDetails, with Quantity left empty
// when the line carried no explicit count.
type Classification struct {
	Role      Role
	Value     string
	UnitPrice string
	Quantity  string
}

// rule is one entry of the ordered classification table. Rules are evaluated
// top to bottom and the first match decides the line's role. haveTotal
// reports whether a total price was already recorded for the current item;
// only the bare numeric rule consults it.
type rule struct {
	role  Role
	match func(line string, haveTotal bool) bool
	apply func(line string, cls *Classification)
}

var ruleTable = []rule{
	{
		role:  RoleTaxCode,
		match: func(line string, _ bool) bool { return strings.Contains(line, taxCodeLabel) },
		apply: func(line string, cls *Classification) {
			cls.Value = strings.TrimSpace(strings.ReplaceAll(line, taxCodeLabel, ""))
		},
	},
	{
		role:  RoleBarcode,
		match: func(line string, _ bool) bool { return strings.Contains(line, barcodeLabel) },
		apply: func(line string, cls *Classification) {
			cls.Value = strings.TrimSpace(strings.ReplaceAll(line, barcodeLabel, ""))
		},
	},
	{
		role: RolePriceDetails,
		match: func(line string, _ bool) bool {
			return strings.Contains(line, "*") && hasDigit(line) && strings.Contains(line, unitSuffix)
		},
		apply: func(line string, cls *Classification) {
			parts := strings.SplitN(line, "*", 2)
			cls.UnitPrice = strings.TrimSpace(parts[0])
			if m := quantityPattern.FindStringSubmatch(parts[1]); m != nil {
				cls.Quantity = m[1]
			}
		},
	},
	{
		role: RoleBreakdown,
		match: func(line string, _ bool) bool {
			return hasDigit(line) && containsAny(line, taxMarkers)
		},
		apply: func(line string, cls *Classification) {
			if m := leadingNumber.FindStringSubmatch(line); m != nil {
				cls.Value = m[1]
			}
		},
	},
	{
		role: RoleBarePrice,
		match: func(line string, haveTotal bool) bool {
			return !haveTotal && len([]rune(line)) < 10 && pureNumber.MatchString(line)
		},
		apply: func(line string, cls *Classification) { cls.Value = line },
	},
}

// Classify runs the rule table over a single trimmed, non-empty line.
// Unmatched lines come back as RoleFreeText, the product name candidate pool.
func Classify(line string, haveTotal bool) Classification {
	for _, r := range ruleTable {
		if r.match(line, haveTotal) {
			cls := Classification{Role: r.role}
			r.apply(line, &cls)
			return cls
		}
	}
	return Classification{Role: RoleFreeText}
}

func hasDigit(s string) bool {
	return strings.ContainsFunc(s, unicode.IsDigit)
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// pureDigits reports whether every rune in s is a digit.
func pureDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
