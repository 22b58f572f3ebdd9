package receipt

// ItemSeparator delimits item segments inside a multi-item text block. Pages
// that render a single position produce blocks without it.
const ItemSeparator = "===ITEM_SEPARATOR==="

// Currency is fixed: the monitored page only ever shows UAH prices.
const Currency = "UAH"

// SaleItem is one purchased line item recovered from receipt text. Price and
// quantity fields stay strings: the page renders them with a comma decimal
// separator and we keep what we matched for auditability.
type SaleItem struct {
	ProductName    string `json:"product_name"`
	TaxCode        string `json:"uktzed"`
	Barcode        string `json:"barcode"`
	Quantity       string `json:"quantity"`
	UnitPrice      string `json:"unit_price"`
	TotalPrice     string `json:"total_price"`
	Currency       string `json:"currency"`
	PriceDetails   string `json:"price_details"`
	PriceBreakdown string `json:"price_breakdown"`
	ItemIndex      int    `json:"item_index"`
}
