package types

// AttributeRow is one specification row read from a product page.
type AttributeRow struct {
	Group string `json:"group"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ProductRecord is the structured data extracted from one product page.
// Pointer fields are nil when the page does not carry the value.
type ProductRecord struct {
	URL           string         `json:"url"`
	ExternalID    *string        `json:"external_id"`
	Name          string         `json:"name"`
	Brand         *string        `json:"brand"`
	Price         *float64       `json:"price"`
	OriginalPrice *float64       `json:"original_price"`
	Description   string         `json:"description"`
	IsAvailable   bool           `json:"is_available"`
	Images        []string       `json:"images"`
	Attributes    []AttributeRow `json:"attributes"`
	Category      string         `json:"category"`
}
