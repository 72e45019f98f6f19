// Package models defines catalog types shared between the context assembler,
// the questionnaire engine and the catalog provider boundary.
package models

// StockStatus values reported by the catalog provider.
const (
	StockInStock    = "instock"
	StockOutOfStock = "outofstock"
	StockBackorder  = "onbackorder"
)

// CatalogItem is a sellable entity with descriptive and commercial
// attributes. It is owned by the external catalog provider and read-only to
// the engine.
type CatalogItem struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	StockStatus string   `json:"stock_status"`
	URL         string   `json:"url"`
	Ingredients []string `json:"ingredients,omitempty"`
	Categories  []string `json:"categories,omitempty"`
}

// InStock reports whether the item can currently be ordered.
func (c CatalogItem) InStock() bool {
	return c.StockStatus == StockInStock || c.StockStatus == StockBackorder
}

// ScoredCatalogItem pairs a catalog item with its relevance score for one
// query. Transient, computed per query.
type ScoredCatalogItem struct {
	Item  CatalogItem `json:"item"`
	Score float64     `json:"score"`
}

// RelatedTerm is a synonym-map suggestion returned when a search yields no
// direct matches, annotated with how many catalog items mention it.
type RelatedTerm struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}
