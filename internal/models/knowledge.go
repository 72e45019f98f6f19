// Package models defines knowledge base types.
package models

// FAQEntry is one stored question/answer pair. Language is a two-letter code
// or empty for language-neutral entries.
type FAQEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Language string `json:"language,omitempty"`
}

// Ingredient describes one catalog ingredient for direct lookups.
type Ingredient struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Benefits    []string `json:"benefits,omitempty"`
}
