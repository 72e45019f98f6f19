package engine

import "regexp"

// Masking placeholders shown in persisted and processed text.
const (
	emailPlaceholder = "[e-mailadres verwijderd]"
	phonePlaceholder = "[telefoonnummer verwijderd]"
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	// phonePattern matches international and Dutch phone formats: at least
	// eight digits allowing spaces, dashes and parentheses in between.
	phonePattern = regexp.MustCompile(`\+?\d[\d \-().]{6,}\d{2}`)
)

// MaskPII replaces email addresses and phone numbers with placeholders.
func MaskPII(text string) string {
	masked := emailPattern.ReplaceAllString(text, emailPlaceholder)
	masked = phonePattern.ReplaceAllString(masked, phonePlaceholder)
	return masked
}
