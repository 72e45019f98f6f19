package engine

import (
	"strings"
	"testing"
)

func TestMaskPIIEmail(t *testing.T) {
	masked := MaskPII("je kunt me mailen op jan.de.vries+shop@example.co.uk bedankt")
	if strings.Contains(masked, "example.co.uk") {
		t.Errorf("email not masked: %q", masked)
	}
	if !strings.Contains(masked, emailPlaceholder) {
		t.Errorf("expected placeholder in %q", masked)
	}
}

func TestMaskPIIPhone(t *testing.T) {
	cases := []string{
		"bel me op 06-12345678",
		"mijn nummer is +31 6 1234 5678",
		"bereikbaar via (020) 123 4567",
	}
	for _, text := range cases {
		masked := MaskPII(text)
		if !strings.Contains(masked, phonePlaceholder) {
			t.Errorf("phone not masked in %q -> %q", text, masked)
		}
	}
}

func TestMaskPIIBoth(t *testing.T) {
	masked := MaskPII("mail jan@example.com of bel 0612345678")
	if !strings.Contains(masked, emailPlaceholder) || !strings.Contains(masked, phonePlaceholder) {
		t.Errorf("expected both placeholders, got %q", masked)
	}
}

func TestMaskPIILeavesPlainText(t *testing.T) {
	text := "heb je iets tegen droge huid?"
	if masked := MaskPII(text); masked != text {
		t.Errorf("plain text changed: %q", masked)
	}
}
