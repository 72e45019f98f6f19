package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/greenleafbv/shopassist/internal/assembler"
)

// greetingWords recognized by the degraded responder.
var greetingWords = []string{
	"hallo", "hoi", "hey", "hi", "hello", "goedemorgen", "goedemiddag",
	"goedenavond", "goededag",
}

// MaxListedProducts bounds the rule-based product listing.
const MaxListedProducts = 5

// isGreeting reports whether the message is a short greeting.
func isGreeting(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	if len(strings.Fields(lower)) > 4 {
		return false
	}
	for _, word := range greetingWords {
		if strings.HasPrefix(lower, word) {
			return true
		}
	}
	return false
}

// ruleBasedReply produces a deterministic response from the assembled
// context without a model call. The second return reports whether a concrete
// rule applied; false means the caller picks its own closing message.
func (e *Engine) ruleBasedReply(ctx context.Context, req *request, doc *assembler.Document) (string, bool) {
	if isGreeting(req.masked) {
		return fmt.Sprintf("Hallo! Ik ben %s. Waarmee kan ik je helpen?", e.cfg.AssistantTitle), true
	}

	// Direct ingredient question: answer from the knowledge base.
	for _, kw := range req.keywords {
		ingredient, err := e.knowledge.Ingredient(ctx, kw)
		if err != nil {
			slog.Error("Engine.ruleBasedReply: ingredient lookup failed", "error", err, "keyword", kw)
			continue
		}
		if ingredient != nil {
			reply := ingredient.Name + ": " + ingredient.Description
			if len(ingredient.Benefits) > 0 {
				reply += " Bekend om: " + strings.Join(ingredient.Benefits, ", ") + "."
			}
			return reply, true
		}
	}

	if doc != nil && len(doc.Items) > 0 {
		var sb strings.Builder
		sb.WriteString("Dit vond ik in ons assortiment:\n")
		for i, item := range doc.Items {
			if i >= MaxListedProducts {
				break
			}
			sb.WriteString("- " + item.Name)
			if item.Price > 0 {
				sb.WriteString(fmt.Sprintf(" (€%.2f)", item.Price))
			}
			sb.WriteString("\n")
		}
		return strings.TrimRight(sb.String(), "\n"), true
	}

	if doc != nil && len(doc.RelatedTerms) > 0 {
		var sb strings.Builder
		sb.WriteString("Ik vond geen direct antwoord, maar deze termen komen wel voor in ons assortiment:\n")
		for _, term := range doc.RelatedTerms {
			sb.WriteString(fmt.Sprintf("- %s (%d producten)\n", term.Term, term.Count))
		}
		return strings.TrimRight(sb.String(), "\n"), true
	}

	return "", false
}
