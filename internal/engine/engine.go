// Package engine implements the orchestrator: it routes one inbound message
// across the questionnaire, the deterministic intents, the knowledge matcher
// and the model path, applies authorization gates and owns the fallback
// chain. Processing is per-message synchronous; one inbound message drives
// exactly one pipeline execution to exactly one response.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/openai/openai-go"

	"github.com/greenleafbv/shopassist/internal/assembler"
	"github.com/greenleafbv/shopassist/internal/auth"
	"github.com/greenleafbv/shopassist/internal/catalog"
	"github.com/greenleafbv/shopassist/internal/config"
	"github.com/greenleafbv/shopassist/internal/genai"
	"github.com/greenleafbv/shopassist/internal/knowledge"
	"github.com/greenleafbv/shopassist/internal/models"
	"github.com/greenleafbv/shopassist/internal/quiz"
	"github.com/greenleafbv/shopassist/internal/store"
)

// Engine tuning constants.
const (
	// HistoryLimit is how many persisted turns feed the model prompt.
	HistoryLimit = 10
	// RecommendationPageSize is how many profile recommendations one page
	// shows.
	RecommendationPageSize = 3
	// offsetKeyPrefix scopes the pagination offset in the TTL store.
	offsetKeyPrefix = "profile_offset:"
)

// Localized copy for deterministic and degraded paths.
const (
	msgEmptyInput     = "Ik heb geen bericht ontvangen. Typ je vraag en ik help je graag verder."
	msgTooLong        = "Dat bericht is te lang voor mij. Kun je je vraag korter stellen?"
	msgBusy           = "Het is even druk. Probeer het over een ogenblik opnieuw."
	msgApology        = "Sorry, ik kan je vraag nu niet beantwoorden. Probeer het later nog eens of neem contact op met de winkel."
	msgGenericError   = "Er ging iets mis bij het verwerken van je bericht. Probeer het nog een keer."
	msgUpsell         = "De persoonlijke huidtest is onderdeel van ons premium pakket. Vraag de winkel naar de mogelijkheden!"
	msgNoMoreProducts = "Ik heb geen verdere aanbevelingen voor je profiel. Stel gerust een nieuwe vraag!"
)

// questionnaireStartKeywords trigger the guided questionnaire.
var questionnaireStartKeywords = []string{
	"huidtest", "huidadvies", "advies op maat", "persoonlijk advies",
	"vragenlijst", "start de test", "skin test",
}

// countPatterns flag an explicit item-count request.
var countPatterns = []string{
	"hoeveel producten", "aantal producten", "how many products",
}

// morePatterns flag a pagination follow-up against a cached profile.
var morePatterns = []string{
	"meer producten", "toon meer", "laat meer", "show more", "meer opties",
	"meer aanbevelingen",
}

// contactPatterns flag a contact-details request. Patterns are kept specific
// enough that masked PII placeholders never trigger this intent.
var contactPatterns = []string{
	"contact opnemen", "contactgegevens", "klantenservice",
	"jullie bereiken", "jullie telefoonnummer", "jullie e-mailadres",
}

// request carries the per-message pipeline state.
type request struct {
	conversationID string
	masked         string
	keywords       []string
	flags          models.SessionFlags
}

// route pairs an intent predicate with its handler. Routes are evaluated in
// declared order; the first match wins.
type route struct {
	name   string
	match  func(ctx context.Context, req *request) bool
	handle func(ctx context.Context, req *request) (*models.OutboundMessage, error)
}

// Engine is the orchestrator. All collaborators are injected at
// construction; there is no global state.
type Engine struct {
	cfg        *config.Config
	convStore  store.ConversationStore
	kv         store.KVStore
	catalog    catalog.Provider
	knowledge  knowledge.Base
	matcher    *knowledge.Matcher
	quiz       *quiz.Engine
	assembler  *assembler.Assembler
	gateway    genai.ClientInterface
	authorizer auth.Authorizer
	routes     []route
}

// New creates the orchestrator. The gateway may be nil, in which case the
// model path degrades to the rule-based responder immediately.
func New(cfg *config.Config, convStore store.ConversationStore, kv store.KVStore, provider catalog.Provider,
	base knowledge.Base, quizEngine *quiz.Engine, asm *assembler.Assembler,
	gateway genai.ClientInterface, authorizer auth.Authorizer) *Engine {

	e := &Engine{
		cfg:        cfg,
		convStore:  convStore,
		kv:         kv,
		catalog:    provider,
		knowledge:  base,
		matcher:    knowledge.NewMatcher(base, cfg.Language),
		quiz:       quizEngine,
		assembler:  asm,
		gateway:    gateway,
		authorizer: authorizer,
	}
	e.routes = []route{
		{name: "questionnaire", match: e.matchQuestionnaire, handle: e.handleQuestionnaire},
		{name: "count", match: matchPatterns(countPatterns), handle: e.handleCount},
		{name: "more", match: e.matchShowMore, handle: e.handleShowMore},
		{name: "contact", match: matchPatterns(contactPatterns), handle: e.handleContact},
		{name: "faq", match: e.matchFAQ, handle: e.handleFAQ},
		{name: "model", match: matchAlways, handle: e.handleModel},
	}
	return e
}

// Routes returns the declared routing order, for diagnostics and tests.
func (e *Engine) Routes() []string {
	names := make([]string, len(e.routes))
	for i, r := range e.routes {
		names[i] = r.name
	}
	return names
}

// ProcessMessage drives one message through the pipeline and always returns
// a response envelope; internal failures are converted to localized
// conversational messages, never surfaced raw.
func (e *Engine) ProcessMessage(ctx context.Context, inbound models.InboundMessage) *models.OutboundMessage {
	if err := inbound.Validate(); err != nil {
		slog.Debug("Engine.ProcessMessage: validation failed", "error", err)
		message := msgEmptyInput
		if errors.Is(err, models.ErrMessageTooLong) {
			message = msgTooLong
		}
		return &models.OutboundMessage{Success: false, Message: message, ConversationID: inbound.ConversationID}
	}

	req := &request{
		conversationID: inbound.ConversationID,
		masked:         MaskPII(inbound.Text),
		flags:          inbound.SessionFlags,
	}
	if req.conversationID == "" {
		req.conversationID = uuid.NewString()
		slog.Debug("Engine.ProcessMessage: generated conversation id", "conversationID", req.conversationID)
	}
	req.keywords = assembler.ExtractKeywords(req.masked)

	var response *models.OutboundMessage
	for _, r := range e.routes {
		if !r.match(ctx, req) {
			continue
		}
		slog.Debug("Engine.ProcessMessage: route matched", "route", r.name, "conversationID", req.conversationID)
		out, err := r.handle(ctx, req)
		if err != nil {
			slog.Error("Engine.ProcessMessage: handler failed", "error", err, "route", r.name, "conversationID", req.conversationID)
			response = &models.OutboundMessage{Success: false, Message: msgGenericError, ConversationID: req.conversationID}
		} else {
			response = out
		}
		break
	}
	if response == nil {
		// The model route matches everything, so this is unreachable unless
		// the routing table is misconfigured.
		response = &models.OutboundMessage{Success: false, Message: msgGenericError, ConversationID: req.conversationID}
	}
	response.ConversationID = req.conversationID

	e.persistTurns(ctx, req.conversationID, req.masked, response.Message)
	return response
}

// persistTurns appends the (user, assistant) pair best-effort: a failed
// append never fails the user-visible response.
func (e *Engine) persistTurns(ctx context.Context, conversationID, userText, assistantText string) {
	if err := e.convStore.Append(ctx, conversationID, models.RoleUser, userText); err != nil {
		slog.Error("Engine.persistTurns: failed to append user turn", "error", err, "conversationID", conversationID)
	}
	if err := e.convStore.Append(ctx, conversationID, models.RoleAssistant, assistantText); err != nil {
		slog.Error("Engine.persistTurns: failed to append assistant turn", "error", err, "conversationID", conversationID)
	}
}

func matchAlways(ctx context.Context, req *request) bool { return true }

// matchPatterns builds a predicate matching any of the given substrings,
// case-insensitive.
func matchPatterns(patterns []string) func(ctx context.Context, req *request) bool {
	return func(ctx context.Context, req *request) bool {
		lower := strings.ToLower(req.masked)
		for _, pattern := range patterns {
			if strings.Contains(lower, pattern) {
				return true
			}
		}
		return false
	}
}

func (e *Engine) matchQuestionnaire(ctx context.Context, req *request) bool {
	if req.flags.QuestionnaireActive {
		return true
	}
	active, err := e.quiz.Active(ctx, req.conversationID)
	if err != nil {
		slog.Error("Engine.matchQuestionnaire: state check failed", "error", err, "conversationID", req.conversationID)
		return false
	}
	if active {
		return true
	}
	return matchPatterns(questionnaireStartKeywords)(ctx, req)
}

func (e *Engine) handleQuestionnaire(ctx context.Context, req *request) (*models.OutboundMessage, error) {
	active := req.flags.QuestionnaireActive
	if !active {
		var err error
		active, err = e.quiz.Active(ctx, req.conversationID)
		if err != nil {
			return nil, fmt.Errorf("questionnaire state check failed: %w", err)
		}
	}

	// A matched start keyword without authorization gets the upsell message
	// without invoking any other component.
	if !active && !e.authorizer.IsFeatureAuthorized(auth.FeatureQuestionnaire) {
		return &models.OutboundMessage{Success: true, Message: msgUpsell}, nil
	}

	var result *quiz.Result
	var err error
	if active {
		result, err = e.quiz.Answer(ctx, req.conversationID, req.masked)
		if errors.Is(err, quiz.ErrInactive) {
			// Expired or finalized state is not resumable: start fresh.
			result, err = e.quiz.Start(ctx, req.conversationID)
		}
	} else {
		result, err = e.quiz.Start(ctx, req.conversationID)
	}
	if err != nil {
		return nil, fmt.Errorf("questionnaire step failed: %w", err)
	}

	if result.Profile != nil {
		return e.profileResponse(ctx, req, result.Profile)
	}
	prompt := result.Prompt
	return &models.OutboundMessage{
		Success: true,
		Message: prompt.Question,
		Meta: &models.ResponseMeta{
			Questionnaire: &models.QuestionnaireMeta{
				Active:     true,
				StepIndex:  prompt.StepIndex,
				TotalSteps: prompt.TotalSteps,
				Key:        prompt.Key,
			},
			QuickReplies: prompt.Options,
		},
	}, nil
}

// profileResponse renders a finalized profile with its first page of
// recommendations and seeds the pagination offset.
func (e *Engine) profileResponse(ctx context.Context, req *request, profile *models.Profile) (*models.OutboundMessage, error) {
	var sb strings.Builder
	sb.WriteString("Jouw profiel: " + profile.Label + ". " + profile.Summary)

	items, err := e.quiz.Recommendations(ctx, req.conversationID, 0, RecommendationPageSize)
	if err != nil {
		slog.Error("Engine.profileResponse: recommendations failed", "error", err, "conversationID", req.conversationID)
	}
	if len(items) > 0 {
		sb.WriteString("\n\nAanraders voor jou:\n")
		for _, item := range items {
			sb.WriteString("- " + item.Name)
			if item.Price > 0 {
				sb.WriteString(fmt.Sprintf(" (€%.2f)", item.Price))
			}
			sb.WriteString("\n")
		}
		e.setOffset(ctx, req.conversationID, len(items))
		if len(profile.MatchedItemIDs) > len(items) {
			sb.WriteString("\nZeg 'toon meer' voor meer aanbevelingen.")
		}
	}

	total := e.quiz.TotalSteps()
	return &models.OutboundMessage{
		Success: true,
		Message: strings.TrimRight(sb.String(), "\n"),
		Meta: &models.ResponseMeta{
			Questionnaire: &models.QuestionnaireMeta{Active: false, StepIndex: total, TotalSteps: total},
		},
	}, nil
}

func (e *Engine) matchShowMore(ctx context.Context, req *request) bool {
	if !matchPatterns(morePatterns)(ctx, req) {
		return false
	}
	profile, err := e.quiz.CachedProfile(ctx, req.conversationID)
	if err != nil {
		slog.Error("Engine.matchShowMore: profile lookup failed", "error", err, "conversationID", req.conversationID)
		return false
	}
	return profile != nil
}

func (e *Engine) handleShowMore(ctx context.Context, req *request) (*models.OutboundMessage, error) {
	offset := e.getOffset(ctx, req.conversationID)
	items, err := e.quiz.Recommendations(ctx, req.conversationID, offset, RecommendationPageSize)
	if err != nil {
		return nil, fmt.Errorf("recommendation page failed: %w", err)
	}
	if len(items) == 0 {
		return &models.OutboundMessage{Success: true, Message: msgNoMoreProducts}, nil
	}

	var sb strings.Builder
	sb.WriteString("Meer aanbevelingen:\n")
	for _, item := range items {
		sb.WriteString("- " + item.Name)
		if item.Price > 0 {
			sb.WriteString(fmt.Sprintf(" (€%.2f)", item.Price))
		}
		sb.WriteString("\n")
	}
	e.setOffset(ctx, req.conversationID, offset+len(items))
	return &models.OutboundMessage{Success: true, Message: strings.TrimRight(sb.String(), "\n")}, nil
}

func (e *Engine) handleCount(ctx context.Context, req *request) (*models.OutboundMessage, error) {
	count, err := e.catalog.CountPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog count failed: %w", err)
	}
	return &models.OutboundMessage{
		Success: true,
		Message: fmt.Sprintf("We hebben momenteel %d producten in ons assortiment.", count),
	}, nil
}

func (e *Engine) handleContact(ctx context.Context, req *request) (*models.OutboundMessage, error) {
	return &models.OutboundMessage{
		Success: true,
		Message: fmt.Sprintf("Je bereikt ons via %s of telefonisch op %s.", e.cfg.ContactEmail, e.cfg.ContactPhone),
	}, nil
}

func (e *Engine) matchFAQ(ctx context.Context, req *request) bool {
	_, found, err := e.matcher.Match(ctx, req.masked)
	if err != nil {
		slog.Error("Engine.matchFAQ: matcher failed", "error", err, "conversationID", req.conversationID)
		return false
	}
	return found
}

// handleFAQ returns the stored answer verbatim; the model is never invoked.
func (e *Engine) handleFAQ(ctx context.Context, req *request) (*models.OutboundMessage, error) {
	answer, found, err := e.matcher.Match(ctx, req.masked)
	if err != nil {
		return nil, fmt.Errorf("FAQ match failed: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("FAQ entry disappeared between match and handle")
	}
	return &models.OutboundMessage{Success: true, Message: answer}, nil
}

// handleModel assembles context and calls the gateway, degrading through the
// fallback chain on failure: knowledge matcher retry, rule-based responder,
// static apology.
func (e *Engine) handleModel(ctx context.Context, req *request) (*models.OutboundMessage, error) {
	if req.flags.RateLimited {
		return &models.OutboundMessage{Success: true, Message: msgBusy}, nil
	}

	doc, keywords, err := e.assembler.Assemble(ctx, req.masked)
	if err != nil {
		slog.Error("Engine.handleModel: context assembly failed", "error", err, "conversationID", req.conversationID)
		doc = &assembler.Document{}
	}
	if len(keywords) > 0 {
		req.keywords = keywords
	}

	if e.gateway == nil || !e.authorizer.IsFeatureAuthorized(auth.FeatureAIChat) {
		reply, concrete := e.ruleBasedReply(ctx, req, doc)
		if !concrete {
			reply = fmt.Sprintf("Ik ben %s. Stel gerust een vraag over onze producten, verzending of ingrediënten.", e.cfg.AssistantTitle)
		}
		return &models.OutboundMessage{Success: true, Message: reply}, nil
	}

	result, err := e.gateway.SendChat(ctx, e.buildMessages(ctx, req, doc), models.ModelConfig{
		Model:       e.cfg.Model,
		Temperature: e.cfg.Temperature,
		MaxTokens:   e.cfg.MaxTokens,
	})
	if err == nil {
		return &models.OutboundMessage{Success: true, Message: result.Content}, nil
	}
	slog.Warn("Engine.handleModel: gateway failed, degrading", "error", err, "conversationID", req.conversationID)

	// Fallback chain: the matcher may still know the answer.
	if answer, found, matchErr := e.matcher.Match(ctx, req.masked); matchErr == nil && found {
		return &models.OutboundMessage{Success: true, Message: answer}, nil
	}
	if reply, concrete := e.ruleBasedReply(ctx, req, doc); concrete {
		return &models.OutboundMessage{Success: true, Message: reply}, nil
	}
	return &models.OutboundMessage{Success: true, Message: msgApology}, nil
}

// buildMessages builds the gateway prompt: persona and context as system
// messages, recent history, then the current message.
func (e *Engine) buildMessages(ctx context.Context, req *request, doc *assembler.Document) []openai.ChatCompletionMessageParamUnion {
	doc.Rules = []string{
		fmt.Sprintf("Je bent %s, de assistent van onze webwinkel.", e.cfg.AssistantTitle),
		"Beantwoord alleen vragen over de winkel, producten en verzorging.",
		"Gebruik uitsluitend de productinformatie hieronder; verzin niets.",
		"Antwoord kort en vriendelijk in de taal van de klant.",
	}

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(doc.Render()),
	}
	history, err := e.convStore.Read(ctx, req.conversationID, HistoryLimit)
	if err != nil {
		slog.Error("Engine.buildMessages: history read failed", "error", err, "conversationID", req.conversationID)
		history = nil
	}
	for _, turn := range history {
		switch turn.Role {
		case models.RoleUser:
			messages = append(messages, openai.UserMessage(turn.Content))
		case models.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Content))
		}
	}
	return append(messages, openai.UserMessage(req.masked))
}

func (e *Engine) getOffset(ctx context.Context, conversationID string) int {
	raw, found, err := e.kv.Get(ctx, offsetKeyPrefix+conversationID)
	if err != nil || !found {
		return 0
	}
	offset, err := strconv.Atoi(raw)
	if err != nil || offset < 0 {
		return 0
	}
	return offset
}

func (e *Engine) setOffset(ctx context.Context, conversationID string, offset int) {
	if err := e.kv.Set(ctx, offsetKeyPrefix+conversationID, strconv.Itoa(offset), quiz.DefaultTTL); err != nil {
		slog.Error("Engine.setOffset: failed to store pagination offset", "error", err, "conversationID", conversationID)
	}
}
