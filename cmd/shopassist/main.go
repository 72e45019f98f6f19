package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/greenleafbv/shopassist/internal/api"
	"github.com/greenleafbv/shopassist/internal/assembler"
	"github.com/greenleafbv/shopassist/internal/auth"
	"github.com/greenleafbv/shopassist/internal/catalog"
	"github.com/greenleafbv/shopassist/internal/config"
	"github.com/greenleafbv/shopassist/internal/engine"
	"github.com/greenleafbv/shopassist/internal/genai"
	"github.com/greenleafbv/shopassist/internal/knowledge"
	"github.com/greenleafbv/shopassist/internal/models"
	"github.com/greenleafbv/shopassist/internal/quiz"
	"github.com/greenleafbv/shopassist/internal/store"
)

func main() {
	// Load .env before envconfig so both feed the same variables.
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	parseCommandLineFlags(cfg)
	initializeLogger(cfg.Debug)

	convStore, err := buildConversationStore(cfg)
	if err != nil {
		slog.Error("Failed to initialize conversation store", "error", err)
		os.Exit(1)
	}
	kv, err := buildKVStore(cfg)
	if err != nil {
		slog.Error("Failed to initialize TTL store", "error", err)
		os.Exit(1)
	}

	provider := catalog.NewInMemoryProvider(loadCatalog(cfg.CatalogFile))
	base := buildKnowledgeBase(cfg.KnowledgeFile)
	quizEngine := quiz.NewEngine(kv, provider, loadSteps(cfg.StepsFile), loadRules(cfg.RulesFile))
	asm := assembler.New(provider)
	authorizer := auth.NewStaticAuthorizer(models.Tier(cfg.Tier))

	var gateway genai.ClientInterface
	if cfg.OpenAIKey != "" {
		client, err := genai.NewClient(cfg.OpenAIKey, nil, cfg.Debug)
		if err != nil {
			slog.Error("Failed to initialize model gateway", "error", err)
			os.Exit(1)
		}
		gateway = client
	} else {
		slog.Warn("No OpenAI API key configured, model path runs rule-based only")
	}

	eng := engine.New(cfg, convStore, kv, provider, base, quizEngine, asm, gateway, authorizer)
	server := api.NewServer(cfg.APIAddr, eng, convStore)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Bootstrapping ShopAssist", "addr", cfg.APIAddr, "tier", cfg.Tier, "driver", cfg.DBDriver)
	if err := server.Run(ctx); err != nil {
		slog.Error("ShopAssist failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("ShopAssist exited successfully")
}

// initializeLogger sets up structured logging on stdout.
func initializeLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// parseCommandLineFlags overlays command line arguments on the environment
// configuration.
func parseCommandLineFlags(cfg *config.Config) {
	apiAddr := flag.String("api-addr", cfg.APIAddr, "API server address (overrides $SHOPASSIST_API_ADDR)")
	dbDriver := flag.String("db-driver", cfg.DBDriver, "conversation store driver: memory, sqlite3 or postgres (overrides $SHOPASSIST_DB_DRIVER)")
	dbDSN := flag.String("db-dsn", cfg.DatabaseDSN, "database DSN or SQLite path (overrides $SHOPASSIST_DATABASE_DSN)")
	redisURL := flag.String("redis-url", cfg.RedisURL, "Redis URL for questionnaire state (overrides $SHOPASSIST_REDIS_URL)")
	openaiKey := flag.String("openai-api-key", cfg.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)")
	debug := flag.Bool("debug", cfg.Debug, "enable debug logging and raw provider errors")
	flag.Parse()

	cfg.APIAddr = *apiAddr
	cfg.DBDriver = *dbDriver
	cfg.DatabaseDSN = *dbDSN
	cfg.RedisURL = *redisURL
	cfg.OpenAIKey = *openaiKey
	cfg.Debug = *debug
}

// buildConversationStore selects the conversation store backend by driver.
func buildConversationStore(cfg *config.Config) (store.ConversationStore, error) {
	switch cfg.DBDriver {
	case "sqlite3":
		slog.Debug("Configuring SQLite conversation store", "path", cfg.DatabaseDSN)
		return store.NewSQLiteStore(store.WithDSN(cfg.DatabaseDSN))
	case "postgres":
		slog.Debug("Configuring PostgreSQL conversation store", "dsn_set", cfg.DatabaseDSN != "")
		return store.NewPostgresStore(store.WithDSN(cfg.DatabaseDSN))
	default:
		slog.Debug("Configuring in-memory conversation store")
		return store.NewInMemoryStore(), nil
	}
}

// buildKVStore selects the TTL store: Redis when configured, in-memory
// otherwise.
func buildKVStore(cfg *config.Config) (store.KVStore, error) {
	if cfg.RedisURL != "" {
		slog.Debug("Configuring Redis TTL store")
		return store.NewRedisKV(cfg.RedisURL)
	}
	slog.Debug("Configuring in-memory TTL store")
	return store.NewInMemoryKV(), nil
}

// loadCatalog reads the catalog item list from a JSON file; an absent or
// invalid file yields an empty catalog.
func loadCatalog(path string) []models.CatalogItem {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("Failed to read catalog file, starting with empty catalog", "error", err, "path", path)
		return nil
	}
	var items []models.CatalogItem
	if err := json.Unmarshal(data, &items); err != nil {
		slog.Warn("Failed to parse catalog file, starting with empty catalog", "error", err, "path", path)
		return nil
	}
	slog.Info("Catalog loaded", "items", len(items), "path", path)
	return items
}

// knowledgeDocument is the on-disk knowledge base format.
type knowledgeDocument struct {
	FAQs        []models.FAQEntry   `json:"faqs"`
	Ingredients []models.Ingredient `json:"ingredients"`
}

// buildKnowledgeBase reads FAQ pairs and ingredient facts from a JSON file;
// an absent or invalid file yields an empty base.
func buildKnowledgeBase(path string) knowledge.Base {
	if path == "" {
		return knowledge.NewInMemoryBase(nil, nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("Failed to read knowledge file, starting with empty base", "error", err, "path", path)
		return knowledge.NewInMemoryBase(nil, nil)
	}
	var doc knowledgeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		slog.Warn("Failed to parse knowledge file, starting with empty base", "error", err, "path", path)
		return knowledge.NewInMemoryBase(nil, nil)
	}
	slog.Info("Knowledge base loaded", "faqs", len(doc.FAQs), "ingredients", len(doc.Ingredients), "path", path)
	return knowledge.NewInMemoryBase(doc.FAQs, doc.Ingredients)
}

// loadSteps reads questionnaire steps from a JSON file; an absent or invalid
// file falls back to the built-in steps.
func loadSteps(path string) []models.StepDefinition {
	if path == "" {
		return quiz.DefaultSteps()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("Failed to read steps file, using built-in steps", "error", err, "path", path)
		return quiz.DefaultSteps()
	}
	steps, err := quiz.ParseSteps(data)
	if err != nil {
		slog.Warn("Failed to parse steps file, using built-in steps", "error", err, "path", path)
		return quiz.DefaultSteps()
	}
	slog.Info("Questionnaire steps loaded", "steps", len(steps), "path", path)
	return steps
}

// loadRules reads admin profile rules from a JSON file; an absent or invalid
// file yields no rules, leaving the built-in heuristic in charge.
func loadRules(path string) []models.ProfileRule {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("Failed to read profile rules file, using heuristic only", "error", err, "path", path)
		return nil
	}
	var rules []models.ProfileRule
	if err := json.Unmarshal(data, &rules); err != nil {
		slog.Warn("Failed to parse profile rules file, using heuristic only", "error", err, "path", path)
		return nil
	}
	slog.Info("Profile rules loaded", "rules", len(rules), "path", path)
	return rules
}
