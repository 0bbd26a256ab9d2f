package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/job-agent/internal/agent"
	"github.com/spigell/job-agent/internal/ai"
	"github.com/spigell/job-agent/internal/ai/gemini"
	"github.com/spigell/job-agent/internal/ai/openai"
	"github.com/spigell/job-agent/internal/contacts"
	"github.com/spigell/job-agent/internal/filtering"
	"github.com/spigell/job-agent/internal/logger"
	"github.com/spigell/job-agent/internal/profile"
	"github.com/spigell/job-agent/internal/ranking"
	"github.com/spigell/job-agent/internal/search"
	"github.com/spigell/job-agent/internal/secrets"
)

// application holds everything a command needs.
type application struct {
	config *Config
	logger  *zap.Logger
	agent   *agent.Service
	store   profile.Store
	filters *filtering.Filtering
}

func (a *application) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("closing profile store", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// setup reads the config and builds the logger. Commands call it first.
func setup() (*Config, *zap.Logger) {
	log, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		logFatal("creating a logger", err)
	}

	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}

	log.Info("starting the job-agent", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	log.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	return config, log
}

// newApplication wires every component from the config.
func newApplication(ctx context.Context) *application {
	config, log := setup()

	store, err := newStore(ctx, config)
	if err != nil {
		log.Fatal("opening profile store", zap.Error(err))
	}

	genaiClient, err := newGenaiClient(ctx, config)
	if err != nil {
		log.Warn("gemini is not configured", zap.Error(err))
	}

	embedder, err := newEmbedder(config, genaiClient, log)
	if err != nil {
		log.Fatal("creating an embedder",
			zap.Error(err),
			zap.String("hint", "set GOOGLE_API_KEY for gemini or openai.api-key with embeddings.provider=openai"),
		)
	}

	composer, err := newComposer(config, genaiClient, log)
	if err != nil {
		log.Warn("email composing is disabled", zap.Error(err))
	}

	serp, err := newSerpClient(config, log)
	if err != nil {
		log.Fatal("creating a search client", zap.Error(err))
	}
	if !serp.Configured() {
		log.Warn("search api key is not set, portal searches return nothing", zap.String("hint", "set SERPAPI_KEY"))
	}

	rocketKey, err := secrets.Optional(secrets.Source{
		Name:  "rocketreach api key",
		Value: config.Contacts.RocketReachKey,
		File:  config.Contacts.RocketReachKeyFile,
	})
	if err != nil {
		log.Fatal("loading rocketreach api key", zap.Error(err))
	}

	filters := filtering.Standard(config.Filters, log)

	deps := agent.Deps{
		Store: store,
		Searchers: func(portal string) search.Searcher {
			return search.NewPortalSearcher(portal, serp)
		},
		Filters:  filters,
		Ranker:   ranking.NewEngine(embedder),
		Contacts: contacts.New(rocketKey, log.With(zap.String("component", "contacts"))),
		Logger:   log,
	}
	// A nil *Composer must not end up in the interface.
	if composer != nil {
		deps.Composer = composer
	}

	svc, err := agent.New(deps)
	if err != nil {
		log.Fatal("creating the agent", zap.Error(err))
	}

	return &application{config: config, logger: log, agent: svc, store: store, filters: filters}
}

func newStore(ctx context.Context, config *Config) (profile.Store, error) {
	switch driver := strings.ToLower(strings.TrimSpace(config.Storage.Driver)); driver {
	case "", "file":
		return profile.NewFileStore(config.DataDir)
	case "postgres":
		if config.Storage.PostgresURL == "" {
			return nil, fmt.Errorf("storage.postgres-url (or DATABASE_URL) is required for the postgres driver")
		}
		return profile.NewPostgresStore(ctx, config.Storage.PostgresURL)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", driver)
	}
}

func newGenaiClient(ctx context.Context, config *Config) (*genai.Client, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: config.Gemini.APIKey,
		File:  config.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set GOOGLE_API_KEY or gemini.api-key-file)", err)
	}
	return gemini.NewClient(ctx, apiKey)
}

func newEmbedder(config *Config, client *genai.Client, log *zap.Logger) (ai.Embedder, error) {
	switch provider := strings.ToLower(strings.TrimSpace(config.Embeddings.Provider)); provider {
	case "", "gemini":
		if client == nil {
			return nil, fmt.Errorf("gemini api key is required for gemini embeddings")
		}
		return gemini.NewEmbedder(client, config.Embeddings.Model, config.Embeddings.TaskType, config.Gemini.MaxRetries, log)
	case "openai":
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "openai api key",
			Value: config.OpenAI.APIKey,
			File:  config.OpenAI.APIKeyFile,
		})
		if err != nil {
			return nil, err
		}
		model := config.OpenAI.Model
		if model == "" {
			model = config.Embeddings.Model
		}
		return openai.NewEmbedder(openai.Config{
			APIKey:     apiKey,
			BaseURL:    config.OpenAI.BaseURL,
			Model:      model,
			MaxRetries: config.OpenAI.MaxRetries,
		}, log)
	default:
		return nil, fmt.Errorf("unsupported embeddings provider: %s", provider)
	}
}

func newComposer(config *Config, client *genai.Client, log *zap.Logger) (*gemini.Composer, error) {
	if client == nil {
		return nil, fmt.Errorf("gemini api key is required to compose emails")
	}

	generator, err := gemini.NewGenerator(client, config.Gemini.Model, config.Gemini.MaxRetries, config.Gemini.MaxLogLength, log)
	if err != nil {
		return nil, err
	}
	return gemini.NewComposer(generator, log), nil
}

func newSerpClient(config *Config, log *zap.Logger) (*search.SerpClient, error) {
	apiKey, err := secrets.Optional(secrets.Source{
		Name:  "serpapi key",
		Value: config.Search.SerpAPIKey,
		File:  config.Search.SerpAPIKeyFile,
	})
	if err != nil {
		return nil, err
	}

	var timeout time.Duration
	if config.Search.Timeout != "" {
		timeout, err = time.ParseDuration(config.Search.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parse search.timeout: %w", err)
		}
	}

	return search.NewSerpClient(apiKey, timeout, config.Search.Rate, log.With(zap.String("component", "search"))), nil
}

// redacted returns a copy of config safe to print.
func redacted(config *Config) Config {
	out := *config
	hide := func(s string) string {
		if s == "" {
			return ""
		}
		return "***"
	}

	if config.Storage != nil {
		storage := *config.Storage
		storage.PostgresURL = hide(storage.PostgresURL)
		out.Storage = &storage
	}
	if config.Gemini != nil {
		g := *config.Gemini
		g.APIKey = hide(g.APIKey)
		out.Gemini = &g
	}
	if config.OpenAI != nil {
		o := *config.OpenAI
		o.APIKey = hide(o.APIKey)
		out.OpenAI = &o
	}
	if config.Search != nil {
		s := *config.Search
		s.SerpAPIKey = hide(s.SerpAPIKey)
		out.Search = &s
	}
	if config.Contacts != nil {
		c := *config.Contacts
		c.RocketReachKey = hide(c.RocketReachKey)
		out.Contacts = &c
	}
	return out
}

func logFatal(msg string, err error) {
	log.Fatalf("%s: %s", msg, err)
}
