package cmd

import (
	"errors"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/job-agent/internal/filtering"
)

const (
	app = "job-agent"
)

type Config struct {
	DataDir        string   `mapstructure:"data-dir"`
	Listen         string   `mapstructure:"listen"`
	AllowedOrigins []string `mapstructure:"allowed-origins"`

	Storage    *StorageConfig    `mapstructure:"storage"`
	Embeddings *EmbeddingsConfig `mapstructure:"embeddings"`
	Gemini     *GeminiConfig     `mapstructure:"gemini"`
	OpenAI     *OpenAIConfig     `mapstructure:"openai"`
	Search     *SearchConfig     `mapstructure:"search"`
	Contacts   *ContactsConfig   `mapstructure:"contacts"`
	Filters    filtering.Config  `mapstructure:"filters"`
}

type StorageConfig struct {
	Driver      string `mapstructure:"driver"`
	PostgresURL string `mapstructure:"postgres-url"`
}

type EmbeddingsConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	TaskType string `mapstructure:"task-type"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type OpenAIConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	BaseURL    string `mapstructure:"base-url"`
	Model      string `mapstructure:"model"`
	MaxRetries int    `mapstructure:"max-retries"`
}

type SearchConfig struct {
	SerpAPIKey     string  `mapstructure:"serpapi-key"`
	SerpAPIKeyFile string  `mapstructure:"serpapi-key-file"`
	Timeout        string  `mapstructure:"timeout"`
	Rate           float64 `mapstructure:"rate"`
}

type ContactsConfig struct {
	RocketReachKey     string `mapstructure:"rocketreach-key"`
	RocketReachKeyFile string `mapstructure:"rocketreach-key-file"`
}

var envBindings = map[string]string{
	"gemini.api-key":           "GOOGLE_API_KEY",
	"embeddings.model":         "GEMINI_EMBEDDINGS_MODEL",
	"openai.api-key":           "OPENAI_API_KEY",
	"search.serpapi-key":       "SERPAPI_KEY",
	"contacts.rocketreach-key": "ROCKETREACH_API_KEY",
	"data-dir":                 "DATA_DIR",
	"storage.postgres-url":     "DATABASE_URL",
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "job-agent finds job postings for a candidate profile and ranks them by relevance",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// A missing .env is fine, the environment may already be set.
	_ = godotenv.Load()

	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("data-dir", "data")
	viper.SetDefault("listen", ":8000")
	viper.SetDefault("storage.driver", "file")
	viper.SetDefault("embeddings.provider", "gemini")
	viper.SetDefault("search.timeout", "25s")
	viper.SetDefault("search.rate", 1.0)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is job-agent.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional, everything can come from the environment.
	// An explicitly given or broken file is still fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.Storage == nil {
		config.Storage = &StorageConfig{}
	}
	if config.Embeddings == nil {
		config.Embeddings = &EmbeddingsConfig{}
	}
	if config.Gemini == nil {
		config.Gemini = &GeminiConfig{}
	}
	if config.OpenAI == nil {
		config.OpenAI = &OpenAIConfig{}
	}
	if config.Search == nil {
		config.Search = &SearchConfig{}
	}
	if config.Contacts == nil {
		config.Contacts = &ContactsConfig{}
	}

	return config, nil
}
