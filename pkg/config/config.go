package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Assistant AssistantConfig `mapstructure:"assistant"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Workflow  WorkflowConfig  `mapstructure:"workflow"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	JWTSecret      string        `mapstructure:"jwt_secret"`
	StaticDir      string        `mapstructure:"static_dir"`
}

type LogConfig struct {
	Development bool `mapstructure:"development"`
}

type DatabaseConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	UseInMemory bool   `mapstructure:"use_in_memory"`
}

type OpenAIConfig struct {
	APIKey           string   `mapstructure:"api_key"`
	ChatModel        string   `mapstructure:"chat_model"`
	O1Model          string   `mapstructure:"o1_model"`
	PDRModel         string   `mapstructure:"pdr_model"`
	AssistantID      string   `mapstructure:"assistant_id"`
	AssistantModel   string   `mapstructure:"assistant_model"`
	ReferenceFileIDs []string `mapstructure:"reference_file_ids"`
}

// AssistantConfig holds the polling and retry policy of the run orchestrator.
type AssistantConfig struct {
	MaxAttempts  int           `mapstructure:"max_attempts"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
}

type AnthropicConfig struct {
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

type GeminiConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	TopK        int     `mapstructure:"top_k"`
	TopP        float64 `mapstructure:"top_p"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

type WorkflowConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	BaseURL       string        `mapstructure:"base_url"`
	Version       string        `mapstructure:"version"`
	ChatAppID     string        `mapstructure:"chat_app_id"`
	DocumentAppID string        `mapstructure:"document_app_id"`
	ResearchAppID string        `mapstructure:"research_app_id"`
	ReviewAppID   string        `mapstructure:"review_app_id"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}

	password, _ := u.User.Password()
	port := 5432 // default PostgreSQL port
	if u.Port() != "" {
		fmt.Sscanf(u.Port(), "%d", &port)
	}

	dbName := strings.TrimPrefix(u.Path, "/")

	sslMode := u.Query().Get("sslmode")
	if sslMode == "" {
		sslMode = "disable"
	}

	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   dbName,
		SSLMode:  sslMode,
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 4006)
	v.SetDefault("server.request_timeout", 5*time.Minute)
	v.SetDefault("server.max_upload_bytes", 100*1024*1024)
	v.SetDefault("server.rate_limit", 20)

	v.SetDefault("log.development", false)

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.use_in_memory", true)

	v.SetDefault("openai.chat_model", "o1-mini")
	v.SetDefault("openai.o1_model", "o1-preview-2024-09-12")
	v.SetDefault("openai.pdr_model", "gpt-4o-mini")
	v.SetDefault("openai.assistant_model", "gpt-4o-mini")

	v.SetDefault("assistant.max_attempts", 30)
	v.SetDefault("assistant.poll_interval", time.Second)
	v.SetDefault("assistant.max_retries", 2)
	v.SetDefault("assistant.retry_backoff", 2*time.Second)

	v.SetDefault("anthropic.model", "claude-3-5-sonnet-20241022")
	v.SetDefault("anthropic.max_tokens", 4000)

	v.SetDefault("gemini.model", "gemini-pro")
	v.SetDefault("gemini.temperature", 0.7)
	v.SetDefault("gemini.top_k", 40)
	v.SetDefault("gemini.top_p", 0.95)
	v.SetDefault("gemini.max_tokens", 4000)

	v.SetDefault("workflow.base_url", "https://app.wordware.ai")
	v.SetDefault("workflow.version", "^1.0")
	v.SetDefault("workflow.document_app_id", "a0747fc6-c819-429e-b307-e64eb330f9f3")
	v.SetDefault("workflow.research_app_id", "2b146324-34f7-496a-9968-8dd3dd3c8fe2")
	v.SetDefault("workflow.timeout", 5*time.Minute)
}

// LoadConfig reads the YAML file at path (a missing file is not an error),
// applies defaults and then environment overrides.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if dbURL := v.GetString("DATABASE_URL"); dbURL != "" {
		dbConfig, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %v", err)
		}
		config.Database = dbConfig
	}

	if apiKey := v.GetString("OPENAI_API_KEY"); apiKey != "" {
		config.OpenAI.APIKey = apiKey
	}
	if apiKey := v.GetString("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Anthropic.APIKey = apiKey
	}
	if apiKey := v.GetString("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if apiKey := v.GetString("WORDWARE_API_KEY"); apiKey != "" {
		config.Workflow.APIKey = apiKey
	}
	if secret := v.GetString("JWT_SECRET"); secret != "" {
		config.Server.JWTSecret = secret
	}
	if port := v.GetInt("PORT"); port != 0 {
		config.Server.Port = port
	}

	return &config, nil
}
