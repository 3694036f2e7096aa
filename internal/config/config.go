package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`

	AWSRegion           string `mapstructure:"AWS_REGION"`
	BedrockModelID      string `mapstructure:"BEDROCK_MODEL_ID"`
	BedrockHaikuID      string `mapstructure:"BEDROCK_HAIKU_MODEL_ID"`
	KnowledgeBaseID     string `mapstructure:"KNOWLEDGE_BASE_ID"`
	BedrockAgentID      string `mapstructure:"BEDROCK_AGENT_ID"`
	BedrockAgentAliasID string `mapstructure:"BEDROCK_AGENT_ALIAS_ID"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	TrialsFile string `mapstructure:"TRIALS_FILE"`

	AuthJWTSecret string   `mapstructure:"AUTH_JWT_SECRET"`
	CORSOrigins   []string `mapstructure:"CORS_ORIGINS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("BEDROCK_MODEL_ID", "anthropic.claude-3-sonnet-20240229-v1:0")
	v.SetDefault("BEDROCK_HAIKU_MODEL_ID", "anthropic.claude-3-haiku-20240307-v1:0")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("TRIALS_FILE", "data/clinical_trials.json")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("AWS_REGION")
	v.BindEnv("BEDROCK_MODEL_ID")
	v.BindEnv("BEDROCK_HAIKU_MODEL_ID")
	v.BindEnv("KNOWLEDGE_BASE_ID")
	v.BindEnv("BEDROCK_AGENT_ID")
	v.BindEnv("BEDROCK_AGENT_ALIAS_ID")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("TRIALS_FILE")
	v.BindEnv("AUTH_JWT_SECRET")
	v.BindEnv("CORS_ORIGINS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// HasDatabase reports whether a Postgres URL was configured. Without one the
// server runs with the file-backed trial catalog and no audit records.
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

// HasAgent reports whether the remote agent path can be mounted.
func (c *Config) HasAgent() bool {
	return c.BedrockAgentID != "" && c.BedrockAgentAliasID != ""
}

// Validate checks that the configuration is safe to run. The model id is the
// only hard requirement; the agent ids must come in pairs when set.
func (c *Config) Validate() error {
	if c.BedrockModelID == "" {
		return fmt.Errorf("BEDROCK_MODEL_ID is required")
	}
	if (c.BedrockAgentID == "") != (c.BedrockAgentAliasID == "") {
		return fmt.Errorf("BEDROCK_AGENT_ID and BEDROCK_AGENT_ALIAS_ID must be set together")
	}
	if c.IsProduction() && c.AuthJWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required in production")
	}
	return nil
}
