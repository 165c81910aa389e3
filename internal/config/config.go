package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Engines understood by analysis.engine.
const (
	EngineProxy  = "proxy"
	EngineGemini = "gemini"
)

// DefaultProxyURL is the hosted inference proxy the web client talked to.
const DefaultProxyURL = "https://gemini-proxy.fischervorchdorf.workers.dev/"

// BattlePrompt is one versioned pair of system instruction and user prompt.
type BattlePrompt struct {
	SystemInstruction string `mapstructure:"systemInstruction"`
	Prompt            string `mapstructure:"prompt"`
}

// BattlePrompts selects the active prompt version.
type BattlePrompts struct {
	CurrentVersion string                  `mapstructure:"currentVersion"`
	Versions       map[string]BattlePrompt `mapstructure:"versions"`
}

type PromptConfig struct {
	Battle BattlePrompts `mapstructure:"battle"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	AllowedOrigins  []string      `mapstructure:"allowedOrigins"`
	MaxUploadBytes  int64         `mapstructure:"maxUploadBytes"`
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
}

// AnalysisConfig controls the battle analysis pipeline.
type AnalysisConfig struct {
	Engine               string        `mapstructure:"engine"`
	Timeout              time.Duration `mapstructure:"timeout"`
	Temperature          float32       `mapstructure:"temperature"`
	StrictValidation     bool          `mapstructure:"strictValidation"`
	FallbackErrorMessage string        `mapstructure:"fallbackErrorMessage"`
}

type ProxyConfig struct {
	URL         string        `mapstructure:"url"`
	HTTPTimeout time.Duration `mapstructure:"httpTimeout"`
}

type GeminiClientConfig struct {
	APIKey   string `mapstructure:"apiKey"`
	Model    string `mapstructure:"model"`
	Endpoint string `mapstructure:"endpoint"`
}

type SchedulerConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	SweepCronSpec  string        `mapstructure:"sweepCronSpec"`
	SessionIdleTTL time.Duration `mapstructure:"sessionIdleTTL"`
}

type PreviewConfig struct {
	Dir string `mapstructure:"dir"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Config is the full application configuration.
type Config struct {
	AppName      string             `mapstructure:"appName"`
	Server       ServerConfig       `mapstructure:"server"`
	Analysis     AnalysisConfig     `mapstructure:"analysis"`
	Proxy        ProxyConfig        `mapstructure:"proxy"`
	GeminiClient GeminiClientConfig `mapstructure:"geminiClient"`
	Prompts      PromptConfig       `mapstructure:"prompts"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler"`
	Preview      PreviewConfig      `mapstructure:"preview"`
	Log          LogConfig          `mapstructure:"log"`
}

// Load reads configName.yaml from configPath, overlays environment variables
// (analysis.timeout -> ANALYSIS_TIMEOUT) and fills in defaults. A missing file
// is not an error.
func Load(configPath string, configName string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(configPath)
	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			log.Warn().Str("path", configPath).Str("name", configName).Msg("[Config] config file not found, using defaults and environment")
		} else {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Info().Str("appName", cfg.AppName).Str("engine", cfg.Analysis.Engine).Msg("[Config] configuration loaded")
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("appName", "battle-arena")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowedOrigins", []string{"*"})
	v.SetDefault("server.maxUploadBytes", 20<<20)
	v.SetDefault("server.shutdownTimeout", 30*time.Second)

	v.SetDefault("analysis.engine", EngineProxy)
	v.SetDefault("analysis.timeout", 60*time.Second)
	v.SetDefault("analysis.temperature", 0.7)
	v.SetDefault("analysis.strictValidation", false)
	v.SetDefault("analysis.fallbackErrorMessage", "Die Battle-Analyse ist fehlgeschlagen. Ein KI-Experiment des Heimatvereins Vorchdorf (v5.1)")

	v.SetDefault("proxy.url", DefaultProxyURL)
	v.SetDefault("proxy.httpTimeout", 90*time.Second)

	v.SetDefault("geminiClient.apiKey", "")
	v.SetDefault("geminiClient.model", "gemini-2.5-flash")
	v.SetDefault("geminiClient.endpoint", "")

	v.SetDefault("prompts.battle.currentVersion", "de-v5")

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.sweepCronSpec", "0 */5 * * * *")
	v.SetDefault("scheduler.sessionIdleTTL", 30*time.Minute)

	v.SetDefault("preview.dir", filepath.Join(os.TempDir(), "battle-arena-previews"))

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// Validate checks the settings that would otherwise only fail at request time.
func (c *Config) Validate() error {
	switch c.Analysis.Engine {
	case EngineProxy:
		if strings.TrimSpace(c.Proxy.URL) == "" {
			return errors.New("proxy.url must be set when analysis.engine is proxy")
		}
	case EngineGemini:
		if strings.TrimSpace(c.GeminiClient.APIKey) == "" {
			return errors.New("geminiClient.apiKey must be set when analysis.engine is gemini")
		}
	default:
		return fmt.Errorf("unknown analysis.engine %q (use %q or %q)", c.Analysis.Engine, EngineProxy, EngineGemini)
	}
	if c.Analysis.Timeout <= 0 {
		return fmt.Errorf("analysis.timeout must be positive, got %s", c.Analysis.Timeout)
	}
	return nil
}
