// Package config loads pipeline configuration from the environment and an
// optional config file. All tuning thresholds live here; the heuristic
// constants are empirically tuned and carry no deeper meaning.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full configuration surface consumed by the pipeline.
type Config struct {
	// Extraction.
	OCREnabled    bool          `mapstructure:"ocr_enabled"`
	MinTextLength int           `mapstructure:"min_text_length"`
	Pdftotext     string        `mapstructure:"pdftotext"`
	Pdftoppm      string        `mapstructure:"pdftoppm"`
	Tesseract     string        `mapstructure:"tesseract"`
	TesseractLang string        `mapstructure:"tesseract_lang"`
	OCRDPI        int           `mapstructure:"ocr_dpi"`
	OCRTimeout    time.Duration `mapstructure:"ocr_timeout"`

	// Quality thresholds.
	MinScore            int     `mapstructure:"min_score"`
	HighQualityScore    int     `mapstructure:"high_quality_score"`
	MinTransactions     int     `mapstructure:"min_transactions"`
	LowTransactionCount int     `mapstructure:"low_transaction_count"`
	MaxGarbledRatio     float64 `mapstructure:"max_garbled_ratio"`

	// Reconciliation and fallback arbitration.
	ReconciliationRatio   float64 `mapstructure:"reconciliation_ratio"`
	ExternalPreferMargin  int     `mapstructure:"external_prefer_margin"`
	LocalStickinessMargin int     `mapstructure:"local_stickiness_margin"`

	// Issuers whose text layer is reliable enough that OCR degrades quality.
	OCRSkipIssuers []string `mapstructure:"ocr_skip_issuers"`

	// External document-extraction service.
	ExternalURL        string        `mapstructure:"external_url"`
	ExternalAPIKey     string        `mapstructure:"external_api_key"`
	ExternalTimeout    time.Duration `mapstructure:"external_timeout"`
	ExternalMaxRetries int           `mapstructure:"external_max_retries"`

	// Structured-extraction collaborator (LLM).
	LLMBaseURL     string        `mapstructure:"llm_base_url"`
	LLMAPIKey      string        `mapstructure:"llm_api_key"`
	LLMModel       string        `mapstructure:"llm_model"`
	LLMTemperature float64       `mapstructure:"llm_temperature"`
	LLMTimeout     time.Duration `mapstructure:"llm_timeout"`

	// Server.
	ListenAddr string `mapstructure:"listen_addr"`
	LogLevel   string `mapstructure:"log_level"`
	LogFormat  string `mapstructure:"log_format"`
}

// Load reads configuration from INVOICE_* env vars and, when present, a
// config.yaml in the working directory or at configPath.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("ocr_enabled", true)
	v.SetDefault("min_text_length", 300)
	v.SetDefault("pdftotext", "pdftotext")
	v.SetDefault("pdftoppm", "pdftoppm")
	v.SetDefault("tesseract", "tesseract")
	v.SetDefault("tesseract_lang", "por")
	v.SetDefault("ocr_dpi", 300)
	v.SetDefault("ocr_timeout", 2*time.Minute)

	v.SetDefault("min_score", 50)
	v.SetDefault("high_quality_score", 85)
	v.SetDefault("min_transactions", 1)
	v.SetDefault("low_transaction_count", 2)
	v.SetDefault("max_garbled_ratio", 0.15)

	v.SetDefault("reconciliation_ratio", 0.96)
	v.SetDefault("external_prefer_margin", 20)
	v.SetDefault("local_stickiness_margin", 5)

	v.SetDefault("ocr_skip_issuers", []string{"nubank", "inter"})

	v.SetDefault("external_timeout", 60*time.Second)
	v.SetDefault("external_max_retries", 3)

	v.SetDefault("llm_base_url", "https://api.openai.com/v1")
	v.SetDefault("llm_model", "gpt-4o-mini")
	v.SetDefault("llm_temperature", 0.0)
	v.SetDefault("llm_timeout", 90*time.Second)

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetEnvPrefix("INVOICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		// A missing default config file is fine; env vars and defaults cover
		// everything. An explicitly named file must exist.
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SkipsOCR reports whether the given issuer is configured to avoid OCR.
func (c *Config) SkipsOCR(issuer string) bool {
	for _, s := range c.OCRSkipIssuers {
		if s == issuer {
			return true
		}
	}
	return false
}
