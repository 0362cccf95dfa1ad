package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"  validate:"required"`
	Storage StorageConfig `mapstructure:"storage" validate:"required"`
	Anki    AnkiConfig    `mapstructure:"anki"    validate:"required"`
	LLM     LLMConfig     `mapstructure:"llm"     validate:"required"`
	Save    SaveConfig    `mapstructure:"save"    validate:"required"`
}

// ServerConfig contains the HTTP trigger surface settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// StorageConfig locates the local database file holding the pending-clip
// queue and the prompt history.
type StorageConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// AnkiConfig contains the card target service settings.
type AnkiConfig struct {
	Endpoint string `mapstructure:"endpoint" validate:"required,url"`

	// SyncDelaySeconds is the one-shot delay before a queued flush fires.
	// A tuning parameter, not a correctness parameter.
	SyncDelaySeconds int `mapstructure:"sync_delay_seconds" validate:"required,gte=1"`
}

// LLMConfig contains the generation service settings.
type LLMConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"       validate:"required"`
	Temperature float32 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `mapstructure:"max_tokens"  validate:"required,gt=0"`

	// MaxRetries bounds the cloze-generation retry loop, counting the
	// first attempt.
	MaxRetries int `mapstructure:"max_retries" validate:"required,gte=1"`

	// RetryBaseDelayMS is the base for exponential backoff between
	// attempts: attempt n waits base * 2^(n-1).
	RetryBaseDelayMS int `mapstructure:"retry_base_delay_ms" validate:"required,gte=1"`

	QuestionTemplate string `mapstructure:"question_template" validate:"required"`
	ClozeTemplate    string `mapstructure:"cloze_template"    validate:"required"`
}

// RetryBaseDelay returns the backoff base as a duration.
func (c LLMConfig) RetryBaseDelay() time.Duration {
	return time.Duration(c.RetryBaseDelayMS) * time.Millisecond
}

// SaveConfig contains the user's destination and generation preferences.
type SaveConfig struct {
	DeckName       string `mapstructure:"deck_name"        validate:"required"`
	ModelName      string `mapstructure:"model_name"       validate:"required"`
	ClozeModelName string `mapstructure:"cloze_model_name" validate:"required"`

	GenerateFront bool `mapstructure:"generate_front"`
	GenerateCloze bool `mapstructure:"generate_cloze"`

	// AlwaysConfirm forces the manual-entry path even when generation
	// succeeded.
	AlwaysConfirm bool `mapstructure:"always_confirm"`
}
