package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Default prompt templates. Placeholders are substituted literally by the
// generation package.
const (
	defaultQuestionTemplate = "Write a single concise flashcard question whose answer is the " +
		"following text. Reply with the question only.\n\n" +
		"Text: {{text}}\nPage: {{title}}\nURL: {{url}}"

	defaultClozeTemplate = "Rewrite the following text as an Anki cloze deletion, hiding the " +
		"key terms with {{c1::...}} markers. Keep the original wording. Reply with the " +
		"rewritten text only.\n\n" +
		"Text: {{text}}\nPage: {{title}}\nURL: {{url}}"
)

// Load configuration from environment variables and optionally a config file.
// Environment variables (CLIPDECK_ prefix) take precedence over file values.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional config file: clipdeck.yaml in the working directory or
	// under the user's config directory. A missing file is not an error.
	v.SetConfigName("clipdeck")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/clipdeck")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("CLIPDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8477)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("storage.path", "clipdeck.db")

	v.SetDefault("anki.endpoint", "http://127.0.0.1:8765")
	v.SetDefault("anki.sync_delay_seconds", 30)

	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 256)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_base_delay_ms", 500)
	v.SetDefault("llm.question_template", defaultQuestionTemplate)
	v.SetDefault("llm.cloze_template", defaultClozeTemplate)

	v.SetDefault("save.deck_name", "Default")
	v.SetDefault("save.model_name", "Basic")
	v.SetDefault("save.cloze_model_name", "Cloze")
	v.SetDefault("save.generate_front", true)
	v.SetDefault("save.generate_cloze", true)
	v.SetDefault("save.always_confirm", false)
}
