// Package config loads job settings from the environment and an optional
// dotenv file, and per-job column options from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

// DefaultEnvFile is read when present and no other file is named.
const DefaultEnvFile = ".env"

// Providers.
const (
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
	ProviderGemini     = "gemini"
	ProviderGoogle     = "google"
)

var (
	// ErrMissing is wrapped by an *Error for a required key that is unset.
	ErrMissing = errors.New("required setting is missing")
	// ErrInvalid is wrapped by an *Error for a key whose value does not parse
	// or is out of range.
	ErrInvalid = errors.New("invalid setting")
)

// Error reports a problem with one configuration key.
type Error struct {
	Key    string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Key, e.Err, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Config holds the settings of one run. It is built once and not modified.
type Config struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	BatchSize   int

	SetSeparator           string
	LanguageSeparator      string
	FieldLanguageSeparator string
	OutputSuffix           string
	SourceLanguage         string

	MaxRetries     int
	BackoffBase    time.Duration
	BatchDelay     time.Duration
	RequestTimeout time.Duration
	SaveInterval   int
	DBPath         string
}

// Load reads envFile (DefaultEnvFile when empty, and then only if it
// exists) and the process environment, which takes precedence.
func Load(envFile string) (*Config, error) {
	v, err := readEnv(envFile)
	if err != nil {
		return nil, err
	}
	return FromViper(v)
}

// LoadLayout reads the same sources as Load but validates only the settings
// that describe the table layout. Commands that never reach a provider use it.
func LoadLayout(envFile string) (*Config, error) {
	v, err := readEnv(envFile)
	if err != nil {
		return nil, err
	}
	return LayoutFromViper(v)
}

func readEnv(envFile string) (*viper.Viper, error) {
	v := viper.New()
	v.AutomaticEnv()

	path := envFile
	if path == "" {
		path = DefaultEnvFile
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if envFile != "" {
		return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
	}
	return v, nil
}

// FromViper validates the settings held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	r := reader{v: v}
	cfg := &Config{
		Provider:       strings.ToLower(r.optional("PROVIDER", ProviderOpenAI)),
		BaseURL:        r.optional("BASE_URL", ""),
		Model:          r.required("MODEL"),
		MaxTokens:      r.intValue("MAX_TOKENS", 0, true, 1),
		Temperature:    r.floatValue("TEMPERATURE"),
		BatchSize:      r.intValue("BATCH_SIZE", 0, true, 1),
		OutputSuffix:   r.required("OUTPUT_SUFFIX"),
		MaxRetries:     r.intValue("MAX_RETRIES", 3, false, 1),
		BackoffBase:    r.duration("BACKOFF_BASE", time.Second),
		BatchDelay:     r.duration("BATCH_DELAY", time.Second),
		RequestTimeout: r.duration("REQUEST_TIMEOUT", 120*time.Second),
		SaveInterval:   r.intValue("SAVE_INTERVAL", 0, false, 0),
	}
	r.layout(cfg)

	switch cfg.Provider {
	case ProviderOpenAI, ProviderOpenRouter, ProviderGemini, ProviderGoogle:
		cfg.APIKey = r.required("API_KEY")
	case ProviderOllama:
		cfg.APIKey = r.optional("API_KEY", "")
	default:
		r.fail("PROVIDER", ErrInvalid, fmt.Sprintf("unknown provider %q", cfg.Provider))
	}

	if r.err != nil {
		return nil, r.err
	}
	return cfg, nil
}

// LayoutFromViper validates the separators, the source language and the
// database path held by v. The other fields of the result are zero.
func LayoutFromViper(v *viper.Viper) (*Config, error) {
	r := reader{v: v}
	cfg := &Config{}
	r.layout(cfg)
	if r.err != nil {
		return nil, r.err
	}
	return cfg, nil
}

// OutputPath returns the default output path for input: the suffix is
// inserted before the extension.
func (c *Config) OutputPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + c.OutputSuffix + ext
}

// LanguageTag converts a language tag as written in column names into
// canonical BCP 47 form, e.g. "fr_ca" → "fr-CA" with "_" as the separator.
func (c *Config) LanguageTag(tag string) string {
	return LanguageTag(tag, c.LanguageSeparator)
}

// LanguageTag replaces sep with "-" and canonicalises the result. A tag that
// does not parse only has its separator replaced.
func LanguageTag(tag, sep string) string {
	tag = strings.TrimSpace(tag)
	if sep != "" && sep != "-" {
		tag = strings.ReplaceAll(tag, sep, "-")
	}
	if t, err := language.Parse(tag); err == nil {
		return t.String()
	}
	return tag
}

// reader collects the first error met while reading keys.
type reader struct {
	v   *viper.Viper
	err error
}

func (r *reader) fail(key string, err error, detail string) {
	if r.err == nil {
		r.err = &Error{Key: key, Err: err, Detail: detail}
	}
}

func (r *reader) layout(cfg *Config) {
	cfg.SetSeparator = r.required("SET_SEPARATOR")
	cfg.LanguageSeparator = r.required("LANGUAGE_SEPARATOR")
	cfg.FieldLanguageSeparator = r.required("FIELD_LANGUAGE_SEPARATOR")
	cfg.SourceLanguage = r.optional("SOURCE_LANGUAGE", "en-US")
	cfg.DBPath = r.optional("DB_PATH", "")
}

func (r *reader) raw(key string) string {
	return r.v.GetString(key)
}

func (r *reader) required(key string) string {
	s := r.raw(key)
	if s == "" {
		r.fail(key, ErrMissing, "")
	}
	return s
}

func (r *reader) optional(key, def string) string {
	if s := strings.TrimSpace(r.raw(key)); s != "" {
		return s
	}
	return def
}

func (r *reader) intValue(key string, def int, required bool, least int) int {
	s := strings.TrimSpace(r.raw(key))
	if s == "" {
		if required {
			r.fail(key, ErrMissing, "")
		}
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		r.fail(key, ErrInvalid, "must be a valid integer")
		return def
	}
	if n < least {
		r.fail(key, ErrInvalid, fmt.Sprintf("must be at least %d", least))
		return def
	}
	return n
}

func (r *reader) floatValue(key string) float64 {
	s := strings.TrimSpace(r.raw(key))
	if s == "" {
		r.fail(key, ErrMissing, "")
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		r.fail(key, ErrInvalid, "must be a valid float")
		return 0
	}
	return f
}

// duration accepts Go durations ("500ms", "2s") and bare numbers of seconds.
func (r *reader) duration(key string, def time.Duration) time.Duration {
	s := strings.TrimSpace(r.raw(key))
	if s == "" {
		return def
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		if secs < 0 {
			r.fail(key, ErrInvalid, "must not be negative")
			return def
		}
		return time.Duration(secs * float64(time.Second))
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		r.fail(key, ErrInvalid, "must be a duration such as 1s or 500ms")
		return def
	}
	return d
}
