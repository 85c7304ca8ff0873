package viewsync

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/hrdesk/viewsync/apimodel"
	"github.com/hrdesk/viewsync/unixtime"
)

// Config configures a Client
type Config struct {
	// BaseURL of the backend API
	BaseURL string                     `yaml:"base_url" validate:"omitempty,url"`
	Timeout unixtime.DurationInSeconds `yaml:"timeout"`
	// Locale of the user, a BCP 47 tag
	Locale string `yaml:"locale" validate:"required,bcp47_language_tag"`
	// Languages of the variants of pipe separated backend messages, in order
	Languages []string                   `yaml:"languages" validate:"min=1,dive,bcp47_language_tag"`
	Debounce  unixtime.DurationInSeconds `yaml:"debounce"`
	// DefaultPageSize is used when the query string has no page size
	DefaultPageSize int         `yaml:"default_page_size" validate:"gt=0"`
	LogLevel        string      `yaml:"log_level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic"`
	Cache           CacheConfig `yaml:"cache"`
}

// CacheConfig configures the resource cache and its backing store
type CacheConfig struct {
	// GracePeriod an unobserved entry is kept; 0 evicts immediately
	GracePeriod  unixtime.DurationInSeconds `yaml:"grace_period"`
	FetchTimeout unixtime.DurationInSeconds `yaml:"fetch_timeout"`
	// StoreTTL is the lifetime of persisted payloads
	StoreTTL unixtime.DurationInSeconds `yaml:"store_ttl"`
	Redis    RedisConfig                `yaml:"redis"`
}

// RedisConfig selects a redis backing store if Addr is set; otherwise
// payloads are kept in memory.
type RedisConfig struct {
	Addr     string `yaml:"addr" validate:"omitempty,hostname_port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"gte=0"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Timeout:         unixtime.NewDurationInSeconds(30),
		Locale:          language.English.String(),
		Languages:       []string{language.English.String(), language.Arabic.String()},
		Debounce:        unixtime.DurationInSeconds{Duration: 650 * time.Millisecond},
		DefaultPageSize: apimodel.DefaultPageSize,
		Cache: CacheConfig{
			GracePeriod: unixtime.NewDurationInSeconds(30),
			StoreTTL:    unixtime.DurationInSeconds{Duration: time.Hour},
		},
	}
}

// LoadConfig reads a YAML configuration file. Options not set in the file
// keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "could not read config file")
	}
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(err, "could not parse config file")
	}
	return cfg, cfg.Validate()
}

// Validate checks the configuration
func (c Config) Validate() error {
	if err := apimodel.Validate.Struct(c); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	return nil
}

func (c Config) languageTags() []language.Tag {
	tags := make([]language.Tag, 0, len(c.Languages))
	for _, l := range c.Languages {
		if t, err := language.Parse(l); err == nil {
			tags = append(tags, t)
		}
	}
	return tags
}

func (c Config) localeTag() language.Tag {
	t, err := language.Parse(c.Locale)
	if err != nil {
		return language.English
	}
	return t
}
