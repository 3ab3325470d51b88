package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 250
)

// ListingConfig controls list endpoint paging defaults.
type ListingConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
	MaxLimit     int `mapstructure:"max_limit"`
}

func DefaultListingConfig() ListingConfig {
	return ListingConfig{
		DefaultLimit: DefaultListLimit,
		MaxLimit:     MaxListLimit,
	}
}

type ListingConfigHolder struct {
	current atomic.Value // holds ListingConfig
}

// NewStaticListingConfigHolder returns a holder that never reloads.
func NewStaticListingConfigHolder(cfg ListingConfig) *ListingConfigHolder {
	holder := &ListingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

// NewListingConfigHolder reads soildata.yml (if any) and watches it for changes.
func NewListingConfigHolder(log *zap.Logger) (*ListingConfigHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("listing.config")

	v := viper.New()

	v.SetConfigName("soildata")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/soildata")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SOILDATA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultListingConfig()
	v.SetDefault("listing.default_limit", defaults.DefaultLimit)
	v.SetDefault("listing.max_limit", defaults.MaxLimit)

	watch := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		watch = false
	}

	var cfg ListingConfig
	if err := v.UnmarshalKey("listing", &cfg); err != nil {
		return nil, err
	}
	if err := validateListingConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticListingConfigHolder(cfg)

	if watch {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			var updated ListingConfig
			if err := v.UnmarshalKey("listing", &updated); err != nil {
				log.Warn("reload failed", zap.Error(err))
				return
			}
			if err := validateListingConfig(updated); err != nil {
				log.Warn("invalid config ignored", zap.Error(err))
				return
			}
			holder.current.Store(updated)
			log.Info("reloaded", zap.String("file", e.Name))
		})
	}

	return holder, nil
}

func (h *ListingConfigHolder) Get() ListingConfig {
	if h == nil {
		return DefaultListingConfig()
	}
	cfg, ok := h.current.Load().(ListingConfig)
	if !ok {
		return DefaultListingConfig()
	}
	return cfg
}

func validateListingConfig(cfg ListingConfig) error {
	if cfg.DefaultLimit < 1 {
		return errors.New("listing.default_limit must be at least 1")
	}
	if cfg.MaxLimit < cfg.DefaultLimit {
		return fmt.Errorf("listing.max_limit (%d) must not be below listing.default_limit (%d)", cfg.MaxLimit, cfg.DefaultLimit)
	}
	return nil
}
