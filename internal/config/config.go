package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	WSURL                 string
	Program               string
	ScopedProgram         string
	Authority             string
	Accounts              []string
	ScopedDataSize        uint64
	ScopedTag             string
	ScopedTagOffset       uint64
	ScopedAuthorityOffset uint64
	ChannelSize           int
	IdleTimeout           time.Duration
	BootstrapTimeout      time.Duration
	JournalOut            string
	PGDSN                 string
	FlushBatch            int
	FlushInterval         time.Duration
	LogLevel              string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FEED")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("scoped-data-size", uint64(3228))
	v.SetDefault("scoped-tag", "AcUQf4PGf6fCHGwmpB")
	v.SetDefault("scoped-tag-offset", uint64(0))
	v.SetDefault("scoped-authority-offset", uint64(45))
	v.SetDefault("channel-size", 4096)
	v.SetDefault("idle-timeout", 60*time.Second)
	v.SetDefault("bootstrap-timeout", 30*time.Second)
	v.SetDefault("flush-batch", 256)
	v.SetDefault("flush-interval", time.Second)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		WSURL:                 v.GetString("ws-url"),
		Program:               v.GetString("program"),
		ScopedProgram:         v.GetString("scoped-program"),
		Authority:             v.GetString("authority"),
		Accounts:              getStringSlice(v, "account"),
		ScopedDataSize:        v.GetUint64("scoped-data-size"),
		ScopedTag:             v.GetString("scoped-tag"),
		ScopedTagOffset:       v.GetUint64("scoped-tag-offset"),
		ScopedAuthorityOffset: v.GetUint64("scoped-authority-offset"),
		ChannelSize:           v.GetInt("channel-size"),
		IdleTimeout:           v.GetDuration("idle-timeout"),
		BootstrapTimeout:      v.GetDuration("bootstrap-timeout"),
		JournalOut:            v.GetString("journal-out"),
		PGDSN:                 v.GetString("pg-dsn"),
		FlushBatch:            v.GetInt("flush-batch"),
		FlushInterval:         v.GetDuration("flush-interval"),
		LogLevel:              v.GetString("log-level"),
	}

	return cfg, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
