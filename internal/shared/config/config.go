package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/samber/lo"
	"github.com/samber/oops"

	"github.com/dmarquezv/tempmail-otp-bot/internal/shared/errors"
)

type Config struct {
	TelegramBotToken   string  `koanf:"telegram_bot_token"`
	MailAPIURL         string  `koanf:"mail_api_url"`
	StoragePath        string  `koanf:"storage_path"`
	HTTPPort           string  `koanf:"http_port"`
	PollInterval       int     `koanf:"poll_interval"`
	RequestTimeout     int     `koanf:"request_timeout"`
	AdminUsers         []int64 `koanf:"admin_users"`
	RequireLicense     bool    `koanf:"require_license"`
	ForwardAttachments bool    `koanf:"forward_attachments"`
	PreserveRawHTML    bool    `koanf:"preserve_raw_html"`
	SeenCacheSize      int     `koanf:"seen_cache_size"`
	AppEnv             AppEnv  `koanf:"app_env"`
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try to load config file from various formats
	configFiles := []string{
		"config.yaml",
		"config.yml",
		"config.json",
		"config.toml",
	}

	// Use lo.Find to find the first existing config file
	configFile, found := lo.Find(configFiles, func(file string) bool {
		_, err := os.Stat(file)
		return err == nil
	})

	if found {
		var parser koanf.Parser
		ext := filepath.Ext(configFile)

		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		case ".toml":
			parser = toml.Parser()
		default:
			return nil, oops.Errorf("unsupported config file extension: %s", ext)
		}

		if err := k.Load(file.Provider(configFile), parser); err != nil {
			return nil, oops.With("config_file", configFile).Wrap(err)
		}
	}

	// Load environment variables (they override config file values)
	if err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(s)
	}), nil); err != nil {
		return nil, oops.With("context", "loading environment variables").Wrap(err)
	}

	// Set defaults
	if !k.Exists("mail_api_url") {
		k.Set("mail_api_url", "https://api.mail.tm")
	}
	if !k.Exists("storage_path") {
		k.Set("storage_path", "./data")
	}
	if !k.Exists("http_port") {
		k.Set("http_port", "8080")
	}
	if !k.Exists("poll_interval") {
		k.Set("poll_interval", 10)
	}
	if !k.Exists("request_timeout") {
		k.Set("request_timeout", 30)
	}
	if !k.Exists("forward_attachments") {
		k.Set("forward_attachments", true)
	}
	if !k.Exists("seen_cache_size") {
		k.Set("seen_cache_size", 1000000)
	}
	if !k.Exists("app_env") {
		k.Set("app_env", "production")
	}

	// Unmarshal into struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.With("context", "unmarshaling config").Wrap(err)
	}

	// Parse AdminUsers from comma-separated string if it's a string
	if adminUsers := k.Get("admin_users"); adminUsers != nil {
		switch v := adminUsers.(type) {
		case string:
			cfg.AdminUsers = ParseAdminUsers(v)
		case []interface{}:
			cfg.AdminUsers = lo.FilterMap(v, func(item interface{}, _ int) (int64, bool) {
				switch val := item.(type) {
				case int64:
					return val, true
				case int:
					return int64(val), true
				case float64:
					return int64(val), true
				default:
					return 0, false
				}
			})
		}
	}

	// Parse AppEnv from string if needed
	if appEnvStr := k.String("app_env"); appEnvStr != "" {
		if env, err := ParseAppEnv(appEnvStr); err == nil {
			cfg.AppEnv = env
		} else {
			cfg.AppEnv = AppEnvProduction
		}
	} else {
		cfg.AppEnv = AppEnvProduction
	}

	// Validate required fields
	if cfg.TelegramBotToken == "" {
		return nil, errors.ErrMissingBotToken
	}

	return &cfg, nil
}

// ParseAdminUsers parses comma-separated user IDs string into []int64
func ParseAdminUsers(s string) []int64 {
	if s == "" {
		return []int64{}
	}
	parts := strings.Split(s, ",")
	return lo.FilterMap(parts, func(part string, _ int) (int64, bool) {
		part = strings.TrimSpace(part)
		if part == "" {
			return 0, false
		}
		var id int64
		if _, err := fmt.Sscanf(part, "%d", &id); err == nil {
			return id, true
		}
		return 0, false
	})
}
