package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config keys. Environment variables use the BV_ prefix with dots
// replaced by underscores, e.g. BV_VISIBILITY_API_PORT.
const (
	KeyHost             = "visibility_api.host"
	KeyPort             = "visibility_api.port"
	KeyMaxConnections   = "visibility_api.max_connections"
	KeyRequestTimeout   = "visibility_api.request_timeout"
	KeyMaxBatchSize     = "visibility_api.max_batch_size"
	KeyMigrateOnRead    = "visibility_api.migrate_on_read"
	KeyDisableDevices   = "rules.disable_devices"
	KeyDisableUserState = "rules.disable_user_state"
	KeyDisableLogic     = "rules.disable_logic"
	KeyDisableFields    = "rules.disable_fields"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*VisibilityAPIConfig, error) {
	return LoadConfigWithFlags(configPath, nil)
}

// LoadConfigWithFlags is LoadConfig with command flags bound to config
// keys. Only flags the user actually set override lower layers.
func LoadConfigWithFlags(configPath string, flags map[string]*pflag.Flag) (*VisibilityAPIConfig, error) {
	v := viper.New()

	def := DefaultVisibilityAPIConfig()
	v.SetDefault(KeyHost, def.Host)
	v.SetDefault(KeyPort, def.Port)
	v.SetDefault(KeyMaxConnections, def.MaxConnections)
	v.SetDefault(KeyRequestTimeout, def.RequestTimeout.String())
	v.SetDefault(KeyMaxBatchSize, def.MaxBatchSize)
	v.SetDefault(KeyMigrateOnRead, def.MigrateOnRead)
	v.SetDefault(KeyDisableDevices, false)
	v.SetDefault(KeyDisableUserState, false)
	v.SetDefault(KeyDisableLogic, false)
	v.SetDefault(KeyDisableFields, false)

	v.SetEnvPrefix("BV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets are environment-only.
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	for key, flag := range flags {
		if flag == nil || !flag.Changed {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", flag.Name, err)
		}
	}

	cfg := &VisibilityAPIConfig{
		Host:           v.GetString(KeyHost),
		Port:           v.GetInt(KeyPort),
		MaxConnections: v.GetInt(KeyMaxConnections),
		RequestTimeout: v.GetDuration(KeyRequestTimeout),
		MaxBatchSize:   v.GetInt(KeyMaxBatchSize),
		MigrateOnRead:  v.GetBool(KeyMigrateOnRead),
		Rules: RulesConfig{
			DisableDevices:   v.GetBool(KeyDisableDevices),
			DisableUserState: v.GetBool(KeyDisableUserState),
			DisableLogic:     v.GetBool(KeyDisableLogic),
			DisableFields:    v.GetBool(KeyDisableFields),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks port range, positive values for connections, timeout, batch size.
func validateConfig(cfg *VisibilityAPIConfig) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.MaxConnections <= 0 {
		return fmt.Errorf("max_connections must be positive, got %d", cfg.MaxConnections)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.RequestTimeout)
	}
	if cfg.MaxBatchSize <= 0 {
		return fmt.Errorf("max_batch_size must be positive, got %d", cfg.MaxBatchSize)
	}
	return nil
}

func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.InConfig("hmac_secret") || v.InConfig("visibility_api.hmac_secret") {
		return fmt.Errorf("HMAC secrets not allowed in config files (use BV_HMAC_SECRET environment variable)")
	}
	return nil
}
