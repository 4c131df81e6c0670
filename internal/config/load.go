package config

import (
	"context"
	stderrors "errors"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/mrz1836/taskflow/internal/errors"
)

// EnvPrefix prefixes every environment variable override, e.g.
// TASKFLOW_BULK_CONCURRENCY=16.
const EnvPrefix = "TASKFLOW"

// newViperInstance creates a Viper instance with defaults, the TASKFLOW_
// environment prefix and "." -> "_" key mapping.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// isConfigNotFoundError returns true if the error is a viper config file not found error.
func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var configNotFoundErr viper.ConfigFileNotFoundError
	return stderrors.As(err, &configNotFoundErr)
}

// unmarshalAndValidate unmarshals viper config into Config and validates it.
func unmarshalAndValidate(ctx context.Context, v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	logger := zerolog.Ctx(ctx).With().Str("component", "config").Logger()
	logger.Debug().
		Str("store.backend", cfg.Store.Backend).
		Str("lease.backend", cfg.Lease.Backend).
		Dur("sla.sweep_interval", cfg.SLA.SweepInterval).
		Int("bulk.concurrency", cfg.Bulk.Concurrency).
		Int("directory.users", len(cfg.Directory.Users)).
		Msg("configuration loaded")

	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// Load reads configuration from all available sources with proper precedence:
// environment, project config, global config, then defaults. Missing config
// files are not an error.
func Load(ctx context.Context) (*Config, error) {
	v := newViperInstance()

	if err := loadGlobalConfig(v); err != nil {
		return nil, err
	}
	if err := loadProjectConfig(v); err != nil {
		return nil, err
	}
	return unmarshalAndValidate(ctx, v)
}

// LoadFile reads one explicit config file plus environment and defaults.
// Used for --config; the global and project files are skipped.
func LoadFile(ctx context.Context, path string) (*Config, error) {
	v := newViperInstance()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}
	return unmarshalAndValidate(ctx, v)
}

// loadGlobalConfig reads ~/.taskflow/config.yaml if present.
func loadGlobalConfig(v *viper.Viper) error {
	globalConfigPath, ok := getGlobalConfigPathIfExists()
	if !ok {
		return nil
	}

	v.SetConfigFile(globalConfigPath)
	if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read global config file")
	}
	return nil
}

func getGlobalConfigPathIfExists() (string, bool) {
	path, err := GlobalConfigPath()
	if err != nil {
		return "", false
	}
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// loadProjectConfig merges .taskflow/config.yaml over what is loaded so far.
func loadProjectConfig(v *viper.Viper) error {
	projectConfigPath := ProjectConfigPath()
	if !fileExists(projectConfigPath) {
		return nil
	}

	v.SetConfigFile(projectConfigPath)
	if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read project config file")
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadWithOverrides loads configuration and applies CLI flag overrides.
// Only non-zero override values are applied.
func LoadWithOverrides(ctx context.Context, overrides *Config) (*Config, error) {
	cfg, err := Load(ctx)
	if err != nil {
		return nil, err
	}
	return ApplyOverrides(cfg, overrides)
}

// ApplyOverrides merges non-zero override values into cfg and re-validates.
//
// Boolean fields cannot be overridden to false this way because false is
// their zero value. The CLI handles those with cmd.Flags().Changed.
func ApplyOverrides(cfg, overrides *Config) (*Config, error) {
	if overrides != nil {
		applyOverrides(cfg, overrides)
	}
	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration after overrides")
	}
	return cfg, nil
}

// LoadFromPaths loads configuration from specific file paths.
// projectConfigPath has higher priority than globalConfigPath. Either may be
// empty to skip that level.
func LoadFromPaths(ctx context.Context, projectConfigPath, globalConfigPath string) (*Config, error) {
	v := newViperInstance()

	if globalConfigPath != "" {
		v.SetConfigFile(globalConfigPath)
		if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read global config: %s", globalConfigPath)
		}
	}

	if projectConfigPath != "" {
		v.SetConfigFile(projectConfigPath)
		if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read project config: %s", projectConfigPath)
		}
	}

	return unmarshalAndValidate(ctx, v)
}

// setDefaults registers every default with viper. Keys match the yaml tags
// so that AutomaticEnv can resolve TASKFLOW_* for each of them.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.home", d.Store.Home)

	v.SetDefault("sla.sweep_interval", d.SLA.SweepInterval.String())

	v.SetDefault("escalation.min_interval", d.Escalation.MinInterval.String())
	v.SetDefault("escalation.default_target", "")

	v.SetDefault("recurrence.spawn_on_complete", d.Recurrence.SpawnOnComplete)

	v.SetDefault("bulk.concurrency", d.Bulk.Concurrency)

	v.SetDefault("lease.backend", d.Lease.Backend)
	v.SetDefault("lease.ttl", d.Lease.TTL.String())
	v.SetDefault("lease.redis_url", "")
	v.SetDefault("lease.key_prefix", d.Lease.KeyPrefix)

	v.SetDefault("events.log", d.Events.Log)
	v.SetDefault("events.nats_url", "")
	v.SetDefault("events.subject_prefix", d.Events.SubjectPrefix)
	v.SetDefault("events.attention_only", false)

	v.SetDefault("metrics.addr", "")
	v.SetDefault("metrics.namespace", d.Metrics.Namespace)

	v.SetDefault("directory.users", []map[string]string{})

	v.SetDefault("templates.dir", "")
	v.SetDefault("templates.custom", map[string]string{})

	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", d.Logging.MaxAgeDays)
}

func applyOverrides(cfg, overrides *Config) {
	if overrides.Store.Backend != "" {
		cfg.Store.Backend = overrides.Store.Backend
	}
	if overrides.Store.Home != "" {
		cfg.Store.Home = overrides.Store.Home
	}
	if overrides.SLA.SweepInterval != 0 {
		cfg.SLA.SweepInterval = overrides.SLA.SweepInterval
	}
	if overrides.Escalation.MinInterval != 0 {
		cfg.Escalation.MinInterval = overrides.Escalation.MinInterval
	}
	if overrides.Escalation.DefaultTarget != "" {
		cfg.Escalation.DefaultTarget = overrides.Escalation.DefaultTarget
	}
	if overrides.Bulk.Concurrency != 0 {
		cfg.Bulk.Concurrency = overrides.Bulk.Concurrency
	}
	applyInfraOverrides(cfg, overrides)

	if len(overrides.Templates.Custom) > 0 {
		if cfg.Templates.Custom == nil {
			cfg.Templates.Custom = make(map[string]string, len(overrides.Templates.Custom))
		}
		maps.Copy(cfg.Templates.Custom, overrides.Templates.Custom)
	}
}

// applyInfraOverrides covers the lease, events and metrics sections.
func applyInfraOverrides(cfg, overrides *Config) {
	if overrides.Lease.Backend != "" {
		cfg.Lease.Backend = overrides.Lease.Backend
	}
	if overrides.Lease.TTL != 0 {
		cfg.Lease.TTL = overrides.Lease.TTL
	}
	if overrides.Lease.RedisURL != "" {
		cfg.Lease.RedisURL = overrides.Lease.RedisURL
	}
	if overrides.Events.NATSURL != "" {
		cfg.Events.NATSURL = overrides.Events.NATSURL
	}
	if overrides.Events.SubjectPrefix != "" {
		cfg.Events.SubjectPrefix = overrides.Events.SubjectPrefix
	}
	if overrides.Metrics.Addr != "" {
		cfg.Metrics.Addr = overrides.Metrics.Addr
	}
}

// StorePath returns the store home with a leading ~ expanded.
func (c *Config) StorePath() string {
	return expandHome(c.Store.Home)
}

func expandHome(path string) string {
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return path
}

// viperDecoderOption configures mapstructure to decode durations and
// comma-separated string slices from strings.
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	)
}
