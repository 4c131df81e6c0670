package config

import (
	"github.com/mrz1836/taskflow/internal/constants"
	"github.com/mrz1836/taskflow/internal/errors"
)

// Validate checks the configuration for invalid or inconsistent values.
// It returns an error describing the first validation failure found.
//
// Validation rules:
//   - store.backend must be "file" or "memory"
//   - sla.sweep_interval must be positive
//   - escalation.min_interval must not be negative
//   - bulk.concurrency must be between 1 and 64
//   - lease.backend must be "local", "file" or "redis"; redis needs redis_url
//   - lease.ttl must be positive
//   - events.subject_prefix must be set when events.nats_url is
//   - directory users need a unique, non-empty id
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}

	if err := validateStoreConfig(&cfg.Store); err != nil {
		return err
	}
	if err := validateSLAConfig(cfg); err != nil {
		return err
	}
	if cfg.Bulk.Concurrency < 1 || cfg.Bulk.Concurrency > constants.MaxBulkConcurrency {
		return errors.Wrapf(errors.ErrConfigInvalidBulk,
			"bulk.concurrency must be between 1 and %d, got %d",
			constants.MaxBulkConcurrency, cfg.Bulk.Concurrency)
	}
	if err := validateLeaseConfig(&cfg.Lease); err != nil {
		return err
	}
	if cfg.Events.NATSURL != "" && cfg.Events.SubjectPrefix == "" {
		return errors.Wrap(errors.ErrConfigInvalidEvents,
			"events.subject_prefix is required when events.nats_url is set")
	}
	return validateDirectoryConfig(&cfg.Directory)
}

func validateStoreConfig(cfg *StoreConfig) error {
	switch cfg.Backend {
	case StoreFile, StoreMemory:
		return nil
	default:
		return errors.Wrapf(errors.ErrConfigInvalidStore,
			"store.backend must be %q or %q, got %q", StoreFile, StoreMemory, cfg.Backend)
	}
}

func validateSLAConfig(cfg *Config) error {
	if cfg.SLA.SweepInterval <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidSLA,
			"sla.sweep_interval must be positive, got %s", cfg.SLA.SweepInterval)
	}
	if cfg.Escalation.MinInterval < 0 {
		return errors.Wrapf(errors.ErrConfigInvalidSLA,
			"escalation.min_interval must not be negative, got %s", cfg.Escalation.MinInterval)
	}
	return nil
}

func validateLeaseConfig(cfg *LeaseConfig) error {
	switch cfg.Backend {
	case LeaseLocal, LeaseFile:
	case LeaseRedis:
		if cfg.RedisURL == "" {
			return errors.Wrap(errors.ErrConfigInvalidLease,
				"lease.redis_url is required for the redis backend")
		}
	default:
		return errors.Wrapf(errors.ErrConfigInvalidLease,
			"lease.backend must be one of local, file, redis; got %q", cfg.Backend)
	}
	if cfg.TTL <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidLease,
			"lease.ttl must be positive, got %s", cfg.TTL)
	}
	return nil
}

func validateDirectoryConfig(cfg *DirectoryConfig) error {
	seen := make(map[string]struct{}, len(cfg.Users))
	for i, u := range cfg.Users {
		if u.ID == "" {
			return errors.Wrapf(errors.ErrConfigInvalidDirectory,
				"directory.users[%d] has no id", i)
		}
		if _, dup := seen[u.ID]; dup {
			return errors.Wrapf(errors.ErrConfigInvalidDirectory,
				"directory.users has duplicate id %q", u.ID)
		}
		seen[u.ID] = struct{}{}
	}
	return nil
}
