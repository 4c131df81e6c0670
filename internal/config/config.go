// Package config provides configuration management for taskflow with layered precedence.
//
// Configuration sources are loaded in the following order (highest precedence first):
//  1. CLI flags (passed via LoadWithOverrides)
//  2. Environment variables (TASKFLOW_* prefix)
//  3. Project config (.taskflow/config.yaml)
//  4. Global config (~/.taskflow/config.yaml)
//  5. Built-in defaults
//
// Each higher level completely overrides the lower level for the same key.
//
// IMPORTANT: This package may import internal/constants and internal/errors,
// but MUST NOT import internal/domain or other internal packages.
package config

import "time"

// Store backends.
const (
	StoreFile   = "file"
	StoreMemory = "memory"
)

// Lease backends.
const (
	LeaseLocal = "local"
	LeaseFile  = "file"
	LeaseRedis = "redis"
)

// Config is the root configuration structure for taskflow.
type Config struct {
	// Store selects where task aggregates are persisted.
	Store StoreConfig `yaml:"store" mapstructure:"store"`

	// SLA controls the periodic sweep.
	SLA SLAConfig `yaml:"sla" mapstructure:"sla"`

	// Escalation controls how breached tasks are escalated.
	Escalation EscalationConfig `yaml:"escalation" mapstructure:"escalation"`

	// Recurrence controls spawning of recurring instances.
	Recurrence RecurrenceConfig `yaml:"recurrence" mapstructure:"recurrence"`

	// Bulk controls bulk mutation fan-out.
	Bulk BulkConfig `yaml:"bulk" mapstructure:"bulk"`

	// Lease coordinates sweeps across processes.
	Lease LeaseConfig `yaml:"lease" mapstructure:"lease"`

	// Events configures the event dispatchers.
	Events EventsConfig `yaml:"events" mapstructure:"events"`

	// Metrics configures the Prometheus exporter.
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`

	// Directory lists the users tasks can be assigned to.
	Directory DirectoryConfig `yaml:"directory" mapstructure:"directory"`

	// Templates lists template files loaded on top of the built-ins.
	Templates TemplatesConfig `yaml:"templates" mapstructure:"templates"`

	// Logging configures the rotating log file.
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	// Backend is "file" or "memory". Default: "file"
	Backend string `yaml:"backend" mapstructure:"backend"`

	// Home is the data directory for the file store. Empty means ~/.taskflow.
	Home string `yaml:"home" mapstructure:"home"`
}

// SLAConfig controls the periodic SLA sweep.
type SLAConfig struct {
	// SweepInterval is the delay between sweeps when run with `taskflow sweep`.
	// Default: 5 minutes
	SweepInterval time.Duration `yaml:"sweep_interval" mapstructure:"sweep_interval"`
}

// EscalationConfig controls escalation of breached tasks.
type EscalationConfig struct {
	// MinInterval is the minimum gap between two escalations of one task.
	// Default: the sweep interval
	MinInterval time.Duration `yaml:"min_interval" mapstructure:"min_interval"`

	// DefaultTarget receives escalations when the directory has no manager.
	DefaultTarget string `yaml:"default_target" mapstructure:"default_target"`
}

// RecurrenceConfig controls recurring tasks.
type RecurrenceConfig struct {
	// SpawnOnComplete creates the next instance when a recurring task completes.
	// Default: true
	SpawnOnComplete bool `yaml:"spawn_on_complete" mapstructure:"spawn_on_complete"`
}

// BulkConfig controls bulk mutations.
type BulkConfig struct {
	// Concurrency caps the number of tasks mutated in parallel.
	// Default: 8, Valid range: 1-64
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// LeaseConfig selects the sweep lease backend.
type LeaseConfig struct {
	// Backend is "local", "file" or "redis". Default: "local"
	Backend string `yaml:"backend" mapstructure:"backend"`

	// TTL bounds how long a lease is held. Default: 2 minutes
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`

	// RedisURL is required for the redis backend, e.g. redis://localhost:6379/0.
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`

	// KeyPrefix namespaces redis lease keys.
	KeyPrefix string `yaml:"key_prefix" mapstructure:"key_prefix"`
}

// EventsConfig configures event dispatch.
type EventsConfig struct {
	// Log writes every event to the log. Default: true
	Log bool `yaml:"log" mapstructure:"log"`

	// NATSURL enables publishing to NATS when set.
	NATSURL string `yaml:"nats_url" mapstructure:"nats_url"`

	// SubjectPrefix is prepended to the event type. Default: "taskflow.events"
	SubjectPrefix string `yaml:"subject_prefix" mapstructure:"subject_prefix"`

	// AttentionOnly restricts NATS publishing to events that need a human.
	AttentionOnly bool `yaml:"attention_only" mapstructure:"attention_only"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	// Addr serves /metrics during `taskflow sweep` when set, e.g. ":9090".
	Addr string `yaml:"addr" mapstructure:"addr"`

	// Namespace prefixes metric names. Default: "taskflow"
	Namespace string `yaml:"namespace" mapstructure:"namespace"`
}

// DirectoryConfig lists known users.
type DirectoryConfig struct {
	Users []UserConfig `yaml:"users" mapstructure:"users"`
}

// UserConfig is one directory entry.
type UserConfig struct {
	ID      string `yaml:"id" mapstructure:"id"`
	Name    string `yaml:"name" mapstructure:"name"`
	Manager string `yaml:"manager" mapstructure:"manager"`
}

// TemplatesConfig lists template files.
type TemplatesConfig struct {
	// Dir resolves relative template paths. Empty means ~/.taskflow/templates.
	Dir string `yaml:"dir" mapstructure:"dir"`

	// Custom maps template names to file paths. A custom template replaces a
	// built-in of the same name.
	Custom map[string]string `yaml:"custom" mapstructure:"custom"`
}

// LoggingConfig configures the rotating log file.
type LoggingConfig struct {
	// File enables the log file under ~/.taskflow/logs. Default: true
	File bool `yaml:"file" mapstructure:"file"`

	// MaxSizeMB rotates the file at this size. Default: 10
	MaxSizeMB int `yaml:"max_size_mb" mapstructure:"max_size_mb"`

	// MaxBackups keeps this many rotated files. Default: 3
	MaxBackups int `yaml:"max_backups" mapstructure:"max_backups"`

	// MaxAgeDays deletes rotated files older than this. Default: 28
	MaxAgeDays int `yaml:"max_age_days" mapstructure:"max_age_days"`
}
