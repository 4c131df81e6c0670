package config

import (
	"github.com/mrz1836/taskflow/internal/constants"
)

// Logging defaults.
const (
	DefaultLogMaxSizeMB  = 10
	DefaultLogMaxBackups = 3
	DefaultLogMaxAgeDays = 28
)

// DefaultConfig returns a new Config with the built-in defaults. It matches
// the values setDefaults registers with viper.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: StoreFile,
		},
		SLA: SLAConfig{
			SweepInterval: constants.DefaultSweepInterval,
		},
		Escalation: EscalationConfig{
			// One level per sweep at most.
			MinInterval: constants.DefaultSweepInterval,
		},
		Recurrence: RecurrenceConfig{
			SpawnOnComplete: true,
		},
		Bulk: BulkConfig{
			Concurrency: constants.DefaultBulkConcurrency,
		},
		Lease: LeaseConfig{
			Backend:   LeaseLocal,
			TTL:       constants.DefaultLeaseTTL,
			KeyPrefix: "taskflow:lease:",
		},
		Events: EventsConfig{
			Log:           true,
			SubjectPrefix: constants.DefaultEventSubjectPrefix,
		},
		Metrics: MetricsConfig{
			Namespace: constants.DefaultMetricsNamespace,
		},
		Templates: TemplatesConfig{
			Custom: map[string]string{},
		},
		Logging: LoggingConfig{
			File:       true,
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxBackups: DefaultLogMaxBackups,
			MaxAgeDays: DefaultLogMaxAgeDays,
		},
	}
}
