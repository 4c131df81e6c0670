// Package constants provides centralized constant values used throughout taskflow.
// This package is the single source of truth for all shared constants and MUST NOT
// import any other internal packages.
package constants

import "time"

// File names used for state persistence.
const (
	// TaskFileName is the name of the JSON file that stores a task aggregate.
	TaskFileName = "task.json"

	// LogFileName is the name of the rotating CLI log file.
	LogFileName = "taskflow.log"

	// ConfigFileName is the name of the YAML config file in the global and project dirs.
	ConfigFileName = "config.yaml"
)

// Directory names used for organizing data.
const (
	// AppHome is the hidden directory name where taskflow stores all its data.
	// This directory is created in the user's home directory.
	AppHome = ".taskflow"

	// TasksDir is the directory name where task aggregates are stored.
	TasksDir = "tasks"

	// TemplatesDir is the directory name where task templates are read from.
	TemplatesDir = "templates"

	// LogsDir is the directory name where log files are stored.
	LogsDir = "logs"

	// LocksDir holds lease files used to coordinate the SLA sweep locally.
	LocksDir = "locks"
)

// Engine defaults.
const (
	// DefaultSweepInterval is how often the SLA sweep runs when scheduled by the CLI.
	DefaultSweepInterval = 5 * time.Minute

	// DefaultLeaseTTL bounds how long a sweep lease is held before it expires.
	DefaultLeaseTTL = 2 * time.Minute

	// DefaultBulkConcurrency caps the number of tasks mutated in parallel by bulk operations.
	DefaultBulkConcurrency = 8

	// MaxBulkConcurrency is the upper bound accepted for bulk.concurrency.
	MaxBulkConcurrency = 64

	// DefaultEventSubjectPrefix is the NATS subject prefix for engine events.
	DefaultEventSubjectPrefix = "taskflow.events"

	// DefaultMetricsNamespace prefixes every Prometheus metric name.
	DefaultMetricsNamespace = "taskflow"

	// LockTimeout is the maximum duration to wait for a task file lock.
	LockTimeout = 5 * time.Second

	// SweepLeaseName is the lease key guarding the periodic SLA sweep.
	SweepLeaseName = "sla-sweep"
)

// Task field limits.
const (
	// MaxTitleLength is the maximum number of characters in a task title.
	MaxTitleLength = 200

	// MaxChecklistItems caps the size of a task's checklist.
	MaxChecklistItems = 100
)

// Auto-generation trigger types recorded in task provenance.
const (
	// TriggerRecurrence marks tasks spawned by completing a recurring task.
	TriggerRecurrence = "recurrence"

	// TriggerTemplatePrefix prefixes the template name for template-instantiated tasks.
	TriggerTemplatePrefix = "template:"
)

// SystemActor is the actor id recorded for engine-initiated changes.
const SystemActor = "system"

// Schema version constants for data migration support.
const (
	// TaskSchemaVersion is the current version of the persisted task schema.
	TaskSchemaVersion = 1
)
