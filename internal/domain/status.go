package domain

import "github.com/mrz1836/taskflow/internal/constants"

// Re-export TaskStatus from constants so consumers can import domain types
// and status types together.
//
//	task := domain.Task{Status: domain.TaskStatusOpen}
type TaskStatus = constants.TaskStatus

// Re-export TaskStatus constants for convenience.
// These mirror the values in internal/constants/status.go.
const (
	TaskStatusOpen        = constants.TaskStatusOpen
	TaskStatusInProgress  = constants.TaskStatusInProgress
	TaskStatusUnderReview = constants.TaskStatusUnderReview
	TaskStatusCompleted   = constants.TaskStatusCompleted
	TaskStatusOnHold      = constants.TaskStatusOnHold
	TaskStatusCancelled   = constants.TaskStatusCancelled
)
