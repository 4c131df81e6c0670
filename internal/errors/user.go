package errors

import "errors"

// ErrorInfo holds user-facing message and suggested action for an error.
type ErrorInfo struct {
	// Message is the user-friendly error description.
	Message string
	// Action is a suggested action to resolve the issue (empty if none).
	Action string
}

// errorEntry pairs a sentinel error with its user-facing info.
type errorEntry struct {
	err  error
	info ErrorInfo
}

// errorInfoEntries maps sentinel errors to their user-facing messages.
// Specific errors come before the general kinds they wrap, because lookup
// walks the slice in order with errors.Is().
//
//nolint:gochecknoglobals // Pre-built mapping for efficiency
var errorInfoEntries = []errorEntry{
	// ===================
	// Not found
	// ===================
	{
		err: ErrTaskNotFound,
		info: ErrorInfo{
			Message: "The task does not exist.",
			Action:  "Run 'taskflow task list' to see available task ids.",
		},
	},
	{
		err: ErrChecklistItemNotFound,
		info: ErrorInfo{
			Message: "The checklist item does not belong to this task.",
			Action:  "Run 'taskflow task show <id>' to see the task's checklist item ids.",
		},
	},
	{
		err: ErrEscalationNotFound,
		info: ErrorInfo{
			Message: "No unacknowledged escalation exists at that level.",
			Action:  "Run 'taskflow task show <id>' to review the escalation ledger.",
		},
	},
	{
		err: ErrTemplateNotFound,
		info: ErrorInfo{
			Message: "The task template does not exist.",
			Action:  "Run 'taskflow template list' to see available templates.",
		},
	},
	{
		err: ErrNotFound,
		info: ErrorInfo{
			Message: "The requested record does not exist.",
		},
	},

	// ===================
	// Workflow
	// ===================
	{
		err: ErrInvalidTransition,
		info: ErrorInfo{
			Message: "That status change is not allowed from the task's current status.",
			Action:  "Run 'taskflow task show <id>' to see which statuses are reachable.",
		},
	},
	{
		err: ErrBusy,
		info: ErrorInfo{
			Message: "Another change to this task is still in progress.",
			Action:  "Wait a moment and retry.",
		},
	},

	// ===================
	// Validation
	// ===================
	{
		err: ErrTaskReferenced,
		info: ErrorInfo{
			Message: "The task cannot be deleted while sub-tasks reference it.",
			Action:  "Delete or unlink its sub-tasks first.",
		},
	},
	{
		err: ErrInvalidRecurrence,
		info: ErrorInfo{
			Message: "The recurrence settings are invalid.",
			Action:  "Use one of daily, weekly, biweekly, monthly, quarterly with an interval of at least 1.",
		},
	},
	{
		err: ErrTemplateVariableRequired,
		info: ErrorInfo{
			Message: "The template needs values for its required variables.",
			Action:  "Pass each missing variable with --var name=value.",
		},
	},
	{
		err: ErrTemplateInvalid,
		info: ErrorInfo{
			Message: "The task template is invalid.",
			Action:  "Fix the template file listed in the 'templates' config section.",
		},
	},
	{
		err: ErrValidation,
		info: ErrorInfo{
			Message: "The request contains invalid values.",
			Action:  "Correct the fields listed in the error and retry.",
		},
	},

	// ===================
	// Infrastructure
	// ===================
	{
		err: ErrLockTimeout,
		info: ErrorInfo{
			Message: "Timed out waiting for the task file lock.",
			Action:  "Another process may be writing this task. Retry shortly.",
		},
	},
	{
		err: ErrStoreCorrupted,
		info: ErrorInfo{
			Message: "The stored task could not be read.",
			Action:  "Inspect the task.json file under ~/.taskflow/tasks.",
		},
	},
	{
		err: ErrUnavailable,
		info: ErrorInfo{
			Message: "A backing service is unavailable.",
			Action:  "Check connectivity to storage, Redis and NATS, then retry.",
		},
	},
	{
		err: ErrLeaseHeld,
		info: ErrorInfo{
			Message: "Another sweeper holds the SLA sweep lease.",
			Action:  "No action needed; the current holder will run this tick.",
		},
	},
	{
		err: ErrInvalidOutputFormat,
		info: ErrorInfo{
			Message: "Unsupported output format.",
			Action:  "Use --output text or --output json.",
		},
	},
}

// errorInfoMap provides O(1) lookup for direct sentinel error matches.
//
//nolint:gochecknoglobals // Pre-built mapping for O(1) lookup performance
var errorInfoMap = buildErrorInfoMap()

func buildErrorInfoMap() map[error]ErrorInfo {
	m := make(map[error]ErrorInfo, len(errorInfoEntries))
	for _, entry := range errorInfoEntries {
		m[entry.err] = entry.info
	}
	return m
}

// getErrorInfo looks up the ErrorInfo for a given error.
// It first tries a direct map lookup for unwrapped sentinel errors,
// then falls back to errors.Is() traversal for wrapped errors.
func getErrorInfo(err error) ErrorInfo {
	if info, ok := errorInfoMap[err]; ok {
		return info
	}

	for _, entry := range errorInfoEntries {
		if errors.Is(err, entry.err) {
			return entry.info
		}
	}

	return ErrorInfo{Message: err.Error()}
}

// UserMessage returns a user-friendly message for common errors.
// For unrecognized errors, it returns the error's original message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return getErrorInfo(err).Message
}

// Actionable returns a user-friendly error message along with a suggested
// action the user can take to resolve the issue. The action is empty when
// there is nothing useful to suggest.
func Actionable(err error) (message, action string) {
	if err == nil {
		return "", ""
	}
	info := getErrorInfo(err)
	return info.Message, info.Action
}
