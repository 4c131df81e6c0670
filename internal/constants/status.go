package constants

// TaskStatus represents the state of a task in the workflow state machine.
// Values match the display strings used by the CRM API so that clients can
// send and receive them without translation.
type TaskStatus string

// Task status constants define the valid states a task can be in.
// The legal transitions are:
//
//	Open         → In Progress, On Hold, Cancelled
//	In Progress  → Under Review, On Hold, Cancelled, Completed
//	Under Review → In Progress, Completed, On Hold
//	On Hold      → Open, In Progress, Cancelled
//	Completed    → Open
//	Cancelled    → Open
const (
	// TaskStatusOpen is the initial state of every task.
	TaskStatusOpen TaskStatus = "Open"

	// TaskStatusInProgress indicates somebody is actively working the task.
	TaskStatusInProgress TaskStatus = "In Progress"

	// TaskStatusUnderReview indicates the work is done and awaiting review.
	TaskStatusUnderReview TaskStatus = "Under Review"

	// TaskStatusCompleted indicates the task was resolved.
	// Completed tasks may be reopened.
	TaskStatusCompleted TaskStatus = "Completed"

	// TaskStatusOnHold indicates the task is paused.
	TaskStatusOnHold TaskStatus = "On Hold"

	// TaskStatusCancelled indicates the task was dropped.
	// Cancelled tasks may be reopened.
	TaskStatusCancelled TaskStatus = "Cancelled"
)

// String returns the string representation of the TaskStatus.
func (s TaskStatus) String() string {
	return string(s)
}

// AllTaskStatuses returns every task status in board column order.
func AllTaskStatuses() []TaskStatus {
	return []TaskStatus{
		TaskStatusOpen,
		TaskStatusInProgress,
		TaskStatusUnderReview,
		TaskStatusOnHold,
		TaskStatusCompleted,
		TaskStatusCancelled,
	}
}

// Priority is the urgency of a task.
type Priority string

// Priority values.
const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
	PriorityLow      Priority = "Low"
)

// String returns the string representation of the Priority.
func (p Priority) String() string {
	return string(p)
}

// AllPriorities returns every priority from most to least urgent.
func AllPriorities() []Priority {
	return []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}
}

// Category groups tasks by the kind of CRM work they represent.
type Category string

// Category values. CategoryGeneral is the default.
const (
	CategoryGeneral       Category = "General"
	CategoryFollowUp      Category = "Follow Up"
	CategorySiteVisit     Category = "Site Visit"
	CategoryDocumentation Category = "Documentation"
	CategoryPayment       Category = "Payment"
	CategoryMeeting       Category = "Meeting"
	CategoryLegal         Category = "Legal"
	CategoryMarketing     Category = "Marketing"
	CategoryMaintenance   Category = "Maintenance"
)

// String returns the string representation of the Category.
func (c Category) String() string {
	return string(c)
}

// AllCategories returns every task category.
func AllCategories() []Category {
	return []Category{
		CategoryGeneral,
		CategoryFollowUp,
		CategorySiteVisit,
		CategoryDocumentation,
		CategoryPayment,
		CategoryMeeting,
		CategoryLegal,
		CategoryMarketing,
		CategoryMaintenance,
	}
}

// EntityType names the CRM record a task can link back to.
type EntityType string

// Linked entity types.
const (
	EntityLead     EntityType = "Lead"
	EntityProject  EntityType = "Project"
	EntityUnit     EntityType = "Unit"
	EntitySale     EntityType = "Sale"
	EntityPayment  EntityType = "Payment"
	EntityCustomer EntityType = "Customer"
)

// String returns the string representation of the EntityType.
func (e EntityType) String() string {
	return string(e)
}

// AllEntityTypes returns every linkable entity type.
func AllEntityTypes() []EntityType {
	return []EntityType{EntityLead, EntityProject, EntityUnit, EntitySale, EntityPayment, EntityCustomer}
}

// RecurrencePattern is the cadence of a recurring task.
type RecurrencePattern string

// Recurrence patterns.
const (
	RecurrenceDaily     RecurrencePattern = "daily"
	RecurrenceWeekly    RecurrencePattern = "weekly"
	RecurrenceBiweekly  RecurrencePattern = "biweekly"
	RecurrenceMonthly   RecurrencePattern = "monthly"
	RecurrenceQuarterly RecurrencePattern = "quarterly"
)

// String returns the string representation of the RecurrencePattern.
func (p RecurrencePattern) String() string {
	return string(p)
}

// AllRecurrencePatterns returns every supported recurrence pattern.
func AllRecurrencePatterns() []RecurrencePattern {
	return []RecurrencePattern{
		RecurrenceDaily,
		RecurrenceWeekly,
		RecurrenceBiweekly,
		RecurrenceMonthly,
		RecurrenceQuarterly,
	}
}

// EventType identifies an engine event delivered to the notification dispatcher.
type EventType string

// Event types emitted on accepted mutations.
const (
	EventTaskCreated            EventType = "TaskCreated"
	EventTransitionApplied      EventType = "TransitionApplied"
	EventTaskAssigned           EventType = "TaskAssigned"
	EventChecklistUpdated       EventType = "ChecklistUpdated"
	EventChecklistCompleted     EventType = "ChecklistCompleted"
	EventEscalationRaised       EventType = "EscalationRaised"
	EventEscalationAcknowledged EventType = "EscalationAcknowledged"
	EventRecurrenceScheduled    EventType = "RecurrenceScheduled"
	EventRecurrenceStopped      EventType = "RecurrenceStopped"
	EventSubTaskLinked          EventType = "SubTaskLinked"
	EventCommentAdded           EventType = "CommentAdded"
	EventTaskDeleted            EventType = "TaskDeleted"
)

// String returns the string representation of the EventType.
func (e EventType) String() string {
	return string(e)
}
