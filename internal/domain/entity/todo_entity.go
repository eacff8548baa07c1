package entity

import "time"

// Todo status values.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Todo priority levels.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Recurrence frequencies.
const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
)

// Todo is a user-owned task. UserID is set at creation and never
// transferable; every read and write is scoped to the owner.
type Todo struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Status      string
	Priority    string
	DueDate     *time.Time
	Tags        []string
	IsRecurring bool
	Frequency   string // empty unless IsRecurring
	Interval    int    // repeat every N frequency units; 0 unless IsRecurring
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TodoPatch carries a partial update. Nil fields leave the stored value
// unchanged; the updated timestamp is refreshed regardless.
type TodoPatch struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	DueDate     *time.Time
	Tags        *[]string
	IsRecurring *bool
	Frequency   *string
	Interval    *int
}
