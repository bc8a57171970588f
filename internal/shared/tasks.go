package shared

// Task statuses shared by the close workflow and its storage.
const (
	TaskStatusPlanned    = "planned"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
	TaskStatusReviewed   = "reviewed"
)

var taskNext = map[string]string{
	TaskStatusPlanned:    TaskStatusInProgress,
	TaskStatusInProgress: TaskStatusCompleted,
	TaskStatusCompleted:  TaskStatusReviewed,
}

// ValidateTaskTransition allows exactly one step forward along
// planned, in_progress, completed, reviewed.
func ValidateTaskTransition(current, target string) error {
	next, ok := taskNext[current]
	if !ok {
		return InvalidTransitionf("task %s is final", current)
	}
	if target != next {
		return InvalidTransitionf("task %s -> %s", current, target)
	}
	return nil
}
