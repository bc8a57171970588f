package shared

// Period statuses reused outside accounting module.
const (
	PeriodStatusOpen   = "open"
	PeriodStatusClosed = "closed"
)

// ValidatePeriodTransition checks transitions according to policy. Periods
// only ever move forward from open to closed.
func ValidatePeriodTransition(current, target string) error {
	if current == PeriodStatusOpen && target == PeriodStatusClosed {
		return nil
	}
	if current == PeriodStatusClosed {
		return InvalidTransitionf("period already closed")
	}
	return InvalidTransitionf("period %s -> %s", current, target)
}
