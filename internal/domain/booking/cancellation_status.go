package booking

import "fmt"

// CancellationStatus is the state of a cancellation request.
type CancellationStatus string

const (
	CancellationPending  CancellationStatus = "pending"
	CancellationApproved CancellationStatus = "approved"
	CancellationRejected CancellationStatus = "rejected"
)

var validCancellationTransitions = map[CancellationStatus][]CancellationStatus{
	CancellationPending:  {CancellationApproved, CancellationRejected},
	CancellationApproved: {},
	CancellationRejected: {},
}

// IsValid returns true if the status is a recognized cancellation status.
func (s CancellationStatus) IsValid() bool {
	_, ok := validCancellationTransitions[s]
	return ok
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s CancellationStatus) CanTransitionTo(target CancellationStatus) bool {
	for _, t := range validCancellationTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

func (s CancellationStatus) String() string {
	return string(s)
}

// ParseCancellationStatus converts a string to a CancellationStatus.
func ParseCancellationStatus(s string) (CancellationStatus, error) {
	status := CancellationStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid cancellation status: %s", s)
	}
	return status, nil
}
