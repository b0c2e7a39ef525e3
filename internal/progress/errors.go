package progress

import (
	"fmt"

	"planwise/internal/models"
)

// AggregationError reports a failed step of a recompute or evaluation.
// Date is zero for failures that are not tied to one day.
type AggregationError struct {
	UserID int64
	Date   models.Date
	Op     string
	Err    error
}

func (e *AggregationError) Error() string {
	if e.Date.IsZero() {
		return fmt.Sprintf("progress: %s for user %d: %v", e.Op, e.UserID, e.Err)
	}
	return fmt.Sprintf("progress: %s for user %d on %s: %v", e.Op, e.UserID, e.Date, e.Err)
}

func (e *AggregationError) Unwrap() error {
	return e.Err
}
