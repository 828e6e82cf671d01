package scheduler

import "errors"

var (
	// ErrInvalidSchedule — cron-выражение не разбирается.
	ErrInvalidSchedule = errors.New("invalid schedule")

	// ErrNoEnqueuer — некуда отправлять найденные flowcell.
	ErrNoEnqueuer = errors.New("no enqueuer configured")
)
