package model

import (
	"time"

	"github.com/adjeilabs/gavel/internal/core/stage"
)

// Submission is one argument contribution, immutable once created. Side is
// resolved from the case's participant bindings (or its automated-side
// assignment) at creation time and is the uniqueness key together with the
// case and stage.
type Submission struct {
	UUID       string
	CaseUUID   string
	Stage      stage.Stage
	Submitter  Submitter
	Side       Side
	Transcript string
	AudioRef   string
	CreatedAt  time.Time
}
