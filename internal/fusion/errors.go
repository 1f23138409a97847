package fusion

import (
	"fmt"
	"strings"
	"time"
)

// MissingThresholdError reports a rover pair whose separation was checked
// without a configured maximum distance. The consistency rule is unscoped
// for that pair, so the run cannot continue.
type MissingThresholdError struct {
	Epoch  time.Time
	RoverA string
	RoverB string
}

func (e *MissingThresholdError) Error() string {
	return fmt.Sprintf("epoch %s: no distance threshold configured for pair (%s, %s)",
		e.Epoch.Format(time.RFC3339), e.RoverA, e.RoverB)
}

// UnrepairedGapError reports an epoch at which one or more rovers still
// lack a record after the repair phase. Fusing a placeholder instead would
// corrupt the inverse-variance weighting, so the run stops here.
type UnrepairedGapError struct {
	Epoch  time.Time
	Rovers []string
	Reason string
}

func (e *UnrepairedGapError) Error() string {
	return fmt.Sprintf("epoch %s: no usable record for rover(s) %s: %s",
		e.Epoch.Format(time.RFC3339), strings.Join(e.Rovers, ", "), e.Reason)
}

// DegenerateRepairError reports a first-epoch repair with no valid rovers
// left to average over.
type DegenerateRepairError struct {
	Epoch time.Time
	Rover string
}

func (e *DegenerateRepairError) Error() string {
	return fmt.Sprintf("epoch %s: cannot repair rover %s: no valid rovers to average",
		e.Epoch.Format(time.RFC3339), e.Rover)
}
