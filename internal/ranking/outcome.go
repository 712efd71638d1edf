package ranking

// Stage names used in outcomes, spans and metrics.
const (
	StageRetrieve = "retrieve"
	StageRerank   = "rerank"
	StageAdjust   = "adjust"
	StageSelect   = "select"
)

// Status is the health of a stage run.
type Status int

const (
	// StatusOK means the stage used its primary model.
	StatusOK Status = iota
	// StatusDegraded means the stage fell back to a simpler signal.
	StatusDegraded
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// Outcome reports how a stage ran.
type Outcome struct {
	Stage  string
	Status Status
	// Reason explains a degraded outcome.
	Reason string
}

// Degraded reports whether the stage fell back.
func (o Outcome) Degraded() bool {
	return o.Status == StatusDegraded
}

func okOutcome(stage string) Outcome {
	return Outcome{Stage: stage, Status: StatusOK}
}

func degradedOutcome(stage, reason string) Outcome {
	return Outcome{Stage: stage, Status: StatusDegraded, Reason: reason}
}
