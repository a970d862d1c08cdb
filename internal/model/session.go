package model

// Status is the lifecycle state of one symbol's monitoring session.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusMonitoring Status = "MONITORING"
	StatusAlertSent  Status = "ALERT_SENT"
	StatusFailed     Status = "FAILED"
)

// Terminal reports whether no further transition can happen.
func (s Status) Terminal() bool {
	return s == StatusAlertSent || s == StatusFailed
}

// MonitorSession is the orchestrator's record for one symbol.
type MonitorSession struct {
	Symbol string
	Range  *OpeningRange
	Status Status
	Event  *BreakoutEvent
	Polls  int
	Err    error
}
