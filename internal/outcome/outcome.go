// Package outcome models results that can be complete, complete with
// bookkeeping gaps, or failed.
package outcome

import "strings"

type Status string

const (
	Ok       Status = "ok"
	Degraded Status = "degraded"
	Failed   Status = "failed"
)

func (s Status) rank() int {
	switch s {
	case Failed:
		return 2
	case Degraded:
		return 1
	default:
		return 0
	}
}

// Worst returns the more severe of two statuses.
func Worst(a, b Status) Status {
	if b.rank() > a.rank() {
		return b
	}
	if a == "" {
		return Ok
	}
	return a
}

// Outcome accumulates reasons. The zero value is Ok.
type Outcome struct {
	Status  Status   `json:"status"`
	Reasons []string `json:"reasons,omitempty"`
}

func (o *Outcome) Degrade(reason string) {
	o.Status = Worst(o.Status, Degraded)
	o.Reasons = append(o.Reasons, reason)
}

func (o *Outcome) Fail(reason string) {
	o.Status = Failed
	o.Reasons = append(o.Reasons, reason)
}

// Merge folds other into o.
func (o *Outcome) Merge(other Outcome) {
	o.Status = Worst(o.Status, other.Status)
	o.Reasons = append(o.Reasons, other.Reasons...)
}

func (o Outcome) OK() bool {
	return o.Status == "" || o.Status == Ok
}

func (o Outcome) String() string {
	s := o.Status
	if s == "" {
		s = Ok
	}
	if len(o.Reasons) == 0 {
		return string(s)
	}
	return string(s) + ": " + strings.Join(o.Reasons, "; ")
}
