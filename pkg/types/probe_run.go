package types

import "time"

// ProbeAttempt is the recorded outcome of checking one host.
type ProbeAttempt struct {
	Host   string `json:"host" yaml:"host"`
	Status int    `json:"status" yaml:"status"`

	// Error is set when the remote command could not be run at all.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// ProbeRun is a finished connectivity probe as kept in the run history.
type ProbeRun struct {
	ID         string         `json:"id" yaml:"id"`
	Ref        string         `json:"ref" yaml:"ref"`
	StartedAt  time.Time      `json:"startedAt" yaml:"startedAt"`
	FinishedAt time.Time      `json:"finishedAt" yaml:"finishedAt"`
	Attempts   []ProbeAttempt `json:"attempts" yaml:"attempts"`

	// LastStatus is the exit status of the last attempt.
	LastStatus int `json:"lastStatus" yaml:"lastStatus"`
}

// Failed returns the number of attempts that did not pass.
func (r *ProbeRun) Failed() int {
	n := 0
	for _, a := range r.Attempts {
		if a.Status != 0 || a.Error != "" {
			n++
		}
	}
	return n
}
