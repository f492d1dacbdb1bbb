package models

import "time"

// RunStatus is the final result of one pipeline run.
type RunStatus struct {
	RunID              string    `json:"run_id"`
	DistributionResult string    `json:"distribution_result"`
	DocumentPaths      []string  `json:"document_paths"`
	MessagingSent      bool      `json:"messaging_sent"`
	Degraded           []string  `json:"degraded,omitempty"`
	StartedAt          time.Time `json:"started_at"`
	FinishedAt         time.Time `json:"finished_at"`
}

// Duration returns how long the run took.
func (s *RunStatus) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
