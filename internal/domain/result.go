package domain

// Failure describes one task a bulk operation could not mutate.
type Failure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
	Kind   string `json:"kind"`
}

// BulkResult partitions a multi-task request into successes and failures.
// Both slices keep the order of the request.
type BulkResult struct {
	Succeeded []string  `json:"succeeded"`
	Failed    []Failure `json:"failed"`
}

// Total returns the number of tasks the result accounts for.
func (r BulkResult) Total() int {
	return len(r.Succeeded) + len(r.Failed)
}

// SweepReport summarizes one SLA sweep.
type SweepReport struct {
	Scanned   int       `json:"scanned"`
	Breached  int       `json:"breached"`
	Escalated []string  `json:"escalated"`
	Skipped   []string  `json:"skipped,omitempty"`
	Failed    []Failure `json:"failed,omitempty"`
}
