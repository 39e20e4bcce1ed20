package domain

import "time"

// DecisionType enum for journaled events
type DecisionType string

const (
	DecisionTypeEvaluation DecisionType = "evaluation"
	DecisionTypeExecution  DecisionType = "execution"
)

// DecisionEvent is one journaled keeper decision.
type DecisionEvent struct {
	Timestamp time.Time `json:"ts"`
	TaskID    TaskID    `json:"task_id"`
	Owner     string    `json:"owner"`
	InToken   string    `json:"in_token"`
	OutToken  string    `json:"out_token"`
	Status    string    `json:"status"`
	Venue     string    `json:"venue,omitempty"`
	Output    string    `json:"output,omitempty"`
	MinReturn string    `json:"min_return,omitempty"`
	Fee       string    `json:"fee,omitempty"`
	TxHash    string    `json:"tx_hash,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// NewEvaluationEvent summarizes a decision for the journal.
func NewEvaluationEvent(ts time.Time, task SubmittedTask, d Decision) DecisionEvent {
	ev := DecisionEvent{
		Timestamp: ts,
		TaskID:    task.ID,
		Owner:     task.Order.Owner.Hex(),
		InToken:   task.Order.InToken.Hex(),
		OutToken:  task.Order.OutToken.Hex(),
		Status:    d.Status(),
	}
	if d.Quote != nil {
		ev.Venue = d.Quote.Venue.String()
		if d.Quote.Amount != nil {
			ev.Output = d.Quote.Amount.String()
		}
	}
	if d.MinReturn != nil {
		ev.MinReturn = d.MinReturn.String()
	}
	if d.Fee != nil && d.Fee.Amount != nil {
		ev.Fee = d.Fee.Amount.String()
	}
	return ev
}

// DecisionEventRecord bundles a decision event with its WAL index.
type DecisionEventRecord struct {
	Index uint64
	Type  DecisionType
	Event DecisionEvent
}
