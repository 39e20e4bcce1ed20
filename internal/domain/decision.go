package domain

import (
	"math/big"
)

// Reason explains why a task cannot execute right now.
type Reason string

const (
	ReasonTaskNotFound         Reason = "Task not found"
	ReasonTimeNotPassed        Reason = "Time not passed"
	ReasonInsufficientBalance  Reason = "Insufficient balance for trade"
	ReasonInsufficientApproval Reason = "Insufficient approval"
	ReasonInsufficientReturn   Reason = "Insufficient amount received"
	ReasonExecutorCannotExec   Reason = "Executor cannot exec"
)

const (
	StatusOK          = "OK"
	statusNotOKPrefix = "NotOk: "
)

// Decision is the outcome of evaluating one task.
// A zero Reason means the task is executable and Payload is set.
type Decision struct {
	Reason    Reason
	Payload   FinalPayload
	Quote     *Quote
	MinReturn *big.Int
	Fee       *Fee
}

// NotOK builds a decision that rejects execution.
func NotOK(reason Reason) Decision {
	return Decision{Reason: reason}
}

// OK reports whether the task can execute.
func (d Decision) OK() bool {
	return d.Reason == ""
}

// Status renders the executor facing status string.
func (d Decision) Status() string {
	if d.OK() {
		return StatusOK
	}
	return statusNotOKPrefix + string(d.Reason)
}

// Result is the wire shape returned to executors.
type Result struct {
	OK      string `json:"ok"`
	Payload string `json:"payload,omitempty"`
}

// Result converts the decision into its wire shape.
func (d Decision) Result() Result {
	r := Result{OK: d.Status()}
	if d.OK() {
		r.Payload = d.Payload.Hex()
	}
	return r
}
