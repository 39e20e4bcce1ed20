package domain

import (
	"math/big"
	"strconv"

	"github.com/pkg/errors"
)

// TaskID identifies one instance of a recurring order in the cycle store.
// It is reissued after every execution.
type TaskID uint64

// BigInt converts the id to its uint256 wire form.
func (id TaskID) BigInt() *big.Int {
	return new(big.Int).SetUint64(uint64(id))
}

// TaskIDFromBig converts a uint256 id. Ids that do not fit in 64 bits are rejected.
func TaskIDFromBig(v *big.Int) (TaskID, error) {
	if v == nil || !v.IsUint64() {
		return 0, errors.Errorf("task id %v out of range", v)
	}
	return TaskID(v.Uint64()), nil
}

func (id TaskID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// TaskEventKind is the cycle store event that produced a SubmittedTask.
type TaskEventKind string

const (
	TaskEventSubmitted TaskEventKind = "submitted"
	TaskEventUpdated   TaskEventKind = "updated"
	TaskEventCancelled TaskEventKind = "cancelled"
)

// SubmittedTask pairs an order with its currently valid task id.
type SubmittedTask struct {
	ID    TaskID        `json:"id"`
	Order Order         `json:"order"`
	Kind  TaskEventKind `json:"kind"`
	Block uint64        `json:"block"`
}

// Live reports whether the event introduces an executable task.
func (t SubmittedTask) Live() bool {
	return t.Kind != TaskEventCancelled
}
