package domain

import (
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestDecision_Status(t *testing.T) {
	require.Equal(t, "OK", Decision{Payload: FinalPayload{0x01}}.Status())
	require.Equal(t, "NotOk: Task not found", NotOK(ReasonTaskNotFound).Status())
	require.Equal(t, "NotOk: Time not passed", NotOK(ReasonTimeNotPassed).Status())
	require.Equal(t, "NotOk: Insufficient balance for trade", NotOK(ReasonInsufficientBalance).Status())
	require.Equal(t, "NotOk: Insufficient approval", NotOK(ReasonInsufficientApproval).Status())
	require.Equal(t, "NotOk: Insufficient amount received", NotOK(ReasonInsufficientReturn).Status())
	require.Equal(t, "NotOk: Executor cannot exec", NotOK(ReasonExecutorCannotExec).Status())
	require.Equal(t, "NotOk: GelatoDCA: exec failed", NotOK(Reason("GelatoDCA: exec failed")).Status())
}

func TestDecision_Result(t *testing.T) {
	ok := Decision{Payload: FinalPayload{0xde, 0xad}}.Result()
	require.Equal(t, Result{OK: "OK", Payload: "0xdead"}, ok)

	notOK := NotOK(ReasonTimeNotPassed).Result()
	require.Equal(t, "NotOk: Time not passed", notOK.OK)
	require.Empty(t, notOK.Payload)
}

func TestVenue(t *testing.T) {
	path := DirectPath(testDAI, testUSDC)

	require.Empty(t, VenueAggregator.EncodePath(path))
	require.NotNil(t, VenueAggregator.EncodePath(path))
	require.Equal(t, path, VenueRouterA.EncodePath(path))
	require.Equal(t, uint8(2), VenueRouterB.Code())

	v, err := ParseVenue(1)
	require.NoError(t, err)
	require.Equal(t, VenueRouterA, v)

	_, err = ParseVenue(3)
	require.Error(t, err)

	q := Quote{Venue: VenueAggregator, Amount: big.NewInt(5), Path: path}
	require.Empty(t, q.Route().Path)
}

func TestRevertError(t *testing.T) {
	err := fmt.Errorf("estimate: %w", NewRevert("Executor cannot exec"))
	rev, ok := AsRevert(err)
	require.True(t, ok)
	require.Equal(t, "Executor cannot exec", rev.Reason)

	_, ok = AsRevert(fmt.Errorf("dial tcp: connection refused"))
	require.False(t, ok)
	require.Equal(t, "execution reverted", (&RevertError{}).Error())
}

func TestNewEvaluationEvent(t *testing.T) {
	o, err := NewOrder(testOwner, validSubmit())
	require.NoError(t, err)
	task := SubmittedTask{ID: 4, Order: o, Kind: TaskEventSubmitted}

	d := Decision{
		Payload:   FinalPayload{0x01},
		Quote:     &Quote{Venue: VenueRouterB, Amount: big.NewInt(990)},
		MinReturn: big.NewInt(500),
		Fee:       &Fee{Amount: big.NewInt(7)},
	}
	ts := time.Unix(100, 0)
	ev := NewEvaluationEvent(ts, task, d)

	require.Equal(t, TaskID(4), ev.TaskID)
	require.Equal(t, "OK", ev.Status)
	require.Equal(t, "router_b", ev.Venue)
	require.Equal(t, "990", ev.Output)
	require.Equal(t, "500", ev.MinReturn)
	require.Equal(t, "7", ev.Fee)
	require.Equal(t, common.HexToAddress(ev.Owner), testOwner)
}
