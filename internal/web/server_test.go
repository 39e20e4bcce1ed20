package web

import (
	"bufio"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/dcakeeper/internal/domain"
	"go.uber.org/zap"
)

type stubTasks []domain.SubmittedTask

func (s stubTasks) List() []domain.SubmittedTask { return s }

type stubDecisions []domain.DecisionEventRecord

func (s stubDecisions) EventsAfter(index uint64) ([]domain.DecisionEventRecord, error) {
	var out []domain.DecisionEventRecord
	for _, r := range s {
		if r.Index > index {
			out = append(out, r)
		}
	}
	return out, nil
}

func TestTasks(t *testing.T) {
	owner := common.HexToAddress("0xa1")
	tasks := stubTasks{
		{
			ID:    4,
			Block: 12,
			Order: domain.Order{
				Owner:             owner,
				InToken:           common.HexToAddress("0xd1"),
				OutToken:          common.HexToAddress("0xd2"),
				AmountPerTrade:    big.NewInt(250),
				TradesLeft:        2,
				Delay:             120,
				LastExecutionTime: 1_700_000_000,
			},
		},
		{
			ID:    5,
			Block: 13,
			Order: domain.Order{
				Owner:          owner,
				InToken:        common.HexToAddress("0xd1"),
				OutToken:       domain.NativeAsset,
				AmountPerTrade: big.NewInt(100),
				TradesLeft:     3,
			},
		},
		{
			ID:    6,
			Block: 14,
			Order: domain.Order{
				Owner:          owner,
				InToken:        domain.NativeAsset,
				OutToken:       common.HexToAddress("0xd2"),
				AmountPerTrade: big.NewInt(7),
				TradesLeft:     1,
			},
		},
	}
	srv := httptest.NewServer(NewServer(zap.NewNop(), "", tasks, nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/tasks")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var views []taskView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&views))
	require.Len(t, views, 3)
	require.Equal(t, domain.TaskID(4), views[0].ID)
	require.Equal(t, "500", views[0].Remaining)
	require.True(t, time.Unix(1_700_000_120, 0).Equal(views[0].NextDue))

	// both token cycles sell 0xd1, so each row shows the combined allowance
	require.Equal(t, "800", views[0].PendingApproval)
	require.Equal(t, "800", views[1].PendingApproval)
	require.Empty(t, views[2].PendingApproval)
}

func TestDecisionStream_ResumesAfterLastEventID(t *testing.T) {
	records := stubDecisions{
		{Index: 1, Type: domain.DecisionTypeEvaluation, Event: domain.DecisionEvent{TaskID: 1, Status: "NotOk: Time not passed"}},
		{Index: 2, Type: domain.DecisionTypeExecution, Event: domain.DecisionEvent{TaskID: 1, Status: "OK", TxHash: "0xabc"}},
	}
	srv := httptest.NewServer(NewServer(zap.NewNop(), "", nil, records).Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/decisions/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Last-Event-ID", "1")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 3 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		lines = append(lines, strings.TrimSpace(line))
	}
	require.Equal(t, "id: 2", lines[0])
	require.Equal(t, "event: decision", lines[1])
	require.True(t, strings.HasPrefix(lines[2], "data: "))

	var msg struct {
		Type string               `json:"type"`
		Data domain.DecisionEvent `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(lines[2], "data: ")), &msg))
	require.Equal(t, "execution", msg.Type)
	require.Equal(t, "0xabc", msg.Data.TxHash)
}

func TestDecisionStream_Unavailable(t *testing.T) {
	rec := httptest.NewRecorder()
	NewServer(zap.NewNop(), "", nil, nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/decisions/stream", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestIndex(t *testing.T) {
	rec := httptest.NewRecorder()
	NewServer(zap.NewNop(), "", nil, nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "/decisions/stream")
	// revert reasons come from the chain and are rendered as text only
	require.NotContains(t, rec.Body.String(), "innerHTML")
	require.Contains(t, rec.Body.String(), "textContent")

	rec = httptest.NewRecorder()
	NewServer(zap.NewNop(), "", nil, nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
