package poller

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/dcakeeper/internal/domain"
	"github.com/vadiminshakov/gowal"
)

const (
	execIntentKeyPrefix = "exec_intent_"

	IntentStatusPending = "pending"
	IntentStatusDone    = "done"
	IntentStatusFailed  = "failed"
)

// Intent is one journaled execution attempt.
type Intent struct {
	ID       string        `json:"id"`
	Status   string        `json:"status"`
	TaskID   domain.TaskID `json:"task_id"`
	Owner    string        `json:"owner"`
	Venue    string        `json:"venue"`
	Fee      string        `json:"fee"`
	FeeAsset string        `json:"fee_asset"`
	Time     time.Time     `json:"time"`
	TxHash   string        `json:"tx_hash,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// Journal records execution intents before they are sent so a crash between
// sending and recording leaves a pending entry to reconcile.
type Journal struct {
	wal *gowal.Wal

	mu      sync.Mutex
	intents []*Intent
	index   map[string]*Intent
}

// OpenJournal opens the execution journal in dir and replays existing intents.
func OpenJournal(dir string) (*Journal, error) {
	wal, err := gowal.NewWAL(gowal.Config{
		Dir:              dir,
		Prefix:           "exec_",
		SegmentThreshold: 100,
		MaxSegments:      10,
		IsInSyncDiskMode: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "init execution WAL")
	}

	j := &Journal{wal: wal, index: make(map[string]*Intent)}
	for msg := range wal.Iterator() {
		if !strings.HasPrefix(msg.Key, execIntentKeyPrefix) {
			continue
		}
		var intent Intent
		if err := json.Unmarshal(msg.Value, &intent); err != nil {
			_ = wal.Close()
			return nil, errors.Wrapf(err, "decode %s", msg.Key)
		}
		if existing, ok := j.index[intent.ID]; ok {
			*existing = intent
			continue
		}
		rec := intent
		j.intents = append(j.intents, &rec)
		j.index[rec.ID] = &rec
	}
	return j, nil
}

// Prepare journals a pending intent for the decision.
func (j *Journal) Prepare(task domain.SubmittedTask, d domain.Decision, ts time.Time) (*Intent, error) {
	intent := &Intent{
		ID:     uuid.New().String(),
		Status: IntentStatusPending,
		TaskID: task.ID,
		Owner:  task.Order.Owner.Hex(),
		Time:   ts,
	}
	if d.Quote != nil {
		intent.Venue = d.Quote.Venue.String()
	}
	if d.Fee != nil {
		intent.Fee = d.Fee.Amount.String()
		intent.FeeAsset = domain.FeeAsset(task.Order, d.Fee.IsOutToken).Hex()
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.persist(intent); err != nil {
		return nil, err
	}
	j.intents = append(j.intents, intent)
	j.index[intent.ID] = intent
	return intent, nil
}

// MarkDone records the transaction that executed the intent.
func (j *Journal) MarkDone(intent *Intent, txHash string) error {
	if intent == nil {
		return nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	intent.Status = IntentStatusDone
	intent.TxHash = txHash
	intent.Error = ""
	return j.persist(intent)
}

// MarkFailed records why the intent did not execute.
func (j *Journal) MarkFailed(intent *Intent, err error) error {
	if intent == nil {
		return nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	intent.Status = IntentStatusFailed
	if err != nil {
		intent.Error = err.Error()
	} else {
		intent.Error = ""
	}
	return j.persist(intent)
}

// Pending returns intents that were sent but never resolved.
func (j *Journal) Pending() []Intent {
	j.mu.Lock()
	defer j.mu.Unlock()

	var out []Intent
	for _, intent := range j.intents {
		if intent.Status == IntentStatusPending {
			out = append(out, *intent)
		}
	}
	return out
}

// Intents returns a copy of all journaled intents in write order.
func (j *Journal) Intents() []Intent {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]Intent, 0, len(j.intents))
	for _, intent := range j.intents {
		out = append(out, *intent)
	}
	return out
}

// Close closes the underlying WAL.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.wal.Close()
}

func (j *Journal) persist(intent *Intent) error {
	data, err := json.Marshal(intent)
	if err != nil {
		return errors.Wrap(err, "failed to marshal execution intent")
	}
	key := fmt.Sprintf("%s%s", execIntentKeyPrefix, intent.ID)
	nextIndex := j.wal.CurrentIndex() + 1
	return j.wal.Write(nextIndex, key, data)
}
