package decisions

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/dcakeeper/internal/domain"
	"github.com/vadiminshakov/gowal"
)

const (
	DefaultDir   = "./wal/decisions"
	segmentLimit = 100
	maxSegments  = 10

	evaluationKeyPrefix = "evaluation_"
	executionKeyPrefix  = "execution_"
)

var keyPrefixes = map[domain.DecisionType]string{
	domain.DecisionTypeEvaluation: evaluationKeyPrefix,
	domain.DecisionTypeExecution:  executionKeyPrefix,
}

// WALStore persists keeper decision events in a WAL.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore initializes a WAL-backed decision store.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = DefaultDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "decision_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init decision WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Save writes a decision event of the given type to the WAL.
func (s *WALStore) Save(typ domain.DecisionType, event domain.DecisionEvent) error {
	if s == nil || s.wal == nil {
		return errors.New("decision store is not initialized")
	}
	prefix, ok := keyPrefixes[typ]
	if !ok {
		return fmt.Errorf("unknown decision type %q", typ)
	}
	if event.TaskID == 0 {
		return fmt.Errorf("decision event task id is required")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal decision event")
	}

	key := prefix + event.TaskID.String()

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, key, payload)
}

// EventsAfter returns all decision events written after the provided WAL index.
func (s *WALStore) EventsAfter(index uint64) ([]domain.DecisionEventRecord, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("decision store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	records := make([]domain.DecisionEventRecord, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil {
			// compacted away
			continue
		}

		typ, ok := typeOf(key)
		if !ok {
			continue
		}
		var event domain.DecisionEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, errors.Wrapf(err, "decode %s decision event", typ)
		}
		records = append(records, domain.DecisionEventRecord{
			Index: idx,
			Type:  typ,
			Event: event,
		})
	}

	return records, nil
}

func typeOf(key string) (domain.DecisionType, bool) {
	for typ, prefix := range keyPrefixes {
		if strings.HasPrefix(key, prefix) {
			return typ, true
		}
	}
	return "", false
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("decision store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
