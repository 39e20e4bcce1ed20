// Package tasks keeps the set of tracked tasks and the task feed cursor in a WAL.
package tasks

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/dcakeeper/internal/domain"
	"github.com/vadiminshakov/gowal"
)

const (
	DefaultDir    = "./wal/tasks"
	segmentLimit  = 100
	maxSegments   = 10
	snapshotEvery = 500

	putKeyPrefix    = "task_put_"
	removeKeyPrefix = "task_del_"
	cursorKey       = "cursor"
	snapshotKey     = "snapshot"
)

type snapshot struct {
	Cursor uint64                 `json:"cursor"`
	Tasks  []domain.SubmittedTask `json:"tasks"`
}

// Registry is the keeper's view of live tasks. Every change is appended to the WAL
// and a full snapshot is written periodically so replay survives segment rotation.
type Registry struct {
	wal *gowal.Wal
	mu  sync.RWMutex

	tasks  map[domain.TaskID]domain.SubmittedTask
	cursor uint64
}

// NewRegistry opens the WAL in dir and replays it.
func NewRegistry(dir string) (*Registry, error) {
	if dir == "" {
		dir = DefaultDir
	}

	wal, err := gowal.NewWAL(gowal.Config{
		Dir:              dir,
		Prefix:           "task_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "init task WAL")
	}

	r := &Registry{wal: wal, tasks: make(map[domain.TaskID]domain.SubmittedTask)}
	if err := r.replay(); err != nil {
		_ = wal.Close()
		return nil, err
	}
	return r, nil
}

func (r *Registry) replay() error {
	for msg := range r.wal.Iterator() {
		switch {
		case msg.Key == snapshotKey:
			var snap snapshot
			if err := json.Unmarshal(msg.Value, &snap); err != nil {
				return errors.Wrap(err, "decode task snapshot")
			}
			r.tasks = make(map[domain.TaskID]domain.SubmittedTask, len(snap.Tasks))
			for _, t := range snap.Tasks {
				r.tasks[t.ID] = t
			}
			r.cursor = snap.Cursor
		case msg.Key == cursorKey:
			cursor, err := strconv.ParseUint(string(msg.Value), 10, 64)
			if err != nil {
				return errors.Wrap(err, "decode task cursor")
			}
			r.cursor = cursor
		case strings.HasPrefix(msg.Key, putKeyPrefix):
			var t domain.SubmittedTask
			if err := json.Unmarshal(msg.Value, &t); err != nil {
				return errors.Wrapf(err, "decode %s", msg.Key)
			}
			r.tasks[t.ID] = t
		case strings.HasPrefix(msg.Key, removeKeyPrefix):
			id, err := strconv.ParseUint(strings.TrimPrefix(msg.Key, removeKeyPrefix), 10, 64)
			if err != nil {
				return errors.Wrapf(err, "decode %s", msg.Key)
			}
			delete(r.tasks, domain.TaskID(id))
		}
	}
	return nil
}

// Put tracks a task.
func (r *Registry) Put(t domain.SubmittedTask) error {
	if r == nil || r.wal == nil {
		return errors.New("task registry is not initialized")
	}
	payload, err := json.Marshal(t)
	if err != nil {
		return errors.Wrap(err, "marshal task")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.write(putKeyPrefix+t.ID.String(), payload); err != nil {
		return err
	}
	r.tasks[t.ID] = t
	return nil
}

// Remove stops tracking a task. Unknown ids are ignored.
func (r *Registry) Remove(id domain.TaskID) error {
	if r == nil || r.wal == nil {
		return errors.New("task registry is not initialized")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return nil
	}
	if err := r.write(removeKeyPrefix+id.String(), nil); err != nil {
		return err
	}
	delete(r.tasks, id)
	return nil
}

// SetCursor stores the next block the task feed should read from.
func (r *Registry) SetCursor(block uint64) error {
	if r == nil || r.wal == nil {
		return errors.New("task registry is not initialized")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if block == r.cursor {
		return nil
	}
	if err := r.write(cursorKey, []byte(strconv.FormatUint(block, 10))); err != nil {
		return err
	}
	r.cursor = block
	return nil
}

// Cursor returns the stored feed cursor.
func (r *Registry) Cursor() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cursor
}

// List returns tracked tasks ordered by id.
func (r *Registry) List() []domain.SubmittedTask {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.list()
}

func (r *Registry) list() []domain.SubmittedTask {
	out := make([]domain.SubmittedTask, 0, len(r.tasks))
	for _, t := range r.tasks {
		t.Order = t.Order.Clone()
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of tracked tasks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

// write appends a record and snapshots when due. Callers hold mu.
func (r *Registry) write(key string, value []byte) error {
	next := r.wal.CurrentIndex() + 1
	if err := r.wal.Write(next, key, value); err != nil {
		return errors.Wrapf(err, "write %s", key)
	}
	if next%snapshotEvery != 0 {
		return nil
	}

	payload, err := json.Marshal(snapshot{Cursor: r.cursorAfter(key, value), Tasks: r.pending(key, value)})
	if err != nil {
		return errors.Wrap(err, "marshal task snapshot")
	}
	return errors.Wrap(r.wal.Write(next+1, snapshotKey, payload), "write task snapshot")
}

// cursorAfter and pending apply the record being written so the snapshot
// includes it even though the in-memory state is updated after write returns.
func (r *Registry) cursorAfter(key string, value []byte) uint64 {
	if key == cursorKey {
		if c, err := strconv.ParseUint(string(value), 10, 64); err == nil {
			return c
		}
	}
	return r.cursor
}

func (r *Registry) pending(key string, value []byte) []domain.SubmittedTask {
	tasks := r.list()
	switch {
	case strings.HasPrefix(key, putKeyPrefix):
		var t domain.SubmittedTask
		if err := json.Unmarshal(value, &t); err == nil {
			filtered := tasks[:0]
			for _, existing := range tasks {
				if existing.ID != t.ID {
					filtered = append(filtered, existing)
				}
			}
			tasks = append(filtered, t)
		}
	case strings.HasPrefix(key, removeKeyPrefix):
		filtered := tasks[:0]
		for _, existing := range tasks {
			if removeKeyPrefix+existing.ID.String() != key {
				filtered = append(filtered, existing)
			}
		}
		tasks = filtered
	}
	return tasks
}

// Close closes the underlying WAL.
func (r *Registry) Close() error {
	if r == nil || r.wal == nil {
		return errors.New("task registry is not initialized")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.wal.Close()
}
