// Package metrics reports keeper activity to statsd.
package metrics

import (
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/pkg/errors"
)

const (
	Evaluations    = "dcakeeper.evaluations"
	Executions     = "dcakeeper.executions"
	ExecFailures   = "dcakeeper.exec_failures"
	TrackedTasks   = "dcakeeper.tasks_tracked"
	EvaluationTime = "dcakeeper.evaluation_time"
	PollErrors     = "dcakeeper.poll_errors"
)

// Reporter is what the poller reports through.
type Reporter interface {
	Count(name string, tags ...string)
	Gauge(name string, value float64, tags ...string)
	Timing(name string, since time.Time, tags ...string)
}

// Statsd reports to a statsd agent.
type Statsd struct {
	client *statsd.Client
}

// NewStatsd connects to addr (host:port). Every metric carries the keeper tag.
func NewStatsd(addr, keeper string) (*Statsd, error) {
	client, err := statsd.New(addr, statsd.WithTags([]string{"keeper:" + keeper}))
	if err != nil {
		return nil, errors.Wrap(err, "statsd client")
	}
	return &Statsd{client: client}, nil
}

// Count increments a counter. Send errors are dropped.
func (s *Statsd) Count(name string, tags ...string) {
	_ = s.client.Count(name, 1, tags, 1)
}

// Gauge records a value.
func (s *Statsd) Gauge(name string, value float64, tags ...string) {
	_ = s.client.Gauge(name, value, tags, 1)
}

// Timing records the time elapsed since since.
func (s *Statsd) Timing(name string, since time.Time, tags ...string) {
	_ = s.client.Timing(name, time.Since(since), tags, 1)
}

// Close flushes and closes the client.
func (s *Statsd) Close() error {
	return s.client.Close()
}

// Nop discards everything.
type Nop struct{}

func (Nop) Count(string, ...string)             {}
func (Nop) Gauge(string, float64, ...string)    {}
func (Nop) Timing(string, time.Time, ...string) {}
