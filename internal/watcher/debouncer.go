package watcher

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// debouncer collapses bursts of events into one handler call per quiet
// period. Events for the same path keep only the latest operation.
type debouncer struct {
	delay   time.Duration
	events  map[string]FileChangeEvent
	timer   *time.Timer
	mutex   sync.Mutex
	stopped bool
	logger  *zap.Logger
}

type batchHandler func([]FileChangeEvent) error

func newDebouncer(delay time.Duration, logger *zap.Logger) *debouncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &debouncer{
		delay:  delay,
		events: make(map[string]FileChangeEvent),
		logger: logger,
	}
}

func (d *debouncer) add(event FileChangeEvent, handler batchHandler) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.stopped {
		return
	}
	d.events[event.Path] = event
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.flush(handler)
	})
}

func (d *debouncer) flush(handler batchHandler) {
	d.mutex.Lock()
	if d.stopped || len(d.events) == 0 {
		d.mutex.Unlock()
		return
	}
	batch := make([]FileChangeEvent, 0, len(d.events))
	for _, event := range d.events {
		batch = append(batch, event)
	}
	d.events = make(map[string]FileChangeEvent)
	d.mutex.Unlock()

	sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })
	d.logger.Debug("flushing changes", zap.Int("events", len(batch)))
	if err := handler(batch); err != nil {
		d.logger.Error("change handler failed", zap.Error(err))
	}
}

func (d *debouncer) stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.stopped = true
	d.events = make(map[string]FileChangeEvent)
}
