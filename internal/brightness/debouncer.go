package brightness

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/batterypanel/internal/logger"
)

// DefaultDelay is the quiet period before a slider change is written.
const DefaultDelay = 50 * time.Millisecond

// Writer performs the brightness write.
type Writer interface {
	SetBrightness(ctx context.Context, level int) error
}

// Timer is a scheduled callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler func(d time.Duration, f func()) Timer

func afterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Option configures a Debouncer.
type Option func(*Debouncer)

// WithDelay sets the quiet period.
func WithDelay(d time.Duration) Option {
	return func(db *Debouncer) {
		if d > 0 {
			db.delay = d
		}
	}
}

// WithScheduler replaces the timer source.
func WithScheduler(s Scheduler) Option {
	return func(db *Debouncer) { db.schedule = s }
}

// WithResult registers a callback that receives every write outcome.
func WithResult(f func(level int, err error)) Option {
	return func(db *Debouncer) { db.onResult = f }
}

// Debouncer coalesces a burst of level requests into one write.
//
// The first request while idle starts a single timer; later requests
// before it fires only replace the pending level. When the timer fires
// the last level is written once. Write failures are reported through
// the result callback and the log, never retried.
//
// A Debouncer is safe for concurrent use.
type Debouncer struct {
	writer   Writer
	delay    time.Duration
	schedule Scheduler
	onResult func(level int, err error)
	log      logger.Logger

	mu     sync.Mutex
	timer  Timer
	level  int
	closed bool

	writeMu sync.Mutex
}

// NewDebouncer creates a Debouncer writing through w. A nil writer
// yields a debouncer that drops every request.
func NewDebouncer(w Writer, log logger.Logger, opts ...Option) *Debouncer {
	db := &Debouncer{
		writer:   w,
		delay:    DefaultDelay,
		schedule: afterFunc,
		log:      log,
	}
	for _, opt := range opts {
		opt(db)
	}

	return db
}

// Request records level as the value to write.
func (db *Debouncer) Request(level int) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.writer == nil || db.closed {
		return
	}

	db.level = level
	if db.timer != nil {
		return
	}
	db.timer = db.schedule(db.delay, db.fire)
}

// Pending reports whether a write is scheduled.
func (db *Debouncer) Pending() bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.timer != nil
}

// Close cancels a scheduled write and rejects further requests.
func (db *Debouncer) Close() {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.closed = true
	if db.timer != nil {
		db.timer.Stop()
		db.timer = nil
	}
}

func (db *Debouncer) fire() {
	db.mu.Lock()
	if db.closed || db.timer == nil {
		db.mu.Unlock()
		return
	}
	level := db.level
	db.timer = nil
	db.mu.Unlock()

	// Writes are serialised; a request arriving during a write schedules
	// the next one.
	db.writeMu.Lock()
	err := db.writer.SetBrightness(context.Background(), level)
	db.writeMu.Unlock()

	if err != nil {
		db.log.Warn().Err(err).Int("level", level).Msg("Failed to set brightness")
	} else {
		db.log.Debug().Int("level", level).Msg("Brightness set")
	}

	if db.onResult != nil {
		db.onResult(level, err)
	}
}
