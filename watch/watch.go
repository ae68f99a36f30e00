// Package watch polls SQLite for a version token and runs a reload action
// when it changes, after an optional quiet period.
//
//	w := watch.New(db, watch.Options{Interval: 2 * time.Second, Detector: watch.Query(config.PagesVersion)})
//	go w.Run(ctx, svc.ReloadPages)
package watch

import (
	"context"
	"database/sql"
	"log/slog"
	"sync/atomic"
	"time"
)

// Detector reads a version token. Two different tokens mean something
// changed.
type Detector func(ctx context.Context, db *sql.DB) (int64, error)

// Options tunes the Watcher.
type Options struct {
	Interval time.Duration // default 1s
	// Debounce waits for this long without further changes before firing.
	// Zero fires on the first poll that sees the change.
	Debounce time.Duration
	Detector Detector // default PragmaDataVersion
	Logger   *slog.Logger
}

func (o *Options) defaults() {
	if o.Interval <= 0 {
		o.Interval = time.Second
	}
	if o.Detector == nil {
		o.Detector = PragmaDataVersion
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Watcher runs one poll loop over db.
type Watcher struct {
	db      *sql.DB
	opts    Options
	version atomic.Int64
	reloads atomic.Int64
}

// New creates a Watcher. Call Run to start polling.
func New(db *sql.DB, opts Options) *Watcher {
	opts.defaults()
	return &Watcher{db: db, opts: opts}
}

// Version returns the last version successfully reloaded.
func (w *Watcher) Version() int64 { return w.version.Load() }

// Reloads returns how many times action succeeded.
func (w *Watcher) Reloads() int64 { return w.reloads.Load() }

// Run polls until ctx ends. The first observed version is the baseline and
// does not fire. A failed action leaves the version unchanged so the next
// poll retries.
func (w *Watcher) Run(ctx context.Context, action func(context.Context) error) {
	log := w.opts.Logger
	if v, err := w.opts.Detector(ctx, w.db); err != nil {
		log.Warn("watch: initial version check failed", "error", err)
	} else {
		w.version.Store(v)
	}

	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	var (
		quiet   *time.Timer
		quietC  <-chan time.Time
		pending int64
		armed   bool
	)
	defer func() {
		if quiet != nil {
			quiet.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cur, err := w.opts.Detector(ctx, w.db)
			if err != nil {
				log.Warn("watch: version check failed", "error", err)
				continue
			}
			if cur == w.version.Load() || (armed && cur == pending) {
				continue
			}
			pending, armed = cur, true
			if w.opts.Debounce <= 0 {
				w.fire(ctx, action, pending)
				armed = false
				continue
			}
			if quiet != nil {
				quiet.Stop()
			}
			quiet = time.NewTimer(w.opts.Debounce)
			quietC = quiet.C
		case <-quietC:
			quietC = nil
			if armed {
				w.fire(ctx, action, pending)
				armed = false
			}
		}
	}
}

func (w *Watcher) fire(ctx context.Context, action func(context.Context) error, v int64) {
	start := time.Now()
	if err := action(ctx); err != nil {
		w.opts.Logger.Error("watch: reload failed", "version", v, "error", err)
		return
	}
	w.version.Store(v)
	w.reloads.Add(1)
	w.opts.Logger.Info("watch: reloaded", "version", v, "duration", time.Since(start))
}

// PragmaDataVersion changes whenever another connection commits to the
// database file.
func PragmaDataVersion(ctx context.Context, db *sql.DB) (int64, error) {
	var v int64
	err := db.QueryRowContext(ctx, "PRAGMA data_version").Scan(&v)
	return v, err
}

// Query returns a Detector reading a single integer from query.
func Query(query string) Detector {
	return func(ctx context.Context, db *sql.DB) (int64, error) {
		var v int64
		err := db.QueryRowContext(ctx, query).Scan(&v)
		return v, err
	}
}
