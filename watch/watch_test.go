package watch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/vlypick/dbopen"
)

const counterSchema = `CREATE TABLE counter (v INTEGER NOT NULL); INSERT INTO counter VALUES (0);`

func bump(t *testing.T, w *Watcher, v int) {
	t.Helper()
	if _, err := w.db.Exec(`UPDATE counter SET v = ?`, v); err != nil {
		t.Fatal(err)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRunFiresOnChange(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(counterSchema))
	w := New(db, Options{Interval: 10 * time.Millisecond, Detector: Query(`SELECT v FROM counter`)})

	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, func(context.Context) error { calls.Add(1); return nil })

	time.Sleep(30 * time.Millisecond)
	if calls.Load() != 0 {
		t.Fatal("baseline version fired")
	}

	bump(t, w, 1)
	waitFor(t, "first reload", func() bool { return w.Version() == 1 })
	bump(t, w, 2)
	waitFor(t, "second reload", func() bool { return w.Version() == 2 })

	time.Sleep(30 * time.Millisecond)
	if got := calls.Load(); got != 2 {
		t.Errorf("reloads: got %d, want 2", got)
	}
}

func TestRunDebounces(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(counterSchema))
	w := New(db, Options{
		Interval: 10 * time.Millisecond,
		Debounce: 80 * time.Millisecond,
		Detector: Query(`SELECT v FROM counter`),
	})

	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, func(context.Context) error { calls.Add(1); return nil })

	time.Sleep(30 * time.Millisecond)
	for v := 1; v <= 3; v++ {
		bump(t, w, v)
		time.Sleep(25 * time.Millisecond)
	}
	waitFor(t, "debounced reload", func() bool { return w.Version() == 3 })
	if got := calls.Load(); got != 1 {
		t.Errorf("reloads: got %d, want 1", got)
	}
}

func TestRunRetriesFailedAction(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(counterSchema))
	w := New(db, Options{Interval: 10 * time.Millisecond, Detector: Query(`SELECT v FROM counter`)})

	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, func(context.Context) error {
		if calls.Add(1) < 3 {
			return errors.New("not yet")
		}
		return nil
	})

	time.Sleep(30 * time.Millisecond)
	bump(t, w, 7)
	waitFor(t, "reload after retries", func() bool { return w.Version() == 7 })
	if w.Reloads() != 1 || calls.Load() != 3 {
		t.Errorf("reloads=%d calls=%d, want 1 and 3", w.Reloads(), calls.Load())
	}
}

func TestPragmaDataVersion(t *testing.T) {
	db := dbopen.OpenMemory(t)
	if _, err := PragmaDataVersion(context.Background(), db); err != nil {
		t.Fatal(err)
	}
}
