package worker

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/gmap/pkg/errors"
)

func blockingJob(id string, release <-chan struct{}, started chan<- string) Job {
	return Job{ID: id, Run: func(context.Context) error {
		if started != nil {
			started <- id
		}
		<-release
		return nil
	}}
}

func TestSubmitBackpressure(t *testing.T) {
	ctx := context.Background()
	p := New(Config{Workers: 1, QueueSize: 1})
	release := make(chan struct{})
	started := make(chan string, 4)
	p.Start(ctx)

	if err := p.Submit(ctx, blockingJob("a", release, started)); err != nil {
		t.Fatalf("Submit a: %v", err)
	}
	<-started // a occupies the only worker

	if err := p.Submit(ctx, blockingJob("b", release, started)); err != nil {
		t.Fatalf("Submit b: %v", err)
	}

	tests := []struct {
		id   string
		want error
		code errors.Code
	}{
		{"c", ErrQueueFull, errors.ErrCodeQueueFull},
		{"a", ErrInFlight, errors.ErrCodeTaskInFlight},
		{"b", ErrInFlight, errors.ErrCodeTaskInFlight},
	}
	for _, tt := range tests {
		err := p.Submit(ctx, blockingJob(tt.id, release, started))
		if !stderrors.Is(err, tt.want) || !errors.Is(err, tt.code) {
			t.Errorf("Submit %s = %v, want %v", tt.id, err, tt.want)
		}
	}

	if queued, busy := p.Stats(); queued != 1 || busy != 1 {
		t.Errorf("Stats = %d queued, %d busy", queued, busy)
	}

	close(release)
	if err := p.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if p.InFlight("a") || p.InFlight("b") {
		t.Error("finished jobs should not be in flight")
	}
}

func TestResubmitAfterCompletion(t *testing.T) {
	ctx := context.Background()
	p := New(Config{Workers: 2, QueueSize: 4})
	p.Start(ctx)

	done := make(chan struct{}, 2)
	job := Job{ID: "t", Run: func(context.Context) error {
		done <- struct{}{}
		return nil
	}}

	if err := p.Submit(ctx, job); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	<-done
	deadline := time.Now().Add(time.Second)
	for p.InFlight("t") && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if err := p.Submit(ctx, job); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	<-done
	_ = p.Shutdown(ctx)
}

func TestShutdownDrainsQueue(t *testing.T) {
	ctx := context.Background()
	p := New(Config{Workers: 2, QueueSize: 16})

	var ran atomic.Int32
	for _, id := range []string{"1", "2", "3", "4", "5"} {
		err := p.Submit(ctx, Job{ID: id, Run: func(context.Context) error {
			ran.Add(1)
			return nil
		}})
		if err != nil {
			t.Fatalf("Submit %s: %v", id, err)
		}
	}
	p.Start(ctx)

	if err := p.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if got := ran.Load(); got != 5 {
		t.Errorf("ran %d jobs, want 5", got)
	}
	if err := p.Submit(ctx, Job{ID: "late", Run: func(context.Context) error { return nil }}); !stderrors.Is(err, ErrClosed) {
		t.Errorf("Submit after Shutdown = %v, want ErrClosed", err)
	}
}

func TestShutdownTimeout(t *testing.T) {
	p := New(Config{Workers: 1, QueueSize: 1})
	release := make(chan struct{})
	defer close(release)
	started := make(chan string, 1)
	p.Start(context.Background())
	_ = p.Submit(context.Background(), blockingJob("slow", release, started))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := p.Shutdown(ctx); !stderrors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Shutdown = %v, want DeadlineExceeded", err)
	}
}

func TestJobPanicIsRecovered(t *testing.T) {
	ctx := context.Background()
	p := New(Config{Workers: 1, QueueSize: 2})
	p.Start(ctx)

	var ran atomic.Bool
	_ = p.Submit(ctx, Job{ID: "bad", Run: func(context.Context) error { panic("boom") }})
	_ = p.Submit(ctx, Job{ID: "good", Run: func(context.Context) error {
		ran.Store(true)
		return nil
	}})

	if err := p.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !ran.Load() {
		t.Error("worker should survive a panicking job")
	}
}

func TestDefaults(t *testing.T) {
	p := New(Config{})
	if p.workers != DefaultWorkers || cap(p.queue) != DefaultQueueSize {
		t.Errorf("defaults = %d workers, %d queue", p.workers, cap(p.queue))
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown before Start: %v", err)
	}
}

func TestReservation(t *testing.T) {
	ctx := context.Background()
	p := New(Config{Workers: 1, QueueSize: 1})

	res, err := p.Reserve(ctx, "a")
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if !p.InFlight("a") {
		t.Error("reserved id should be in flight")
	}
	if _, err := p.Reserve(ctx, "a"); !stderrors.Is(err, ErrInFlight) {
		t.Errorf("second Reserve = %v, want ErrInFlight", err)
	}
	if err := p.Submit(ctx, Job{ID: "a", Run: func(context.Context) error { return nil }}); !stderrors.Is(err, ErrInFlight) {
		t.Errorf("Submit of reserved id = %v, want ErrInFlight", err)
	}

	if err := res.Submit(ctx, func(context.Context) error { return nil }); err != nil {
		t.Fatalf("Reservation.Submit: %v", err)
	}
	// Consumed by Submit; the queued job keeps the id.
	res.Release()
	if !p.InFlight("a") {
		t.Error("queued job lost its id after Release")
	}
	if queued, _ := p.Stats(); queued != 1 {
		t.Errorf("queued = %d, want 1", queued)
	}
}

func TestReservationReleaseOnReject(t *testing.T) {
	ctx := context.Background()
	p := New(Config{Workers: 1, QueueSize: 1})
	if err := p.Submit(ctx, Job{ID: "x", Run: func(context.Context) error { return nil }}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	res, err := p.Reserve(ctx, "a")
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if err := res.Submit(ctx, func(context.Context) error { return nil }); !stderrors.Is(err, ErrQueueFull) {
		t.Fatalf("Reservation.Submit = %v, want ErrQueueFull", err)
	}
	if !p.InFlight("a") {
		t.Error("rejected submit should keep the reservation")
	}
	res.Release()
	res.Release()
	if p.InFlight("a") {
		t.Error("released id still in flight")
	}

	if _, err := p.Reserve(ctx, "a"); err != nil {
		t.Errorf("Reserve after Release: %v", err)
	}
}

func TestStaleReleaseKeepsNewReservation(t *testing.T) {
	ctx := context.Background()
	p := New(Config{Workers: 1, QueueSize: 1})

	old, err := p.Reserve(ctx, "a")
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	old.Release()
	if _, err := p.Reserve(ctx, "a"); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	old.Release()
	if !p.InFlight("a") {
		t.Error("stale Release dropped a newer reservation")
	}
}

func TestReserveClosed(t *testing.T) {
	ctx := context.Background()
	p := New(Config{})
	_ = p.Shutdown(ctx)
	if _, err := p.Reserve(ctx, "a"); !stderrors.Is(err, ErrClosed) {
		t.Errorf("Reserve = %v, want ErrClosed", err)
	}
}
