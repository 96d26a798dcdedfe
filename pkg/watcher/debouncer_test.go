package watcher

import (
	"context"
	"testing"
	"time"
)

func TestDebouncer_BatchesBurst(t *testing.T) {
	input := make(chan ChangeEvent, 10)
	d := NewDebouncer(input, 50*time.Millisecond, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	// A burst of writes should settle into a single event.
	for i := 0; i < 5; i++ {
		input <- ChangeEvent{Path: "in.txt", Timestamp: time.Now()}
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case ev := <-d.Events():
		if ev.Path != "in.txt" {
			t.Errorf("event path = %q, want in.txt", ev.Path)
		}
	case <-time.After(time.Second):
		t.Fatal("no debounced event arrived")
	}

	select {
	case ev := <-d.Events():
		t.Errorf("unexpected second event: %+v", ev)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestDebouncer_MaxWaitForcesFlush(t *testing.T) {
	input := make(chan ChangeEvent)
	d := NewDebouncer(input, 100*time.Millisecond, 250*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	// Keep writing faster than the quiet period; maxWait must still fire.
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		timeout := time.After(800 * time.Millisecond)
		for {
			select {
			case <-ticker.C:
				select {
				case input <- ChangeEvent{Path: "busy.txt", Timestamp: time.Now()}:
				case <-timeout:
					return
				}
			case <-timeout:
				return
			}
		}
	}()

	select {
	case <-d.Events():
	case <-time.After(600 * time.Millisecond):
		t.Fatal("maxWait did not force a flush under continuous writes")
	}
	<-done
}

func TestDebouncer_FlushesOnInputClose(t *testing.T) {
	input := make(chan ChangeEvent, 1)
	d := NewDebouncer(input, time.Minute, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	input <- ChangeEvent{Path: "last.txt", Timestamp: time.Now()}
	close(input)

	select {
	case ev, ok := <-d.Events():
		if !ok {
			t.Fatal("channel closed before pending event was flushed")
		}
		if ev.Path != "last.txt" {
			t.Errorf("event path = %q, want last.txt", ev.Path)
		}
	case <-time.After(time.Second):
		t.Fatal("pending event was not flushed on close")
	}
}
