package observability

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recordingHooks struct {
	NoopRenderHooks
	mu     sync.Mutex
	events []string
}

func (r *recordingHooks) OnLayoutStart(_ context.Context, nodes, edges int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "layout-start")
}

func (r *recordingHooks) OnLayoutComplete(_ context.Context, _ time.Duration, _ int, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "layout-complete")
}

func TestSetAndGetHooks(t *testing.T) {
	t.Cleanup(func() { SetRenderHooks(nil) })

	rec := &recordingHooks{}
	SetRenderHooks(rec)

	Render().OnLayoutStart(context.Background(), 3, 2)
	Render().OnLayoutComplete(context.Background(), time.Millisecond, 0, nil)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.events) != 2 || rec.events[0] != "layout-start" || rec.events[1] != "layout-complete" {
		t.Errorf("events = %v", rec.events)
	}
}

func TestNilResetsToNoop(t *testing.T) {
	SetRenderHooks(nil)
	// Must not panic.
	Render().OnParseStart(context.Background(), 10)
	Render().OnRenderComplete(context.Background(), []string{"svg"}, 0, nil)
}
