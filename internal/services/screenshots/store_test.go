package screenshots

import (
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/probo/internal/interfaces"
	"github.com/ternarybob/probo/internal/services/events"
)

func newTestStore(throttle time.Duration) (*Store, *events.Bus) {
	logger := arbor.NewLogger()
	bus := events.NewBus(16, logger)
	return NewStore(throttle, bus, logger), bus
}

func TestPutAndLatest(t *testing.T) {
	store, bus := newTestStore(time.Second)
	defer bus.Close()

	store.Put("job_a", []byte("frame-1"))
	store.Put("job_a", []byte("frame-2"))

	shot, ok := store.Latest("job_a")
	if !ok {
		t.Fatal("Expected a stored screenshot")
	}
	if string(shot.Data) != "frame-2" {
		t.Errorf("Expected latest frame to win, got: %s", shot.Data)
	}
	if shot.Sequence != 2 {
		t.Errorf("Expected sequence 2, got: %d", shot.Sequence)
	}

	if _, ok := store.Latest("job_missing"); ok {
		t.Error("Expected no screenshot for unknown job")
	}
}

func TestEmptyFrameIgnored(t *testing.T) {
	store, bus := newTestStore(time.Second)
	defer bus.Close()

	store.Put("job_a", nil)
	if _, ok := store.Latest("job_a"); ok {
		t.Error("Expected empty frames to be ignored")
	}
}

func TestPutPublishesThrottledEvents(t *testing.T) {
	store, bus := newTestStore(time.Hour)
	defer bus.Close()

	ch, unsubscribe := bus.SubscribeJob("job_a")
	defer unsubscribe()

	// Burst of captures, only the first passes the throttle
	for i := 0; i < 5; i++ {
		store.Put("job_a", []byte("frame"))
	}

	select {
	case event := <-ch:
		if event.UpdateType != interfaces.UpdateScreenshot {
			t.Errorf("Expected screenshot_update, got: %s", event.UpdateType)
		}
	case <-time.After(time.Second):
		t.Fatal("Expected one screenshot event")
	}

	select {
	case <-ch:
		t.Error("Expected throttle to suppress further events")
	case <-time.After(50 * time.Millisecond):
	}

	// All frames were stored despite the throttle
	shot, _ := store.Latest("job_a")
	if shot.Sequence != 5 {
		t.Errorf("Expected sequence 5, got: %d", shot.Sequence)
	}
}

func TestRemove(t *testing.T) {
	store, bus := newTestStore(time.Second)
	defer bus.Close()

	store.Put("job_a", []byte("frame"))
	store.Remove("job_a")

	if _, ok := store.Latest("job_a"); ok {
		t.Error("Expected screenshot removed")
	}
}

func TestPruneOlderThan(t *testing.T) {
	store, bus := newTestStore(time.Second)
	defer bus.Close()

	store.Put("job_old", []byte("frame"))
	store.Put("job_new", []byte("frame"))

	// Backdate job_old's capture
	store.mu.Lock()
	store.shots["job_old"].CapturedAt = time.Now().Add(-time.Hour)
	store.mu.Unlock()

	pruned := store.PruneOlderThan(time.Now().Add(-30 * time.Minute))
	if pruned != 1 {
		t.Errorf("Expected 1 pruned, got: %d", pruned)
	}
	if _, ok := store.Latest("job_old"); ok {
		t.Error("Expected old screenshot pruned")
	}
	if _, ok := store.Latest("job_new"); !ok {
		t.Error("Expected recent screenshot retained")
	}
}
