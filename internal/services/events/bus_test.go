package events

import (
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/probo/internal/interfaces"
)

func TestJobSubscriberReceivesOwnJobEvents(t *testing.T) {
	bus := NewBus(8, arbor.NewLogger())
	defer bus.Close()

	ch, unsubscribe := bus.SubscribeJob("job_a")
	defer unsubscribe()

	bus.Publish(JobUpdate("job_a", interfaces.UpdateProgress, "Filling form", nil))
	bus.Publish(JobUpdate("job_b", interfaces.UpdateProgress, "Other job", nil))

	select {
	case event := <-ch:
		if event.JobID != "job_a" {
			t.Errorf("Expected event for job_a, got: %s", event.JobID)
		}
		if event.UpdateType != interfaces.UpdateProgress {
			t.Errorf("Expected progress update, got: %s", event.UpdateType)
		}
	case <-time.After(time.Second):
		t.Fatal("Expected event, got none")
	}

	// The job_b event must not arrive on job_a's channel
	select {
	case event := <-ch:
		t.Errorf("Expected no further events, got one for: %s", event.JobID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestGlobalSubscriberReceivesAllEvents(t *testing.T) {
	bus := NewBus(8, arbor.NewLogger())
	defer bus.Close()

	ch, unsubscribe := bus.SubscribeGlobal()
	defer unsubscribe()

	bus.Publish(JobUpdate("job_a", interfaces.UpdateStatusChange, "running", nil))
	bus.Publish(JobUpdate("job_b", interfaces.UpdateStatusChange, "running", nil))
	bus.Publish(SystemEvent("maintenance", nil))

	received := 0
	timeout := time.After(time.Second)
	for received < 3 {
		select {
		case <-ch:
			received++
		case <-timeout:
			t.Fatalf("Expected 3 events, got: %d", received)
		}
	}
}

func TestPublishOrderPreservedPerSubscriber(t *testing.T) {
	bus := NewBus(16, arbor.NewLogger())
	defer bus.Close()

	ch, unsubscribe := bus.SubscribeJob("job_a")
	defer unsubscribe()

	steps := []string{"step 1", "step 2", "step 3", "step 4"}
	for _, step := range steps {
		bus.Publish(JobUpdate("job_a", interfaces.UpdateProgress, step, nil))
	}

	for i, want := range steps {
		select {
		case event := <-ch:
			if event.Message != want {
				t.Errorf("Event %d: expected %q, got: %q", i, want, event.Message)
			}
		case <-time.After(time.Second):
			t.Fatalf("Expected event %d, got none", i)
		}
	}
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	bus := NewBus(2, arbor.NewLogger())
	defer bus.Close()

	ch, unsubscribe := bus.SubscribeJob("job_a")
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			bus.Publish(JobUpdate("job_a", interfaces.UpdateProgress, "flood", nil))
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber buffer")
	}

	// Buffer holds at most 2 events, the rest were dropped
	drained := 0
	for {
		select {
		case <-ch:
			drained++
		default:
			if drained != 2 {
				t.Errorf("Expected 2 buffered events, got: %d", drained)
			}
			return
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus(8, arbor.NewLogger())
	defer bus.Close()

	ch, unsubscribe := bus.SubscribeJob("job_a")
	unsubscribe()

	if _, open := <-ch; open {
		t.Error("Expected channel to be closed after unsubscribe")
	}

	// Unsubscribe is idempotent
	unsubscribe()

	// Publishing after unsubscribe must not panic
	bus.Publish(JobUpdate("job_a", interfaces.UpdateProgress, "after unsubscribe", nil))
}

func TestPublishAfterCloseIsNoop(t *testing.T) {
	bus := NewBus(8, arbor.NewLogger())

	ch, _ := bus.SubscribeGlobal()
	bus.Close()

	if _, open := <-ch; open {
		t.Error("Expected channel closed after bus close")
	}

	bus.Publish(SystemEvent("late event", nil))
	bus.Close()
}

func TestSubscribeAfterCloseReturnsClosedChannel(t *testing.T) {
	bus := NewBus(8, arbor.NewLogger())
	bus.Close()

	ch, unsubscribe := bus.SubscribeJob("job_a")
	defer unsubscribe()

	if _, open := <-ch; open {
		t.Error("Expected closed channel when subscribing after close")
	}
}
