package playback

import (
	"testing"
	"testing/synctest"
	"time"
)

func TestNewSubscription_ChannelsReadable(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sub := newSubscription()

		sub.sendState(Snapshot{Index: 2, Status: StatusPlaying, Position: 30 * time.Second})
		sub.sendError(ErrorEvent{Kind: KindLoadFailure, Op: "load"})

		snap := <-sub.StateChanged
		if snap.Index != 2 || snap.Status != StatusPlaying {
			t.Errorf("StateChanged = %+v, want index 2 playing", snap)
		}
		if snap.Position != 30*time.Second {
			t.Errorf("StateChanged.Position = %v, want 30s", snap.Position)
		}

		ev := <-sub.Error
		if ev.Kind != KindLoadFailure || ev.Op != "load" {
			t.Errorf("Error = %+v, want load failure", ev)
		}
	})
}

func TestSubscription_Close_SignalsDone(t *testing.T) {
	synctest.Test(t, func(_ *testing.T) {
		sub := newSubscription()
		sub.close()
		<-sub.Done
	})
}

func TestSubscription_NonBlocking_DropsWhenFull(t *testing.T) {
	sub := newSubscription()

	// Fill buffer
	for range eventBufferSize + 5 {
		sub.sendState(Snapshot{})
	}

	// Should not block or panic - count what we got
	count := 0
	for {
		select {
		case <-sub.StateChanged:
			count++
		default:
			goto done
		}
	}
done:
	if count != eventBufferSize {
		t.Errorf("received %d snapshots, want %d (buffer size)", count, eventBufferSize)
	}
}
