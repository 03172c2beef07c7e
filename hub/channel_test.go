package hub_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tailored-agentic-units/seabird/hub"
)

func TestMessageChannel_SendReceiveOrder(t *testing.T) {
	mc := hub.NewMessageChannel[int](4)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		if err := mc.Send(ctx, i); err != nil {
			t.Fatalf("Send(%d) error = %v", i, err)
		}
	}
	if got := mc.QueueLength(); got != 3 {
		t.Errorf("QueueLength() = %d, want 3", got)
	}

	for i := 1; i <= 3; i++ {
		got, err := mc.Receive(ctx)
		if err != nil {
			t.Fatalf("Receive() error = %v", err)
		}
		if got != i {
			t.Errorf("Receive() = %d, want %d", got, i)
		}
	}
}

func TestMessageChannel_SendBlocksUntilRoom(t *testing.T) {
	mc := hub.NewMessageChannel[int](1)
	ctx := context.Background()

	if err := mc.Send(ctx, 1); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	sent := make(chan error, 1)
	go func() {
		sent <- mc.Send(ctx, 2)
	}()

	select {
	case err := <-sent:
		t.Fatalf("Send() on a full buffer returned early with %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	if _, err := mc.Receive(ctx); err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	select {
	case err := <-sent:
		if err != nil {
			t.Fatalf("blocked Send() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Send() still blocked after room was made")
	}
}

func TestMessageChannel_SendHonorsContext(t *testing.T) {
	mc := hub.NewMessageChannel[int](1)
	if err := mc.Send(context.Background(), 1); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := mc.Send(ctx, 2); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Send() error = %v, want DeadlineExceeded", err)
	}
}

func TestMessageChannel_OfferDropsOldest(t *testing.T) {
	mc := hub.NewMessageChannel[int](2)

	for i := 1; i <= 2; i++ {
		ok, dropped := mc.Offer(i)
		if !ok || dropped {
			t.Fatalf("Offer(%d) = (%v, %v), want (true, false)", i, ok, dropped)
		}
	}

	ok, dropped := mc.Offer(3)
	if !ok || !dropped {
		t.Fatalf("Offer(3) = (%v, %v), want (true, true)", ok, dropped)
	}

	// 1 was discarded; 2 and 3 remain in order.
	ctx := context.Background()
	for _, want := range []int{2, 3} {
		got, err := mc.Receive(ctx)
		if err != nil {
			t.Fatalf("Receive() error = %v", err)
		}
		if got != want {
			t.Errorf("Receive() = %d, want %d", got, want)
		}
	}
}

func TestMessageChannel_CloseSemantics(t *testing.T) {
	mc := hub.NewMessageChannel[int](2)
	ctx := context.Background()

	if err := mc.Send(ctx, 1); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	mc.Close()
	mc.Close() // idempotent

	select {
	case <-mc.Done():
	default:
		t.Fatal("Done() not closed after Close()")
	}

	if err := mc.Send(ctx, 2); !errors.Is(err, hub.ErrChannelClosed) {
		t.Errorf("Send() after close error = %v, want ErrChannelClosed", err)
	}
	if ok, _ := mc.Offer(2); ok {
		t.Error("Offer() after close accepted a message")
	}

	// Items buffered before the close are still delivered.
	got, err := mc.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive() after close error = %v", err)
	}
	if got != 1 {
		t.Errorf("Receive() = %d, want 1", got)
	}
	if _, err := mc.Receive(ctx); !errors.Is(err, hub.ErrChannelClosed) {
		t.Errorf("Receive() on drained closed channel error = %v, want ErrChannelClosed", err)
	}
}

func TestMessageChannel_ReceiveUnblocksOnClose(t *testing.T) {
	mc := hub.NewMessageChannel[int](1)

	result := make(chan error, 1)
	go func() {
		_, err := mc.Receive(context.Background())
		result <- err
	}()

	time.Sleep(20 * time.Millisecond)
	mc.Close()

	select {
	case err := <-result:
		if !errors.Is(err, hub.ErrChannelClosed) {
			t.Fatalf("Receive() error = %v, want ErrChannelClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Receive() still blocked after Close()")
	}
}
