package recorder

import (
	"sync"
	"testing"
	"time"
)

func TestGrowableBuffer_BasicSendReceive(t *testing.T) {
	buf := NewGrowableBuffer[int](10)

	// Send some items
	for i := 0; i < 5; i++ {
		if !buf.Send(i) {
			t.Fatalf("Send(%d) returned false", i)
		}
	}

	if buf.Len() != 5 {
		t.Errorf("Len() = %d, want 5", buf.Len())
	}

	// Receive items
	for i := 0; i < 5; i++ {
		val, ok := buf.TryReceive()
		if !ok {
			t.Fatalf("TryReceive() returned false for item %d", i)
		}
		if val != i {
			t.Errorf("received %d, want %d", val, i)
		}
	}

	if buf.Len() != 0 {
		t.Errorf("Len() = %d, want 0", buf.Len())
	}
}

func TestGrowableBuffer_GrowAt70Percent(t *testing.T) {
	buf := NewGrowableBuffer[int](10)

	// Send 7 items (70% of 10)
	for i := 0; i < 7; i++ {
		buf.Send(i)
	}

	stats := buf.Stats()
	if stats.Capacity <= 10 {
		t.Errorf("Capacity = %d, expected growth after 70%% fill", stats.Capacity)
	}
	if stats.ResizeCount != 1 {
		t.Errorf("ResizeCount = %d, want 1", stats.ResizeCount)
	}

	// All items should still be accessible
	for i := 0; i < 7; i++ {
		val, ok := buf.TryReceive()
		if !ok {
			t.Fatalf("TryReceive() returned false for item %d", i)
		}
		if val != i {
			t.Errorf("received %d, want %d", val, i)
		}
	}
}

func TestGrowableBuffer_MultipleGrows(t *testing.T) {
	buf := NewGrowableBuffer[int](4)

	// Send 100 items - should trigger multiple grows
	for i := 0; i < 100; i++ {
		if !buf.Send(i) {
			t.Fatalf("Send(%d) returned false", i)
		}
	}

	stats := buf.Stats()
	if stats.Count != 100 {
		t.Errorf("Count = %d, want 100", stats.Count)
	}
	if stats.ResizeCount < 3 {
		t.Errorf("ResizeCount = %d, expected at least 3 resizes", stats.ResizeCount)
	}

	// Verify all items in order
	for i := 0; i < 100; i++ {
		val, ok := buf.TryReceive()
		if !ok {
			t.Fatalf("TryReceive() returned false for item %d", i)
		}
		if val != i {
			t.Errorf("received %d, want %d", val, i)
		}
	}
}

func TestGrowableBuffer_BlockingReceive(t *testing.T) {
	buf := NewGrowableBuffer[int](10)

	received := make(chan int, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		val, ok := buf.Receive()
		if !ok {
			t.Error("Receive() returned false")
			return
		}
		received <- val
	}()

	// Give the receiver time to block
	time.Sleep(50 * time.Millisecond)
	buf.Send(42)

	select {
	case val := <-received:
		if val != 42 {
			t.Errorf("received %d, want 42", val)
		}
	case <-time.After(time.Second):
		t.Fatal("blocked receiver never woke up")
	}
	wg.Wait()
}

func TestGrowableBuffer_SendAfterClose(t *testing.T) {
	buf := NewGrowableBuffer[int](10)
	buf.Send(1)
	buf.Close()

	if buf.Send(2) {
		t.Error("Send succeeded after Close")
	}

	// Remaining items still drain
	val, ok := buf.TryReceive()
	if !ok || val != 1 {
		t.Errorf("TryReceive = %d, %v, want 1, true", val, ok)
	}

	// Blocked receive on a closed empty buffer returns immediately
	_, ok = buf.Receive()
	if ok {
		t.Error("Receive returned true on closed empty buffer")
	}
}

func TestGrowableBuffer_TryReceiveEmpty(t *testing.T) {
	buf := NewGrowableBuffer[int](10)
	if _, ok := buf.TryReceive(); ok {
		t.Error("TryReceive returned true on empty buffer")
	}
}
