package queue

import (
	"sync"
	"testing"
	"time"
)

func TestEnqueueDequeueFIFO(t *testing.T) {
	q := New[int](4)
	for i := 0; i < 3; i++ {
		if err := q.Enqueue(i, []byte{byte(i)}); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	for i := 0; i < 3; i++ {
		buf := make([]byte, 8)
		tag, n, err := q.Dequeue(buf)
		if err != nil || tag != i || n != 1 || buf[0] != byte(i) {
			t.Fatalf("dequeue %d: tag=%v n=%v err=%v", i, tag, n, err)
		}
	}
}

func TestEnqueueFailsWhenFull(t *testing.T) {
	q := New[string](1)
	if err := q.Enqueue("a", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := q.Enqueue("b", []byte("y")); err != ErrFull {
		t.Fatalf("expected ErrFull, got %v", err)
	}
}

func TestTryDequeueEmpty(t *testing.T) {
	q := New[string](1)
	if _, _, err := q.TryDequeue(make([]byte, 4)); err != ErrEmpty {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestDequeueBlocksUntilEnqueue(t *testing.T) {
	q := New[string](2)
	done := make(chan struct{})
	go func() {
		buf := make([]byte, 8)
		tag, n, err := q.Dequeue(buf)
		if err != nil || tag != "k" || string(buf[:n]) != "v" {
			t.Errorf("unexpected dequeue result: %v %v %v", tag, n, err)
		}
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	if err := q.Enqueue("k", []byte("v")); err != nil {
		t.Fatal(err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dequeue did not unblock")
	}
}

func TestFlushDropsQueuedItems(t *testing.T) {
	q := New[int](4)
	_ = q.Enqueue(1, []byte("a"))
	_ = q.Enqueue(2, []byte("b"))
	q.Flush()
	if q.Len() != 0 {
		t.Fatalf("expected empty queue after flush, got %d", q.Len())
	}
}

func TestCloseUnblocksDequeue(t *testing.T) {
	q := New[int](1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, _, err := q.Dequeue(make([]byte, 4)); err != ErrClosed {
			t.Errorf("expected ErrClosed, got %v", err)
		}
	}()
	time.Sleep(10 * time.Millisecond)
	q.Close()
	wg.Wait()
}
