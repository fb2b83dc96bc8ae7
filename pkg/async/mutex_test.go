package async

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func waitForMutexWaiters(t *testing.T, m *Mutex, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		m.mu.Lock()
		cur := len(m.waiters)
		m.mu.Unlock()
		if cur >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("never reached %d queued waiters", n)
}

func TestMutex_AcquireRelease(t *testing.T) {
	var m Mutex
	if err := m.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	m.Release()
	if err := m.Acquire(context.Background()); err != nil {
		t.Fatalf("reacquire error = %v", err)
	}
	m.Release()
}

func TestMutex_ReleaseWhenFreeIsNoop(t *testing.T) {
	var m Mutex
	m.Release()
	m.Release()
	if err := m.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() after spurious releases error = %v", err)
	}
	m.Release()
}

func TestMutex_SerializesContendersInOrder(t *testing.T) {
	var m Mutex
	if err := m.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	const contenders = 3
	order := make(chan int, contenders)
	for i := 0; i < contenders; i++ {
		i := i
		go func() {
			if err := m.Acquire(context.Background()); err != nil {
				t.Errorf("contender %d: Acquire() error = %v", i, err)
				return
			}
			order <- i
			m.Release()
		}()
		waitForMutexWaiters(t, &m, i+1)
	}

	m.Release()
	for want := 0; want < contenders; want++ {
		select {
		case got := <-order:
			if got != want {
				t.Errorf("acquisition order: got contender %d, want %d", got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("contender %d never acquired", want)
		}
	}
}

func TestMutex_MutualExclusion(t *testing.T) {
	var m Mutex
	var wg sync.WaitGroup
	counter := 0
	const workers, iterations = 8, 100
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				if err := m.Acquire(context.Background()); err != nil {
					t.Errorf("Acquire() error = %v", err)
					return
				}
				counter++
				m.Release()
			}
		}()
	}
	wg.Wait()
	if counter != workers*iterations {
		t.Errorf("counter = %d, want %d", counter, workers*iterations)
	}
}

func TestMutex_Do(t *testing.T) {
	var m Mutex
	ran := false
	err := m.Do(context.Background(), func() error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if !ran {
		t.Error("action did not run")
	}
	// The lock must be free again afterwards.
	if err := m.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() after Do error = %v", err)
	}
	m.Release()
}

func TestMutex_DoReleasesOnError(t *testing.T) {
	var m Mutex
	boom := errors.New("boom")
	if err := m.Do(context.Background(), func() error { return boom }); !errors.Is(err, boom) {
		t.Errorf("Do() error = %v, want %v", err, boom)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.Acquire(ctx); err != nil {
		t.Fatalf("lock not released after failing action: %v", err)
	}
	m.Release()
}

func TestMutex_DoNilReceiver(t *testing.T) {
	var m *Mutex
	err := m.Do(context.Background(), func() error { return nil })
	if !errors.Is(err, ErrNilMutex) {
		t.Errorf("Do() on nil mutex error = %v, want ErrNilMutex", err)
	}
}

func TestMutex_AcquireContextCancelled(t *testing.T) {
	var m Mutex
	if err := m.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- m.Acquire(ctx) }()
	waitForMutexWaiters(t, &m, 1)

	cancel()
	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Acquire() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Acquire did not return on cancel")
	}

	// The withdrawn waiter must not wedge later hand-off.
	m.Release()
	if err := m.Acquire(context.Background()); err != nil {
		t.Fatalf("reacquire error = %v", err)
	}
	m.Release()
}

func BenchmarkMutexAcquireRelease(b *testing.B) {
	var m Mutex
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := m.Acquire(ctx); err != nil {
			b.Fatal(err)
		}
		m.Release()
	}
}

func BenchmarkMutexContended(b *testing.B) {
	var m Mutex
	ctx := context.Background()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if err := m.Acquire(ctx); err != nil {
				b.Fatal(err)
			}
			m.Release()
		}
	})
}
