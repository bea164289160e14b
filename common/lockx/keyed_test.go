package lockx

import (
	"sync"
	"testing"
)

func TestKeyedLockMutualExclusion(t *testing.T) {
	l := NewKeyedLock()

	const workers = 50
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock(1)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != workers {
		t.Errorf("临界区计数应为 %d，实际 %d", workers, counter)
	}
}

func TestKeyedLockDifferentKeysIndependent(t *testing.T) {
	l := NewKeyedLock()

	unlock1 := l.Lock(1)
	defer unlock1()

	// 持有 key=1 时 key=2 不受影响，不阻塞
	done := make(chan struct{})
	go func() {
		unlock2 := l.Lock(2)
		unlock2()
		close(done)
	}()
	<-done
}

func TestKeyedLockEntryRecycled(t *testing.T) {
	l := NewKeyedLock()

	unlock := l.Lock(1)
	unlock()

	l.mu.Lock()
	n := len(l.entries)
	l.mu.Unlock()
	if n != 0 {
		t.Errorf("解锁后条目应被回收，剩余 %d", n)
	}
}

func TestKeyedLockRecycleUnderContention(t *testing.T) {
	l := NewKeyedLock()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				unlock := l.Lock(uint64(j % 3))
				unlock()
			}
		}()
	}
	wg.Wait()

	l.mu.Lock()
	n := len(l.entries)
	l.mu.Unlock()
	if n != 0 {
		t.Errorf("全部释放后不应残留条目，剩余 %d", n)
	}
}
