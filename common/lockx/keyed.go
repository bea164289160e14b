// Package lockx 进程内按键互斥锁
//
// 名额校验与账本写入必须在同一个临界区里串行（先检查后写入不是原子
// 操作，不串行就可能超卖名额）。单进程部署用不上 Redis 分布式锁，
// 这里按活动 ID 粒度互斥即可：不同活动互不阻塞，同一活动的
// 检查-写入序列严格排队。
//
// 锁的作用域只覆盖本地读-检-写，绝不跨网络调用持有。
package lockx

import "sync"

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// KeyedLock 按 uint64 键互斥
type KeyedLock struct {
	mu      sync.Mutex
	entries map[uint64]*lockEntry
}

func NewKeyedLock() *KeyedLock {
	return &KeyedLock{
		entries: make(map[uint64]*lockEntry),
	}
}

// Lock 获取 key 对应的互斥锁，返回解锁函数
//
// 条目引用计数归零即回收，长期运行不会积累空锁
func (l *KeyedLock) Lock(key uint64) (unlock func()) {
	l.mu.Lock()
	entry, ok := l.entries[key]
	if !ok {
		entry = &lockEntry{}
		l.entries[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, key)
		}
		l.mu.Unlock()
	}
}
