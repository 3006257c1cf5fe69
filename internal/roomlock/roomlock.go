// Package roomlock: мьютекс по ключу (обычно id комнаты).
package roomlock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// Locker сериализует операции с одинаковым ключом; записи удаляются, когда никто не ждёт.
type Locker[K comparable] struct {
	mu      sync.Mutex
	entries map[K]*entry
}

func New[K comparable]() *Locker[K] {
	return &Locker[K]{entries: make(map[K]*entry)}
}

// Lock блокирует ключ и возвращает функцию разблокировки.
func (l *Locker[K]) Lock(key K) (unlock func()) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			l.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(l.entries, key)
			}
			l.mu.Unlock()
		})
	}
}

func (l *Locker[K]) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
