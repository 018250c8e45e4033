package complement

import (
	"context"
	"sync"
)

// KeyedLocker bloqueo por clave en memoria (un solo proceso).
// Claves distintas nunca se bloquean entre sí.
type KeyedLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewKeyedLocker construye el bloqueo en memoria.
func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{held: make(map[string]struct{})}
}

// TryLock no espera: ok=false si la clave ya está tomada.
func (l *KeyedLocker) TryLock(_ context.Context, key string) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[key]; busy {
		return nil, false, nil
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, true, nil
}
