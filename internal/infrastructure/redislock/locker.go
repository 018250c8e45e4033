// Package redislock bloqueo por clave con SET NX PX en Redis, para que solo un
// proceso genere el complemento de una factura a la vez.
package redislock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/complementos-api/pkg/config"
)

// Solo borra la clave si el token coincide (no libera el lock de otro proceso).
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

const keyPrefix = "complementos:lock:"

var (
	ErrNotConfigured = errors.New("redislock: cliente no configurado")
	ErrEmptyKey      = errors.New("redislock: clave vacía")
	ErrInvalidTTL    = errors.New("redislock: ttl debe ser positivo")
)

// Locker bloqueo distribuido sobre un *redis.Client.
type Locker struct {
	client *redis.Client
	script *redis.Script
	ttl    time.Duration
	log    zerolog.Logger
}

// NewClient crea el cliente Redis desde la configuración y verifica la conexión.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// NewLocker ttl acota cuánto puede retener el lock un proceso que muere sin liberarlo.
func NewLocker(client *redis.Client, ttl time.Duration, log zerolog.Logger) *Locker {
	return &Locker{
		client: client,
		script: redis.NewScript(releaseScript),
		ttl:    ttl,
		log:    log,
	}
}

// TryLock intenta tomar key sin esperar. Devuelve la función de liberación y
// false si otro proceso ya lo tiene.
func (l *Locker) TryLock(ctx context.Context, key string) (func(), bool, error) {
	if l == nil || l.client == nil {
		return nil, false, ErrNotConfigured
	}
	if key == "" {
		return nil, false, ErrEmptyKey
	}
	if l.ttl <= 0 {
		return nil, false, ErrInvalidTTL
	}

	fullKey := keyPrefix + key
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, fullKey, token, l.ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// el ctx del job puede estar vencido; la liberación usa su propio plazo
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.script.Run(ctx, l.client, []string{fullKey}, token).Err(); err != nil {
			l.log.Warn().Err(err).Str("key", fullKey).Msg("no se pudo liberar el lock")
		}
	}
	return release, true, nil
}
