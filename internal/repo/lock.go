package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AdvisoryLock — сессионный pg advisory lock.
// Держит отдельное соединение из пула: lock живёт, пока живёт сессия.
type AdvisoryLock struct {
	pool *pgxpool.Pool
	key  int64
	conn *pgxpool.Conn
}

// NewAdvisoryLock создаёт lock с ключом key.
func NewAdvisoryLock(pool *pgxpool.Pool, key int64) *AdvisoryLock {
	return &AdvisoryLock{pool: pool, key: key}
}

// TryAcquire пытается взять lock без ожидания.
// Возвращает ErrLockHeld, если lock у другой сессии. Повторный вызов после успеха ничего не делает.
func (l *AdvisoryLock) TryAcquire(ctx context.Context) error {
	if l.conn != nil {
		return nil
	}

	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire conn: %w", err)
	}

	var ok bool
	if err := conn.QueryRow(ctx, "select pg_try_advisory_lock($1)", l.key).Scan(&ok); err != nil {
		conn.Release()
		return fmt.Errorf("try advisory lock: %w", err)
	}
	if !ok {
		conn.Release()
		return ErrLockHeld
	}

	l.conn = conn
	return nil
}

// Held сообщает, удерживается ли lock этим процессом.
func (l *AdvisoryLock) Held() bool {
	return l.conn != nil
}

// Release отпускает lock и возвращает соединение в пул.
func (l *AdvisoryLock) Release(ctx context.Context) error {
	if l.conn == nil {
		return nil
	}
	defer func() {
		l.conn.Release()
		l.conn = nil
	}()

	if _, err := l.conn.Exec(ctx, "select pg_advisory_unlock($1)", l.key); err != nil {
		return fmt.Errorf("advisory unlock: %w", err)
	}
	return nil
}
