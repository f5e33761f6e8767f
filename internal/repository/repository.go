// Пакет repository — доступ LifeSync к PostgreSQL: пользователи, PIN,
// семьи, дерево папок и файлов, медицинские записи, медикаменты и планы.
// Запросы пишутся чистым SQL через pgx; ORM не используется.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Сентинельные ошибки слоя. Сервисы сопоставляют их через errors.Is
// и переводят в свои (ErrNotFound сервиса, ErrConflict сервиса).
var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("запись не найдена")
	// ErrConflict — нарушение уникальности: дубликат имени в папке,
	// занятый email, повторная заявка в семью.
	ErrConflict = errors.New("конфликт — запись уже существует")
)

// DBTX — минимальный исполнитель SQL-запросов. Ему удовлетворяют
// и *pgxpool.Pool, и pgx.Tx, поэтому один и тот же репозиторий
// работает как сам по себе, так и внутри транзакции TxRunner
// (рекурсивное удаление поддерева собирает репозитории поверх tx).
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxRunner выполняет функции в границах одной транзакции пула.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner создаёт TxRunner поверх пула подключений.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunInTx открывает транзакцию, передаёт её в fn и коммитит при
// успехе. Ошибка fn откатывает транзакцию и возвращается вызывающему
// без обёртки, чтобы сохранить сопоставление через errors.Is.
func (r *TxRunner) RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // откат после коммита — no-op

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка коммита транзакции: %w", err)
	}
	return nil
}

// isUniqueViolation распознаёт нарушение unique-ограничения PostgreSQL
// (код 23505). Репозитории переводят его в ErrConflict.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
