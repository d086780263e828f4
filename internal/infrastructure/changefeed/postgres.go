package changefeed

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const releaseTimeout = 5 * time.Second

// PostgresSource слушает канал LISTEN/NOTIFY на выделенном соединении пула
type PostgresSource struct {
	pool    *pgxpool.Pool
	channel string
}

func NewPostgresSource(pool *pgxpool.Pool, channel string) *PostgresSource {
	return &PostgresSource{pool: pool, channel: channel}
}

func (p *PostgresSource) Listen(ctx context.Context, handle func([]byte) error) error {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen connection: %w", err)
	}
	defer p.release(conn)

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{p.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen %s: %w", p.channel, err)
	}

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		if err := handle([]byte(n.Payload)); err != nil {
			return err
		}
	}
}

// release снимает подписку; соединение, которое не удалось очистить, закрывается
func (p *PostgresSource) release(conn *pgxpool.Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	if _, err := conn.Exec(ctx, "UNLISTEN *"); err != nil {
		_ = conn.Conn().Close(ctx)
	}
	conn.Release()
}
