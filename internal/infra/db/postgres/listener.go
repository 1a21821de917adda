package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"nutriplan-backend/internal/infra/notify"
)

const rowChangeChannel = "row_changed"

// Listener holds a dedicated connection on LISTEN row_changed and forwards
// each payload to the sink. Triggers on the watched tables emit a JSON
// payload of the form {"table": ..., "op": ..., "user_id": ...}.
type Listener struct {
	pool *pgxpool.Pool
	sink notify.Sink
	log  *zerolog.Logger
}

func NewListener(pool *pgxpool.Pool, sink notify.Sink, logger *zerolog.Logger) *Listener {
	l := logger.With().Str("component", "pg-listener").Logger()
	return &Listener{pool: pool, sink: sink, log: &l}
}

// Run blocks until ctx is cancelled, reconnecting with a backoff when the
// listening connection drops.
func (l *Listener) Run(ctx context.Context) {
	const retryDelay = 5 * time.Second
	for {
		if err := l.listen(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			l.log.Warn().Err(err).Msg("listen connection lost, reconnecting")
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(retryDelay):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+rowChangeChannel); err != nil {
		return err
	}
	l.log.Info().Str("channel", rowChangeChannel).Msg("listening for row changes")

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		var ev notify.Event
		if err := json.Unmarshal([]byte(n.Payload), &ev); err != nil {
			l.log.Warn().Str("payload", n.Payload).Msg("malformed change notification")
			continue
		}
		l.sink.Publish(ev)
	}
}
