package changefeed

import (
	"context"
	gosync "sync"
	"time"

	"golang.org/x/exp/slog"

	"drawsync/internal/domain/sync"
	"drawsync/internal/retry"
)

// Source транспорт уведомлений. Listen блокируется до отмены ctx или обрыва соединения
// и вызывает handle для каждого уведомления в порядке получения.
type Source interface {
	Listen(ctx context.Context, handle func(payload []byte) error) error
}

// Publisher пересылает сырые уведомления дальше, например в Redis
type Publisher interface {
	Publish(ctx context.Context, payload []byte) error
}

// Callback получает события по одному
type Callback func(ctx context.Context, ev sync.ChangeEvent) error

// Subscriber доставляет события ленты изменений и переподключается при обрыве
type Subscriber struct {
	source  Source
	backoff retry.Config
	log     *slog.Logger
}

func NewSubscriber(source Source, backoff retry.Config, log *slog.Logger) *Subscriber {
	if err := backoff.Validate(); err != nil {
		backoff = retry.DefaultConfig()
	}
	return &Subscriber{
		source:  source,
		backoff: backoff,
		log:     log.With("component", "changefeed"),
	}
}

// Subscribe запускает доставку событий в callback. Возвращаемую функцию отписки
// нужно вызвать при завершении работы потребителя; она ждет остановки доставки.
func (s *Subscriber) Subscribe(ctx context.Context, callback Callback) (unsubscribe func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		s.run(ctx, func(payload []byte) error {
			ev, err := DecodeEvent(payload)
			if err != nil {
				s.log.Warn("Пропущено некорректное событие", "error", err)
				return nil
			}
			if err := callback(ctx, ev); err != nil {
				s.log.Error("Ошибка обработки события", "type", ev.Type, "error", err)
			}
			return nil
		})
	}()

	var once gosync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
			s.log.Debug("Подписка на ленту изменений освобождена")
		})
	}
}

// Forward пересылает уведомления в publisher до отмены ctx
func (s *Subscriber) Forward(ctx context.Context, pub Publisher) {
	s.run(ctx, func(payload []byte) error {
		return pub.Publish(ctx, payload)
	})
}

func (s *Subscriber) run(ctx context.Context, handle func([]byte) error) {
	delay := s.backoff.InitialDelay

	for {
		received := false
		err := s.source.Listen(ctx, func(payload []byte) error {
			received = true
			return handle(payload)
		})
		if ctx.Err() != nil {
			return
		}
		if received {
			delay = s.backoff.InitialDelay
		}

		s.log.Warn("Лента изменений прервана, переподключение", "delay", delay, "error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		delay = s.backoff.NextDelay(delay)
	}
}
