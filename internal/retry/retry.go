// Package retry повторяет операции с экспоненциальной задержкой.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrInvalidConfig = errors.New("invalid retry config")

// Config параметры повторов
type Config struct {
	MaxRetries   int           `json:"max_retries"`
	InitialDelay time.Duration `json:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay"`
	Multiplier   float64       `json:"multiplier"`
}

// DefaultConfig значения по умолчанию
func DefaultConfig() Config {
	return Config{
		MaxRetries:   3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     30 * time.Second,
		Multiplier:   2,
	}
}

func (c Config) Validate() error {
	switch {
	case c.MaxRetries < 0:
		return fmt.Errorf("%w: max_retries must be non-negative", ErrInvalidConfig)
	case c.InitialDelay < 0:
		return fmt.Errorf("%w: initial_delay must be non-negative", ErrInvalidConfig)
	case c.MaxDelay < c.InitialDelay:
		return fmt.Errorf("%w: max_delay must not be less than initial_delay", ErrInvalidConfig)
	case c.Multiplier <= 1:
		return fmt.Errorf("%w: multiplier must be greater than 1", ErrInvalidConfig)
	}
	return nil
}

// NextDelay задержка перед следующей попыткой
func (c Config) NextDelay(delay time.Duration) time.Duration {
	next := time.Duration(float64(delay) * c.Multiplier)
	if next > c.MaxDelay || next < delay {
		return c.MaxDelay
	}
	return next
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent помечает ошибку как неповторяемую
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsRetryable сообщает, стоит ли повторять операцию после err.
// Ошибки без пометки считаются повторяемыми.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var p *permanentError
	if errors.As(err, &p) {
		return false
	}

	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}

	return true
}

type options struct {
	retryable func(error) bool
	notify    func(attempt int, delay time.Duration, err error)
}

type Option func(*options)

// WithClassifier заменяет IsRetryable
func WithClassifier(fn func(error) bool) Option {
	return func(o *options) { o.retryable = fn }
}

// WithNotify вызывается перед каждым ожиданием
func WithNotify(fn func(attempt int, delay time.Duration, err error)) Option {
	return func(o *options) { o.notify = fn }
}

// Do выполняет op, повторяя ее не более cfg.MaxRetries раз
func Do(ctx context.Context, cfg Config, op func(ctx context.Context) error, opts ...Option) error {
	_, err := DoValue(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}, opts...)
	return err
}

// DoValue то же, что Do, но возвращает результат операции
func DoValue[T any](ctx context.Context, cfg Config, op func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	var zero T

	if err := cfg.Validate(); err != nil {
		return zero, err
	}

	o := options{retryable: IsRetryable}
	for _, opt := range opts {
		opt(&o)
	}

	delay := cfg.InitialDelay
	for attempt := 0; ; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}

		if attempt >= cfg.MaxRetries || !o.retryable(err) {
			var p *permanentError
			if errors.As(err, &p) {
				return zero, p.err
			}
			return zero, err
		}

		if o.notify != nil {
			o.notify(attempt+1, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("retry aborted after %d attempts: %w (last error: %v)", attempt+1, ctx.Err(), err)
		case <-timer.C:
		}

		delay = cfg.NextDelay(delay)
	}
}
