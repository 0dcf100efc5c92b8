package webhook

import (
	"time"

	"github.com/seayoo-io/combo-sdk-go/idempotency"
	"go.uber.org/zap"
)

// DefaultMaxBodyBytes bounds how much of a webhook body is read.
const DefaultMaxBodyBytes int64 = 1 << 20

// Settings is shared by the notification and GM handlers.
type Settings struct {
	Logger       *zap.Logger
	MaxBodyBytes int64
	Clock        func() time.Time
	// Store enables idempotent GM command handling. Notifications ignore it.
	Store idempotency.Store
	// Observer is called with the final status of every request.
	Observer func(status int)
	// IdempotencyObserver is called with every resolved idempotency action.
	IdempotencyObserver func(idempotency.Action)
}

type Option func(*Settings)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Settings) { s.Logger = logger }
}

// WithMaxBodyBytes caps the body size; non-positive values keep the default.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Settings) {
		if n > 0 {
			s.MaxBodyBytes = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Settings) { s.Clock = now }
}

func WithStore(store idempotency.Store) Option {
	return func(s *Settings) { s.Store = store }
}

func WithObserver(fn func(status int)) Option {
	return func(s *Settings) { s.Observer = fn }
}

func WithIdempotencyObserver(fn func(idempotency.Action)) Option {
	return func(s *Settings) { s.IdempotencyObserver = fn }
}

// NewSettings applies opts over the defaults.
func NewSettings(opts ...Option) Settings {
	s := Settings{
		Logger:       zap.NewNop(),
		MaxBodyBytes: DefaultMaxBodyBytes,
		Clock:        time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Observe reports status to the observer, if any.
func (s Settings) Observe(status int) {
	if s.Observer != nil {
		s.Observer(status)
	}
}
