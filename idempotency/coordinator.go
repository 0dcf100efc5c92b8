package idempotency

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Action tells the caller what to do with a delivery.
type Action int

const (
	// ActionExecute means this delivery won the key and must run the handler.
	ActionExecute Action = iota
	// ActionReplay means the winner finished; send its response.
	ActionReplay
	// ActionConflict means the winner has not finished yet.
	ActionConflict
	// ActionMismatch means the key was used for another command or args.
	ActionMismatch
)

func (a Action) String() string {
	switch a {
	case ActionExecute:
		return "execute"
	case ActionReplay:
		return "replay"
	case ActionConflict:
		return "conflict"
	case ActionMismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}

// Outcome is the result of Resolve.
type Outcome struct {
	Action Action
	// Record is the candidate written for this delivery.
	Record *Record
	// Winner is the record already stored under the key, nil for ActionExecute.
	Winner *Record
}

// Coordinator resolves duplicate deliveries through a Store.
type Coordinator struct {
	store    Store
	logger   *zap.Logger
	nonce    func() string
	observer func(Action)
}

type Option func(*Coordinator)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// WithObserver registers a callback invoked with every resolved action.
func WithObserver(fn func(Action)) Option {
	return func(c *Coordinator) { c.observer = fn }
}

// WithNonce replaces the per-delivery nonce generator.
func WithNonce(fn func() string) Option {
	return func(c *Coordinator) { c.nonce = fn }
}

func NewCoordinator(store Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:  store,
		logger: zap.NewNop(),
		nonce:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve claims key for this delivery or reports how an earlier delivery
// owns it. An error means the store could not be written and nothing was
// claimed.
func (c *Coordinator) Resolve(ctx context.Context, key, requestID, command string, args json.RawMessage) (*Outcome, error) {
	digest, err := ArgsDigest(args)
	if err != nil {
		return nil, err
	}
	candidate := &Record{
		Nonce:      c.nonce(),
		Key:        key,
		RequestID:  requestID,
		Command:    command,
		ArgsDigest: digest,
	}
	value, err := candidate.encode()
	if err != nil {
		return nil, err
	}

	prev, err := c.store.SetIfAbsent(ctx, key, value)
	if err != nil {
		return nil, fmt.Errorf("claim idempotency key: %w", err)
	}
	if prev == "" {
		return c.outcome(ActionExecute, candidate, nil), nil
	}

	winner, err := decodeRecord(prev)
	if err != nil {
		return nil, err
	}
	// A store may hand back our own write when it lost track of whether the
	// key existed before.
	if winner.Nonce == candidate.Nonce {
		return c.outcome(ActionExecute, candidate, nil), nil
	}

	c.logger.Debug("duplicate delivery",
		zap.String("idempotency_key", key),
		zap.String("request_id", requestID),
		zap.String("winner_request_id", winner.RequestID),
	)

	switch {
	case !winner.Matches(candidate):
		return c.outcome(ActionMismatch, candidate, winner), nil
	case !winner.IsComplete():
		return c.outcome(ActionConflict, candidate, winner), nil
	default:
		return c.outcome(ActionReplay, candidate, winner), nil
	}
}

// Complete attaches resp to the winning record. Failures are logged and
// otherwise ignored; the response has already been decided.
func (c *Coordinator) Complete(ctx context.Context, rec *Record, resp Response) {
	done := *rec
	done.Response = &resp
	value, err := done.encode()
	if err == nil {
		err = c.store.SetIfPresent(ctx, rec.Key, value)
	}
	if err != nil {
		c.logger.Error("failed to store idempotent response",
			zap.String("idempotency_key", rec.Key),
			zap.String("request_id", rec.RequestID),
			zap.Error(err),
		)
	}
}

func (c *Coordinator) outcome(a Action, rec, winner *Record) *Outcome {
	if c.observer != nil {
		c.observer(a)
	}
	return &Outcome{Action: a, Record: rec, Winner: winner}
}
