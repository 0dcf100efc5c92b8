// Package gm receives Combo GM command webhooks.
//
// Every response is JSON. Success carries the handler's result; failures
// carry {"error": <kind>, "message": <text>} with the status of the kind.
// Commands with an idempotency key are executed at most once when an
// idempotency store is configured with webhook.WithStore.
package gm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	combo "github.com/seayoo-io/combo-sdk-go"
	"github.com/seayoo-io/combo-sdk-go/idempotency"
	"github.com/seayoo-io/combo-sdk-go/webhook"
	"go.uber.org/zap"
)

// CommandHandler is the http entry point for GM commands.
type CommandHandler struct {
	auth        *webhook.Authenticator
	handler     Handler
	coordinator *idempotency.Coordinator
	settings    webhook.Settings
}

var _ webhook.Handler = (*CommandHandler)(nil)

// NewHandler builds a GM command handler. The endpoint of cfg is not
// needed and may be empty.
func NewHandler(cfg combo.Config, h Handler, opts ...webhook.Option) (*CommandHandler, error) {
	if err := cfg.ValidateWithoutEndpoint(); err != nil {
		return nil, err
	}
	if h == nil {
		return nil, fmt.Errorf("gm: nil handler")
	}
	s := webhook.NewSettings(opts...)
	ch := &CommandHandler{
		auth:     webhook.NewAuthenticator(cfg.Game, string(cfg.Secret), s),
		handler:  h,
		settings: s,
	}
	if s.Store != nil {
		ch.coordinator = idempotency.NewCoordinator(s.Store,
			idempotency.WithLogger(s.Logger),
			idempotency.WithObserver(s.IdempotencyObserver),
		)
	}
	return ch, nil
}

func (h *CommandHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.ServeWebhook(w, r, nil)
}

// ServeWebhook handles one delivery. rawBody is used when r.Body has
// already been read.
func (h *CommandHandler) ServeWebhook(w http.ResponseWriter, r *http.Request, rawBody []byte) {
	resp := h.serve(r, rawBody)
	h.settings.Observe(resp.Status)
	webhook.WriteJSON(w, resp.Status, resp.Body)
}

func (h *CommandHandler) serve(r *http.Request, rawBody []byte) idempotency.Response {
	body, rej := h.auth.Authenticate(r, rawBody)
	if rej != nil {
		return errorResponse(&Error{Kind: ErrorKind(rej.Kind), Message: rej.Message})
	}

	req, err := ParseRequest(body)
	if err != nil {
		e, _ := AsError(err)
		return errorResponse(e)
	}

	ctx := r.Context()
	logger := h.settings.Logger.With(
		zap.String("command", req.Command),
		zap.String("request_id", req.RequestID),
		zap.String("idempotency_key", req.IdempotencyKey),
	)

	if h.coordinator == nil || req.IdempotencyKey == "" {
		resp, _ := h.execute(ctx, req, logger)
		return resp
	}

	out, err := h.coordinator.Resolve(ctx, req.IdempotencyKey, req.RequestID, req.Command, req.Args)
	if err != nil {
		logger.Error("idempotency store unavailable", zap.Error(err))
		return errorResponse(NewError(ErrDatabaseError, "idempotency store unavailable"))
	}

	switch out.Action {
	case idempotency.ActionReplay:
		logger.Info("replaying idempotent response", zap.String("winner_request_id", out.Winner.RequestID))
		return *out.Winner.Response
	case idempotency.ActionConflict:
		return errorResponse(NewError(ErrIdempotencyConflict,
			"previous request %s with the same idempotency key is not completed", out.Winner.RequestID))
	case idempotency.ActionMismatch:
		return errorResponse(NewError(ErrIdempotencyMismatch,
			"idempotency key was used by request %s with a different command or args", out.Winner.RequestID))
	}

	resp, completed := h.execute(ctx, req, logger)
	if completed {
		h.coordinator.Complete(context.WithoutCancel(ctx), out.Record, resp)
	}
	return resp
}

// execute runs the handler and reports false when it panicked.
func (h *CommandHandler) execute(ctx context.Context, req *Request, logger *zap.Logger) (resp idempotency.Response, completed bool) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("gm command panicked", zap.Any("panic", p), zap.Stack("stack"))
			resp = errorResponse(NewError(ErrInternalError, "%v", p))
			completed = false
		}
	}()

	result, err := h.handler.HandleCommand(ctx, req)
	if err != nil {
		if e, ok := AsError(err); ok {
			return errorResponse(e), true
		}
		logger.Warn("gm command failed", zap.Error(err))
		return errorResponse(&Error{Kind: ErrInternalError, Message: err.Error()}), true
	}

	if result == nil {
		logger.Warn("gm command should give back some data")
	}
	body, err := webhook.EncodeJSON(result)
	if err != nil {
		logger.Error("cannot encode gm command result", zap.Error(err))
		return errorResponse(NewError(ErrInternalError, "cannot encode result")), true
	}
	return idempotency.Response{Status: http.StatusOK, Body: body}, true
}

func errorResponse(e *Error) idempotency.Response {
	if e.Kind == "" {
		e = &Error{Kind: ErrInternalError, Message: e.Message}
	}
	body, _ := json.Marshal(e)
	return idempotency.Response{Status: e.Status(), Body: body}
}
