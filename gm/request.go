package gm

import (
	"context"
	"encoding/json"

	"github.com/getkin/kin-openapi/openapi3"
)

// Request is a validated GM command.
type Request struct {
	// Version of the GM protocol, currently 2.0.
	Version string `json:"version"`
	// RequestID is unique per request and can be used for de-duplication.
	RequestID string `json:"request_id"`
	// IdempotencyKey is set when the command must be executed at most once.
	IdempotencyKey string `json:"idempotency_key,omitempty"`
	// Command is the case-sensitive rpc name from the GM protocol file.
	Command string `json:"command"`
	// Args holds the rpc request message as a JSON object.
	Args json.RawMessage `json:"args"`
}

// BindArgs decodes Args into v.
func (r *Request) BindArgs(v any) error {
	if err := json.Unmarshal(r.Args, v); err != nil {
		return WrapError(ErrInvalidArgs, err, "cannot decode args of "+r.Command)
	}
	return nil
}

// Handler executes GM commands. The result is encoded as the JSON response
// body. Returning a *Error sends its kind and status; any other error is an
// internal_error.
type Handler interface {
	HandleCommand(ctx context.Context, req *Request) (any, error)
}

type HandlerFunc func(ctx context.Context, req *Request) (any, error)

func (f HandlerFunc) HandleCommand(ctx context.Context, req *Request) (any, error) {
	return f(ctx, req)
}

var requestSchema = func() *openapi3.Schema {
	s := openapi3.NewObjectSchema().
		WithProperty("version", openapi3.NewStringSchema()).
		WithProperty("request_id", openapi3.NewStringSchema().WithMinLength(1)).
		WithProperty("idempotency_key", openapi3.NewStringSchema()).
		WithProperty("command", openapi3.NewStringSchema().WithMinLength(1)).
		WithProperty("args", openapi3.NewObjectSchema())
	s.Required = []string{"version", "request_id", "command", "args"}
	return s
}()

// ParseRequest checks a verified body against the request schema.
func ParseRequest(body []byte) (*Request, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, WrapError(ErrInvalidRequest, err, "GM request body format error")
	}
	if err := requestSchema.VisitJSON(raw); err != nil {
		return nil, WrapError(ErrInvalidRequest, err, "GM request body format error")
	}
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, WrapError(ErrInvalidRequest, err, "GM request body format error")
	}
	return &req, nil
}
