package idempotency

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Record is what the coordinator keeps per idempotency key. A record without
// a Response belongs to a delivery that is still executing.
type Record struct {
	Nonce      string    `json:"nonce"`
	Key        string    `json:"key"`
	RequestID  string    `json:"request_id"`
	Command    string    `json:"command"`
	ArgsDigest string    `json:"args_digest"`
	Response   *Response `json:"response,omitempty"`
}

// Response is the captured result of the winning execution.
type Response struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// IsComplete reports whether the winner has attached its response.
func (r *Record) IsComplete() bool {
	return r.Response != nil
}

// Matches reports whether other describes the same command with the same
// arguments.
func (r *Record) Matches(other *Record) bool {
	return r.Command == other.Command && r.ArgsDigest == other.ArgsDigest
}

func (r *Record) encode() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode idempotency record: %w", err)
	}
	return string(b), nil
}

func decodeRecord(value string) (*Record, error) {
	var r Record
	if err := json.Unmarshal([]byte(value), &r); err != nil {
		return nil, fmt.Errorf("decode idempotency record: %w", err)
	}
	return &r, nil
}

// ArgsDigest hashes args after re-marshalling them, so key order and
// whitespace do not change the digest. Numbers keep their literal form.
func ArgsDigest(args json.RawMessage) (string, error) {
	canonical := []byte("null")
	if len(bytes.TrimSpace(args)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(args))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return "", fmt.Errorf("decode args: %w", err)
		}
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("encode args: %w", err)
		}
		canonical = b
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
