package transport_test

import (
	"testing"

	"github.com/seayoo-io/combo-sdk-go/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponse_OK(t *testing.T) {
	for status, ok := range map[int]bool{-1: false, 0: false, 199: false, 200: true, 302: true, 399: true, 400: false, 500: false} {
		assert.Equal(t, ok, (&transport.Response{Status: status}).OK(), status)
	}
}

func TestResponse_Err(t *testing.T) {
	tests := []struct {
		name    string
		resp    transport.Response
		code    string
		message string
	}{
		{
			name:    "json error",
			resp:    transport.Response{Status: 400, StatusText: "Bad Request", Body: []byte(`{"error":"invalid_request","message":"missing product_id"}`)},
			code:    "invalid_request",
			message: "missing product_id",
		},
		{
			name:    "json without fields",
			resp:    transport.Response{Status: 500, StatusText: "Internal Server Error", Body: []byte(`{"detail":"x"}`)},
			code:    "Internal Server Error",
			message: `{"detail":"x"}`,
		},
		{
			name:    "html page",
			resp:    transport.Response{Status: 502, StatusText: "Bad Gateway", Body: []byte(`<html><head><title>502 Bad Gateway</title></head></html>`)},
			code:    "Bad Gateway",
			message: "502 Bad Gateway",
		},
		{
			name:    "xml error",
			resp:    transport.Response{Status: 403, StatusText: "Forbidden", Body: []byte(`<Error><Code>AccessDenied</Code><Message>Access Denied</Message></Error>`)},
			code:    "Forbidden",
			message: "Access Denied",
		},
		{
			name:    "plain text",
			resp:    transport.Response{Status: 404, StatusText: "Not Found", Body: []byte(`nothing here`)},
			code:    "Not Found",
			message: "nothing here",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr, ok := transport.IsAPIError(tt.resp.Err())
			require.True(t, ok)
			assert.Equal(t, tt.resp.Status, apiErr.Status)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, tt.message, apiErr.Message)
		})
	}
}

func TestDecodeJSON_Malformed(t *testing.T) {
	_, err := transport.DecodeJSON[map[string]any](&transport.Response{Status: 200, Body: []byte(`<html>`)})

	apiErr, ok := transport.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "ResponseFormatError", apiErr.Code)
	assert.Error(t, apiErr.Unwrap())
}
