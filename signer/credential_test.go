package signer_test

import (
	"testing"

	"github.com/seayoo-io/combo-sdk-go/signer"
	"github.com/stretchr/testify/assert"
)

func TestParseCredential(t *testing.T) {
	const prefix = "SEAYOO-HMAC-SHA256"

	tests := []struct {
		name string
		raw  string
		want map[string]string
	}{
		{
			name: "canonical",
			raw:  "SEAYOO-HMAC-SHA256 Game=xcom,Timestamp=20240601T120000Z,Signature=abc",
			want: map[string]string{"Game": "xcom", "Timestamp": "20240601T120000Z", "Signature": "abc"},
		},
		{
			name: "whitespace and order",
			raw:  "SEAYOO-HMAC-SHA256  Signature = abc ,  Game= xcom,Timestamp =20240601T120000Z ",
			want: map[string]string{"Game": "xcom", "Timestamp": "20240601T120000Z", "Signature": "abc"},
		},
		{
			name: "quoted value",
			raw:  `SEAYOO-HMAC-SHA256 Game=" x com ",Signature=abc`,
			want: map[string]string{"Game": " x com ", "Signature": "abc"},
		},
		{
			name: "unmatched quote kept",
			raw:  `SEAYOO-HMAC-SHA256 Game="xcom`,
			want: map[string]string{"Game": `"xcom`},
		},
		{
			name: "value with equals",
			raw:  "SEAYOO-HMAC-SHA256 Sig=a=b",
			want: map[string]string{"Sig": "a=b"},
		},
		{
			name: "empty keys and values dropped",
			raw:  "SEAYOO-HMAC-SHA256 =x,Game=,Foo,Bar=1",
			want: map[string]string{"Bar": "1"},
		},
		{
			name: "last duplicate wins",
			raw:  "SEAYOO-HMAC-SHA256 Game=a,Game=b",
			want: map[string]string{"Game": "b"},
		},
		{
			name: "empty list",
			raw:  "SEAYOO-HMAC-SHA256 ",
			want: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, signer.ParseCredential(tt.raw, prefix))
		})
	}
}

func TestParseCredential_NoPrefix(t *testing.T) {
	assert.Nil(t, signer.ParseCredential("Game=xcom", "SEAYOO-HMAC-SHA256"))
	assert.Nil(t, signer.ParseCredential("SEAYOO-HMAC-SHA256", "SEAYOO-HMAC-SHA256"))
	assert.Nil(t, signer.ParseCredential("SEAYOO-HMAC-SHA256Game=xcom", "SEAYOO-HMAC-SHA256"))
	assert.Nil(t, signer.ParseCredential("SEAYOO-HMAC-SHA256 Game=xcom", ""))
}

func TestTimestamp(t *testing.T) {
	_, ok := signer.ParseTimestamp("20240601T120000Z")
	assert.True(t, ok)

	for _, bad := range []string{"", "20240601T120000", "2024-06-01T12:00:00Z", "20241301T120000Z", "20240601T120000Z "} {
		_, ok := signer.ParseTimestamp(bad)
		assert.False(t, ok, bad)
	}
}
