package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// DefaultVersion is the signing scheme used when the caller does not pick one.
const DefaultVersion = "HS256"

// Algorithm is one signing scheme. The set of schemes is fixed at compile
// time; verification dispatches on the credential prefix so credentials
// produced by older schemes keep verifying after new ones are added.
type Algorithm interface {
	// Version is the tag callers use to select the scheme, e.g. "HS256".
	Version() string
	// Prefix is the credential prefix, e.g. "SEAYOO-HMAC-SHA256".
	Prefix() string
	// Sign returns the bare signature of the canonical input.
	Sign(secret []byte, method, uri, timestamp string, body []byte) string
}

type hmacSHA256 struct{}

func (hmacSHA256) Version() string { return "HS256" }
func (hmacSHA256) Prefix() string  { return "SEAYOO-HMAC-SHA256" }

func (a hmacSHA256) Sign(secret []byte, method, uri, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(CanonicalString(a.Prefix(), method, uri, timestamp, body)))
	return hex.EncodeToString(mac.Sum(nil))
}

var registry = []Algorithm{hmacSHA256{}}

// Lookup returns the algorithm registered for version.
func Lookup(version string) (Algorithm, bool) {
	for _, alg := range registry {
		if alg.Version() == version {
			return alg, true
		}
	}
	return nil, false
}

// lookupPrefix finds the algorithm whose prefix, followed by a space, starts
// the credential. Matching is byte exact.
func lookupPrefix(credential string) (Algorithm, bool) {
	for _, alg := range registry {
		if strings.HasPrefix(credential, alg.Prefix()+" ") {
			return alg, true
		}
	}
	return nil, false
}

// EmptyBodySHA256 is the SHA-256 of the empty string.
const EmptyBodySHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

// BodyHash returns the lowercase hex SHA-256 of body.
func BodyHash(body []byte) string {
	if len(body) == 0 {
		return EmptyBodySHA256
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// CanonicalString builds the signing input. Scheme and host never take part,
// only the request relative uri.
func CanonicalString(prefix, method, uri, timestamp string, body []byte) string {
	return strings.Join([]string{
		prefix,
		strings.ToUpper(method),
		uri,
		timestamp,
		BodyHash(body),
	}, "\n")
}
