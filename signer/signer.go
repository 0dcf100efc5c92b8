// Package signer implements the symmetric request signing protocol used by
// the Combo server API and by Combo webhooks.
//
// A credential looks like
//
//	SEAYOO-HMAC-SHA256 Game=<game>,Timestamp=<yyyyMMddTHHmmssZ>,Signature=<hex>
//
// and the signature is an HMAC over the method, the request relative uri,
// the timestamp and the SHA-256 of the body.
package signer

import (
	"crypto/hmac"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// AuthorizationHeader carries the credential.
const AuthorizationHeader = "Authorization"

// MaxTimeDiff is the accepted clock difference on either side of now.
const MaxTimeDiff = 5 * time.Minute

var (
	// ErrTimestamp is returned when a supplied timestamp is malformed. The
	// caller can fix the input and retry.
	ErrTimestamp = errors.New("ErrorTimestamp")
	// ErrSigningVersion is returned for an unknown signing scheme.
	ErrSigningVersion = errors.New("ErrorSigningVersion")
)

// Input holds the request parts a signature covers plus the key material.
type Input struct {
	Game   string
	Secret string
	// Endpoint resolves relative URLs. Only path and query of the result
	// are signed, so the scheme and host used here do not matter.
	Endpoint string
	Method   string
	// URL is absolute or relative to Endpoint.
	URL  string
	Body []byte
	// Timestamp is optional; the current time is used when empty.
	Timestamp string
}

// Authorization returns the full credential for the given scheme version.
func Authorization(in Input, version string) (string, error) {
	return authorization(in, version, time.Now(), zap.L())
}

// Signature returns only the hex signature for the given scheme version.
func Signature(in Input, version string) (string, error) {
	alg, ts, uri, err := prepare(in, version, time.Now(), zap.L())
	if err != nil {
		return "", err
	}
	return alg.Sign([]byte(in.Secret), in.Method, uri, ts, in.Body), nil
}

// Verify checks a credential against the request parts in. It never fails
// loudly: any malformed input yields false. When in.Game is set the
// credential must carry the same game.
func Verify(credential string, in Input) bool {
	return verify(credential, in, time.Now())
}

func authorization(in Input, version string, now time.Time, logger *zap.Logger) (string, error) {
	alg, ts, uri, err := prepare(in, version, now, logger)
	if err != nil {
		return "", err
	}
	sig := alg.Sign([]byte(in.Secret), in.Method, uri, ts, in.Body)
	return fmt.Sprintf("%s Game=%s,Timestamp=%s,Signature=%s", alg.Prefix(), in.Game, ts, sig), nil
}

func prepare(in Input, version string, now time.Time, logger *zap.Logger) (Algorithm, string, string, error) {
	if version == "" {
		version = DefaultVersion
	}
	alg, ok := Lookup(version)
	if !ok {
		logger.Error("unsupported signing version", zap.String("version", version))
		return nil, "", "", ErrSigningVersion
	}
	ts := in.Timestamp
	if ts == "" {
		ts = FormatTimestamp(now)
	} else if !ValidTimestamp(ts) {
		return nil, "", "", ErrTimestamp
	}
	uri, err := RequestURI(in.Endpoint, in.URL)
	if err != nil {
		return nil, "", "", err
	}
	return alg, ts, uri, nil
}

func verify(credential string, in Input, now time.Time) bool {
	if credential == "" {
		return false
	}
	alg, ok := lookupPrefix(credential)
	if !ok {
		return false
	}
	info := ParseCredential(credential, alg.Prefix())
	if info == nil {
		return false
	}
	game, timestamp, signature := info["Game"], info["Timestamp"], info["Signature"]
	if game == "" || timestamp == "" || signature == "" {
		return false
	}
	if in.Game != "" && in.Game != game {
		return false
	}
	ts, ok := ParseTimestamp(timestamp)
	if !ok {
		return false
	}
	now = now.Truncate(time.Second)
	if ts.Before(now.Add(-MaxTimeDiff)) || ts.After(now.Add(MaxTimeDiff)) {
		return false
	}
	uri, err := RequestURI(in.Endpoint, in.URL)
	if err != nil {
		return false
	}
	expected := alg.Sign([]byte(in.Secret), in.Method, uri, timestamp, in.Body)
	return hmac.Equal([]byte(expected), []byte(signature))
}

var defaultBase = &url.URL{Scheme: "http", Host: "127.0.0.1", Path: "/"}

// RequestURI resolves rawURL against endpoint and returns the escaped path
// plus query, which is the only part of the URL that is signed.
func RequestURI(endpoint, rawURL string) (string, error) {
	base := defaultBase
	if endpoint != "" && !strings.HasPrefix(rawURL, "http") {
		b, err := url.Parse(endpoint)
		if err != nil {
			return "", fmt.Errorf("signer: parse endpoint: %w", err)
		}
		base = b
	}
	ref, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("signer: parse url: %w", err)
	}
	u := base.ResolveReference(ref)
	uri := u.EscapedPath()
	if uri == "" {
		uri = "/"
	}
	if u.RawQuery != "" {
		uri += "?" + u.RawQuery
	}
	return uri, nil
}
