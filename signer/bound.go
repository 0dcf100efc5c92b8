package signer

import (
	"time"

	"go.uber.org/zap"
)

// Signer binds the game identity and key material so they are supplied once
// at startup. It is safe for concurrent use.
type Signer struct {
	game     string
	secret   string
	endpoint string
	version  string
	now      func() time.Time
	logger   *zap.Logger
}

// Option configures a Signer.
type Option func(*Signer)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) { s.now = now }
}

// WithLogger sets the logger used for signing errors.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Signer) { s.logger = logger }
}

// WithVersion selects the signing scheme for outgoing credentials.
func WithVersion(version string) Option {
	return func(s *Signer) { s.version = version }
}

// New creates a Signer for game.
func New(game, secret, endpoint string, opts ...Option) *Signer {
	s := &Signer{
		game:     game,
		secret:   secret,
		endpoint: endpoint,
		version:  DefaultVersion,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Game returns the bound game id.
func (s *Signer) Game() string { return s.game }

// Authorization signs one request. Call it once per physical attempt so the
// timestamp reflects that attempt.
func (s *Signer) Authorization(method, rawURL string, body []byte) (string, error) {
	return authorization(s.input(method, rawURL, body), s.version, s.now(), s.logger)
}

// AuthorizationAt signs with an explicit timestamp.
func (s *Signer) AuthorizationAt(method, rawURL string, body []byte, timestamp string) (string, error) {
	in := s.input(method, rawURL, body)
	in.Timestamp = timestamp
	return authorization(in, s.version, s.now(), s.logger)
}

// Verify checks a credential pinned to the bound game.
func (s *Signer) Verify(credential, method, rawURL string, body []byte) bool {
	return verify(credential, s.input(method, rawURL, body), s.now())
}

// VerifyAnyGame checks a credential without pinning the game, for receivers
// that serve several games with one secret.
func (s *Signer) VerifyAnyGame(credential, method, rawURL string, body []byte) bool {
	in := s.input(method, rawURL, body)
	in.Game = ""
	return verify(credential, in, s.now())
}

func (s *Signer) input(method, rawURL string, body []byte) Input {
	return Input{
		Game:     s.game,
		Secret:   s.secret,
		Endpoint: s.endpoint,
		Method:   method,
		URL:      rawURL,
		Body:     body,
	}
}
