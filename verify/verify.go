// Package verify checks the JWTs that Combo issues to game clients.
//
// Tokens are signed with HS256 using the game secret. The audience is the
// game id and the issuer is the configured endpoint.
package verify

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	combo "github.com/seayoo-io/combo-sdk-go"
)

const (
	scopeAuth = "auth"
	scopeAds  = "ads"
)

var (
	// ErrInvalidScope is returned for a valid token of the wrong kind.
	ErrInvalidScope = errors.New("verify: invalid scope")
	// ErrMalformedPayload is returned when required claims are missing.
	ErrMalformedPayload = errors.New("verify: malformed token payload")
)

// IdentityPayload describes the player a client logged in as. Games should
// key their accounts on ComboID.
type IdentityPayload struct {
	ComboID string    `json:"combo_id"`
	IdP     combo.IdP `json:"idp"`
	// ExternalID is the account id at the IdP. It is not a stable player
	// identity across IdPs.
	ExternalID   string `json:"external_id"`
	ExternalName string `json:"external_name"`
	// WeixinUnionID is only set when IdP is weixin.
	WeixinUnionID string `json:"weixin_unionid,omitempty"`
	Distro        string `json:"distro"`
	// Variant is empty unless the client is a sub-package.
	Variant string `json:"variant"`
	// Age is derived from real-name verification. 0 means unknown.
	Age int `json:"age"`
}

// AdPayload describes a completed rewarded ad impression.
type AdPayload struct {
	ComboID      string `json:"combo_id"`
	PlacementID  string `json:"placement_id"`
	ImpressionID string `json:"impression_id"`
}

type identityClaims struct {
	jwt.RegisteredClaims
	Scope         string    `json:"scope"`
	IdP           combo.IdP `json:"idp"`
	ExternalID    *string   `json:"external_id"`
	ExternalName  *string   `json:"external_name"`
	WeixinUnionID string    `json:"weixin_unionid"`
	Distro        string    `json:"distro"`
	Variant       string    `json:"variant"`
	Age           int       `json:"age"`
}

type adClaims struct {
	jwt.RegisteredClaims
	Scope        string  `json:"scope"`
	PlacementID  *string `json:"placement_id"`
	ImpressionID *string `json:"impression_id"`
}

// TokenVerifier is safe for concurrent use.
type TokenVerifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewTokenVerifier validates cfg, endpoint included, since it becomes the
// expected issuer.
func NewTokenVerifier(cfg combo.Config, opts ...jwt.ParserOption) (*TokenVerifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(cfg.Game),
		jwt.WithIssuer(string(cfg.Endpoint)),
		jwt.WithExpirationRequired(),
	}
	return &TokenVerifier{
		secret: []byte(cfg.Secret),
		parser: jwt.NewParser(append(base, opts...)...),
	}, nil
}

func (v *TokenVerifier) keyFunc(*jwt.Token) (any, error) {
	return v.secret, nil
}

// VerifyIdentityToken checks an identity token obtained by the client at
// login.
func (v *TokenVerifier) VerifyIdentityToken(token string) (*IdentityPayload, error) {
	var c identityClaims
	if _, err := v.parser.ParseWithClaims(token, &c, v.keyFunc); err != nil {
		return nil, fmt.Errorf("verify identity token: %w", err)
	}
	if c.Subject == "" || c.IdP == "" || c.ExternalID == nil || c.ExternalName == nil {
		return nil, fmt.Errorf("verify identity token: %w", ErrMalformedPayload)
	}
	if c.Scope != scopeAuth {
		return nil, fmt.Errorf("verify identity token: %w: %q", ErrInvalidScope, c.Scope)
	}
	return &IdentityPayload{
		ComboID:       c.Subject,
		IdP:           c.IdP,
		ExternalID:    *c.ExternalID,
		ExternalName:  *c.ExternalName,
		WeixinUnionID: c.WeixinUnionID,
		Distro:        c.Distro,
		Variant:       c.Variant,
		Age:           c.Age,
	}, nil
}

// VerifyAdToken checks the token a client receives after watching a
// rewarded ad. The game grants the reward for PlacementID and should
// deduplicate on ImpressionID.
func (v *TokenVerifier) VerifyAdToken(token string) (*AdPayload, error) {
	var c adClaims
	if _, err := v.parser.ParseWithClaims(token, &c, v.keyFunc); err != nil {
		return nil, fmt.Errorf("verify ad token: %w", err)
	}
	if c.Subject == "" || c.PlacementID == nil || c.ImpressionID == nil {
		return nil, fmt.Errorf("verify ad token: %w", ErrMalformedPayload)
	}
	if c.Scope != scopeAds {
		return nil, fmt.Errorf("verify ad token: %w: %q", ErrInvalidScope, c.Scope)
	}
	return &AdPayload{
		ComboID:      c.Subject,
		PlacementID:  *c.PlacementID,
		ImpressionID: *c.ImpressionID,
	}, nil
}
