// Package combo holds the configuration shared by every part of the Combo
// server SDK: the API client, the webhook receivers and the token verifier.
package combo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator"
)

// SDKName and SDKVersion identify this SDK in the User-Agent header.
const (
	SDKName    = "combo-sdk-go"
	SDKVersion = "1.4.0"
)

// ApiPrefix is the route prefix of the Combo server API.
const ApiPrefix = "/v1/server"

// Endpoint is a Combo API endpoint.
type Endpoint string

const (
	// EndpointChina is used for mainland China releases.
	EndpointChina Endpoint = "https://api.seayoo.com"
	// EndpointGlobal is used for global releases.
	EndpointGlobal Endpoint = "https://api.seayoo.io"
)

// Platform is a client platform.
type Platform string

const (
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
	PlatformWindows Platform = "windows"
	PlatformMacOS   Platform = "macos"
	PlatformWeixin  Platform = "weixin"
)

// IdP is a login identity provider.
type IdP string

const (
	IdPDevice   IdP = "device"
	IdPSeayoo   IdP = "seayoo"
	IdPApple    IdP = "apple"
	IdPGoogle   IdP = "google"
	IdPFacebook IdP = "facebook"
	IdPXiaomi   IdP = "xiaomi"
	IdPWeixin   IdP = "weixin"
)

// SecretPrefix marks a game secret key.
const SecretPrefix = "sk_"

// Secret is a game secret key. It never prints its value.
type Secret string

func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return SecretPrefix + "***"
}

// GoString keeps the secret out of %#v output.
func (s Secret) GoString() string { return s.String() }

// Config is created once at startup and shared read-only afterwards.
type Config struct {
	Endpoint Endpoint `validate:"required"`
	Game     string   `validate:"required"`
	Secret   Secret   `validate:"required"`
}

var (
	ErrConfigEndpoint = errors.New("config: endpoint should be an http(s) url")
	ErrConfigGame     = errors.New("config: missing required game id")
	ErrConfigSecret   = errors.New("config: missing required secret")
	ErrSecretPrefix   = errors.New("config: secret should start with " + SecretPrefix)
)

var validate = validator.New()

// Validate checks a full configuration, including the API endpoint.
func (c Config) Validate() error {
	if !IsFullURL(string(c.Endpoint)) {
		return fmt.Errorf("%w, preset values: %s, %s", ErrConfigEndpoint, EndpointChina, EndpointGlobal)
	}
	return c.ValidateWithoutEndpoint()
}

// ValidateWithoutEndpoint is used by receivers that never call out, such as
// the GM command handler.
func (c Config) ValidateWithoutEndpoint() error {
	if c.Game == "" {
		return ErrConfigGame
	}
	if c.Secret == "" {
		return ErrConfigSecret
	}
	if !strings.HasPrefix(string(c.Secret), SecretPrefix) {
		return ErrSecretPrefix
	}
	if c.Endpoint == "" {
		return validate.StructExcept(c, "Endpoint")
	}
	return validate.Struct(c)
}

// IsFullURL reports whether s starts with http:// or https://.
func IsFullURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
