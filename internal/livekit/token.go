package livekit

import (
	"errors"
	"time"

	"github.com/livekit/protocol/auth"
)

var (
	ErrNotConfigured   = errors.New("livekit api key and secret are not configured")
	ErrMissingIdentity = errors.New("identity and room are required")
)

// TokenRequest names the participant and room.
type TokenRequest struct {
	Identity   string
	Name       string
	Room       string
	CanPublish bool
}

// Issuer mints room-join access tokens for a LiveKit deployment.
type Issuer struct {
	apiKey    string
	apiSecret string
	url       string
	ttl       time.Duration
}

func NewIssuer(url, apiKey, apiSecret string, ttl time.Duration) *Issuer {
	return &Issuer{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		url:       url,
		ttl:       ttl,
	}
}

// URL is the server address clients should connect to with the token.
func (i *Issuer) URL() string {
	return i.url
}

func (i *Issuer) Configured() bool {
	return i.apiKey != "" && i.apiSecret != ""
}

// Mint signs a room-join token for req. Subscribing is always allowed.
func (i *Issuer) Mint(req TokenRequest) (string, error) {
	if !i.Configured() {
		return "", ErrNotConfigured
	}
	if req.Identity == "" || req.Room == "" {
		return "", ErrMissingIdentity
	}

	canPublish := req.CanPublish
	canSubscribe := true

	return auth.NewAccessToken(i.apiKey, i.apiSecret).
		SetIdentity(req.Identity).
		SetName(req.Name).
		SetValidFor(i.ttl).
		AddGrant(&auth.VideoGrant{
			RoomJoin:     true,
			Room:         req.Room,
			CanPublish:   &canPublish,
			CanSubscribe: &canSubscribe,
		}).
		ToJWT()
}
