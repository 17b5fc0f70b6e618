package livekit

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/livekit/protocol/auth"
)

// verifiedClaims checks the HS256 signature with secret and returns the body.
func verifiedClaims(t *testing.T, token, secret string) jwt.MapClaims {
	t.Helper()
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	return claims
}

func TestMint(t *testing.T) {
	issuer := NewIssuer("wss://lk.example", "APIkey", "secret", time.Hour)

	token, err := issuer.Mint(TokenRequest{Identity: "EMP7", Name: "Eve", Room: "monitor-EMP7", CanPublish: true})
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	v, err := auth.ParseAPIToken(token)
	if err != nil {
		t.Fatalf("ParseAPIToken: %v", err)
	}
	if v.APIKey() != "APIkey" || v.Identity() != "EMP7" {
		t.Errorf("key = %q, identity = %q", v.APIKey(), v.Identity())
	}

	claims := verifiedClaims(t, token, "secret")
	if claims["name"] != "Eve" {
		t.Errorf("name = %v", claims["name"])
	}
	video, ok := claims["video"].(map[string]interface{})
	if !ok {
		t.Fatalf("video grant = %v", claims["video"])
	}
	if video["roomJoin"] != true || video["room"] != "monitor-EMP7" {
		t.Errorf("video grant = %v", video)
	}
	if video["canPublish"] != true || video["canSubscribe"] != true {
		t.Errorf("publish/subscribe = %v/%v", video["canPublish"], video["canSubscribe"])
	}

	nbf, _ := claims.GetNotBefore()
	exp, _ := claims.GetExpirationTime()
	if nbf == nil || exp == nil {
		t.Fatalf("nbf = %v, exp = %v", nbf, exp)
	}
	// nbf and exp are stamped from separate clock reads
	if d := exp.Sub(nbf.Time); d < time.Hour || d > time.Hour+time.Second {
		t.Errorf("validity = %v, want one hour", d)
	}
}

func TestMintViewerCannotPublish(t *testing.T) {
	token, err := NewIssuer("", "key", "secret", time.Minute).Mint(TokenRequest{Identity: "admin-1", Room: "r"})
	if err != nil {
		t.Fatal(err)
	}
	video, _ := verifiedClaims(t, token, "secret")["video"].(map[string]interface{})
	if video["canPublish"] != false {
		t.Errorf("canPublish = %v, want false", video["canPublish"])
	}
}

func TestMintSignsWithSecret(t *testing.T) {
	token, err := NewIssuer("", "key", "secret", time.Hour).Mint(TokenRequest{Identity: "a", Room: "r"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = jwt.Parse(token, func(*jwt.Token) (interface{}, error) {
		return []byte("different"), nil
	})
	if !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
		t.Errorf("err = %v, want signature error", err)
	}
}

func TestMintValidation(t *testing.T) {
	if _, err := NewIssuer("", "", "", time.Hour).Mint(TokenRequest{Identity: "a", Room: "r"}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
	if _, err := NewIssuer("", "k", "s", time.Hour).Mint(TokenRequest{Identity: "a"}); !errors.Is(err, ErrMissingIdentity) {
		t.Errorf("err = %v, want ErrMissingIdentity", err)
	}
}
