package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSignVerify_Roundtrip(t *testing.T) {
	v := NewJWTVerifier("secret")

	token, err := v.Sign("user-42", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	uid, err := v.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if uid != "user-42" {
		t.Fatalf("expected user-42, got %q", uid)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	token, err := NewJWTVerifier("secret-a").Sign("user-1", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewJWTVerifier("secret-b").Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerify_Expired(t *testing.T) {
	v := NewJWTVerifier("secret")
	token, err := v.Sign("user-1", -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := v.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerify_Garbage(t *testing.T) {
	v := NewJWTVerifier("secret")
	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := v.Verify(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("token %q: expected ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestVerify_RejectsUnsignedAlgorithm(t *testing.T) {
	claims := &Claims{UserID: "user-1", RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := NewJWTVerifier("secret").Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for alg=none, got %v", err)
	}
}

func TestVerify_EmptySubject(t *testing.T) {
	v := NewJWTVerifier("secret")
	token, err := v.Sign("", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := v.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for empty subject, got %v", err)
	}
}

func TestFromAuthorizationHeader(t *testing.T) {
	cases := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"bearer abc", "abc", true},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"abc", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := FromAuthorizationHeader(tc.header)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("header %q: got (%q, %v), want (%q, %v)", tc.header, got, ok, tc.want, tc.ok)
		}
	}
}
