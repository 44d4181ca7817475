package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/pforte-dev/pforte/pkg/auth"
)

func testCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := New(Config{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    30 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("creating codec: %v", err)
	}
	return c
}

func testPrincipal() auth.Principal {
	return auth.Principal{
		ID:       "u-1",
		Role:     "admin",
		FullName: "Ada Admin",
		Username: "ada",
		Email:    "ada@example.com",
		Gender:   "female",
		Location: "Berlin",
	}
}

func TestIssueVerify_Roundtrip(t *testing.T) {
	c := testCodec(t)

	for _, kind := range []Kind{Access, Refresh} {
		tok, err := c.Issue(kind, testPrincipal())
		if err != nil {
			t.Fatalf("Issue(%s) error: %v", kind, err)
		}

		p, err := c.Verify(kind, tok)
		if err != nil {
			t.Fatalf("Verify(%s) error: %v", kind, err)
		}
		if *p != testPrincipal() {
			t.Errorf("Verify(%s) principal = %+v, want %+v", kind, *p, testPrincipal())
		}
	}
}

func TestVerify_KindsUseSeparateSecrets(t *testing.T) {
	c := testCodec(t)

	accessTok, err := c.Issue(Access, testPrincipal())
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	// An access token must not verify as a refresh token.
	if _, err := c.Verify(Refresh, accessTok); !errors.Is(err, ErrInvalid) {
		t.Errorf("Verify(Refresh, accessToken) error = %v, want ErrInvalid", err)
	}
}

func TestVerify_Expired(t *testing.T) {
	c := testCodec(t)

	tok, err := c.Issue(Access, testPrincipal())
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	// Move the clock past the access TTL.
	c.now = func() time.Time { return time.Now().Add(16 * time.Minute) }

	if _, err := c.Verify(Access, tok); !errors.Is(err, ErrInvalid) {
		t.Errorf("Verify(expired) error = %v, want ErrInvalid", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	c := testCodec(t)

	cases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"truncated", "eyJhbGciOiJIUzI1NiJ9"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := c.Verify(Access, tc.token); !errors.Is(err, ErrInvalid) {
				t.Errorf("Verify(%q) error = %v, want ErrInvalid", tc.token, err)
			}
		})
	}
}

func TestVerify_TamperedSignature(t *testing.T) {
	c := testCodec(t)

	tok, err := c.Issue(Access, testPrincipal())
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	parts := strings.Split(tok, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	if _, err := c.Verify(Access, tampered); !errors.Is(err, ErrInvalid) {
		t.Errorf("Verify(tampered) error = %v, want ErrInvalid", err)
	}
}

func TestVerify_RejectsUnsignedAlgorithm(t *testing.T) {
	c := testCodec(t)

	// A token claiming alg=none must never verify.
	unsigned := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, claims{
		Principal: testPrincipal(),
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	tok, err := unsigned.SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing unsigned token: %v", err)
	}

	if _, err := c.Verify(Access, tok); !errors.Is(err, ErrInvalid) {
		t.Errorf("Verify(alg=none) error = %v, want ErrInvalid", err)
	}
}

func TestIssue_RequiresPrincipalID(t *testing.T) {
	c := testCodec(t)

	if _, err := c.Issue(Access, auth.Principal{}); err == nil {
		t.Error("Issue with empty principal ID succeeded, want error")
	}
}

func TestNew_RequiresSecrets(t *testing.T) {
	if _, err := New(Config{AccessSecret: []byte("a")}); err == nil {
		t.Error("New without refresh secret succeeded, want error")
	}
	if _, err := New(Config{RefreshSecret: []byte("r")}); err == nil {
		t.Error("New without access secret succeeded, want error")
	}
}

func TestTTL(t *testing.T) {
	c := testCodec(t)

	if got := c.TTL(Access); got != 15*time.Minute {
		t.Errorf("TTL(Access) = %v, want 15m", got)
	}
	if got := c.TTL(Refresh); got != 30*24*time.Hour {
		t.Errorf("TTL(Refresh) = %v, want 720h", got)
	}
}
