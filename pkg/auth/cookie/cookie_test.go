package cookie

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func findCookie(t *testing.T, cookies []*http.Cookie, name string) *http.Cookie {
	t.Helper()
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func TestWritePair_DevelopmentAttributes(t *testing.T) {
	jar := Jar{MaxAge: 720 * time.Hour}
	rec := httptest.NewRecorder()

	jar.WritePair(rec, "acc", "ref")

	cookies := rec.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("got %d cookies, want 2", len(cookies))
	}

	for _, name := range []string{AccessName, RefreshName} {
		c := findCookie(t, cookies, name)
		if !c.HttpOnly {
			t.Errorf("%s: HttpOnly = false, want true", name)
		}
		if c.Path != "/" {
			t.Errorf("%s: Path = %q, want /", name, c.Path)
		}
		if c.SameSite != http.SameSiteLaxMode {
			t.Errorf("%s: SameSite = %v, want Lax", name, c.SameSite)
		}
		if c.Secure {
			t.Errorf("%s: Secure = true in development", name)
		}
		if c.Domain != "" {
			t.Errorf("%s: Domain = %q in development, want empty", name, c.Domain)
		}
		if c.MaxAge != int((720 * time.Hour).Seconds()) {
			t.Errorf("%s: MaxAge = %d, want %d", name, c.MaxAge, int((720*time.Hour).Seconds()))
		}
	}

	if findCookie(t, cookies, AccessName).Value != "acc" {
		t.Error("access cookie value mismatch")
	}
	if findCookie(t, cookies, RefreshName).Value != "ref" {
		t.Error("refresh cookie value mismatch")
	}
}

func TestWritePair_ProductionAttributes(t *testing.T) {
	jar := Jar{Production: true, Domain: "example.com", MaxAge: time.Hour}
	rec := httptest.NewRecorder()

	jar.WritePair(rec, "acc", "ref")

	for _, c := range rec.Result().Cookies() {
		if !c.Secure {
			t.Errorf("%s: Secure = false in production", c.Name)
		}
		if c.Domain != "example.com" {
			t.Errorf("%s: Domain = %q, want example.com", c.Name, c.Domain)
		}
	}
}

func TestWriteAccess_LeavesRefreshUntouched(t *testing.T) {
	jar := Jar{MaxAge: time.Hour}
	rec := httptest.NewRecorder()

	jar.WriteAccess(rec, "fresh")

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}
	if cookies[0].Name != AccessName {
		t.Errorf("cookie name = %q, want %q", cookies[0].Name, AccessName)
	}
}

func TestClear_ExpiresBoth(t *testing.T) {
	jar := Jar{MaxAge: time.Hour}
	rec := httptest.NewRecorder()

	jar.Clear(rec)

	cookies := rec.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("got %d cookies, want 2", len(cookies))
	}
	for _, c := range cookies {
		if c.MaxAge >= 0 {
			t.Errorf("%s: MaxAge = %d, want negative", c.Name, c.MaxAge)
		}
		if c.Value != "" {
			t.Errorf("%s: Value = %q, want empty", c.Name, c.Value)
		}
	}
}

func TestRead(t *testing.T) {
	jar := Jar{}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: AccessName, Value: "a"})
	r.AddCookie(&http.Cookie{Name: RefreshName, Value: "r"})

	access, refresh := jar.Read(r)
	if access != "a" || refresh != "r" {
		t.Errorf("Read = (%q, %q), want (a, r)", access, refresh)
	}

	empty := httptest.NewRequest(http.MethodGet, "/", nil)
	access, refresh = jar.Read(empty)
	if access != "" || refresh != "" {
		t.Errorf("Read on empty request = (%q, %q), want empty", access, refresh)
	}
}
