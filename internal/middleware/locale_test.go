package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func runLocale(t *testing.T, mutate func(*http.Request), lookup CountryLookup) (string, string) {
	t.Helper()
	var locale, country string
	handler := Locale("en", lookup)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale = LocaleFromContext(r.Context())
		country = CountryFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if mutate != nil {
		mutate(req)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)
	return locale, country
}

func TestLocaleHeaderWins(t *testing.T) {
	locale, _ := runLocale(t, func(r *http.Request) {
		r.Header.Set("X-Locale", "hi-IN")
		r.Header.Set("Accept-Language", "en-US")
	}, nil)
	if locale != "hi" {
		t.Fatalf("locale = %q, want hi", locale)
	}
}

func TestLocaleFromAcceptLanguage(t *testing.T) {
	locale, country := runLocale(t, func(r *http.Request) {
		r.Header.Set("Accept-Language", "hi-IN,hi;q=0.9,en;q=0.8")
	}, nil)
	if locale != "hi" {
		t.Fatalf("locale = %q, want hi", locale)
	}
	if country != "IN" {
		t.Fatalf("country = %q, want IN", country)
	}
}

func TestLocaleDefaultsToEnglish(t *testing.T) {
	locale, country := runLocale(t, nil, nil)
	if locale != "en" {
		t.Fatalf("locale = %q, want en", locale)
	}
	if country != "" {
		t.Fatalf("country = %q, want empty", country)
	}
}

func TestLocaleUsesGeoIPLookup(t *testing.T) {
	lookup := func(ip string) (string, error) { return "in", nil }
	locale, country := runLocale(t, func(r *http.Request) {
		r.RemoteAddr = "203.0.113.10:1234"
	}, lookup)
	if country != "IN" {
		t.Fatalf("country = %q, want IN", country)
	}
	if locale != "hi" {
		t.Fatalf("locale = %q, want hi for country IN", locale)
	}
}

func TestLocaleIgnoresInvalidAcceptLanguage(t *testing.T) {
	locale, _ := runLocale(t, func(r *http.Request) {
		r.Header.Set("Accept-Language", ";;;")
	}, nil)
	if locale != "en" {
		t.Fatalf("locale = %q, want en", locale)
	}
}

func TestLocaleFromContextFallback(t *testing.T) {
	if got := LocaleFromContext(context.Background()); got != "en" {
		t.Fatalf("locale = %q, want en", got)
	}
}
