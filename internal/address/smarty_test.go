package address

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestSmarty(t *testing.T, handler http.HandlerFunc) *SmartyClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewSmartyClient(SmartyConfig{
		AuthID:    "id",
		AuthToken: "token",
		BaseURL:   srv.URL,
	}, nil)
	if client == nil {
		t.Fatal("client not constructed")
	}
	return client
}

func TestSmartyVerifyMatch(t *testing.T) {
	client := newTestSmarty(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("auth-id") != "id" || q.Get("auth-token") != "token" {
			t.Errorf("credentials missing from query: %v", q)
		}
		if q.Get("street") != "1245 hayes street" || q.Get("zipcode") != "94117" {
			t.Errorf("address params missing: %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"components": {
			"primary_number": "1245",
			"street_name": "Hayes",
			"street_suffix": "St",
			"city_name": "San Francisco",
			"state_abbreviation": "CA",
			"zipcode": "94117"
		}}]`))
	})

	got, err := client.Verify(context.Background(), "1245 hayes street", "san francisco", "CA", "94117")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got == nil {
		t.Fatal("expected a match")
	}
	if got.Street != "1245 Hayes St" || got.City != "San Francisco" || got.State != "CA" || got.Zip != "94117" {
		t.Errorf("unexpected verified address: %+v", got)
	}
}

func TestSmartyVerifyNoMatch(t *testing.T) {
	client := newTestSmarty(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	got, err := client.Verify(context.Background(), "1 Nowhere Rd", "", "", "")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got != nil {
		t.Errorf("expected no match, got %+v", got)
	}
}

func TestSmartyVerifyServerError(t *testing.T) {
	client := newTestSmarty(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	if _, err := client.Verify(context.Background(), "x", "", "", ""); err == nil {
		t.Error("server error not surfaced")
	}
}

func TestSmartyVerifyMalformedBody(t *testing.T) {
	client := newTestSmarty(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	})

	if _, err := client.Verify(context.Background(), "x", "", "", ""); err == nil {
		t.Error("malformed body not surfaced")
	}
}

func TestNewSmartyClientRequiresCredentials(t *testing.T) {
	if NewSmartyClient(SmartyConfig{}, nil) != nil {
		t.Error("client constructed without credentials")
	}
}
