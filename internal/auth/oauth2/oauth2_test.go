package oauth2

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type tokenResp struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in,omitempty"`
}

func tokenServer(t *testing.T, wantGrant string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != wantGrant {
			http.Error(w, "unexpected grant "+got, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(tokenResp{AccessToken: "t-" + wantGrant, TokenType: "bearer", ExpiresIn: 3600})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientCredentials_Success(t *testing.T) {
	srv := tokenServer(t, "client_credentials")
	m, err := Config{
		GrantType: "client_credentials",
		GrantConfig: map[string]interface{}{
			"client_id":     "svc",
			"client_secret": "secret",
			"token_url":     srv.URL + "/token",
		},
	}.GrantMethod()
	if err != nil {
		t.Fatalf("grant method: %v", err)
	}
	h, v, err := m.Acquire(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h != "Authorization" || v != "Bearer t-client_credentials" {
		t.Fatalf("got %s: %s", h, v)
	}
}

func TestPassword_Success(t *testing.T) {
	srv := tokenServer(t, "password")
	m := passwordMethod{c: PasswordConfig{
		Header:   "X-Token",
		ClientID: "cli",
		TokenURL: srv.URL + "/token",
		Username: "alice",
		Password: "pw",
	}}
	h, v, err := m.Acquire(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h != "X-Token" || v != "Bearer t-password" {
		t.Fatalf("got %s: %s", h, v)
	}
}

func TestValidationErrors(t *testing.T) {
	if _, _, err := (clientCredentialsMethod{}).Acquire(context.Background()); err == nil {
		t.Fatal("expected error for missing client_credentials fields")
	}
	if _, _, err := (passwordMethod{c: PasswordConfig{TokenURL: "http://x"}}).Acquire(context.Background()); err == nil {
		t.Fatal("expected error for missing password fields")
	}
}

func TestGrantMethod_Errors(t *testing.T) {
	cases := []Config{
		{},
		{GrantType: "password"},
		{GrantType: "implicit", GrantConfig: map[string]interface{}{}},
	}
	for _, c := range cases {
		if _, err := c.GrantMethod(); err == nil {
			t.Fatalf("expected error for %+v", c)
		}
	}
}

func TestTokenEndpointFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()
	m := clientCredentialsMethod{c: ClientCredentialsConfig{ClientID: "a", ClientSec: "b", TokenURL: srv.URL}}
	if _, _, err := m.Acquire(context.Background()); err == nil {
		t.Fatal("expected error from failing token endpoint")
	}
}
