package basic

import (
	"context"
	"testing"
)

func TestAcquire(t *testing.T) {
	h, v, err := Config{Username: " user ", Password: "pass"}.Acquire(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h != "Authorization" || v != "Basic dXNlcjpwYXNz" {
		t.Fatalf("got %s: %s", h, v)
	}

	h, _, _ = Config{Header: "X-Proxy-Auth", Username: "u", Password: "p"}.Acquire(context.Background())
	if h != "X-Proxy-Auth" {
		t.Fatalf("header = %s", h)
	}
}

func TestAcquire_MissingFields(t *testing.T) {
	for _, c := range []Config{{}, {Username: "u"}, {Password: "p"}, {Username: " ", Password: " "}} {
		if _, _, err := c.Acquire(context.Background()); err == nil {
			t.Fatalf("expected error for %+v", c)
		}
	}
}
