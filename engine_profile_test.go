package goSession

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestGetMeOmitsPasswordHash(t *testing.T) {
	env := newTestEnv(t)
	first := "Ada"
	_, err := env.engine.CreateAccount(context.Background(), CreateAccountRequest{
		Email:     "a@x.io",
		Password:  "p4ssword",
		FirstName: &first,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := env.userID(t, "a@x.io")

	user, err := env.engine.GetMe(context.Background(), id)
	if err != nil {
		t.Fatalf("GetMe: %v", err)
	}
	if user.ID != id || user.Email != "a@x.io" || user.FirstName == nil || *user.FirstName != "Ada" {
		t.Fatalf("unexpected user %+v", user)
	}

	raw, err := json.Marshal(user)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), "argon2id") || strings.Contains(strings.ToLower(string(raw)), "password") {
		t.Fatalf("user JSON leaks credential material: %s", raw)
	}
}

func TestGetMeUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.engine.GetMe(context.Background(), "999"); !errors.Is(err, ErrServer) {
		t.Fatalf("expected ErrServer, got %v", err)
	}
}

func TestOwnerCheck(t *testing.T) {
	env := newTestEnv(t)
	env.createAccount(t, "a@x.io", "p4ssword")
	env.createAccount(t, "b@x.io", "p4ssword")
	a, b := env.userID(t, "a@x.io"), env.userID(t, "b@x.io")
	env.store.resources["post-1"] = a

	tests := []struct {
		name     string
		resource string
		claimed  string
		want     bool
	}{
		{"owner", "post-1", a, true},
		{"other user", "post-1", b, false},
		{"missing resource", "post-404", a, false},
		{"empty claim", "post-1", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := env.engine.OwnerCheck(context.Background(), tt.resource, tt.claimed); got != tt.want {
				t.Fatalf("OwnerCheck(%q, %q) = %v, want %v", tt.resource, tt.claimed, got, tt.want)
			}
		})
	}
}

func TestOwnerCheckStoreFailure(t *testing.T) {
	env := newTestEnv(t)
	env.createAccount(t, "a@x.io", "p4ssword")
	a := env.userID(t, "a@x.io")
	env.store.resources["post-1"] = a
	env.store.failAll = true

	if env.engine.OwnerCheck(context.Background(), "post-1", a) {
		t.Fatal("expected false when the store fails")
	}
}
