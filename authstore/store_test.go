package authstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oauthkit/claimauth/authority"
	"github.com/oauthkit/claimauth/claims"
)

type fakeStore struct {
	grants map[string]authority.Set
	err    error
	calls  []string
}

func (f *fakeStore) Lookup(_ context.Context, identity string) (authority.Set, error) {
	f.calls = append(f.calls, identity)
	if f.err != nil {
		return nil, f.err
	}
	set, ok := f.grants[identity]
	if !ok {
		return authority.Set{}, nil
	}
	return set.Copy(), nil
}

func claimSet(t *testing.T, extra map[string]any) *claims.ClaimSet {
	t.Helper()
	now := time.Now()
	raw := map[string]any{
		"sub": "user-123",
		"iss": "https://issuer.example",
		"exp": float64(now.Add(time.Hour).Unix()),
	}
	for k, v := range extra {
		raw[k] = v
	}
	cs, err := claims.FromMap(raw, now)
	if err != nil {
		t.Fatalf("FromMap: %v", err)
	}
	return cs
}

func TestConverter_LooksUpBySubject(t *testing.T) {
	store := &fakeStore{grants: map[string]authority.Set{
		"user-123": authority.NewSet("message:read", "ACTUATOR"),
	}}
	got, err := NewConverter(store).Convert(context.Background(), claimSet(t, nil))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !got.Equal(authority.NewSet("message:read", "ACTUATOR")) {
		t.Fatalf("got %v", got.Slice())
	}
	if len(store.calls) != 1 || store.calls[0] != "user-123" {
		t.Fatalf("lookup calls = %v", store.calls)
	}
}

func TestConverter_UnknownIdentityYieldsEmptySet(t *testing.T) {
	store := &fakeStore{}
	got, err := NewConverter(store).Convert(context.Background(), claimSet(t, nil))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if got.Len() != 0 {
		t.Fatalf("got %v, want empty", got.Slice())
	}
}

func TestConverter_StoreFailurePropagates(t *testing.T) {
	store := &fakeStore{err: ErrUnavailable}
	set, err := NewConverter(store).Convert(context.Background(), claimSet(t, nil))
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	if set != nil {
		t.Fatal("failure must not come with a set")
	}
}

func TestConverter_NoCachingBetweenCalls(t *testing.T) {
	store := &fakeStore{grants: map[string]authority.Set{
		"user-123": authority.NewSet("a"),
	}}
	conv := NewConverter(store)
	cs := claimSet(t, nil)
	ctx := context.Background()

	if _, err := conv.Convert(ctx, cs); err != nil {
		t.Fatalf("Convert: %v", err)
	}
	// A revocation in the store must be visible on the very next call.
	store.grants["user-123"] = authority.Set{}
	got, err := conv.Convert(ctx, cs)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if got.Len() != 0 {
		t.Fatalf("got %v after revocation", got.Slice())
	}
	if len(store.calls) != 2 {
		t.Fatalf("lookup calls = %d, want 2", len(store.calls))
	}
}

func TestConverter_CustomIdentity(t *testing.T) {
	store := &fakeStore{grants: map[string]authority.Set{
		"tenant-9": authority.NewSet("x"),
	}}
	conv := NewConverter(store, WithIdentity(func(cs *claims.ClaimSet) string {
		id, _ := cs.StringClaim("tid")
		return id
	}))
	got, err := conv.Convert(context.Background(), claimSet(t, map[string]any{"tid": "tenant-9"}))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !got.Equal(authority.NewSet("x")) {
		t.Fatalf("got %v", got.Slice())
	}
}

func TestSubjectOrClientID(t *testing.T) {
	cs := claimSet(t, map[string]any{"client_id": "svc-billing"})
	if got := SubjectOrClientID(cs); got != "user-123" {
		t.Fatalf("got %q, want subject", got)
	}
}
