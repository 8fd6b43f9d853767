package claims

import (
	"errors"
	"testing"
	"time"
)

func validRaw(now time.Time) map[string]any {
	return map[string]any{
		"sub": "user-123",
		"iss": "https://issuer.example",
		"exp": float64(now.Add(time.Hour).Unix()),
	}
}

func TestFromMap_HappyPath(t *testing.T) {
	now := time.Now()
	raw := validRaw(now)
	raw["iat"] = float64(now.Unix())
	raw["scope"] = "message:read message:write"

	cs, err := FromMap(raw, now)
	if err != nil {
		t.Fatalf("FromMap: %v", err)
	}
	if got := cs.Subject(); got != "user-123" {
		t.Errorf("subject = %q", got)
	}
	if got := cs.Issuer(); got != "https://issuer.example" {
		t.Errorf("issuer = %q", got)
	}
	if iat, ok := cs.IssuedAt(); !ok || iat.Unix() != now.Unix() {
		t.Errorf("issuedAt = %v, %v", iat, ok)
	}
	if !cs.HasScope("message:read") || !cs.HasScope("message:write") {
		t.Errorf("scope = %v", cs.Scope())
	}
	if cs.HasScope("other") {
		t.Error("unexpected scope membership")
	}
}

func TestFromMap_MissingSubject(t *testing.T) {
	now := time.Now()
	raw := validRaw(now)
	delete(raw, "sub")
	if _, err := FromMap(raw, now); !errors.Is(err, ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
}

func TestFromMap_EmptySubject(t *testing.T) {
	now := time.Now()
	raw := validRaw(now)
	raw["sub"] = ""
	if _, err := FromMap(raw, now); !errors.Is(err, ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
}

func TestFromMap_MissingIssuer(t *testing.T) {
	now := time.Now()
	raw := validRaw(now)
	delete(raw, "iss")
	if _, err := FromMap(raw, now); !errors.Is(err, ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
}

func TestFromMap_MissingExpiry(t *testing.T) {
	now := time.Now()
	raw := validRaw(now)
	delete(raw, "exp")
	if _, err := FromMap(raw, now); !errors.Is(err, ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
}

func TestFromMap_NonNumericExpiry(t *testing.T) {
	now := time.Now()
	raw := validRaw(now)
	raw["exp"] = "not-a-number"
	if _, err := FromMap(raw, now); !errors.Is(err, ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
}

func TestFromMap_Expired(t *testing.T) {
	now := time.Now()
	raw := validRaw(now)
	raw["exp"] = float64(now.Add(-time.Minute).Unix())
	// Other claim content must not rescue an expired token.
	raw["scope"] = "message"
	raw["authorities"] = "message:read"
	if _, err := FromMap(raw, now); !errors.Is(err, ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}
}

func TestFromMap_ExpiryBoundary(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	raw := validRaw(now)
	raw["exp"] = float64(now.Unix())
	if _, err := FromMap(raw, now); !errors.Is(err, ErrExpired) {
		t.Fatalf("exp == now should be expired, got %v", err)
	}
}

func TestFromMap_AbsentScopeIsEmpty(t *testing.T) {
	now := time.Now()
	cs, err := FromMap(validRaw(now), now)
	if err != nil {
		t.Fatalf("FromMap: %v", err)
	}
	if got := cs.Scope(); len(got) != 0 {
		t.Fatalf("scope = %v, want empty", got)
	}
}

func TestFromMap_ScopeWrongType(t *testing.T) {
	now := time.Now()
	raw := validRaw(now)
	raw["scope"] = []string{"message"}
	if _, err := FromMap(raw, now); !errors.Is(err, ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
}

func TestFromMap_ScopeOrderedAndDeduplicated(t *testing.T) {
	now := time.Now()
	raw := validRaw(now)
	raw["scope"] = "  b a b  c a "
	cs, err := FromMap(raw, now)
	if err != nil {
		t.Fatalf("FromMap: %v", err)
	}
	got := cs.Scope()
	want := []string{"b", "a", "c"}
	if len(got) != len(want) {
		t.Fatalf("scope = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("scope = %v, want %v", got, want)
		}
	}
}

func TestFromMap_ExpiryTypeCoercions(t *testing.T) {
	now := time.Now()
	exp := now.Add(time.Hour)
	for name, v := range map[string]any{
		"float64": float64(exp.Unix()),
		"int64":   exp.Unix(),
		"int":     int(exp.Unix()),
		"string":  "9999999999",
	} {
		raw := validRaw(now)
		raw["exp"] = v
		if _, err := FromMap(raw, now); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}

func TestClaimSet_Immutable(t *testing.T) {
	now := time.Now()
	raw := validRaw(now)
	raw["scope"] = "alpha"
	cs, err := FromMap(raw, now)
	if err != nil {
		t.Fatalf("FromMap: %v", err)
	}

	// Mutating the source map after construction must not be observable.
	raw["sub"] = "intruder"
	delete(raw, "iss")
	if cs.Subject() != "user-123" {
		t.Error("claim set observed source map mutation")
	}

	// Mutating a returned scope slice must not be observable either.
	sc := cs.Scope()
	sc[0] = "mutated"
	if !cs.HasScope("alpha") {
		t.Error("claim set observed scope slice mutation")
	}
}

func TestClaimSet_NestedValuesCopied(t *testing.T) {
	now := time.Now()
	raw := validRaw(now)
	raw["realm_access"] = map[string]any{"roles": []any{"admin"}}
	cs, err := FromMap(raw, now)
	if err != nil {
		t.Fatalf("FromMap: %v", err)
	}

	// Mutating nested values of the source map must not be observable.
	raw["realm_access"].(map[string]any)["roles"] = []any{"intruder"}

	v, ok := cs.Claim("realm_access")
	if !ok {
		t.Fatal("realm_access claim missing")
	}
	roles := v.(map[string]any)["roles"].([]any)
	if len(roles) != 1 || roles[0] != "admin" {
		t.Errorf("roles = %v, nested source mutation leaked in", roles)
	}
}

func TestClaimSet_ClaimsUnmarshal(t *testing.T) {
	now := time.Now()
	raw := validRaw(now)
	raw["preferred_username"] = "alice"
	cs, err := FromMap(raw, now)
	if err != nil {
		t.Fatalf("FromMap: %v", err)
	}
	var ref struct {
		Sub      string `json:"sub"`
		Username string `json:"preferred_username"`
	}
	if err := cs.Claims(&ref); err != nil {
		t.Fatalf("Claims: %v", err)
	}
	if ref.Sub != "user-123" || ref.Username != "alice" {
		t.Fatalf("ref = %+v", ref)
	}
}

func TestClaimSet_StringClaim(t *testing.T) {
	now := time.Now()
	raw := validRaw(now)
	raw["client_id"] = "svc-billing"
	raw["count"] = float64(3)
	cs, err := FromMap(raw, now)
	if err != nil {
		t.Fatalf("FromMap: %v", err)
	}
	if v, ok := cs.StringClaim("client_id"); !ok || v != "svc-billing" {
		t.Errorf("client_id = %q, %v", v, ok)
	}
	if _, ok := cs.StringClaim("count"); ok {
		t.Error("non-string claim should not satisfy StringClaim")
	}
	if _, ok := cs.StringClaim("absent"); ok {
		t.Error("absent claim should not satisfy StringClaim")
	}
}
