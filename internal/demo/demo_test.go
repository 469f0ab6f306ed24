package demo

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/tidwall/gjson"

	"github.com/nghyane/mux-console/internal/adminapi"
)

func startStub(t *testing.T) *Server {
	t.Helper()
	s, err := Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func stubClient(t *testing.T, s *Server, token string) *adminapi.Client {
	t.Helper()
	c, err := adminapi.New(adminapi.Options{BaseURL: s.BaseURL(), Token: token})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestStubServesParsedUsage(t *testing.T) {
	s := startStub(t)
	c := stubClient(t, s, Token)

	const windowMs = int64(6 * 3600 * 1000)
	u, err := c.Usage(context.Background(), windowMs)
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}

	if u.Totals.RequestCount != 4182 {
		t.Errorf("totals.requestCount = %d, want 4182", u.Totals.RequestCount)
	}
	if u.WindowMs != windowMs {
		t.Errorf("windowMs = %d, want %d", u.WindowMs, windowMs)
	}
	if len(u.ByProvider) != 3 {
		t.Errorf("byProvider has %d entries, want 3", len(u.ByProvider))
	}
	if len(u.Buckets) != 24 {
		t.Fatalf("buckets has %d entries, want 24", len(u.Buckets))
	}

	// The last bucket must close out at roughly the request time.
	end := u.Buckets[len(u.Buckets)-1].BucketStart + u.BucketSizeMs
	drift := time.Now().UnixMilli() - end
	if drift < 0 {
		drift = -drift
	}
	if drift > 2*60_000 {
		t.Errorf("bucket span ends %dms away from now", drift)
	}
	span := u.Buckets[len(u.Buckets)-1].BucketStart - u.Buckets[0].BucketStart
	if want := 23 * u.BucketSizeMs; span != want {
		t.Errorf("bucket span = %dms, want %dms", span, want)
	}
}

func TestStubListsAccountsAndKeys(t *testing.T) {
	s := startStub(t)
	c := stubClient(t, s, Token)
	now := time.Now().UnixMilli()

	accounts, err := c.Accounts(context.Background())
	if err != nil {
		t.Fatalf("Accounts: %v", err)
	}
	if len(accounts) != 3 {
		t.Fatalf("got %d accounts, want 3", len(accounts))
	}
	if accounts[0].ExpiresAt == nil || *accounts[0].ExpiresAt <= now {
		t.Error("first account should expire in the future")
	}
	if !accounts[2].Disabled {
		t.Error("third account should be disabled")
	}

	keys, err := c.Keys(context.Background())
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 3 {
		t.Fatalf("got %d keys, want 3", len(keys))
	}
	if keys[0].LastUsedAt == nil || *keys[0].LastUsedAt >= now {
		t.Error("first key should have been used in the past")
	}
}

func TestStubScopedUsage(t *testing.T) {
	s := startStub(t)
	c := stubClient(t, s, Token)

	u, err := c.KeyUsage(context.Background(), "key-demo-1", 0)
	if err != nil {
		t.Fatalf("KeyUsage: %v", err)
	}
	if u.Totals.RequestCount != 1486 {
		t.Errorf("scoped requestCount = %d, want 1486", u.Totals.RequestCount)
	}

	_, err = c.KeyUsage(context.Background(), "no-such-key", 0)
	var se *adminapi.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusNotFound {
		t.Errorf("unknown key should 404, got %v", err)
	}
}

func TestStubRequiresToken(t *testing.T) {
	s := startStub(t)
	c := stubClient(t, s, "wrong-token")

	_, err := c.Usage(context.Background(), 0)
	if !adminapi.IsUnauthorized(err) {
		t.Errorf("wrong token should be unauthorized, got %v", err)
	}

	// Health stays open so probes work before auth is configured.
	if err := c.Health(context.Background()); err != nil {
		t.Errorf("Health: %v", err)
	}
}

func TestRefreshTimestamps(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	doc := []byte(`{"keys":[{"id":"k","createdAt":-60000,"lastUsedAt":1767225600000}],"expiresAt":3600000}`)

	out := refreshTimestamps(doc, now)

	if got := gjson.GetBytes(out, "keys.0.createdAt").Int(); got != now.UnixMilli()-60000 {
		t.Errorf("createdAt = %d, want %d", got, now.UnixMilli()-60000)
	}
	if got := gjson.GetBytes(out, "expiresAt").Int(); got != now.UnixMilli()+3600000 {
		t.Errorf("expiresAt = %d, want %d", got, now.UnixMilli()+3600000)
	}
	// Absolute epochs pass through untouched.
	if got := gjson.GetBytes(out, "keys.0.lastUsedAt").Int(); got != 1767225600000 {
		t.Errorf("lastUsedAt = %d, want unchanged", got)
	}
}

func TestFixturesStandardize(t *testing.T) {
	fx, err := loadFixtures()
	if err != nil {
		t.Fatalf("loadFixtures: %v", err)
	}
	for name, doc := range map[string][]byte{
		"usage":        fx.usage,
		"scoped_usage": fx.scoped,
		"accounts":     fx.accounts,
		"keys":         fx.keys,
	} {
		if !gjson.ValidBytes(doc) {
			t.Errorf("fixture %s did not standardize to valid JSON", name)
		}
	}
	for _, id := range []string{"acc-demo-1", "key-demo-1", "key-demo-3"} {
		if !fx.ids[id] {
			t.Errorf("fixture ids missing %s", id)
		}
	}
}
