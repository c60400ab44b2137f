package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestOptionDefaults(t *testing.T) {
	c := New(Options{Addr: "localhost:6379"})
	if c.prefix != "flaps" {
		t.Errorf("prefix = %q, want flaps", c.prefix)
	}
	if c.ttl != DefaultTTL {
		t.Errorf("ttl = %v, want %v", c.ttl, DefaultTTL)
	}
}

func TestOptionOverrides(t *testing.T) {
	c := New(Options{Addr: "localhost:6379", Prefix: "myapp", TTL: 5 * time.Minute})
	if c.prefix != "myapp" {
		t.Errorf("prefix = %q, want myapp", c.prefix)
	}
	if c.ttl != 5*time.Minute {
		t.Errorf("ttl = %v, want 5m", c.ttl)
	}
}

func TestKeyFormats(t *testing.T) {
	c := New(Options{Addr: "localhost:6379"})
	projectID := uuid.New()

	wantKey := fmt.Sprintf("flaps:flags:%s:production", projectID)
	if got := c.flagsKey(projectID, "production"); got != wantKey {
		t.Errorf("flagsKey = %q, want %q", got, wantKey)
	}

	wantPattern := fmt.Sprintf("flaps:flags:%s:*", projectID)
	if got := c.projectPattern(projectID); got != wantPattern {
		t.Errorf("projectPattern = %q, want %q", got, wantPattern)
	}
}
