package httputil

import (
	"errors"
	"testing"
	"time"
)

func TestCache_GetSet(t *testing.T) {
	c, err := NewCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewCache() failed: %v", err)
	}

	in := map[string]string{"name": "lodash", "version": "4.17.21"}
	if err := c.Set("npm:lodash", in); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	out := map[string]string{}
	ok, err := c.Get("npm:lodash", &out)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if !ok {
		t.Fatal("Get() returned false for existing key")
	}
	if out["version"] != "4.17.21" {
		t.Errorf("version = %q, want %q", out["version"], "4.17.21")
	}
}

func TestCache_Miss(t *testing.T) {
	c, _ := NewCache(t.TempDir(), time.Hour)
	var result string
	ok, err := c.Get("missing", &result)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("Get() returned true for missing key")
	}
}

func TestCache_Expiry(t *testing.T) {
	c, _ := NewCache(t.TempDir(), time.Nanosecond)
	if err := c.Set("key", "value"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	var result string
	ok, err := c.Get("key", &result)
	if ok {
		t.Error("Get() returned true for expired entry")
	}
	if !errors.Is(err, ErrExpired) {
		t.Errorf("Get() error = %v, want ErrExpired", err)
	}
}

func TestCache_NoExpiryWithZeroTTL(t *testing.T) {
	c, _ := NewCache(t.TempDir(), 0)
	if err := c.Set("key", "value"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	var result string
	ok, err := c.Get("key", &result)
	if err != nil || !ok {
		t.Fatalf("Get() = (%v, %v), want hit", ok, err)
	}
	if result != "value" {
		t.Errorf("result = %q, want %q", result, "value")
	}
}

func TestCache_Namespace(t *testing.T) {
	c, _ := NewCache(t.TempDir(), time.Hour)
	npm := c.Namespace("npm:")

	if err := npm.Set("react", "18.2.0"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	// Same logical key via the parent with an explicit prefix.
	var result string
	ok, err := c.Get("npm:react", &result)
	if err != nil || !ok {
		t.Fatalf("Get() = (%v, %v), want hit", ok, err)
	}

	// Un-prefixed key on the parent must not collide.
	ok, _ = c.Get("react", &result)
	if ok {
		t.Error("un-namespaced key unexpectedly present")
	}
}
