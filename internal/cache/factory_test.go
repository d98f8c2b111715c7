package cache

import (
	"testing"
	"time"
)

func TestFactory_New_Disabled(t *testing.T) {
	for _, name := range []string{"", ProviderNone} {
		c, err := New(Options{Provider: name, TTL: time.Hour})
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		if c != nil {
			t.Fatalf("New(%q) should return a nil cache", name)
		}
	}
}

func TestFactory_New_UnknownProvider(t *testing.T) {
	for _, name := range []string{"nonexistent", "memory"} {
		if _, err := New(Options{Provider: name}); err == nil {
			t.Errorf("Expected error for unknown provider %q", name)
		}
	}
}

func TestFactory_New_DiskNeedsDir(t *testing.T) {
	if _, err := New(Options{Provider: ProviderDisk, TTL: time.Hour}); err == nil {
		t.Fatal("Expected error for a disk cache without a directory")
	}
}

func TestFactory_New_Redis_InvalidAddress(t *testing.T) {
	_, err := New(Options{
		Provider:     ProviderRedis,
		TTL:          time.Hour,
		RedisAddress: "localhost:59999", // unlikely to have Redis here
	})
	if err == nil {
		t.Fatal("Expected error when connecting to invalid Redis address")
	}
}
