package jsonerd

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	// Heuristics defaults
	if config.Heuristics.DefaultCollectionName != "personal" {
		t.Errorf("Expected default collection to be 'personal', got %s", config.Heuristics.DefaultCollectionName)
	}
	if config.Heuristics.RefFlagSuffix != "_ref" {
		t.Errorf("Expected ref flag suffix to be '_ref', got %s", config.Heuristics.RefFlagSuffix)
	}
	if len(config.Heuristics.CollectionNouns) != len(DefaultCollectionNouns) {
		t.Errorf("Expected %d collection nouns, got %d", len(DefaultCollectionNouns), len(config.Heuristics.CollectionNouns))
	}

	// Server defaults
	if config.Server.Port != 8080 {
		t.Errorf("Expected server port to be 8080, got %d", config.Server.Port)
	}
	if config.Server.ReadTimeout != 15*time.Second {
		t.Errorf("Expected read timeout to be 15s, got %v", config.Server.ReadTimeout)
	}

	// Storage defaults
	if config.Storage.Backend != StorageBackendMemory {
		t.Errorf("Expected memory backend by default, got %s", config.Storage.Backend)
	}
	if config.Storage.Redis.TTL != 30*24*time.Hour {
		t.Errorf("Expected redis ttl to be 30 days, got %v", config.Storage.Redis.TTL)
	}

	if err := config.Validate(); err != nil {
		t.Errorf("Expected default config to be valid, got %v", err)
	}
}

func TestDefaultHeuristicsAreIndependent(t *testing.T) {
	h := DefaultHeuristics()
	h.CollectionNouns[0] = "changed"

	if DefaultCollectionNouns[0] == "changed" {
		t.Error("Expected DefaultHeuristics to copy the noun table")
	}
}

func TestConfigValidationDetailed(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
		errorField  string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:        "empty ref flag suffix",
			mutate:      func(c *Config) { c.Heuristics.RefFlagSuffix = "" },
			expectError: true,
			errorField:  "heuristics.refFlagSuffix",
		},
		{
			name:        "empty reference suffix",
			mutate:      func(c *Config) { c.Heuristics.ReferenceSuffixes = []ReferenceSuffix{{Suffix: ""}} },
			expectError: true,
			errorField:  "heuristics.referenceSuffixes",
		},
		{
			name:        "empty query param",
			mutate:      func(c *Config) { c.Share.QueryParam = "" },
			expectError: true,
			errorField:  "share.queryParam",
		},
		{
			name:        "invalid port",
			mutate:      func(c *Config) { c.Server.Port = 0 },
			expectError: true,
			errorField:  "server.port",
		},
		{
			name:        "invalid body limit",
			mutate:      func(c *Config) { c.Server.MaxBodyBytes = 0 },
			expectError: true,
			errorField:  "server.maxBodyBytes",
		},
		{
			name: "postgres without table",
			mutate: func(c *Config) {
				c.Storage.Backend = StorageBackendPostgres
				c.Storage.Postgres.Table = ""
			},
			expectError: true,
			errorField:  "storage.postgres.table",
		},
		{
			name: "redis negative ttl",
			mutate: func(c *Config) {
				c.Storage.Backend = StorageBackendRedis
				c.Storage.Redis.TTL = -time.Second
			},
			expectError: true,
			errorField:  "storage.redis.ttl",
		},
		{
			name:        "negative breaker threshold",
			mutate:      func(c *Config) { c.Storage.Breaker.Threshold = -1 },
			expectError: true,
			errorField:  "storage.breaker.threshold",
		},
		{
			name:        "breaker without window",
			mutate:      func(c *Config) { c.Storage.Breaker.Window = 0 },
			expectError: true,
			errorField:  "storage.breaker",
		},
		{
			name: "disabled breaker ignores durations",
			mutate: func(c *Config) {
				c.Storage.Breaker = BreakerConfig{}
			},
		},
		{
			name:        "s3 without bucket",
			mutate:      func(c *Config) { c.Storage.Backend = StorageBackendS3 },
			expectError: true,
			errorField:  "storage.s3.bucket",
		},
		{
			name: "s3 half credentials",
			mutate: func(c *Config) {
				c.Storage.Backend = StorageBackendS3
				c.Storage.S3.Bucket = "erd"
				c.Storage.S3.AccessKey = "key"
			},
			expectError: true,
			errorField:  "storage.s3.accessKey",
		},
		{
			name:        "unknown backend",
			mutate:      func(c *Config) { c.Storage.Backend = "etcd" },
			expectError: true,
			errorField:  "storage.backend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if !tt.expectError {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error for field %s", tt.errorField)
			}
			cfgErr, ok := err.(*ConfigError)
			if !ok {
				t.Fatalf("Expected ConfigError, got %T", err)
			}
			if cfgErr.Field != tt.errorField {
				t.Errorf("Expected error field %s, got %s", tt.errorField, cfgErr.Field)
			}
		})
	}
}

func TestIsCollectionLike(t *testing.T) {
	h := DefaultHeuristics()

	tests := map[string]bool{
		"orders":           true,
		"addresses":        true,
		"status_histories": true,
		"wtSku":            true,
		"company":          true,
		"statuses":         true,
		"status":           false,
		"job_status":       false,
		"profile":          false,
		"name":             false,
		"0":                false,
		"":                 false,
	}

	for key, want := range tests {
		if got := h.IsCollectionLike(key); got != want {
			t.Errorf("IsCollectionLike(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestReferenceTarget(t *testing.T) {
	h := DefaultHeuristics()

	tests := []struct {
		field  string
		target string
		ok     bool
	}{
		{field: "user_id", target: "user", ok: true},
		{field: "device_uuid", target: "device", ok: true},
		{field: "userId", target: "user", ok: true},
		{field: "ParentAccountId", target: "parentaccount", ok: true},
		{field: "_id", ok: false},
		{field: "identity", ok: false},
		{field: "name", ok: false},
	}

	for _, tt := range tests {
		target, ok := h.ReferenceTarget(tt.field)
		if ok != tt.ok || target != tt.target {
			t.Errorf("ReferenceTarget(%q) = (%q, %v), want (%q, %v)", tt.field, target, ok, tt.target, tt.ok)
		}
	}
}

func TestNamesMatch(t *testing.T) {
	h := DefaultHeuristics()

	if !h.NamesMatch("company", "company") {
		t.Error("Expected equal names to match")
	}
	if !h.NamesMatch("company_id", "company") || !h.NamesMatch("company_uuid", "company") {
		t.Error("Expected suffixed names to match")
	}
	if !h.NamesMatch("Company", "company") {
		t.Error("Expected case-insensitive match")
	}
	if h.NamesMatch("companies", "company") {
		t.Error("Expected plural not to match")
	}

	h.CaseInsensitiveNames = false
	if h.NamesMatch("Company", "company") {
		t.Error("Expected case-sensitive mismatch")
	}
}

func TestRootName(t *testing.T) {
	h := DefaultHeuristics()
	if got := h.RootName(""); got != "personal" {
		t.Errorf("Expected 'personal', got %s", got)
	}
	if got := h.RootName(" \t"); got != "personal" {
		t.Errorf("Expected 'personal' for blank name, got %s", got)
	}
	if got := h.RootName("users"); got != "users" {
		t.Errorf("Expected 'users', got %s", got)
	}

	h.DefaultCollectionName = ""
	if got := h.RootName(""); got != DefaultCollectionName {
		t.Errorf("Expected fallback %s, got %s", DefaultCollectionName, got)
	}
}
