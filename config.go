package jsonerd

import (
	"strconv"
	"strings"
	"time"
)

// DefaultCollectionNouns are keys treated as collections even when they do
// not look plural.
var DefaultCollectionNouns = []string{
	"status_histories", "documents", "wtSku", "skills", "benefits",
	"company", "location", "details", "requirements", "contacts",
}

// DefaultCollectionName names the root collection when none is supplied.
const DefaultCollectionName = "personal"

// Config consolidates engine, transport and storage settings
type Config struct {
	Heuristics HeuristicsConfig `json:"heuristics" mapstructure:"heuristics"`
	Share      ShareConfig      `json:"share" mapstructure:"share"`
	Server     ServerConfig     `json:"server" mapstructure:"server"`
	Storage    StorageConfig    `json:"storage" mapstructure:"storage"`
	Logging    LoggingConfig    `json:"logging" mapstructure:"logging"`
}

// ReferenceSuffix is one naming rule for foreign-key style fields.
type ReferenceSuffix struct {
	Suffix string `json:"suffix" mapstructure:"suffix"`
	// LowerCase lower-cases the remainder after stripping, e.g. userId -> user.
	LowerCase bool `json:"lowerCase" mapstructure:"lower_case"`
}

// HeuristicsConfig holds the naming tables used by the detector and resolver.
type HeuristicsConfig struct {
	CollectionNouns       []string          `json:"collectionNouns" mapstructure:"collection_nouns"`
	PluralSuffix          string            `json:"pluralSuffix" mapstructure:"plural_suffix"`
	PluralExclusions      []string          `json:"pluralExclusions" mapstructure:"plural_exclusions"`
	ReferenceSuffixes     []ReferenceSuffix `json:"referenceSuffixes" mapstructure:"reference_suffixes"`
	PrimaryKeyField       string            `json:"primaryKeyField" mapstructure:"primary_key_field"`
	NameMatchSuffixes     []string          `json:"nameMatchSuffixes" mapstructure:"name_match_suffixes"`
	CaseInsensitiveNames  bool              `json:"caseInsensitiveNames" mapstructure:"case_insensitive_names"`
	RefFlagSuffix         string            `json:"refFlagSuffix" mapstructure:"ref_flag_suffix"`
	DefaultCollectionName string            `json:"defaultCollectionName" mapstructure:"default_collection_name"`
}

// ShareConfig contains share link settings
type ShareConfig struct {
	BaseURL    string `json:"baseURL" mapstructure:"base_url"`
	QueryParam string `json:"queryParam" mapstructure:"query_param"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `json:"host" mapstructure:"host"`
	Port            int           `json:"port" mapstructure:"port"`
	MaxBodyBytes    int64         `json:"maxBodyBytes" mapstructure:"max_body_bytes"`
	ReadTimeout     time.Duration `json:"readTimeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `json:"writeTimeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdownTimeout" mapstructure:"shutdown_timeout"`
}

// StorageBackend selects the snapshot store implementation.
type StorageBackend string

const (
	StorageBackendMemory   StorageBackend = "memory"
	StorageBackendPostgres StorageBackend = "postgres"
	StorageBackendRedis    StorageBackend = "redis"
	StorageBackendS3       StorageBackend = "s3"
)

// StorageConfig contains snapshot store settings
type StorageConfig struct {
	Backend  StorageBackend `json:"backend" mapstructure:"backend"`
	Postgres PostgresConfig `json:"postgres" mapstructure:"postgres"`
	Redis    RedisConfig    `json:"redis" mapstructure:"redis"`
	S3       S3Config       `json:"s3" mapstructure:"s3"`
	Breaker  BreakerConfig  `json:"breaker" mapstructure:"breaker"`
}

// BreakerConfig guards remote snapshot backends. A Threshold of 0 disables it.
type BreakerConfig struct {
	Threshold    int           `json:"threshold" mapstructure:"threshold"`
	Window       time.Duration `json:"window" mapstructure:"window"`
	OpenDuration time.Duration `json:"openDuration" mapstructure:"open_duration"`
}

// PostgresConfig contains database connection settings
type PostgresConfig struct {
	Host            string        `json:"host" mapstructure:"host"`
	Port            int           `json:"port" mapstructure:"port"`
	Database        string        `json:"database" mapstructure:"database"`
	Username        string        `json:"username" mapstructure:"username"`
	Password        string        `json:"password" mapstructure:"password"`
	SSLMode         string        `json:"sslMode" mapstructure:"ssl_mode"`
	Table           string        `json:"table" mapstructure:"table"`
	MaxConnections  int           `json:"maxConnections" mapstructure:"max_connections"`
	MinConnections  int           `json:"minConnections" mapstructure:"min_connections"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"connMaxIdleTime" mapstructure:"conn_max_idle_time"`
	Timeout         time.Duration `json:"timeout" mapstructure:"timeout"`
	// UseIAM generates an Aurora DSQL auth token instead of using Password.
	UseIAM bool   `json:"useIAM" mapstructure:"use_iam"`
	Region string `json:"region" mapstructure:"region"`
}

// RedisConfig contains Redis snapshot store settings
type RedisConfig struct {
	Addr      string        `json:"addr" mapstructure:"addr"`
	Password  string        `json:"password" mapstructure:"password"`
	DB        int           `json:"db" mapstructure:"db"`
	KeyPrefix string        `json:"keyPrefix" mapstructure:"key_prefix"`
	TTL       time.Duration `json:"ttl" mapstructure:"ttl"`
}

// S3Config contains S3 snapshot store settings
type S3Config struct {
	Bucket    string `json:"bucket" mapstructure:"bucket"`
	Prefix    string `json:"prefix" mapstructure:"prefix"`
	Region    string `json:"region" mapstructure:"region"`
	Endpoint  string `json:"endpoint" mapstructure:"endpoint"`
	AccessKey string `json:"accessKey" mapstructure:"access_key"`
	SecretKey string `json:"secretKey" mapstructure:"secret_key"`
	// UsePathStyle is needed for MinIO and other S3-compatible endpoints.
	UsePathStyle bool `json:"usePathStyle" mapstructure:"use_path_style"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	Format string `json:"format" mapstructure:"format"`
}

// DefaultHeuristics returns the naming tables the engine uses out of the box.
func DefaultHeuristics() HeuristicsConfig {
	nouns := make([]string, len(DefaultCollectionNouns))
	copy(nouns, DefaultCollectionNouns)
	return HeuristicsConfig{
		CollectionNouns:  nouns,
		PluralSuffix:     "s",
		PluralExclusions: []string{"status"},
		ReferenceSuffixes: []ReferenceSuffix{
			{Suffix: "_id"},
			{Suffix: "_uuid"},
			{Suffix: "Id", LowerCase: true},
		},
		PrimaryKeyField:       "_id",
		NameMatchSuffixes:     []string{"_id", "_uuid"},
		CaseInsensitiveNames:  true,
		RefFlagSuffix:         "_ref",
		DefaultCollectionName: DefaultCollectionName,
	}
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Heuristics: DefaultHeuristics(),
		Share: ShareConfig{
			BaseURL:    "http://localhost:8080/",
			QueryParam: "data",
		},
		Server: ServerConfig{
			Host:            "",
			Port:            8080,
			MaxBodyBytes:    5 * 1024 * 1024, // 5MB
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Backend: StorageBackendMemory,
			Postgres: PostgresConfig{
				Host:            "localhost",
				Port:            5432,
				Database:        "jsonerd",
				Username:        "postgres",
				SSLMode:         "disable",
				Table:           "erd_snapshots",
				MaxConnections:  10,
				MinConnections:  1,
				ConnMaxLifetime: time.Hour,
				ConnMaxIdleTime: 5 * time.Minute,
				Timeout:         30 * time.Second,
			},
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "jsonerd:snapshot:",
				TTL:       30 * 24 * time.Hour,
			},
			S3: S3Config{
				Prefix: "snapshots/",
			},
			Breaker: BreakerConfig{
				Threshold:    5,
				Window:       30 * time.Second,
				OpenDuration: 15 * time.Second,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// IsCollectionLike reports whether key names a collection: either a known
// noun or a plural that is not one of the excluded endings.
func (h HeuristicsConfig) IsCollectionLike(key string) bool {
	for _, noun := range h.CollectionNouns {
		if key == noun {
			return true
		}
	}
	if h.PluralSuffix == "" || !strings.HasSuffix(key, h.PluralSuffix) {
		return false
	}
	for _, excluded := range h.PluralExclusions {
		if strings.HasSuffix(key, excluded) {
			return false
		}
	}
	return true
}

// ReferenceTarget derives the collection a foreign-key style field points at.
// The first matching suffix rule wins. The primary key field never matches.
func (h HeuristicsConfig) ReferenceTarget(field string) (string, bool) {
	if field == h.PrimaryKeyField {
		return "", false
	}
	for _, rule := range h.ReferenceSuffixes {
		if rule.Suffix == "" || !strings.HasSuffix(field, rule.Suffix) {
			continue
		}
		target := strings.TrimSuffix(field, rule.Suffix)
		if rule.LowerCase {
			target = strings.ToLower(target)
		}
		return target, true
	}
	return "", false
}

// NamesMatch reports whether field refers to collection by name: equal,
// collection plus a match suffix, or equal ignoring case.
func (h HeuristicsConfig) NamesMatch(field, collection string) bool {
	if field == collection {
		return true
	}
	for _, suffix := range h.NameMatchSuffixes {
		if field == collection+suffix {
			return true
		}
	}
	return h.CaseInsensitiveNames && strings.ToLower(field) == strings.ToLower(collection)
}

// RootName returns name, or the configured default when name is blank.
func (h HeuristicsConfig) RootName(name string) string {
	if strings.TrimSpace(name) == "" {
		if h.DefaultCollectionName != "" {
			return h.DefaultCollectionName
		}
		return DefaultCollectionName
	}
	return name
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Heuristics.RefFlagSuffix == "" {
		return &ConfigError{Field: "heuristics.refFlagSuffix", Message: "must not be empty"}
	}

	for i, rule := range c.Heuristics.ReferenceSuffixes {
		if rule.Suffix == "" {
			return &ConfigError{Field: "heuristics.referenceSuffixes", Message: "suffix " + strconv.Itoa(i) + " must not be empty"}
		}
	}

	if c.Share.QueryParam == "" {
		return &ConfigError{Field: "share.queryParam", Message: "must not be empty"}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return &ConfigError{Field: "server.port", Message: "must be a valid TCP port"}
	}

	if c.Server.MaxBodyBytes <= 0 {
		return &ConfigError{Field: "server.maxBodyBytes", Message: "must be greater than 0"}
	}

	if c.Storage.Breaker.Threshold < 0 {
		return &ConfigError{Field: "storage.breaker.threshold", Message: "must not be negative"}
	}
	if c.Storage.Breaker.Threshold > 0 && (c.Storage.Breaker.Window <= 0 || c.Storage.Breaker.OpenDuration <= 0) {
		return &ConfigError{Field: "storage.breaker", Message: "window and openDuration must be positive"}
	}

	switch c.Storage.Backend {
	case StorageBackendMemory, "":
	case StorageBackendPostgres:
		if c.Storage.Postgres.Host == "" {
			return &ConfigError{Field: "storage.postgres.host", Message: "is required"}
		}
		if c.Storage.Postgres.Table == "" {
			return &ConfigError{Field: "storage.postgres.table", Message: "is required"}
		}
		if c.Storage.Postgres.MaxConnections <= 0 {
			return &ConfigError{Field: "storage.postgres.maxConnections", Message: "must be greater than 0"}
		}
	case StorageBackendRedis:
		if c.Storage.Redis.Addr == "" {
			return &ConfigError{Field: "storage.redis.addr", Message: "is required"}
		}
		if c.Storage.Redis.TTL < 0 {
			return &ConfigError{Field: "storage.redis.ttl", Message: "must not be negative"}
		}
	case StorageBackendS3:
		if c.Storage.S3.Bucket == "" {
			return &ConfigError{Field: "storage.s3.bucket", Message: "is required"}
		}
		if (c.Storage.S3.AccessKey == "") != (c.Storage.S3.SecretKey == "") {
			return &ConfigError{Field: "storage.s3.accessKey", Message: "accessKey and secretKey must be set together"}
		}
	default:
		return &ConfigError{Field: "storage.backend", Message: "unsupported backend " + string(c.Storage.Backend)}
	}

	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ConfigError) Error() string {
	return "config validation error for field '" + e.Field + "': " + e.Message
}
