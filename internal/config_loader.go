package internal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lychee-technology/jsonerd"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. JSONERD_SERVER_PORT.
const EnvPrefix = "JSONERD"

// LoadConfig reads jsonerd.yaml from the working directory, or the file at
// path when one is given, and applies environment overrides on top of
// DefaultConfig. A missing default file is not an error; a missing explicit
// file is.
func LoadConfig(path string) (*jsonerd.Config, error) {
	v := viper.New()

	setDefaults(v, jsonerd.DefaultConfig())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("jsonerd")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &jsonerd.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults registers every key so that AutomaticEnv can resolve it during
// Unmarshal.
func setDefaults(v *viper.Viper, cfg *jsonerd.Config) {
	h := cfg.Heuristics
	suffixes := make([]map[string]any, 0, len(h.ReferenceSuffixes))
	for _, rule := range h.ReferenceSuffixes {
		suffixes = append(suffixes, map[string]any{"suffix": rule.Suffix, "lower_case": rule.LowerCase})
	}
	v.SetDefault("heuristics.collection_nouns", h.CollectionNouns)
	v.SetDefault("heuristics.plural_exclusions", h.PluralExclusions)
	v.SetDefault("heuristics.reference_suffixes", suffixes)
	v.SetDefault("heuristics.name_match_suffixes", h.NameMatchSuffixes)
	v.SetDefault("heuristics.plural_suffix", h.PluralSuffix)
	v.SetDefault("heuristics.primary_key_field", h.PrimaryKeyField)
	v.SetDefault("heuristics.case_insensitive_names", h.CaseInsensitiveNames)
	v.SetDefault("heuristics.ref_flag_suffix", h.RefFlagSuffix)
	v.SetDefault("heuristics.default_collection_name", h.DefaultCollectionName)

	v.SetDefault("share.base_url", cfg.Share.BaseURL)
	v.SetDefault("share.query_param", cfg.Share.QueryParam)

	srv := cfg.Server
	v.SetDefault("server.host", srv.Host)
	v.SetDefault("server.port", srv.Port)
	v.SetDefault("server.max_body_bytes", srv.MaxBodyBytes)
	v.SetDefault("server.read_timeout", srv.ReadTimeout)
	v.SetDefault("server.write_timeout", srv.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", srv.ShutdownTimeout)

	v.SetDefault("storage.backend", string(cfg.Storage.Backend))

	pg := cfg.Storage.Postgres
	v.SetDefault("storage.postgres.host", pg.Host)
	v.SetDefault("storage.postgres.port", pg.Port)
	v.SetDefault("storage.postgres.database", pg.Database)
	v.SetDefault("storage.postgres.username", pg.Username)
	v.SetDefault("storage.postgres.password", pg.Password)
	v.SetDefault("storage.postgres.ssl_mode", pg.SSLMode)
	v.SetDefault("storage.postgres.table", pg.Table)
	v.SetDefault("storage.postgres.max_connections", pg.MaxConnections)
	v.SetDefault("storage.postgres.min_connections", pg.MinConnections)
	v.SetDefault("storage.postgres.conn_max_lifetime", pg.ConnMaxLifetime)
	v.SetDefault("storage.postgres.conn_max_idle_time", pg.ConnMaxIdleTime)
	v.SetDefault("storage.postgres.timeout", pg.Timeout)
	v.SetDefault("storage.postgres.use_iam", pg.UseIAM)
	v.SetDefault("storage.postgres.region", pg.Region)

	rd := cfg.Storage.Redis
	v.SetDefault("storage.redis.addr", rd.Addr)
	v.SetDefault("storage.redis.password", rd.Password)
	v.SetDefault("storage.redis.db", rd.DB)
	v.SetDefault("storage.redis.key_prefix", rd.KeyPrefix)
	v.SetDefault("storage.redis.ttl", rd.TTL)

	s3 := cfg.Storage.S3
	v.SetDefault("storage.s3.bucket", s3.Bucket)
	v.SetDefault("storage.s3.prefix", s3.Prefix)
	v.SetDefault("storage.s3.region", s3.Region)
	v.SetDefault("storage.s3.endpoint", s3.Endpoint)
	v.SetDefault("storage.s3.access_key", s3.AccessKey)
	v.SetDefault("storage.s3.secret_key", s3.SecretKey)
	v.SetDefault("storage.s3.use_path_style", s3.UsePathStyle)

	br := cfg.Storage.Breaker
	v.SetDefault("storage.breaker.threshold", br.Threshold)
	v.SetDefault("storage.breaker.window", br.Window)
	v.SetDefault("storage.breaker.open_duration", br.OpenDuration)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
}
