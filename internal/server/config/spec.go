// Package config defines the server configuration structure.
package config

// ServerConfig is the root configuration for cachemesh-server.
type ServerConfig struct {
	Server    ServerSection     `koanf:"server"`
	Instances []InstanceSection `koanf:"instances"`
	Log       LogSection        `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr string `koanf:"addr"`

	// RateLimit is the maximum sustained requests per second accepted
	// per process. Zero disables rate limiting.
	RateLimit float64 `koanf:"rate_limit"`

	// RateBurst is the burst size allowed on top of RateLimit.
	RateBurst int `koanf:"rate_burst"`
}

// InstanceSection configures one named store instance.
type InstanceSection struct {
	// InstanceID is the namespace name; empty means "default".
	InstanceID string `koanf:"instance_id"`

	// CacheOnDisk selects the persistent engine.
	CacheOnDisk bool `koanf:"cache_on_disk"`

	// CachePath is the storage directory for the persistent engine.
	CachePath string `koanf:"cache_path"`

	// MaxStoreTime is the configured entry lifetime ceiling in
	// milliseconds. Recorded per instance; no eviction acts on it.
	MaxStoreTime int64 `koanf:"max_store_time"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
