// Package config defines the server configuration structure.
package config

import (
	"errors"
	"fmt"
	"os"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if cfg.Server.HTTP.Addr == "" {
		return errors.New("server.http.addr is required")
	}
	if cfg.Server.HTTP.RateLimit < 0 {
		return errors.New("server.http.rate_limit must be non-negative")
	}

	seen := make(map[string]struct{}, len(cfg.Instances))
	for i, inst := range cfg.Instances {
		id := inst.InstanceID
		if id == "" {
			id = "default"
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("instances[%d]: duplicate instance id %q", i, id)
		}
		seen[id] = struct{}{}

		if inst.MaxStoreTime < 0 {
			return fmt.Errorf("instances[%d]: max_store_time must be non-negative", i)
		}
		if inst.CacheOnDisk {
			if inst.CachePath == "" {
				return fmt.Errorf("instances[%d]: cache_path is required with cache_on_disk", i)
			}
			if err := os.MkdirAll(inst.CachePath, 0750); err != nil {
				return fmt.Errorf("instances[%d]: cannot create cache path: %w", i, err)
			}
		}
	}

	return nil
}
