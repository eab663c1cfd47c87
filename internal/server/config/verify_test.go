package config

import (
	"path/filepath"
	"testing"
)

func TestVerifyDefault(t *testing.T) {
	if err := Verify(Default()); err != nil {
		t.Errorf("default config must verify: %v", err)
	}
}

func TestVerifyRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ServerConfig)
	}{
		{"empty addr", func(c *ServerConfig) { c.Server.HTTP.Addr = "" }},
		{"negative rate limit", func(c *ServerConfig) { c.Server.HTTP.RateLimit = -1 }},
		{"negative max store time", func(c *ServerConfig) { c.Instances[0].MaxStoreTime = -1 }},
		{"disk instance without path", func(c *ServerConfig) { c.Instances[0].CacheOnDisk = true }},
		{"duplicate ids", func(c *ServerConfig) {
			c.Instances = append(c.Instances, InstanceSection{InstanceID: "default"})
		}},
		{"empty id collides with default", func(c *ServerConfig) {
			c.Instances = append(c.Instances, InstanceSection{InstanceID: ""})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := Verify(cfg); err == nil {
				t.Error("expected a verification error")
			}
		})
	}
}

func TestVerifyCreatesCachePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache")

	cfg := Default()
	cfg.Instances[0].CacheOnDisk = true
	cfg.Instances[0].CachePath = path

	if err := Verify(cfg); err != nil {
		t.Fatal(err)
	}
}
