// Package config defines the server configuration structure.
package config

// Default configuration values.
const (
	DefaultHTTPAddr = "127.0.0.1:5070"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration: one in-memory
// "default" instance behind the documented default listen address.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr: DefaultHTTPAddr,
			},
		},
		Instances: []InstanceSection{
			{InstanceID: "default"},
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
