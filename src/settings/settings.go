package settings

import (
	"sync"
	"time"
)

// Arguments holds the process-wide configuration. Values are set once
// from the command line at startup; there is no dynamic reconfiguration.
type Arguments struct {
	// DataDir is the directory holding snapshot.bin and the export
	// tree.
	DataDir string

	// LogDir is the log file path ("" logs to stdout only).
	LogDir string

	ConfigFile string

	// Host and Port are the bind address of the binary RPC server.
	Host string
	Port int

	// ProxyPort is the bind port of the JSON/HTTP proxy on Host.
	ProxyPort int

	// CheckpointInterval is how often the in-memory store is
	// snapshotted to disk.
	CheckpointInterval time.Duration

	// ShutdownDeadline bounds how long shutdown waits for the final
	// checkpoint before proceeding anyway.
	ShutdownDeadline time.Duration

	// Strongly verbose logging
	Verbose bool

	Debug         bool
	PrintToScreen bool

	AuthEnabled bool // Enable authentication on the RPC port

	Version string
}

var (
	instance *Arguments
	once     sync.Once
)

// GetSettings returns the global settings instance, creating it with
// defaults on first use. main overwrites the fields from flags before
// anything else reads them.
func GetSettings() *Arguments {
	once.Do(func() {
		instance = &Arguments{
			DataDir:            "data",
			Host:               "127.0.0.1",
			Port:               50051,
			ProxyPort:          8080,
			CheckpointInterval: time.Minute,
			ShutdownDeadline:   60 * time.Second,
		}
	})

	return instance
}
