package health

import "time"

// Config controls the heartbeat ticker.
type Config struct {
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
}
