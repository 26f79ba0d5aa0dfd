package health

import (
	"context"
	"fmt"
)

// VersionProber is satisfied by the VOICEVOX client; a successful version
// fetch means the engine is reachable and serving.
type VersionProber interface {
	Version(ctx context.Context) (string, error)
}

// Pinger is satisfied by pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SpeechEngine probes the speech synthesis engine.
func SpeechEngine(client VersionProber) Checker {
	return Checker{
		Name: "voicevox",
		Check: func(ctx context.Context) error {
			if _, err := client.Version(ctx); err != nil {
				return fmt.Errorf("version probe: %w", err)
			}
			return nil
		},
	}
}

// Database probes the Postgres pool.
func Database(pool Pinger) Checker {
	return Checker{
		Name:  "database",
		Check: pool.Ping,
	}
}
