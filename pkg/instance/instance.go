package instance

import (
	"os"
	"strings"
)

// GetID returns the worker instance identifier or a default value. Used to
// tell cron worker replicas apart in logs.
func GetID() string {
	if id := strings.TrimSpace(os.Getenv("WORKER_ID")); id != "" {
		return id
	}
	return "worker-0"
}
