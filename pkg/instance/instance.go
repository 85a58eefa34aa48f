package instance

import "os"

// GetID names the running process in logs: SABORHUB_INSTANCE_ID, then the Heroku
// DYNO, then the hostname.
func GetID() string {
	if id := os.Getenv("SABORHUB_INSTANCE_ID"); id != "" {
		return id
	}
	if id := os.Getenv("DYNO"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
