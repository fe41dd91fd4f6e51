package runtime

import (
	"os"
	"time"
)

// Getenv returns the variable or fallback when it is unset or empty.
func Getenv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

// LoadLocation resolves an IANA zone name, falling back to UTC when the
// name is empty or unknown to the host's tzdata.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
