package service

import (
	"time"
)

// GetExpiresAt converts a provider expires_in value into an absolute time,
// using fallback when the provider omits it.
func GetExpiresAt(now time.Time, expiresIn int64, fallback time.Duration) time.Time {
	if expiresIn <= 0 {
		return now.Add(fallback)
	}
	return now.Add(time.Duration(expiresIn) * time.Second)
}
