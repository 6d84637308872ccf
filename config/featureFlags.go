package config

import (
	"os"
	"strings"
)

// CacheCompressionDisabled turns off lossy re-encoding of inline attachment
// payloads before they are written to the local cache. Originals are stored
// unchanged when set.
//
// Set via env:
// - JOBCACHE_COMPRESSION_DISABLED=true
func CacheCompressionDisabled() bool {
	return boolFromEnv("JOBCACHE_COMPRESSION_DISABLED")
}

// BillingAutoStatusDisabled stops the billing synchronization from applying
// derived payment statuses to jobs. Invoice summaries are still imported.
//
// Set via env:
// - BILLING_AUTO_STATUS_DISABLED=true
func BillingAutoStatusDisabled() bool {
	return boolFromEnv("BILLING_AUTO_STATUS_DISABLED")
}

func boolFromEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
