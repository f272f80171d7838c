package redisqueue

import "fmt"

// Sidekiq-standard key names, precomputed per instance following the
// pattern in muaviaUsmani-Bananas/internal/queue/redis.go.
const (
	scheduleKey = "schedule"
	retryKey    = "retry"
	periodicKey = "periodic"
	deadKey     = "dead"
)

func queueKey(name string) string {
	return "queue:" + name
}

func workingKey(name string) string {
	return "queue:" + name + ":working"
}

// periodicClaimKey is the per-tick claim used for fleet-wide
// single-firing: a SETNX against fingerprint+bucket, separate from the
// periodic hash (which only tracks known definitions, not fire history).
func periodicClaimKey(fingerprint uint64, bucketUnix int64) string {
	return fmt.Sprintf("periodic:claim:%d:%d", fingerprint, bucketUnix)
}
