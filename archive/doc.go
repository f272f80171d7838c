// Package archive ships terminally-archived jobs to S3-compatible
// cold storage as newline-delimited JSON batches, so a backend's own
// terminal store (pgmq's archive table, Redis's dead zset) can stay small
// without losing audit history of what was dispatched and why it failed.
//
// A Buffer accumulates Records in memory and flushes them through an
// Exporter once a size or time threshold is reached. The processor package
// feeds it from Scheduler.dispatch on every Archive outcome; nothing else
// in this module depends on it, so a deployment that doesn't configure an
// Exporter simply never buffers anything.
package archive
