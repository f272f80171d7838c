// Package redisqueue implements a job.BackendQueue and job.Enqueuer
// compatible with the Sidekiq wire format, driven through
// redis/go-redis/v9. Queues are plain Redis lists (queue:{Q}) consumed
// with BRPOPLPUSH; delayed and failed jobs live in the schedule and retry
// sorted sets; periodic registrations live in the periodic hash —
// all exactly as a real Sidekiq deployment would expect, so producers and
// consumers written against either this package or Sidekiq itself can
// interoperate on the same Redis instance.
//
// Because bare Sidekiq has no visibility-timeout concept, this backend
// additionally tracks in-flight messages in a queue:{Q}:working list
// (BRPopLPush), so Ack/NackRetry/Archive have something concrete to
// reference; this is an internal bookkeeping detail, not part of the wire
// contract other Sidekiq-speaking processes rely on.
//
// # Usage
//
//	client, err := redis.Open(ctx, redisURL)
//	backend, err := redisqueue.New(client, redisqueue.WithLogger(logger))
//	err = backend.Enqueue(ctx, "send_welcome", SendWelcomePayload{UserID: id}, job.InQueue("default"))
package redisqueue
