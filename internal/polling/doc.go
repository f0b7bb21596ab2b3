// Package polling waits out eventual consistency in the remote directory by
// repeating a probe at a fixed interval up to a bounded attempt limit.
package polling
