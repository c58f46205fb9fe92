// Package feedsvc exposes feed operations to transports: create, append,
// offset fetch with paging/long-poll/filtering, stats, and retention
// sweeps. It owns the mapping from stored entries to the wire page model.
package feedsvc
