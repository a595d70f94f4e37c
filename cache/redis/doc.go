// Package redis provides a cache client backed by a Redis server, for
// a fast tier shared between processes.
package redis
