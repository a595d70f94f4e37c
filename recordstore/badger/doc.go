// Package badger provides a record store backed by an embedded Badger
// key-value database, for durable single-node deployments.
package badger
