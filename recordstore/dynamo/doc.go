// Package dynamo provides a record store backed by Amazon DynamoDB, for
// durable deployments with multiple writers.
package dynamo
