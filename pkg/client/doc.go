// Package client defines the collection contract the entity engine consumes
// and ships the default HTTP implementation. The contract is intentionally
// narrow: paginated listing, fetch by id, create, update, delete and a raw
// fetch used for dynamic option lists. Retry, timeout and authentication
// behaviour belong to the transport, configured through Options.
package client
