// Package store defines the persistence contract for orchard's three entity kinds.
//
// Orchard keeps user-owned Containers, their SubContainers and their Items in
// ranked sibling sets. The engine package owns the ranking rules; this package
// only describes how records are read and written inside one atomic unit of work.
//
// # Backends
//
// Three implementations satisfy [Backend]:
//
//   - store/memory: copy-on-write state guarded by a mutex (tests, ephemeral use)
//   - store/sqlstore: database/sql transactions on SQLite (modernc) or Postgres (pgx)
//   - store/dynamo: DynamoDB reads plus a single TransactWriteItems commit
//
// # Units of work
//
// [Backend.Update] runs a function against a [Tx] and commits every write it
// staged, or none of them. [Backend.View] runs a read-only Tx. Reads inside a
// Tx observe committed state; callers must not rely on reading their own writes
// because the DynamoDB backend buffers writes until commit.
//
// # Optimistic locking
//
// Every record carries a Version. A write is conditioned on the version that
// was read, so two overlapping units of work that modify the same record cannot
// both commit. A new record is written with Version 0 and stored as version 1.
//
// # Errors
//
//   - [ErrNotFound] - record doesn't exist
//   - [ErrAlreadyExists] - a new record collides with an existing id
//   - [ErrConcurrentModification] - optimistic lock failed
//   - [ErrReadOnly] - write attempted inside View
//   - [ErrTransactionTooLarge] - unit of work exceeds the backend's write limit
package store
