// Package dynamo provides a DynamoDB implementation of store.Backend.
//
// Each entity kind lives in its own table keyed by id. Scoped scans go through
// global secondary indexes on owner_id and container_id. Reads inside a unit of
// work observe committed state; writes are staged and committed with a single
// TransactWriteItems call, each conditioned on the record's version.
package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/orchard/store"
)

// Compile-time contract assertions.
var (
	_ store.Backend      = (*Store)(nil)
	_ store.WriteLimiter = (*Store)(nil)
)

// Client is the subset of the DynamoDB API used by the Store.
type Client interface {
	dynamodb.QueryAPIClient
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Store runs units of work against DynamoDB.
type Store struct {
	client Client
	config Config
}

// New creates a new Store instance.
func New(client Client, config Config) *Store {
	config.validate()
	return &Store{
		client: client,
		config: config,
	}
}

// Config returns the validated configuration.
func (s *Store) Config() Config {
	return s.config
}

// MaxWrites returns the number of writes one unit of work may stage.
func (s *Store) MaxWrites() int {
	return s.config.MaxTransactItems
}

// Update runs fn and commits the staged writes in one transaction.
func (s *Store) Update(ctx context.Context, fn func(store.Tx) error) error {
	tx := newTransaction(s, false)
	if err := fn(tx); err != nil {
		return err
	}
	return s.commit(ctx, tx.writes)
}

// View runs fn with a transaction that rejects writes.
func (s *Store) View(ctx context.Context, fn func(store.Tx) error) error {
	return fn(newTransaction(s, true))
}

// Close is a no-op; the client is owned by the caller.
func (s *Store) Close() error { return nil }

func (s *Store) commit(ctx context.Context, writes []stagedWrite) error {
	if len(writes) == 0 {
		return nil
	}
	if len(writes) > s.config.MaxTransactItems {
		return fmt.Errorf("%w: %d writes", store.ErrTransactionTooLarge, len(writes))
	}

	items := make([]types.TransactWriteItem, len(writes))
	for i, w := range writes {
		items[i] = w.item
	}

	_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	return mapTransactionError(err, writes)
}

// mapTransactionError maps DynamoDB transaction errors to store sentinels
// using the cancellation reason of the first failed write.
func mapTransactionError(err error, writes []stagedWrite) error {
	if err == nil {
		return nil
	}

	var txErr *types.TransactionCanceledException
	if errors.As(err, &txErr) {
		for i, reason := range txErr.CancellationReasons {
			if reason.Code == nil {
				continue
			}
			switch *reason.Code {
			case "ConditionalCheckFailed":
				if i >= len(writes) {
					return store.ErrConcurrentModification
				}
				w := writes[i]
				switch {
				case w.insert:
					return store.ErrAlreadyExists
				case w.delete && reason.Item == nil:
					// ALL_OLD returns nothing when the record is gone.
					return store.ErrNotFound
				default:
					return store.ErrConcurrentModification
				}
			case "TransactionConflict":
				return store.ErrConcurrentModification
			}
		}
	}

	var conflictErr *types.TransactionConflictException
	if errors.As(err, &conflictErr) {
		return store.ErrConcurrentModification
	}

	return fmt.Errorf("failed to commit transaction: %w", err)
}
