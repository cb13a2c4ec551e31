package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"golang.org/x/sync/errgroup"
)

// TableWaitTimeout bounds how long CreateTables waits for a table to become active.
const TableWaitTimeout = 2 * time.Minute

// TableInputs returns the CreateTable inputs for the configured layout. Every
// table streams NEW_AND_OLD_IMAGES so the compactor sees partition changes.
func TableInputs(cfg Config) []*dynamodb.CreateTableInput {
	cfg.validate()
	return []*dynamodb.CreateTableInput{
		tableInput(cfg.ContainersTable, cfg.OwnerIndex, AttrOwnerID),
		tableInput(cfg.SubContainersTable, cfg.ContainerIndex, AttrContainerID),
		tableInput(cfg.ItemsTable, cfg.ContainerIndex, AttrContainerID),
	}
}

func tableInput(table, index, indexAttr string) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName: aws.String(table),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(AttrID), KeyType: types.KeyTypeHash},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(AttrID), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(indexAttr), AttributeType: types.ScalarAttributeTypeS},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName: aws.String(index),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String(indexAttr), KeyType: types.KeyTypeHash},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			},
		},
		BillingMode: types.BillingModePayPerRequest,
		StreamSpecification: &types.StreamSpecification{
			StreamEnabled:  aws.Bool(true),
			StreamViewType: types.StreamViewTypeNewAndOldImages,
		},
	}
}

// CreateTables creates the three tables in parallel and waits until all are active.
func CreateTables(ctx context.Context, client *dynamodb.Client, cfg Config) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, input := range TableInputs(cfg) {
		g.Go(func() error {
			if _, err := client.CreateTable(ctx, input); err != nil {
				return fmt.Errorf("create table %s: %w", aws.ToString(input.TableName), err)
			}
			waiter := dynamodb.NewTableExistsWaiter(client)
			if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{
				TableName: input.TableName,
			}, TableWaitTimeout); err != nil {
				return fmt.Errorf("wait for table %s: %w", aws.ToString(input.TableName), err)
			}
			return nil
		})
	}
	return g.Wait()
}

// DeleteTables deletes the three tables in parallel.
func DeleteTables(ctx context.Context, client *dynamodb.Client, cfg Config) error {
	cfg.validate()
	g, ctx := errgroup.WithContext(ctx)
	for _, table := range []string{cfg.ContainersTable, cfg.SubContainersTable, cfg.ItemsTable} {
		g.Go(func() error {
			if _, err := client.DeleteTable(ctx, &dynamodb.DeleteTableInput{
				TableName: aws.String(table),
			}); err != nil {
				return fmt.Errorf("delete table %s: %w", table, err)
			}
			return nil
		})
	}
	return g.Wait()
}
