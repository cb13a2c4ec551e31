package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/orchard/store"
)

// stagedWrite is one action of the pending TransactWriteItems call.
type stagedWrite struct {
	item   types.TransactWriteItem
	key    string
	insert bool
	delete bool
}

type transaction struct {
	store    *Store
	readOnly bool
	writes   []stagedWrite
	staged   map[string]struct{}
}

func newTransaction(s *Store, readOnly bool) *transaction {
	return &transaction{
		store:    s,
		readOnly: readOnly,
		staged:   make(map[string]struct{}),
	}
}

func idKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		AttrID: &types.AttributeValueMemberS{Value: id},
	}
}

// get fetches one record with a strongly consistent read.
func (tx *transaction) get(ctx context.Context, table, id string, out any) error {
	result, err := tx.store.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(table),
		Key:            idKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to get %s/%s: %w", table, id, err)
	}
	if result.Item == nil {
		return store.ErrNotFound
	}
	if err := attributevalue.UnmarshalMap(result.Item, out); err != nil {
		return fmt.Errorf("unmarshal %s/%s: %w", table, id, err)
	}
	return nil
}

// query pages through every record of an index partition.
func (tx *transaction) query(ctx context.Context, table, index, attr, value string, out any) error {
	paginator := dynamodb.NewQueryPaginator(tx.store.client, &dynamodb.QueryInput{
		TableName:              aws.String(table),
		IndexName:              aws.String(index),
		KeyConditionExpression: aws.String("#pk = :pk"),
		ExpressionAttributeNames: map[string]string{
			"#pk": attr,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: value},
		},
	})

	var raw []map[string]types.AttributeValue
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to query %s: %w", table, err)
		}
		raw = append(raw, page.Items...)
	}
	if err := attributevalue.UnmarshalListOfMaps(raw, out); err != nil {
		return fmt.Errorf("unmarshal %s: %w", table, err)
	}
	return nil
}

// stage records a write. Each record may be written at most once per unit of work.
func (tx *transaction) stage(table, id string, w stagedWrite) error {
	if tx.readOnly {
		return store.ErrReadOnly
	}
	key := table + "#" + id
	if _, dup := tx.staged[key]; dup {
		return fmt.Errorf("dynamo: %s written twice in one transaction", key)
	}
	tx.staged[key] = struct{}{}
	w.key = key
	tx.writes = append(tx.writes, w)
	return nil
}

func (tx *transaction) put(table, id string, version int64, record any) error {
	if tx.readOnly {
		return store.ErrReadOnly
	}
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", table, id, err)
	}

	put := &types.Put{
		TableName: aws.String(table),
		Item:      item,
	}
	if version == 0 {
		put.ConditionExpression = aws.String(NotExistsCondition())
	} else {
		put.ConditionExpression = aws.String(VersionCondition())
		put.ExpressionAttributeNames = VersionNames()
		put.ExpressionAttributeValues = VersionValues(version)
	}

	return tx.stage(table, id, stagedWrite{
		item:   types.TransactWriteItem{Put: put},
		insert: version == 0,
	})
}

func (tx *transaction) remove(table, id string, version int64) error {
	return tx.stage(table, id, stagedWrite{
		item: types.TransactWriteItem{
			Delete: &types.Delete{
				TableName:                           aws.String(table),
				Key:                                 idKey(id),
				ConditionExpression:                 aws.String(VersionCondition()),
				ExpressionAttributeNames:            VersionNames(),
				ExpressionAttributeValues:           VersionValues(version),
				ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
			},
		},
		delete: true,
	})
}

// --- Containers ---

func (tx *transaction) Container(ctx context.Context, id string) (store.Container, error) {
	var r containerRecord
	if err := tx.get(ctx, tx.store.config.ContainersTable, id, &r); err != nil {
		return store.Container{}, err
	}
	return r.entity(), nil
}

func (tx *transaction) Containers(ctx context.Context, ownerID string) ([]store.Container, error) {
	var records []containerRecord
	cfg := tx.store.config
	if err := tx.query(ctx, cfg.ContainersTable, cfg.OwnerIndex, AttrOwnerID, ownerID, &records); err != nil {
		return nil, err
	}
	out := make([]store.Container, 0, len(records))
	for _, r := range records {
		out = append(out, r.entity())
	}
	return out, nil
}

func (tx *transaction) PutContainer(_ context.Context, c store.Container) error {
	return tx.put(tx.store.config.ContainersTable, c.ID, c.Version, toContainerRecord(c))
}

func (tx *transaction) DeleteContainer(_ context.Context, c store.Container) error {
	return tx.remove(tx.store.config.ContainersTable, c.ID, c.Version)
}

// --- Sub-containers ---

func (tx *transaction) SubContainer(ctx context.Context, id string) (store.SubContainer, error) {
	var r subContainerRecord
	if err := tx.get(ctx, tx.store.config.SubContainersTable, id, &r); err != nil {
		return store.SubContainer{}, err
	}
	return r.entity(), nil
}

func (tx *transaction) SubContainers(ctx context.Context, containerID string) ([]store.SubContainer, error) {
	var records []subContainerRecord
	cfg := tx.store.config
	if err := tx.query(ctx, cfg.SubContainersTable, cfg.ContainerIndex, AttrContainerID, containerID, &records); err != nil {
		return nil, err
	}
	out := make([]store.SubContainer, 0, len(records))
	for _, r := range records {
		out = append(out, r.entity())
	}
	return out, nil
}

func (tx *transaction) PutSubContainer(_ context.Context, s store.SubContainer) error {
	return tx.put(tx.store.config.SubContainersTable, s.ID, s.Version, toSubContainerRecord(s))
}

func (tx *transaction) DeleteSubContainer(_ context.Context, s store.SubContainer) error {
	return tx.remove(tx.store.config.SubContainersTable, s.ID, s.Version)
}

// --- Items ---

func (tx *transaction) Item(ctx context.Context, id string) (store.Item, error) {
	var r itemRecord
	if err := tx.get(ctx, tx.store.config.ItemsTable, id, &r); err != nil {
		return store.Item{}, err
	}
	return r.entity(), nil
}

func (tx *transaction) Items(ctx context.Context, containerID string) ([]store.Item, error) {
	var records []itemRecord
	cfg := tx.store.config
	if err := tx.query(ctx, cfg.ItemsTable, cfg.ContainerIndex, AttrContainerID, containerID, &records); err != nil {
		return nil, err
	}
	out := make([]store.Item, 0, len(records))
	for _, r := range records {
		out = append(out, r.entity())
	}
	return out, nil
}

func (tx *transaction) PutItem(_ context.Context, it store.Item) error {
	return tx.put(tx.store.config.ItemsTable, it.ID, it.Version, toItemRecord(it))
}

func (tx *transaction) DeleteItem(_ context.Context, it store.Item) error {
	return tx.remove(tx.store.config.ItemsTable, it.ID, it.Version)
}
