// Package stream provides a DynamoDB Streams handler that keeps ordering
// partitions dense and removes the children of deleted parents.
package stream

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/orchard/internal/scope"
	"github.com/jacentio/orchard/store"
)

// Stream event names.
const (
	EventInsert = "INSERT"
	EventModify = "MODIFY"
	EventRemove = "REMOVE"
)

// Engine is the maintenance surface the handler drives. *engine.Service
// implements it.
type Engine interface {
	Compact(ctx context.Context, key scope.Key) (int, error)
	SweepContainer(ctx context.Context, containerID string) (int, error)
	SweepSubContainer(ctx context.Context, containerID, subContainerID string) (int, error)
}

// SubContainerRef names a removed sub-container.
type SubContainerRef struct {
	ContainerID string
	ID          string
}

// Work is what one stream batch asks of the engine.
type Work struct {
	// Containers lists removed containers whose children are swept.
	Containers []string

	// SubContainers lists removed sub-containers whose items are swept.
	SubContainers []SubContainerRef

	// Partitions lists the partitions records left, in the order they first
	// appear: the old partition of a removed record, and the old partition
	// of an item whose status or sub-container changed.
	Partitions []scope.Key
}

// Handler processes DynamoDB stream events. A removed container has its
// remaining items and sub-containers deleted, a removed sub-container has its
// remaining items moved to the container root, and every partition a record
// left is compacted.
type Handler struct {
	engine Engine
	logger *slog.Logger
}

// NewHandler creates a new stream handler.
func NewHandler(e Engine, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		engine: e,
		logger: logger,
	}
}

// HandleStream sweeps the children of removed parents, then compacts the
// partitions touched by event, each at most once. It is designed to be used
// as an AWS Lambda handler; a returned error makes Lambda retry the batch.
// Every step is idempotent.
func (h *Handler) HandleStream(ctx context.Context, event events.DynamoDBEvent) error {
	work, err := h.Plan(event)
	if err != nil {
		return err
	}

	for _, id := range work.Containers {
		swept, err := h.engine.SweepContainer(ctx, id)
		if err != nil {
			h.logger.Error("failed to sweep container", "containerID", id, "error", err)
			return fmt.Errorf("sweep container %s: %w", id, err)
		}
		h.logger.Debug("container swept", "containerID", id, "records", swept)
	}
	for _, ref := range work.SubContainers {
		swept, err := h.engine.SweepSubContainer(ctx, ref.ContainerID, ref.ID)
		if err != nil {
			h.logger.Error("failed to sweep sub-container",
				"containerID", ref.ContainerID,
				"subContainerID", ref.ID,
				"error", err,
			)
			return fmt.Errorf("sweep sub-container %s: %w", ref.ID, err)
		}
		h.logger.Debug("sub-container swept", "subContainerID", ref.ID, "items", swept)
	}

	for _, key := range work.Partitions {
		changed, err := h.engine.Compact(ctx, key)
		if err != nil {
			h.logger.Error("failed to compact partition",
				"partition", key.String(),
				"error", err,
			)
			return fmt.Errorf("compact %s: %w", key, err)
		}
		h.logger.Debug("partition checked", "partition", key.String(), "changed", changed)
	}
	return nil
}

// Plan decodes event into the work it asks for, without duplicates.
func (h *Handler) Plan(event events.DynamoDBEvent) (Work, error) {
	var work Work
	seen := make(map[string]bool)
	for _, record := range event.Records {
		if err := h.plan(record, &work, seen); err != nil {
			h.logger.Error("failed to decode record",
				"eventID", record.EventID,
				"error", err,
			)
			return Work{}, err
		}
	}
	return work, nil
}

func (h *Handler) plan(record events.DynamoDBEventRecord, work *Work, seen map[string]bool) error {
	if record.EventName != EventRemove && record.EventName != EventModify {
		return nil
	}
	before, ok, err := h.decode(record.Change.OldImage)
	if err != nil || !ok {
		return err
	}
	key := before.key()

	if record.EventName == EventModify {
		after, _, err := h.decode(record.Change.NewImage)
		if err != nil {
			return err
		}
		if after.key() == key {
			return nil
		}
	} else {
		switch store.Kind(before.Kind) {
		case store.KindContainer:
			if !seen["container#"+before.ID] {
				seen["container#"+before.ID] = true
				work.Containers = append(work.Containers, before.ID)
			}
		case store.KindSubContainer:
			if !seen["sub#"+before.ID] {
				seen["sub#"+before.ID] = true
				work.SubContainers = append(work.SubContainers, SubContainerRef{ContainerID: before.ContainerID, ID: before.ID})
			}
		}
	}

	if !seen[key.String()] {
		seen[key.String()] = true
		work.Partitions = append(work.Partitions, key)
	}
	return nil
}

// recordImage holds the attributes that identify a record and its partition.
type recordImage struct {
	ID             string `dynamodbav:"id"`
	Kind           string `dynamodbav:"kind"`
	OwnerID        string `dynamodbav:"owner_id"`
	ContainerID    string `dynamodbav:"container_id"`
	SubContainerID string `dynamodbav:"sub_container_id"`
	Status         string `dynamodbav:"status"`
}

func (r recordImage) key() scope.Key {
	switch store.Kind(r.Kind) {
	case store.KindContainer:
		return scope.ForContainers(r.OwnerID)
	case store.KindSubContainer:
		return scope.ForSubContainers(r.ContainerID)
	}
	return scope.ForItems(r.ContainerID, r.SubContainerID, store.Status(r.Status))
}

// decode reports false for empty images and records of unknown kind.
func (h *Handler) decode(image map[string]events.DynamoDBAttributeValue) (recordImage, bool, error) {
	if len(image) == 0 {
		return recordImage{}, false, nil
	}
	var r recordImage
	if err := attributevalue.UnmarshalMap(ConvertStreamImage(image), &r); err != nil {
		return recordImage{}, false, fmt.Errorf("unmarshal stream image: %w", err)
	}

	switch store.Kind(r.Kind) {
	case store.KindContainer, store.KindSubContainer:
		return r, true, nil
	case store.KindItem:
		if !store.Status(r.Status).IsValid() {
			return recordImage{}, false, fmt.Errorf("unknown item status %q", r.Status)
		}
		return r, true, nil
	}
	h.logger.Warn("skipping record of unknown kind", "kind", r.Kind)
	return recordImage{}, false, nil
}

// ConvertStreamImage converts a DynamoDB stream image to SDK attribute values.
func ConvertStreamImage(image map[string]events.DynamoDBAttributeValue) map[string]types.AttributeValue {
	result := make(map[string]types.AttributeValue, len(image))
	for k, v := range image {
		result[k] = convertAttribute(v)
	}
	return result
}

func convertAttribute(v events.DynamoDBAttributeValue) types.AttributeValue {
	switch v.DataType() {
	case events.DataTypeString:
		return &types.AttributeValueMemberS{Value: v.String()}
	case events.DataTypeNumber:
		return &types.AttributeValueMemberN{Value: v.Number()}
	case events.DataTypeBinary:
		return &types.AttributeValueMemberB{Value: v.Binary()}
	case events.DataTypeBoolean:
		return &types.AttributeValueMemberBOOL{Value: v.Boolean()}
	case events.DataTypeList:
		list := make([]types.AttributeValue, 0, len(v.List()))
		for _, el := range v.List() {
			list = append(list, convertAttribute(el))
		}
		return &types.AttributeValueMemberL{Value: list}
	case events.DataTypeMap:
		return &types.AttributeValueMemberM{Value: ConvertStreamImage(v.Map())}
	}
	return &types.AttributeValueMemberNULL{Value: true}
}
