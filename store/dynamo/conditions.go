package dynamo

import (
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// NotExistsCondition returns the condition expression for inserting a new record.
func NotExistsCondition() string {
	return "attribute_not_exists(id)"
}

// VersionCondition returns the condition expression for the optimistic lock.
// A missing record has no version, so the condition also fails for it.
func VersionCondition() string {
	return "#version = :expected_version"
}

// VersionNames returns expression attribute names for VersionCondition.
func VersionNames() map[string]string {
	return map[string]string{"#version": "version"}
}

// VersionValues returns expression attribute values for VersionCondition.
func VersionValues(expected int64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		":expected_version": &types.AttributeValueMemberN{
			Value: strconv.FormatInt(expected, 10),
		},
	}
}
