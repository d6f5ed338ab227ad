package dynamo

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/huyaboo/saved-objects-ddb-ingestor/pkg/ingestor"
)

// MarshalItem converts a decoded saved object into a DynamoDB item.
// json.Number values keep their exact text as N attributes.
func MarshalItem(obj ingestor.SavedObject) (map[string]types.AttributeValue, error) {
	item := make(map[string]types.AttributeValue, len(obj))
	for k, v := range obj {
		av, err := marshalValue(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		item[k] = av
	}
	return item, nil
}

func marshalValue(v any) (types.AttributeValue, error) {
	switch val := v.(type) {
	case nil:
		return &types.AttributeValueMemberNULL{Value: true}, nil
	case string:
		return &types.AttributeValueMemberS{Value: val}, nil
	case json.Number:
		return &types.AttributeValueMemberN{Value: val.String()}, nil
	case bool:
		return &types.AttributeValueMemberBOOL{Value: val}, nil
	case float64:
		return &types.AttributeValueMemberN{Value: strconv.FormatFloat(val, 'f', -1, 64)}, nil
	case int:
		return &types.AttributeValueMemberN{Value: strconv.Itoa(val)}, nil
	case int64:
		return &types.AttributeValueMemberN{Value: strconv.FormatInt(val, 10)}, nil
	case []any:
		list := make([]types.AttributeValue, len(val))
		for i, elem := range val {
			av, err := marshalValue(elem)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			list[i] = av
		}
		return &types.AttributeValueMemberL{Value: list}, nil
	case map[string]any:
		m, err := MarshalItem(val)
		if err != nil {
			return nil, err
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	default:
		av, err := attributevalue.Marshal(val)
		if err != nil {
			return nil, err
		}
		if av == nil {
			return nil, fmt.Errorf("unsupported type %T", val)
		}
		return av, nil
	}
}

// UnmarshalItem converts a DynamoDB item back into a saved object.
// Numbers come back as float64.
func UnmarshalItem(item map[string]types.AttributeValue) (ingestor.SavedObject, error) {
	var obj map[string]any
	if err := attributevalue.UnmarshalMap(item, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}
