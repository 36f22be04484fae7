package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/agrodash/agrodash/internal/shared"
)

const (
	keyAttribute       = "userId"
	notExistsCondition = "attribute_not_exists(#pk)"
	conditionFailed    = "ConditionalCheckFailed"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// DynamoTables names the tables holding each record kind.
type DynamoTables struct {
	Users    string
	Profiles string
}

// DynamoStore implements Store on DynamoDB. Both tables are keyed by userId.
type DynamoStore struct {
	client DynamoAPI
	tables DynamoTables
}

// NewDynamoStore constructs a DynamoDB backed store.
func NewDynamoStore(client DynamoAPI, tables DynamoTables) *DynamoStore {
	return &DynamoStore{client: client, tables: tables}
}

// GetUser fetches a user record with a strongly consistent read.
func (s *DynamoStore) GetUser(ctx context.Context, userID string) (*UserRecord, error) {
	var user UserRecord
	if err := s.get(ctx, s.tables.Users, userID, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetProfile fetches a profile record with a strongly consistent read.
func (s *DynamoStore) GetProfile(ctx context.Context, userID string) (*ProfileRecord, error) {
	var profile ProfileRecord
	if err := s.get(ctx, s.tables.Profiles, userID, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *DynamoStore) get(ctx context.Context, table, userID string, dest interface{}) error {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(table),
		Key:            map[string]types.AttributeValue{keyAttribute: &types.AttributeValueMemberS{Value: userID}},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("dynamo: get %s: %w", table, err)
	}
	if len(out.Item) == 0 {
		return shared.ErrNotFound
	}
	if err := attributevalue.UnmarshalMap(out.Item, dest); err != nil {
		return fmt.Errorf("dynamo: decode %s: %w", table, err)
	}
	return nil
}

// CreateAccount writes both records in one transaction, each conditioned on
// its key being absent.
func (s *DynamoStore) CreateAccount(ctx context.Context, user UserRecord, profile ProfileRecord) error {
	userItem, err := attributevalue.MarshalMap(user)
	if err != nil {
		return fmt.Errorf("dynamo: encode user: %w", err)
	}
	profileItem, err := attributevalue.MarshalMap(profile)
	if err != nil {
		return fmt.Errorf("dynamo: encode profile: %w", err)
	}
	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: conditionalPut(s.tables.Users, userItem)},
			{Put: conditionalPut(s.tables.Profiles, profileItem)},
		},
	})
	if err != nil {
		if isConditionFailure(err) {
			return fmt.Errorf("dynamo: create account %s: %w", user.UserID, shared.ErrWriteConflict)
		}
		return fmt.Errorf("dynamo: create account %s: %w", user.UserID, err)
	}
	return nil
}

func conditionalPut(table string, item map[string]types.AttributeValue) *types.Put {
	return &types.Put{
		TableName:                aws.String(table),
		Item:                     item,
		ConditionExpression:      aws.String(notExistsCondition),
		ExpressionAttributeNames: map[string]string{"#pk": keyAttribute},
	}
}

func isConditionFailure(err error) bool {
	var canceled *types.TransactionCanceledException
	if errors.As(err, &canceled) {
		for _, reason := range canceled.CancellationReasons {
			if aws.ToString(reason.Code) == conditionFailed {
				return true
			}
		}
		return false
	}
	var condErr *types.ConditionalCheckFailedException
	return errors.As(err, &condErr)
}

var _ Store = (*DynamoStore)(nil)
