package leads

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

type dynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// dynamoLead is the item layout. The partition key is derived from the
// de-duplication pair so a conditional put enforces uniqueness.
type dynamoLead struct {
	PK             string         `dynamodbav:"pk"`
	ID             string         `dynamodbav:"id"`
	TenantID       *string        `dynamodbav:"tenant_id,omitempty"`
	LandingPageID  *string        `dynamodbav:"landing_page_id,omitempty"`
	Name           string         `dynamodbav:"name"`
	Email          string         `dynamodbav:"email"`
	Phone          *string        `dynamodbav:"phone,omitempty"`
	Source         string         `dynamodbav:"source"`
	CustomFields   map[string]any `dynamodbav:"custom_fields"`
	ReadinessScore *float64       `dynamodbav:"readiness_score,omitempty"`
	IPAddress      *string        `dynamodbav:"ip_address,omitempty"`
	UserAgent      *string        `dynamodbav:"user_agent,omitempty"`
	Status         string         `dynamodbav:"status"`
	CreatedAt      time.Time      `dynamodbav:"created_at"`
}

// DynamoRepository stores leads in a DynamoDB table keyed by
// LEAD#<email>#<source>.
type DynamoRepository struct {
	client dynamoAPI
	table  string
}

// NewDynamoRepository wraps a DynamoDB client and table name.
func NewDynamoRepository(client *dynamodb.Client, table string) *DynamoRepository {
	if client == nil {
		panic("leads: dynamodb client required")
	}
	return newDynamoRepositoryWithAPI(client, table)
}

func newDynamoRepositoryWithAPI(client dynamoAPI, table string) *DynamoRepository {
	if table == "" {
		panic("leads: dynamodb table required")
	}
	return &DynamoRepository{client: client, table: table}
}

func dynamoKey(email, source string) string {
	return fmt.Sprintf("LEAD#%s#%s", email, source)
}

// CreateOrGet writes the lead with attribute_not_exists(pk); a failed
// condition means the pair exists and the stored item is returned.
func (r *DynamoRepository) CreateOrGet(ctx context.Context, lead *Lead) (*Lead, bool, error) {
	stored := cloneLead(lead)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	item, err := attributevalue.MarshalMap(toDynamo(stored))
	if err != nil {
		return nil, false, fmt.Errorf("leads: marshal item: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(pk)"),
	})
	if err == nil {
		return stored, true, nil
	}

	var conflict *types.ConditionalCheckFailedException
	if !errors.As(err, &conflict) {
		return nil, false, fmt.Errorf("leads: put item failed: %w", err)
	}

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            map[string]types.AttributeValue{"pk": &types.AttributeValueMemberS{Value: dynamoKey(stored.Email, stored.Source)}},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, false, fmt.Errorf("leads: get duplicate failed: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, false, fmt.Errorf("leads: conflicting item vanished: %w", ErrLeadNotFound)
	}
	existing, err := fromDynamoItem(out.Item)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// GetByID scans for the lead id. Lookups by id are admin-only and rare.
func (r *DynamoRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	leads, err := r.scan(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(r.table),
		FilterExpression:          aws.String("id = :id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":id": &types.AttributeValueMemberS{Value: id}},
	})
	if err != nil {
		return nil, err
	}
	if len(leads) == 0 {
		return nil, ErrLeadNotFound
	}
	return leads[0], nil
}

// List scans the table and returns leads newest first.
func (r *DynamoRepository) List(ctx context.Context, filter ListFilter) ([]*Lead, error) {
	input := &dynamodb.ScanInput{TableName: aws.String(r.table)}
	if filter.Source != "" {
		input.FilterExpression = aws.String("#src = :source")
		input.ExpressionAttributeNames = map[string]string{"#src": "source"}
		input.ExpressionAttributeValues = map[string]types.AttributeValue{":source": &types.AttributeValueMemberS{Value: filter.Source}}
	}
	leads, err := r.scan(ctx, input)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(leads, func(i, j int) bool {
		return leads[i].CreatedAt.After(leads[j].CreatedAt)
	})
	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	return paginate(leads, filter), nil
}

func (r *DynamoRepository) scan(ctx context.Context, input *dynamodb.ScanInput) ([]*Lead, error) {
	var out []*Lead
	for {
		page, err := r.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		for _, item := range page.Items {
			lead, err := fromDynamoItem(item)
			if err != nil {
				return nil, err
			}
			out = append(out, lead)
		}
		if len(page.LastEvaluatedKey) == 0 {
			return out, nil
		}
		input.ExclusiveStartKey = page.LastEvaluatedKey
	}
}

func toDynamo(l *Lead) dynamoLead {
	return dynamoLead{
		PK:             dynamoKey(l.Email, l.Source),
		ID:             l.ID,
		TenantID:       l.TenantID,
		LandingPageID:  l.LandingPageID,
		Name:           l.Name,
		Email:          l.Email,
		Phone:          l.Phone,
		Source:         l.Source,
		CustomFields:   l.CustomFields,
		ReadinessScore: l.ReadinessScore,
		IPAddress:      l.IPAddress,
		UserAgent:      l.UserAgent,
		Status:         l.Status,
		CreatedAt:      l.CreatedAt,
	}
}

func fromDynamoItem(item map[string]types.AttributeValue) (*Lead, error) {
	var d dynamoLead
	if err := attributevalue.UnmarshalMap(item, &d); err != nil {
		return nil, fmt.Errorf("leads: unmarshal item: %w", err)
	}
	return &Lead{
		ID:             d.ID,
		TenantID:       d.TenantID,
		LandingPageID:  d.LandingPageID,
		Name:           d.Name,
		Email:          d.Email,
		Phone:          d.Phone,
		Source:         d.Source,
		CustomFields:   d.CustomFields,
		ReadinessScore: d.ReadinessScore,
		IPAddress:      d.IPAddress,
		UserAgent:      d.UserAgent,
		Status:         d.Status,
		CreatedAt:      d.CreatedAt,
	}, nil
}
