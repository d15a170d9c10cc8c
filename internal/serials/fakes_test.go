package serials

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/linearclockworks/shopify-serial--webhook/internal/shopify"
)

// memTable emulates the subset of DynamoDB the sequencer relies on.
type memTable struct {
	mu    sync.Mutex
	items map[string]int64
	err   error
}

func newMemTable() *memTable {
	return &memTable{items: map[string]int64{}}
}

func pkOf(key map[string]ddbtypes.AttributeValue) string {
	return key["PK"].(*ddbtypes.AttributeValueMemberS).Value
}

func conditionFailed() error {
	return &ddbtypes.ConditionalCheckFailedException{Message: aws.String("condition failed")}
}

func (m *memTable) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	pk := pkOf(in.Key)
	v, ok := m.items[pk]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: map[string]ddbtypes.AttributeValue{
		"PK":        &ddbtypes.AttributeValueMemberS{Value: pk},
		"NextValue": &ddbtypes.AttributeValueMemberN{Value: strconv.FormatInt(v, 10)},
	}}, nil
}

func (m *memTable) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	pk := pkOf(in.Item)
	if _, ok := m.items[pk]; ok && in.ConditionExpression != nil {
		return nil, conditionFailed()
	}
	n, err := strconv.ParseInt(in.Item["NextValue"].(*ddbtypes.AttributeValueMemberN).Value, 10, 64)
	if err != nil {
		return nil, err
	}
	m.items[pk] = n
	return &dynamodb.PutItemOutput{}, nil
}

func (m *memTable) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	pk := pkOf(in.Key)
	old, ok := m.items[pk]
	if !ok {
		return nil, conditionFailed()
	}
	m.items[pk] = old + 1
	return &dynamodb.UpdateItemOutput{Attributes: map[string]ddbtypes.AttributeValue{
		"NextValue": &ddbtypes.AttributeValueMemberN{Value: strconv.FormatInt(old, 10)},
	}}, nil
}

type memMetafields struct {
	mu        sync.Mutex
	fields    map[string]*shopify.Metafield
	nextID    int64
	updateErr error
}

func newMemMetafields() *memMetafields {
	return &memMetafields{fields: map[string]*shopify.Metafield{}, nextID: 100}
}

func (m *memMetafields) set(ns, key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.fields[ns+"."+key] = &shopify.Metafield{ID: m.nextID, Namespace: ns, Key: key, Type: "number_integer", Value: shopify.MetafieldValue(value)}
}

func (m *memMetafields) value(ns, key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mf, ok := m.fields[ns+"."+key]; ok {
		return string(mf.Value)
	}
	return ""
}

func (m *memMetafields) FindShopMetafield(_ context.Context, ns, key string) (*shopify.Metafield, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mf, ok := m.fields[ns+"."+key]
	if !ok {
		return nil, nil
	}
	cp := *mf
	return &cp, nil
}

func (m *memMetafields) CreateMetafield(_ context.Context, mf shopify.Metafield) (*shopify.Metafield, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	mf.ID = m.nextID
	m.fields[mf.Namespace+"."+mf.Key] = &mf
	return &mf, nil
}

func (m *memMetafields) UpdateMetafieldValue(_ context.Context, id int64, value, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	for _, mf := range m.fields {
		if mf.ID == id {
			mf.Value = shopify.MetafieldValue(value)
			return nil
		}
	}
	return errors.New("metafield not found")
}
