package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/blockcache/blobstore"
	"github.com/hupe1980/blockcache/recordstore"
	"github.com/hupe1980/blockcache/structure"
)

// Client is the interface for DynamoDB operations.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// partitionKey is the table's hash key attribute.
const partitionKey = "data_usage_key"

// item is the DynamoDB row persisted per root. Timestamps are kept in
// their string rendering so rows stay readable in the console.
type item struct {
	DataUsageKey                string `dynamodbav:"data_usage_key"`
	DataVersion                 string `dynamodbav:"data_version"`
	DataEditTimestamp           string `dynamodbav:"data_edit_timestamp"`
	TransformersSchemaVersion   string `dynamodbav:"transformers_schema_version"`
	BlockStructureSchemaVersion string `dynamodbav:"block_structure_schema_version"`
	BlobRef                     string `dynamodbav:"blob_ref"`
}

// Store is a recordstore.Store keeping record rows in DynamoDB and
// payload blobs in the supplied blob store.
//
// Table schema:
//   - Partition key: data_usage_key (string) - the root block key
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name blockcache-records \
//	  --attribute-definitions AttributeName=data_usage_key,AttributeType=S \
//	  --key-schema AttributeName=data_usage_key,KeyType=HASH \
//	  --billing-mode PAY_PER_REQUEST
type Store struct {
	client Client
	table  string
	blobs  blobstore.Store
	keep   int
}

var _ recordstore.Store = (*Store)(nil)

// New creates a record store writing record rows to the given table.
func New(client Client, tableName string, blobs blobstore.Store, optFns ...func(o *recordstore.Options)) *Store {
	o := recordstore.DefaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}

	return &Store{
		client: client,
		table:  tableName,
		blobs:  blobs,
		keep:   o.KeepBlobs,
	}
}

// GetCurrent returns the current record for root. Reads are strongly
// consistent so a record is visible immediately after its Upsert.
func (s *Store) GetCurrent(ctx context.Context, root structure.Key) (recordstore.Record, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			partitionKey: &types.AttributeValueMemberS{Value: string(root)},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return recordstore.Record{}, fmt.Errorf("read record: %w", err)
	}

	if len(out.Item) == 0 {
		return recordstore.Record{}, fmt.Errorf("%w: %s", recordstore.ErrNotFound, root)
	}

	var row item
	if err := attributevalue.UnmarshalMap(out.Item, &row); err != nil {
		return recordstore.Record{}, fmt.Errorf("unmarshal record: %w", err)
	}

	return row.record()
}

// Upsert writes the payload blob, replaces the record row and prunes
// superseded blobs.
func (s *Store) Upsert(ctx context.Context, root structure.Key, fields recordstore.VersionFields, payload []byte) (recordstore.Record, error) {
	ref := recordstore.BlobRef(root, fields, time.Now())

	if err := s.blobs.Put(ctx, ref, payload); err != nil {
		return recordstore.Record{}, fmt.Errorf("write payload blob: %w", err)
	}

	rec := recordstore.Record{
		DataUsageKey:                root,
		DataVersion:                 fields.DataVersion,
		DataEditTimestamp:           fields.DataEditTimestamp,
		TransformersSchemaVersion:   fields.TransformersSchemaVersion,
		BlockStructureSchemaVersion: fields.BlockStructureSchemaVersion,
		BlobRef:                     ref,
	}

	av, err := attributevalue.MarshalMap(newItem(rec))
	if err != nil {
		return recordstore.Record{}, fmt.Errorf("marshal record: %w", err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	}); err != nil {
		return recordstore.Record{}, fmt.Errorf("write record: %w", err)
	}

	// The record is already durable; pruning only reclaims space.
	if _, err := recordstore.PruneBlobs(ctx, s.blobs, root, s.keep); err != nil {
		return rec, fmt.Errorf("prune payload blobs: %w", err)
	}

	return rec, nil
}

// ReadBlob returns the payload bytes the record points at.
func (s *Store) ReadBlob(ctx context.Context, rec recordstore.Record) ([]byte, error) {
	data, err := s.blobs.Read(ctx, rec.BlobRef)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: payload blob %s", recordstore.ErrNotFound, rec.BlobRef)
		}

		return nil, err
	}

	return data, nil
}

// Delete removes the record row and all payload blobs of root.
func (s *Store) Delete(ctx context.Context, root structure.Key) error {
	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			partitionKey: &types.AttributeValueMemberS{Value: string(root)},
		},
	}); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}

	return recordstore.DeleteBlobs(ctx, s.blobs, root)
}

func newItem(rec recordstore.Record) item {
	return item{
		DataUsageKey:                string(rec.DataUsageKey),
		DataVersion:                 rec.DataVersion,
		DataEditTimestamp:           recordstore.FormatTime(rec.DataEditTimestamp),
		TransformersSchemaVersion:   rec.TransformersSchemaVersion,
		BlockStructureSchemaVersion: rec.BlockStructureSchemaVersion,
		BlobRef:                     rec.BlobRef,
	}
}

func (it item) record() (recordstore.Record, error) {
	at, err := recordstore.ParseTime(it.DataEditTimestamp)
	if err != nil {
		return recordstore.Record{}, fmt.Errorf("unmarshal record: %w", err)
	}

	return recordstore.Record{
		DataUsageKey:                structure.Key(it.DataUsageKey),
		DataVersion:                 it.DataVersion,
		DataEditTimestamp:           at,
		TransformersSchemaVersion:   it.TransformersSchemaVersion,
		BlockStructureSchemaVersion: it.BlockStructureSchemaVersion,
		BlobRef:                     it.BlobRef,
	}, nil
}
