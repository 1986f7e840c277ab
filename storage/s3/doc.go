// Package s3 provides a storage.Adapter keeping the database in one S3 object.
//
// # Usage
//
//	adapter, err := s3.NewFromConfig(ctx, "my-bucket", "apps/notes.db")
//	db := stegdb.New(adapter)
//
// # Commit log
//
// Plain S3 gives last-writer-wins semantics. WithCommitLog adds a DynamoDB
// table acting as a commit log: every commit uploads a new object
// "<key>/v<N>-<uuid>" and then conditionally records version N with that
// object key. A writer whose view
// is stale gets ErrConcurrentModification instead of silently overwriting.
//
// Table schema:
//   - Partition key: base_uri (string) - "s3://bucket/key"
//   - Sort key: version (number) - monotonically increasing version
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name stegdb-commits \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
package s3
