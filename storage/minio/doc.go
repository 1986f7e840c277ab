// Package minio provides a storage.Adapter for MinIO and other S3-compatible
// object stores, keeping the database in one object.
//
// # Usage
//
//	client, _ := minio.New("localhost:9000", &minio.Options{
//	    Creds: credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	})
//	db := stegdb.New(stegminio.New(client, "stegdb", "notes.db"))
package minio
