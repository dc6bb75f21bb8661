// Package storage provides object storage abstractions with pluggable backends
// for storagekit applications.
//
// It defines interfaces for common storage operations (upload, download,
// delete, existence checks, links) and follows storagekit's component pattern
// with lifecycle management.
//
// # Backends
//
//   - storage/dropbox: Dropbox API v2 with refresh-token authentication
//   - storage/s3: Amazon S3 and S3-compatible storage
//   - storage/local: Local filesystem storage for development/testing
//
// # Configuration
//
// Backend selection and settings are provided via Config:
//
//	storage:
//	  provider: "dropbox"
//	  app_key: "..."
//	  app_secret: "..."
//	  refresh_token: "..."
package storage
