// Package storage provides the object storage preflight used by bulk loads.
//
// A bulk load whose source prefix is empty would COPY zero rows and succeed,
// leaving the quality gate to fail much later. The Prober lets a stage check
// that the prefix holds objects before the warehouse is contacted.
//
// # Backends
//
//   - storage/s3: Amazon S3 and S3-compatible storage
//   - storage/local: a directory tree standing in for buckets, for development
//
// # Configuration
//
//	storage:
//	  provider: "s3"
//	  region: "us-west-2"
package storage
