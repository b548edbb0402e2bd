// Package storage checks object storage before bulk loads run.
// Supported providers: local filesystem, Amazon S3 (and S3-compatible services).
package storage

import (
	"context"
	"fmt"
	"strings"
)

// Prober reports whether a location holds any object.
type Prober interface {
	// HasObjects reports whether at least one object key in bucket starts with prefix.
	HasObjects(ctx context.Context, bucket, prefix string) (bool, error)
}

// Location is a parsed s3://bucket/prefix URI.
type Location struct {
	Bucket string
	Prefix string
}

// String formats the location as an s3 URI.
func (l Location) String() string {
	return "s3://" + l.Bucket + "/" + l.Prefix
}

// ParseLocation parses s3://bucket/prefix. The prefix may be empty.
func ParseLocation(uri string) (Location, error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return Location{}, fmt.Errorf("storage: %q is not an s3:// uri", uri)
	}
	bucket, prefix, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return Location{}, fmt.Errorf("storage: %q has no bucket", uri)
	}
	return Location{Bucket: bucket, Prefix: prefix}, nil
}
