package s3

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/kbukum/starschema/logger"
	"github.com/kbukum/starschema/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderS3, func(ctx context.Context, cfg storage.Config, log *logger.Logger) (storage.Prober, error) {
		return NewProber(ctx, cfg)
	})
}

// listAPI is the subset of the S3 client used by Prober.
type listAPI interface {
	ListObjectsV2(ctx context.Context, in *awss3.ListObjectsV2Input, optFns ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error)
}

// Prober implements storage.Prober using Amazon S3 (or S3-compatible services).
type Prober struct {
	client listAPI
}

// NewProber creates an S3 client from the given config.
func NewProber(ctx context.Context, cfg storage.Config) (*Prober, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	var s3Opts []func(*awss3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *awss3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *awss3.Options) {
			o.UsePathStyle = true
		})
	}

	return &Prober{client: awss3.NewFromConfig(awsCfg, s3Opts...)}, nil
}

// HasObjects lists at most one key under prefix.
func (p *Prober) HasObjects(ctx context.Context, bucket, prefix string) (bool, error) {
	out, err := p.client.ListObjectsV2(ctx, &awss3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return false, fmt.Errorf("storage: s3 list %s/%s: %w", bucket, prefix, err)
	}
	return len(out.Contents) > 0 || aws.ToInt32(out.KeyCount) > 0, nil
}

// compile-time check
var _ storage.Prober = (*Prober)(nil)
