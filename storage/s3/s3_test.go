package s3

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/kbukum/starschema/logger"
	"github.com/kbukum/starschema/storage"
)

type fakeList struct {
	in  *awss3.ListObjectsV2Input
	out *awss3.ListObjectsV2Output
	err error
}

func (f *fakeList) ListObjectsV2(_ context.Context, in *awss3.ListObjectsV2Input, _ ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error) {
	f.in = in
	return f.out, f.err
}

func TestHasObjects(t *testing.T) {
	fake := &fakeList{out: &awss3.ListObjectsV2Output{
		Contents: []types.Object{{Key: aws.String("log-data/2018/11/events.json")}},
		KeyCount: aws.Int32(1),
	}}
	p := &Prober{client: fake}

	ok, err := p.HasObjects(context.Background(), "udacity-dend", "log-data/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected objects")
	}
	if aws.ToString(fake.in.Bucket) != "udacity-dend" || aws.ToString(fake.in.Prefix) != "log-data/" {
		t.Errorf("unexpected request %+v", fake.in)
	}
	if aws.ToInt32(fake.in.MaxKeys) != 1 {
		t.Errorf("expected MaxKeys 1, got %d", aws.ToInt32(fake.in.MaxKeys))
	}
}

func TestHasObjectsEmpty(t *testing.T) {
	p := &Prober{client: &fakeList{out: &awss3.ListObjectsV2Output{KeyCount: aws.Int32(0)}}}
	ok, err := p.HasObjects(context.Background(), "b", "empty/")
	if err != nil || ok {
		t.Fatalf("expected no objects, got %v, %v", ok, err)
	}
}

func TestHasObjectsError(t *testing.T) {
	p := &Prober{client: &fakeList{err: errors.New("access denied")}}
	if _, err := p.HasObjects(context.Background(), "b", "p"); err == nil {
		t.Fatal("expected error")
	}
}

func TestFactoryRegistered(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	p, err := storage.New(context.Background(), storage.Config{Provider: storage.ProviderS3, Endpoint: "http://localhost:9000"}, logger.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.(*Prober); !ok {
		t.Fatalf("expected *s3.Prober, got %T", p)
	}
}
