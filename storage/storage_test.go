package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/kbukum/starschema/logger"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		in      string
		want    Location
		wantErr bool
	}{
		{"s3://udacity-dend/log-data/", Location{"udacity-dend", "log-data/"}, false},
		{"s3://udacity-dend", Location{"udacity-dend", ""}, false},
		{"s3://b/a/b/c.json", Location{"b", "a/b/c.json"}, false},
		{"udacity-dend/log-data", Location{}, true},
		{"s3:///log-data", Location{}, true},
	}
	for _, tc := range tests {
		got, err := ParseLocation(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("ParseLocation(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
		if got != tc.want {
			t.Errorf("ParseLocation(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
	if s := (Location{"b", "p/"}).String(); s != "s3://b/p/" {
		t.Errorf("unexpected String() %q", s)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		errMsg string
	}{
		{"none", Config{Provider: ProviderNone}, ""},
		{"local", Config{Provider: ProviderLocal, BasePath: "/data"}, ""},
		{"s3", Config{Provider: ProviderS3, Region: "us-west-2"}, ""},
		{"s3 half credentials", Config{Provider: ProviderS3, Region: "us-west-2", AccessKey: "k"}, "must be set together"},
		{"unknown", Config{Provider: "gcs"}, "unsupported provider"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.errMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.errMsg) {
				t.Fatalf("expected error containing %q, got %v", tc.errMsg, err)
			}
		})
	}
}

func TestNewNoneDisablesPreflight(t *testing.T) {
	p, err := New(context.Background(), Config{}, logger.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != nil {
		t.Errorf("expected nil prober for the none provider, got %T", p)
	}
}

func TestNewUnregistered(t *testing.T) {
	if _, err := New(context.Background(), Config{Provider: ProviderLocal}, logger.NewNop()); err == nil {
		t.Fatal("expected error: local factory is not imported in this package")
	}
}
