// Package archive uploads catalog snapshots to S3.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"nutrilog/internal/config"
	applog "nutrilog/internal/log"
)

// ErrDisabled is returned by NewFromConfig when no bucket is configured.
var ErrDisabled = errors.New("archive: no bucket configured")

// PutObjectAPI is the part of the S3 client used for uploads.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 stores snapshots as objects under a key prefix.
type S3 struct {
	client PutObjectAPI
	bucket string
	prefix string
}

// New returns an archive writing to bucket through client.
func New(client PutObjectAPI, bucket, prefix string) *S3 {
	return &S3{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// NewFromConfig builds an S3 client from the default AWS credential chain.
func NewFromConfig(ctx context.Context, cfg config.ArchiveConfig) (*S3, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, ErrDisabled
	}
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return New(s3.NewFromConfig(awsCfg), cfg.Bucket, cfg.Prefix), nil
}

// Key is the object key used for a snapshot file name.
func (a *S3) Key(name string) string {
	if a.prefix == "" {
		return name
	}
	return path.Join(a.prefix, name)
}

// Store uploads body as name and returns the object's s3:// location.
func (a *S3) Store(ctx context.Context, name string, body []byte) (string, error) {
	key := a.Key(name)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	location := fmt.Sprintf("s3://%s/%s", a.bucket, key)
	applog.Info(ctx, "snapshot archived", "location", location, "bytes", len(body))
	return location, nil
}
