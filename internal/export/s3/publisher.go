// Package s3export publishes exported files to an S3-compatible object store.
package s3export

import (
	"context"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"abprep/internal/export"
)

// Config selects the bucket and, for non-AWS providers, the endpoint.
type Config struct {
	Bucket   string
	Prefix   string // key prefix, e.g. "runs/2024-06-01"
	Region   string // default us-east-1
	Endpoint string // empty for AWS S3

	// Static credentials. When AccessKey is empty the default AWS credential
	// chain is used.
	AccessKey string
	SecretKey string

	ForcePathStyle bool
}

// uploader is the subset of manager.Uploader the publisher needs.
type uploader interface {
	Upload(ctx context.Context, in *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Publisher uploads files to one bucket.
type Publisher struct {
	up     uploader
	bucket string
	prefix string
}

// New builds a Publisher backed by the AWS SDK multipart upload manager.
func New(ctx context.Context, cfg Config) (*Publisher, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3: bucket name is required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		endpoint := normaliseEndpoint(cfg.Endpoint)
		s3Opts = append(s3Opts, func(o *s3.Options) { o.BaseEndpoint = aws.String(endpoint) })
	}
	if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) { o.UsePathStyle = true })
	}
	client := s3.NewFromConfig(awsCfg, s3Opts...)

	return newPublisher(manager.NewUploader(client), cfg), nil
}

func newPublisher(up uploader, cfg Config) *Publisher {
	return &Publisher{up: up, bucket: cfg.Bucket, prefix: cfg.Prefix}
}

// Key returns the object key a local file is published under.
func (p *Publisher) Key(localPath string) string {
	return path.Join(p.prefix, filepath.Base(localPath))
}

// Publish uploads the file described by fp and tags the object with its row
// count and xxh3 fingerprint. It returns the object key.
func (p *Publisher) Publish(ctx context.Context, fp export.Fingerprint) (string, error) {
	key, err := p.upload(ctx, fp.Path, "text/csv", map[string]string{
		"rows": strconv.Itoa(fp.Rows),
		"xxh3": fmt.Sprintf("%016x", fp.XXH3),
	})
	if err != nil {
		return "", err
	}
	log.Printf("s3: published s3://%s/%s rows=%d bytes=%d", p.bucket, key, fp.Rows, fp.Bytes)
	return key, nil
}

// PublishReport uploads the xlsx report at localPath and returns its key.
func (p *Publisher) PublishReport(ctx context.Context, localPath string) (string, error) {
	key, err := p.upload(ctx, localPath, xlsxContentType, nil)
	if err != nil {
		return "", err
	}
	log.Printf("s3: published s3://%s/%s", p.bucket, key)
	return key, nil
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (p *Publisher) upload(ctx context.Context, localPath, contentType string, meta map[string]string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("s3: open %s: %w", localPath, err)
	}
	defer f.Close()

	key := p.Key(localPath)
	_, err = p.up.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
		Metadata:    meta,
	})
	if err != nil {
		return "", fmt.Errorf("s3: upload s3://%s/%s: %w", p.bucket, key, err)
	}
	return key, nil
}

// normaliseEndpoint prepends https:// to an endpoint without a scheme.
func normaliseEndpoint(endpoint string) string {
	if strings.Contains(endpoint, "://") {
		return endpoint
	}
	return "https://" + endpoint
}
