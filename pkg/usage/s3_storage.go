package usage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
)

const bytesPerMB = 1024 * 1024

// S3Config configures the bucket that stores vehicle photos.
type S3Config struct {
	Bucket         string `env:"S3_BUCKET"`
	Region         string `env:"S3_REGION" envDefault:"sa-east-1"`
	Endpoint       string `env:"S3_ENDPOINT"`
	AccessKeyID    string `env:"S3_ACCESS_KEY_ID"`
	SecretKey      string `env:"S3_SECRET_KEY"`
	ForcePathStyle bool   `env:"S3_FORCE_PATH_STYLE" envDefault:"false"`
	Prefix         string `env:"S3_PREFIX" envDefault:"vehicles"`
}

// Enabled reports whether a bucket is configured.
func (c S3Config) Enabled() bool { return c.Bucket != "" }

// S3StorageCounter reports how many megabytes an owner's photos occupy.
// Objects are expected under "{prefix}/{ownerID}/".
type S3StorageCounter struct {
	client s3.ListObjectsV2APIClient
	bucket string
	prefix string
}

// NewS3StorageCounter builds a counter from cfg using the default AWS
// credential chain unless static keys are set.
func NewS3StorageCounter(ctx context.Context, cfg S3Config) (*S3StorageCounter, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, ErrInvalidStorageConfig
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
		))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Join(ErrInvalidStorageConfig, err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})
	return NewS3StorageCounterWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

// NewS3StorageCounterWithClient uses an existing client.
func NewS3StorageCounterWithClient(client s3.ListObjectsV2APIClient, bucket, prefix string) *S3StorageCounter {
	if client == nil {
		panic("usage: s3 client is required")
	}
	return &S3StorageCounter{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (c *S3StorageCounter) ownerPrefix(ownerID uuid.UUID) string {
	if c.prefix == "" {
		return ownerID.String() + "/"
	}
	return c.prefix + "/" + ownerID.String() + "/"
}

// Bytes sums the size of every object under the owner's prefix.
func (c *S3StorageCounter) Bytes(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	p := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(c.ownerPrefix(ownerID)),
	})

	var total int64
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return 0, classifyS3Error(err)
		}
		for _, obj := range page.Contents {
			total += aws.ToInt64(obj.Size)
		}
	}
	return total, nil
}

// CountMB returns storage usage in megabytes, rounded up.
func (c *S3StorageCounter) CountMB(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	b, err := c.Bytes(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	return (b + bytesPerMB - 1) / bytesPerMB, nil
}

func (c *S3StorageCounter) CounterFunc() CounterFunc {
	return c.CountMB
}

func classifyS3Error(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errors.Join(ErrStorageUnavailable, err)
	}
	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return errors.Join(ErrInvalidStorageConfig, err)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return errors.Join(ErrStorageUnavailable, fmt.Errorf("list objects (code: %s): %w", apiErr.ErrorCode(), err))
	}
	return errors.Join(ErrStorageUnavailable, err)
}
