package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	retry "github.com/avast/retry-go/v5"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/onkernel/screencap/lib/logger"
	"github.com/onkernel/screencap/lib/sink"
)

// S3Config holds S3 (or S3-compatible) settings.
type S3Config struct {
	Endpoint        string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Prefix          string // Optional key prefix
}

// Validate checks required fields
func (c S3Config) Validate() error {
	if c.Bucket == "" {
		return errors.New("S3_BUCKET is required")
	}
	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		return errors.New("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must be set together")
	}
	return nil
}

type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Publisher uploads recordings with the S3 upload manager, which switches
// to multipart uploads for large files.
type S3Publisher struct {
	config   S3Config
	uploader uploader
	attempts uint
	delay    time.Duration
}

func NewS3Publisher(ctx context.Context, cfg S3Config) (*S3Publisher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Region == "" {
		cfg.Region = "auto"
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // Required for R2 and most S3-compatible storage
		}
	})

	return &S3Publisher{
		config:   cfg,
		uploader: manager.NewUploader(client),
		attempts: 3,
		delay:    time.Second,
	}, nil
}

func (p *S3Publisher) Publish(ctx context.Context, a *sink.Artifact) (string, error) {
	log := logger.FromContext(ctx)
	// every recording shares a filename; the id keeps keys apart
	key := p.config.Prefix + a.ID + "-" + a.Filename

	var location string
	err := retry.New(
		retry.Attempts(p.attempts),
		retry.Delay(p.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	).Do(func() error {
		body, err := a.Open()
		if err != nil {
			return retry.Unrecoverable(err)
		}
		defer body.Close()

		out, err := p.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(p.config.Bucket),
			Key:           aws.String(key),
			Body:          body,
			ContentType:   aws.String(a.MimeType),
			ContentLength: aws.Int64(a.Size),
		})
		if err != nil {
			log.Warn("recording upload attempt failed", "key", key, "err", err)
			return err
		}
		location = out.Location
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	log.Info("recording uploaded", "bucket", p.config.Bucket, "key", key, "size", a.Size)
	if location == "" {
		location = fmt.Sprintf("s3://%s/%s", p.config.Bucket, key)
	}
	return location, nil
}
