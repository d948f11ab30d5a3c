package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/dmitrijs2005/thesisvault/internal/logging"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	headObject = func(c *s3.Client, ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
		return c.HeadObject(ctx, in, optFns...)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// S3Config describes an S3-compatible endpoint (AWS, MinIO, GCS interop).
type S3Config struct {
	RootUser     string
	RootPassword string
	Region       string
	BaseEndpoint string
}

// S3Backend implements Backend over aws-sdk-go-v2.
type S3Backend struct {
	client  *s3.Client
	presign *s3.PresignClient
	logger  logging.Logger
}

// NewS3Backend builds a client with static credentials. A custom endpoint
// switches to path-style addressing.
func NewS3Backend(ctx context.Context, c S3Config, logger logging.Logger) (*S3Backend, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.RootUser,
			c.RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.BaseEndpoint)
			o.UsePathStyle = true
		}
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})

	return NewS3BackendFromClient(client, logger), nil
}

// NewS3BackendFromClient wraps an already configured client.
func NewS3BackendFromClient(client *s3.Client, logger logging.Logger) *S3Backend {
	return &S3Backend{
		client:  client,
		presign: s3.NewPresignClient(client),
		logger:  logger.With("module", "storage"),
	}
}

func (b *S3Backend) ObjectExists(ctx context.Context, bucket, name string) (bool, error) {
	if bucket == "" || name == "" {
		return false, fmt.Errorf("bucket and object name are required")
	}

	_, err := headObject(b.client, ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(name),
	})
	if err == nil {
		return true, nil
	}

	if isNotFound(err) {
		b.logger.Debug(ctx, "object does not exist", "bucket", bucket, "object", name)
		return false, nil
	}

	b.logger.Error(ctx, "failed to check object existence", "bucket", bucket, "object", name, "error", err)
	return false, fmt.Errorf("check object existence: %w", err)
}

func (b *S3Backend) MintSignedURL(ctx context.Context, bucket, name string, action Action, ttl time.Duration, contentType string) (string, error) {
	expires := s3.WithPresignExpires(ttl)

	var (
		req *v4.PresignedHTTPRequest
		err error
	)
	switch action {
	case ActionRead:
		req, err = presignGetObject(b.presign, ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(name),
		}, expires)
	case ActionWrite:
		req, err = presignPutObject(b.presign, ctx, &s3.PutObjectInput{
			Bucket:      aws.String(bucket),
			Key:         aws.String(name),
			ContentType: aws.String(contentType),
		}, expires, signContentType(contentType))
	default:
		return "", fmt.Errorf("unsupported action %q", action)
	}
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", action, err)
	}
	return req.URL, nil
}

// signContentType puts Content-Type into X-Amz-SignedHeaders so a PUT with
// any other type fails signature verification.
func signContentType(contentType string) func(*s3.PresignOptions) {
	return s3.WithPresignClientFromClientOptions(func(o *s3.Options) {
		o.APIOptions = append(o.APIOptions, smithyhttp.SetHeaderValue("Content-Type", contentType))
	})
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "NotFound", "NoSuchKey":
		return true
	}
	return false
}
