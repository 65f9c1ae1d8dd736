// Package images moves embedded entry images into an S3-compatible object
// store (MinIO in development) and returns a URL to reference instead.
package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/kidsdiary/internal/logging"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

var ErrUploadFailed = errors.New("image upload failed")

// SigV4 presigned URLs are valid for at most 7 days.
const DefaultURLExpiry = 7 * 24 * time.Hour

// Uploader stores an image and returns a URL to read it back.
type Uploader interface {
	Upload(ctx context.Context, mediaType string, data []byte) (string, error)
}

type S3Config struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
	URLExpiry    time.Duration
}

type S3Uploader struct {
	cfg S3Config
	now func() time.Time
	log logging.Logger

	mu      sync.Mutex
	client  *s3.Client
	presign *s3.PresignClient
}

func NewS3Uploader(cfg S3Config, log logging.Logger) *S3Uploader {
	if cfg.URLExpiry <= 0 || cfg.URLExpiry > DefaultURLExpiry {
		cfg.URLExpiry = DefaultURLExpiry
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &S3Uploader{cfg: cfg, now: time.Now, log: log.With("component", "images")}
}

func (u *S3Uploader) clients(ctx context.Context) (*s3.Client, *s3.PresignClient, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.client != nil {
		return u.client, u.presign, nil
	}

	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(u.cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			u.cfg.AccessKey,
			u.cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if u.cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(u.cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})
	u.client = client
	u.presign = newS3PresignClient(client)
	return u.client, u.presign, nil
}

// ObjectKey returns a date-partitioned random key for a new image.
func ObjectKey(now time.Time, mediaType string) string {
	return fmt.Sprintf("diary/%d/%02d/%02d/%s%s", now.Year(), now.Month(), now.Day(), uuid.New(), extension(mediaType))
}

func (u *S3Uploader) Upload(ctx context.Context, mediaType string, data []byte) (string, error) {
	client, presign, err := u.clients(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	bucket := u.cfg.Bucket
	key := ObjectKey(u.now(), mediaType)

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:        &bucket,
		Key:           &key,
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(mediaType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("%w: put %s: %v", ErrUploadFailed, key, err)
	}

	req, err := presignGetObject(presign, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(u.cfg.URLExpiry))
	if err != nil {
		return "", fmt.Errorf("%w: presign %s: %v", ErrUploadFailed, key, err)
	}

	u.log.Debug(ctx, "image uploaded", "key", key, "bytes", len(data))
	return req.URL, nil
}

// ReplaceDataURI uploads the bytes of a data URI and returns the remote URL.
// Anything that is not a data URI is returned unchanged.
func ReplaceDataURI(ctx context.Context, u Uploader, ref string) (string, error) {
	if u == nil || !IsDataURI(ref) {
		return ref, nil
	}
	mediaType, data, err := ParseDataURI(ref)
	if err != nil {
		return ref, err
	}
	url, err := u.Upload(ctx, mediaType, data)
	if err != nil {
		return ref, err
	}
	return url, nil
}
