// Package storage uploads proof images to S3-compatible object storage
// through presigned PUT URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/eventpass/internal/netx"
)

const (
	ProofsFolder      = "event-proofs"
	defaultPresignTTL = 15 * time.Minute
)

var ErrNotConfigured = errors.New("object storage is not configured")

// seams for tests
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	putPresigned = netx.PutPresigned
)

type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	// PublicBaseURL prefixes object keys in the URLs handed to the server.
	// When empty, URLs are built from Endpoint and Bucket.
	PublicBaseURL string
	PresignTTL    time.Duration
}

func (c Config) Enabled() bool {
	return c.Bucket != ""
}

// Uploader puts an object under key and returns the URL it can be read from.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

type S3Uploader struct {
	cfg  Config
	http *http.Client
}

func NewS3Uploader(cfg Config, httpClient *http.Client) *S3Uploader {
	if cfg.PresignTTL <= 0 {
		cfg.PresignTTL = defaultPresignTTL
	}
	return &S3Uploader{cfg: cfg, http: httpClient}
}

var _ Uploader = (*S3Uploader)(nil)

func (u *S3Uploader) presignClient(ctx context.Context) (*s3.PresignClient, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(u.cfg.Region)}
	if u.cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(u.cfg.AccessKey, u.cfg.SecretKey, ""),
		))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if u.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(u.cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3PresignClient(client), nil
}

func (u *S3Uploader) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	if !u.cfg.Enabled() {
		return "", ErrNotConfigured
	}

	pc, err := u.presignClient(ctx)
	if err != nil {
		return "", err
	}

	in := &s3.PutObjectInput{
		Bucket: aws.String(u.cfg.Bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	req, err := presignPutObject(pc, ctx, in, s3.WithPresignExpires(u.cfg.PresignTTL))
	if err != nil {
		return "", fmt.Errorf("presign put %s: %w", key, err)
	}

	if err := putPresigned(ctx, u.http, req.URL, contentType, body, size); err != nil {
		return "", err
	}
	return u.PublicURL(key), nil
}

// PublicURL is the read URL for key. Each key segment is path-escaped.
func (u *S3Uploader) PublicURL(key string) string {
	if u.cfg.PublicBaseURL != "" {
		return strings.TrimRight(u.cfg.PublicBaseURL, "/") + "/" + escapeKey(key)
	}
	return strings.TrimRight(u.cfg.Endpoint, "/") + "/" + escapeKey(path.Join(u.cfg.Bucket, key))
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// ObjectKey names an upload <folder>/<unix millis>_<file base name>.
func ObjectKey(folder, filename string, now time.Time) string {
	return fmt.Sprintf("%s/%d_%s", folder, now.UnixMilli(), filepath.Base(filename))
}
