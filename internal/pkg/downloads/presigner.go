package downloads

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"
)

const DefaultLinkTTL = 72 * time.Hour

// Config holds the object storage settings for bonus downloads.
type Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	EndpointURL     string
	LinkTTL         time.Duration
}

// IsEnabled reports whether credentials are configured.
func (c Config) IsEnabled() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// LinkSigner turns a stored download URL into one a customer can open.
type LinkSigner interface {
	SignURL(ctx context.Context, raw string) (string, error)
}

type presignAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Presigner issues time limited GET links for s3://bucket/key URLs. Any
// other URL is returned unchanged.
type Presigner struct {
	client        presignAPI
	defaultBucket string
	ttl           time.Duration
}

// NewPresigner creates a presigner from static credentials.
func NewPresigner(ctx context.Context, cfg Config) (*Presigner, error) {
	if !cfg.IsEnabled() {
		return nil, errors.New("S3 downloads are not configured")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
		}
	})

	log.Infof("[Downloads] Presigning download links (default bucket: %s)", cfg.Bucket)
	return newPresigner(s3.NewPresignClient(s3Client), cfg.Bucket, cfg.LinkTTL), nil
}

func newPresigner(client presignAPI, bucket string, ttl time.Duration) *Presigner {
	if ttl <= 0 {
		ttl = DefaultLinkTTL
	}
	return &Presigner{client: client, defaultBucket: bucket, ttl: ttl}
}

func (p *Presigner) SignURL(ctx context.Context, raw string) (string, error) {
	bucket, key, ok := parseS3URL(raw)
	if !ok {
		return raw, nil
	}
	if bucket == "" {
		bucket = p.defaultBucket
	}
	if bucket == "" {
		return "", fmt.Errorf("no bucket for download %q", raw)
	}

	req, err := p.client.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(p.ttl))
	if err != nil {
		return "", fmt.Errorf("presign %s/%s: %w", bucket, key, err)
	}
	return req.URL, nil
}

// PassthroughSigner leaves every URL as stored.
type PassthroughSigner struct{}

func (PassthroughSigner) SignURL(_ context.Context, raw string) (string, error) {
	if strings.HasPrefix(raw, "s3://") {
		log.Warnf("[Downloads] S3 not configured, sending unsigned link %s", raw)
	}
	return raw, nil
}

// NewLinkSigner returns a presigner when S3 is configured.
func NewLinkSigner(ctx context.Context, cfg Config) (LinkSigner, error) {
	if !cfg.IsEnabled() {
		return PassthroughSigner{}, nil
	}
	return NewPresigner(ctx, cfg)
}

func parseS3URL(raw string) (bucket, key string, ok bool) {
	if !strings.HasPrefix(raw, "s3://") {
		return "", "", false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", false
	}
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", false
	}
	return u.Host, key, true
}
