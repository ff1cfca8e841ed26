package media

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

type S3HostConfig struct {
	Bucket        string
	Region        string
	Endpoint      string // MinIOなど
	PublicBaseURL string
}

// PutObjectだけ使う
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Host struct {
	client  s3API
	bucket  string
	baseURL string
}

func NewS3Host(ctx context.Context, cfg S3HostConfig) (*S3Host, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	base := cfg.PublicBaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	return newS3Host(client, cfg.Bucket, base), nil
}

func newS3Host(client s3API, bucket, baseURL string) *S3Host {
	return &S3Host{client: client, bucket: bucket, baseURL: strings.TrimRight(baseURL, "/")}
}

func (h *S3Host) Upload(ctx context.Context, f File) (Result, error) {
	if len(f.Data) == 0 {
		return Result{}, ErrEmptyFile
	}

	key := "media/" + uuid.NewString() + strings.ToLower(path.Ext(f.Name))
	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}

	_, err := h.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(h.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(f.Data),
		ContentType: aws.String(ct),
	})
	if err != nil {
		return Result{}, fmt.Errorf("s3 put failed: %w", err)
	}
	return Result{URL: h.baseURL + "/" + key}, nil
}
