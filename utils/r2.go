package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectStore is the part of the S3 API the archiver uses.
type ObjectStore interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type R2Settings struct {
	Bucket          string
	AccountID       string
	PublicURL       string // e.g. https://<bucket>.<account_id>.r2.dev
	AccessKeyID     string
	SecretAccessKey string
}

// R2Archiver stores generated PDFs in a Cloudflare R2 bucket.
type R2Archiver struct {
	Client     ObjectStore
	Bucket     string
	PublicBase string
}

func NewR2Archiver(ctx context.Context, s R2Settings) (*R2Archiver, error) {
	if s.Bucket == "" || s.AccountID == "" || s.PublicURL == "" {
		return nil, errors.New("missing required R2 settings")
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("auto"), // Important for R2
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.AccessKeyID,
			s.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", s.AccountID)
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})
	return &R2Archiver{Client: client, Bucket: s.Bucket, PublicBase: s.PublicURL}, nil
}

// Upload stores a PDF under the base name of filename and returns its public URL.
func (a *R2Archiver) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	key := path.Base(filename)
	_, err := a.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to R2: %w", err)
	}
	return fmt.Sprintf("%s/%s", strings.TrimRight(a.PublicBase, "/"), url.PathEscape(key)), nil
}

// Delete removes the object behind a URL returned by Upload.
func (a *R2Archiver) Delete(ctx context.Context, fileURL string) error {
	u, err := url.Parse(fileURL)
	if err != nil {
		return fmt.Errorf("invalid file URL: %w", err)
	}
	key, err := url.PathUnescape(path.Base(u.Path))
	if err != nil {
		return fmt.Errorf("invalid file URL: %w", err)
	}

	_, err = a.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete R2 object: %w", err)
	}
	return nil
}
