package s3

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config holds the connection settings for the S3-compatible object store
// that serves uploaded images (AWS S3, MinIO, or any compatible service).
type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	// PublicBaseURL is the base under which uploaded objects are publicly
	// reachable. When empty, Endpoint is used.
	PublicBaseURL string
}

// MediaStore implements domain.MediaStore over an S3-compatible API.
type MediaStore struct {
	client     *awss3.Client
	bucket     string
	publicBase string
}

// New builds a MediaStore from the given config.
func New(ctx context.Context, cfg Config) (*MediaStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		// Path-style addressing so bucket names don't need DNS entries
		// (required by MinIO).
		o.UsePathStyle = true
	})

	publicBase := cfg.PublicBaseURL
	if publicBase == "" {
		publicBase = cfg.Endpoint
	}

	return &MediaStore{
		client:     client,
		bucket:     cfg.Bucket,
		publicBase: publicBase,
	}, nil
}

// Upload stores data under key and returns the public URL of the object.
func (s *MediaStore) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return objectURL(s.publicBase, s.bucket, key), nil
}

// Delete removes the object stored under key.
func (s *MediaStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

func objectURL(base, bucket, key string) string {
	return strings.TrimSuffix(base, "/") + "/" + bucket + "/" + key
}
