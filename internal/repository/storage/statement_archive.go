// Package storage holds external blob-storage adapters. StatementArchive
// is the only one the payments core owns: the raw text of every uploaded
// M-Pesa statement is archived to S3 once its parsed statement is stored,
// so a parser bug or a bad re-run never loses the source document.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	cfg "github.com/kodisha/rentcore/internal/config"
)

// StatementArchive persists the raw text of uploaded statements to S3,
// keyed by landlord and statement ID, independent of the parsed/matched
// rows the ingest coordinator writes to Postgres.
type StatementArchive interface {
	Put(ctx context.Context, landlordID, statementID string, rawText []byte) error
	Get(ctx context.Context, landlordID, statementID string) ([]byte, error)
	Delete(ctx context.Context, landlordID, statementID string) error
}

// S3StatementArchive implements StatementArchive using AWS S3.
type S3StatementArchive struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
}

// NewS3StatementArchive creates a new S3-backed StatementArchive and
// verifies the configured bucket is reachable (creating it if absent).
func NewS3StatementArchive(ctx context.Context, s3cfg cfg.S3Config) (*S3StatementArchive, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(s3cfg.Region),
	}

	if s3cfg.AccessKeyID != "" && s3cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				s3cfg.AccessKeyID,
				s3cfg.SecretAccessKey,
				"",
			),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var client *s3.Client
	if s3cfg.Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(s3cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	repo := &S3StatementArchive{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    s3cfg.Bucket,
	}

	if err := repo.ensureBucket(ctx); err != nil {
		return nil, err
	}

	return repo, nil
}

func (r *S3StatementArchive) ensureBucket(ctx context.Context) error {
	_, err := r.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(r.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket (may be permission denied): %w", err)
	}

	_, err = r.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(r.bucket),
	})
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

func (r *S3StatementArchive) objectPath(landlordID, statementID string) string {
	return path.Join(landlordID, "statements", statementID+".txt")
}

// Put archives the raw statement text.
func (r *S3StatementArchive) Put(ctx context.Context, landlordID, statementID string, rawText []byte) error {
	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(r.objectPath(landlordID, statementID)),
		Body:          bytes.NewReader(rawText),
		ContentType:   aws.String("text/plain"),
		ContentLength: aws.Int64(int64(len(rawText))),
	})
	if err != nil {
		return fmt.Errorf("failed to archive statement: %w", err)
	}
	return nil
}

// Get retrieves the archived raw statement text.
func (r *S3StatementArchive) Get(ctx context.Context, landlordID, statementID string) ([]byte, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.objectPath(landlordID, statementID)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch archived statement: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read archived statement: %w", err)
	}
	return data, nil
}

// Delete removes the archived raw statement text.
func (r *S3StatementArchive) Delete(ctx context.Context, landlordID, statementID string) error {
	_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.objectPath(landlordID, statementID)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete archived statement: %w", err)
	}
	return nil
}

// GeneratePresignedURL generates a presigned GET URL for temporary direct
// access to an archived statement, e.g. for support tooling.
func (r *S3StatementArchive) GeneratePresignedURL(ctx context.Context, landlordID, statementID string, expiry time.Duration) (string, error) {
	presignedReq, err := r.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.objectPath(landlordID, statementID)),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return presignedReq.URL, nil
}
