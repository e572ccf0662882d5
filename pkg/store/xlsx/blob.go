package xlsx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ErrBlobNotFound reports that the workbook does not exist yet.
var ErrBlobNotFound = errors.New("xlsx: workbook not found")

const contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Blob loads and saves the raw workbook bytes.
type Blob interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// FileBlob keeps the workbook on local disk. Saves go through a temporary file
// and a rename so readers never see a partial workbook.
type FileBlob struct {
	Path string
}

// Load implements Blob.
func (b FileBlob) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(b.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, b.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("xlsx: read %s: %w", b.Path, err)
	}
	return data, nil
}

// Save implements Blob.
func (b FileBlob) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(b.Path)
	tmp, err := os.CreateTemp(dir, ".formportal-*.xlsx")
	if err != nil {
		return fmt.Errorf("xlsx: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("xlsx: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("xlsx: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), b.Path); err != nil {
		return fmt.Errorf("xlsx: replace %s: %w", b.Path, err)
	}
	return nil
}

// S3API is the subset of the S3 client the blob uses.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Blob keeps the workbook as one object in an S3-compatible bucket.
type S3Blob struct {
	client S3API
	bucket string
	key    string
}

// NewS3Blob wraps an existing client.
func NewS3Blob(client S3API, bucket, key string) *S3Blob {
	return &S3Blob{client: client, bucket: bucket, key: key}
}

// NewS3BlobFromConfig builds a client from the default AWS configuration. If
// endpoint is non-empty, path-style addressing is enabled (for MinIO and
// similar).
func NewS3BlobFromConfig(ctx context.Context, bucket, key, region, endpoint string) (*S3Blob, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("xlsx: load AWS config: %w", err)
	}

	var s3opts []func(*s3.Options)
	if endpoint != "" {
		s3opts = append(s3opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}

	return NewS3Blob(s3.NewFromConfig(cfg, s3opts...), bucket, key), nil
}

// Load implements Blob.
func (b *S3Blob) Load(ctx context.Context) ([]byte, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, fmt.Errorf("%w: s3://%s/%s", ErrBlobNotFound, b.bucket, b.key)
		}
		return nil, fmt.Errorf("xlsx: s3 get object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("xlsx: s3 read body: %w", err)
	}
	return data, nil
}

// Save implements Blob.
func (b *S3Blob) Save(ctx context.Context, data []byte) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(b.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("xlsx: s3 put object: %w", err)
	}
	return nil
}
