package queue

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Uploader is the subset of *s3.Client used to store attachments.
type S3Uploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Presigner is the subset of *s3.PresignClient used to hand out links.
type S3Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3AttachmentStore implements AttachmentStore on an S3 bucket. Objects are
// written under prefix and exposed through presigned GET URLs valid for ttl.
type S3AttachmentStore struct {
	uploader  S3Uploader
	presigner S3Presigner
	bucket    string
	prefix    string
	ttl       time.Duration
}

// NewS3AttachmentStore creates an S3AttachmentStore.
func NewS3AttachmentStore(uploader S3Uploader, presigner S3Presigner, bucket, prefix string, ttl time.Duration) *S3AttachmentStore {
	return &S3AttachmentStore{uploader: uploader, presigner: presigner, bucket: bucket, prefix: prefix, ttl: ttl}
}

// Put uploads data as a PDF and returns its presigned URL.
func (s *S3AttachmentStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	objectKey := path.Join(s.prefix, key)

	_, err := s.uploader.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return "", fmt.Errorf("queue: failed to upload attachment %s: %w", objectKey, err)
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return "", fmt.Errorf("queue: failed to presign attachment %s: %w", objectKey, err)
	}
	return req.URL, nil
}
