package utils

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Evidence screenshots live in Cloudflare R2 (S3-compatible). The core only
// ever stores the opaque object key / URL returned from here.

func evidenceConfig() (aws.Config, error) {
	accountID := os.Getenv("R2_ACCOUNT_ID")
	accessKey := os.Getenv("R2_ACCESS_KEY_ID")
	secretKey := os.Getenv("R2_SECRET_ACCESS_KEY")

	if accountID == "" || accessKey == "" || secretKey == "" {
		return aws.Config{}, fmt.Errorf("R2_ACCOUNT_ID, R2_ACCESS_KEY_ID or R2_SECRET_ACCESS_KEY is not set")
	}

	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion("auto"), // Required by SDK, R2 ignores this
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load R2 config: %w", err)
	}
	return cfg, nil
}

func evidenceClient() (*s3.Client, error) {
	accountID := os.Getenv("R2_ACCOUNT_ID")
	if accountID == "" {
		return nil, fmt.Errorf("R2_ACCOUNT_ID is not set")
	}
	cfg, err := evidenceConfig()
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID)
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	}), nil
}

func evidenceBucket() (string, error) {
	bucket := os.Getenv("R2_BUCKET_NAME")
	if bucket == "" {
		return "", fmt.Errorf("R2_BUCKET_NAME is not set")
	}
	return bucket, nil
}

// NewEvidenceKey builds a collision-free object key for one user's upload,
// keeping the original file extension for content-type detection.
func NewEvidenceKey(userID uint, filename string) string {
	return fmt.Sprintf("evidence/%d/%s%s", userID, uuid.NewString(), path.Ext(filename))
}

// UploadEvidence stores a screenshot blob under the given key.
func UploadEvidence(ctx context.Context, key string, file io.Reader) error {
	bucket, err := evidenceBucket()
	if err != nil {
		return err
	}
	client, err := evidenceClient()
	if err != nil {
		return err
	}

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("evidence upload failed: %w", err)
	}
	return nil
}

// EvidenceURL returns a presigned GET URL for a stored screenshot.
func EvidenceURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	bucket, err := evidenceBucket()
	if err != nil {
		return "", err
	}
	client, err := evidenceClient()
	if err != nil {
		return "", err
	}

	presigner := s3.NewPresignClient(client)
	presigned, err := presigner.PresignGetObject(ctx,
		&s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		},
		func(po *s3.PresignOptions) {
			po.Expires = expiry
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to presign evidence URL: %w", err)
	}
	return presigned.URL, nil
}

// DeleteEvidence removes a screenshot, used by destructive moderation only.
func DeleteEvidence(ctx context.Context, key string) error {
	bucket, err := evidenceBucket()
	if err != nil {
		return err
	}
	client, err := evidenceClient()
	if err != nil {
		return err
	}
	_, err = client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("evidence delete failed: %w", err)
	}
	return nil
}
