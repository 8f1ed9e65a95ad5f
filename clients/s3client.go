package clients

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3Config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/emzola/bookshelf/config"
)

// NewS3Client configures a new AWS S3 object storage client. Static credentials are
// used when configured; otherwise the default AWS credential chain applies.
func NewS3Client(ctx context.Context, cfg config.Config) (*s3.Client, error) {
	opts := []func(*s3Config.LoadOptions) error{s3Config.WithRegion(cfg.S3.Region)}
	if cfg.S3.AccessKeyID != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, "")
		opts = append(opts, s3Config.WithCredentialsProvider(creds))
	}
	awsCfg, err := s3Config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(awsCfg), nil
}

// CoverArchive uploads original cover images to a bucket.
type CoverArchive struct {
	uploader *manager.Uploader
	bucket   string
}

// NewCoverArchive returns a CoverArchive writing to bucket through client.
func NewCoverArchive(client manager.UploadAPIClient, bucket string) *CoverArchive {
	return &CoverArchive{
		uploader: manager.NewUploader(client),
		bucket:   bucket,
	}
}

// Archive stores body under key. Keys are content addressed, so re-uploading the
// same cover overwrites an identical object.
func (a *CoverArchive) Archive(ctx context.Context, key, contentType string, body []byte) error {
	_, err := a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: int64(len(body)),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("archive %s: %w", key, err)
	}
	return nil
}
