package destination

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"kbdump/internal/config"
	"kbdump/internal/kb"
)

// S3Destination materializes the export tree as objects in an S3 bucket.
// S3 has no directories, so EnsureDir is a no-op and the tree structure
// lives entirely in the object keys: <prefix>/<relPath>.
type S3Destination struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewS3Destination creates an S3 destination from config. When static
// credentials are not configured, the SDK's default chain (environment,
// shared config, instance role) applies.
func NewS3Destination(ctx context.Context, cfg config.DestinationConfig) (*S3Destination, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 destination requires s3_bucket to be set")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.S3AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	return &S3Destination{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   cfg.S3Bucket,
		prefix:   strings.Trim(cfg.S3Prefix, "/"),
	}, nil
}

// key maps a tree-relative path to an object key under the prefix.
func (d *S3Destination) key(relPath string) string {
	relPath = strings.Trim(relPath, "/")
	if d.prefix == "" {
		return relPath
	}
	return d.prefix + "/" + relPath
}

// EnsureDir is a no-op: S3 keys carry the whole path.
func (d *S3Destination) EnsureDir(string) error {
	return nil
}

// WriteFile uploads the contents of r as one object, overwriting any
// existing object at the same key. The uploader handles multipart
// splitting for large attachments, so size is not needed up front.
func (d *S3Destination) WriteFile(relPath string, r io.Reader, size int64) error {
	_, err := d.uploader.Upload(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.key(relPath)),
		Body:   r,
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", relPath, err)
	}
	return nil
}

// ValidateSetup verifies the bucket exists and is reachable with the
// configured credentials.
func (d *S3Destination) ValidateSetup() error {
	_, err := d.client.HeadBucket(context.Background(), &s3.HeadBucketInput{
		Bucket: aws.String(d.bucket),
	})
	if err != nil {
		return fmt.Errorf("s3 bucket not accessible: %w", err)
	}
	return nil
}

// Compile-time check that S3Destination implements kb.Destination
var _ kb.Destination = (*S3Destination)(nil)
