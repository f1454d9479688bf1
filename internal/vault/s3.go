package vault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"evault-go/internal/config"
	"evault-go/internal/evault"
)

// S3Vault stores ciphertext in an S3 (or S3-compatible, e.g. MinIO)
// bucket. Objects are keyed as <prefix>/content/<documentID>.
type S3Vault struct {
	name     string
	bucket   string
	prefix   string
	client   *s3.Client
	uploader *manager.Uploader
}

var _ evault.Vault = (*S3Vault)(nil)

// NewS3Vault creates an S3 vault from configuration. Static credentials
// are used when provided; otherwise the default AWS credential chain
// applies. A custom endpoint switches the client to path-style
// addressing for MinIO compatibility.
func NewS3Vault(cfg config.VaultConfig) (*S3Vault, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Vault{
		name:     cfg.Name,
		bucket:   cfg.S3Bucket,
		prefix:   cfg.S3Prefix,
		client:   client,
		uploader: manager.NewUploader(client),
	}, nil
}

func (v *S3Vault) contentKey(documentID string) string {
	return path.Join(v.prefix, "content", documentID)
}

// PutContent stores ciphertext for a document. Content is write-once.
func (v *S3Vault) PutContent(documentID string, r io.Reader, size int64) error {
	exists, err := v.HasContent(documentID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("content for %s: %w", documentID, evault.ErrDuplicateDocument)
	}

	_, err = v.uploader.Upload(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.contentKey(documentID)),
		Body:   r,
	})
	if err != nil {
		return fmt.Errorf("uploading content for %s: %w", documentID, err)
	}
	return nil
}

// GetContent retrieves ciphertext by document ID and writes it to w.
func (v *S3Vault) GetContent(documentID string, w io.Writer) error {
	out, err := v.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.contentKey(documentID)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return fmt.Errorf("content for %s: %w", documentID, evault.ErrNotFound)
		}
		return fmt.Errorf("fetching content for %s: %w", documentID, err)
	}
	defer out.Body.Close()

	if _, err := io.Copy(w, out.Body); err != nil {
		return fmt.Errorf("reading content for %s: %w", documentID, err)
	}
	return nil
}

// HasContent reports whether ciphertext exists for the document ID.
func (v *S3Vault) HasContent(documentID string) (bool, error) {
	_, err := v.client.HeadObject(context.Background(), &s3.HeadObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.contentKey(documentID)),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("checking content for %s: %w", documentID, err)
	}
	return true, nil
}

// ValidateSetup verifies the bucket is reachable with the configured
// credentials.
func (v *S3Vault) ValidateSetup() error {
	_, err := v.client.HeadBucket(context.Background(), &s3.HeadBucketInput{
		Bucket: aws.String(v.bucket),
	})
	if err != nil {
		return fmt.Errorf("bucket %s not accessible: %w", v.bucket, err)
	}
	return nil
}
