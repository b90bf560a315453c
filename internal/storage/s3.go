package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/cloo-solutions/chapterkit/internal/domain"
	"github.com/rotisserie/eris"
)

// S3ClientConfig holds configuration for S3Client
type S3ClientConfig struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UsePathStyle    bool
}

// S3Client provides object operations on an S3-compatible bucket (AWS, MinIO, RustFS)
type S3Client struct {
	client *s3.Client
	bucket string
}

// NewS3Client creates a new S3Client with the given configuration
func NewS3Client(ctx context.Context, cfg S3ClientConfig) (*S3Client, error) {
	// Custom resolver for S3-compatible endpoints; AWS defaults apply when unset
	customResolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			if cfg.Endpoint != "" {
				return aws.Endpoint{
					URL:               cfg.Endpoint,
					HostnameImmutable: true,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		},
	)

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
		config.WithEndpointResolverWithOptions(customResolver),
	)
	if err != nil {
		return nil, eris.Wrap(err, "storage: load AWS config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3Client{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// Bucket returns the bucket name.
func (c *S3Client) Bucket() string {
	return c.bucket
}

// ListKeys returns every object key under prefix, following continuation tokens.
func (c *S3Client) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, eris.Wrapf(err, "storage: list s3://%s/%s", c.bucket, prefix)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

// GetObject downloads an object
func (c *S3Client) GetObject(ctx context.Context, key string) ([]byte, error) {
	output, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeNotFound, domain.ErrChapterNotFound.Message, err)
		}
		return nil, eris.Wrapf(err, "storage: get object %s", key)
	}
	defer output.Body.Close()

	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "storage: read object %s", key)
	}
	return data, nil
}

// PutObject uploads an object, replacing any existing one
func (c *S3Client) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return eris.Wrapf(err, "storage: put object %s", key)
	}
	return nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (c *S3Client) EnsureBucket(ctx context.Context) error {
	_, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.bucket),
	})
	if err == nil {
		return nil
	}

	_, err = c.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(c.bucket),
	})
	if err != nil {
		return eris.Wrap(err, "storage: create bucket")
	}

	return nil
}

// S3Store is a corpus kept as .json objects directly under a key prefix.
type S3Store struct {
	client *S3Client
	prefix string
}

// NewS3Store creates an S3Store over the objects under prefix. A non-empty
// prefix is treated as a directory: "grade7" and "grade7/" are the same corpus.
func NewS3Store(client *S3Client, prefix string) *S3Store {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Store{client: client, prefix: prefix}
}

// Location returns the s3:// URL of the corpus.
func (s *S3Store) Location() string {
	return "s3://" + s.client.Bucket() + "/" + s.prefix
}

// List returns the names of the .json objects under the prefix, relative to
// it and sorted. Objects in deeper "directories" are skipped.
func (s *S3Store) List(ctx context.Context) ([]string, error) {
	objects, err := s.client.ListKeys(ctx, s.prefix)
	if err != nil {
		return nil, err
	}

	var keys []string
	for _, obj := range objects {
		name := strings.TrimPrefix(obj, s.prefix)
		if name == "" || strings.Contains(name, "/") || !strings.HasSuffix(name, DocumentExt) {
			continue
		}
		keys = append(keys, name)
	}
	sort.Strings(keys)
	return keys, nil
}

// Read downloads the document named key.
func (s *S3Store) Read(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	return s.client.GetObject(ctx, s.prefix+key)
}

// Write uploads the document named key. A single PutObject replaces the
// object atomically.
func (s *S3Store) Write(ctx context.Context, key string, data []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	return s.client.PutObject(ctx, s.prefix+key, data, "application/json")
}
