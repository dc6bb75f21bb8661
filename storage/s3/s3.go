// Package s3 implements storage.Storage using Amazon S3 or any
// S3-compatible service such as MinIO.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/skillsenselab/storagekit/logger"
	"github.com/skillsenselab/storagekit/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderS3, func(cfg storage.Config, providerCfg any, log *logger.Logger) (storage.Storage, error) {
		c := &Config{}
		if providerCfg != nil {
			pc, ok := providerCfg.(*Config)
			if !ok {
				return nil, fmt.Errorf("s3: expected *s3.Config, got %T", providerCfg)
			}
			c = pc
		}
		if c.Bucket == "" {
			c.Bucket = cfg.Bucket
		}
		if c.Region == "" {
			c.Region = cfg.Region
		}
		if c.Endpoint == "" {
			c.Endpoint = cfg.Endpoint
		}
		if c.AccessKey == "" {
			c.AccessKey = cfg.AccessKey
		}
		if c.SecretKey == "" {
			c.SecretKey = cfg.SecretKey
		}
		c.ApplyDefaults()
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return NewStorage(context.Background(), c)
	})
}

// Storage implements storage.Storage using Amazon S3 (or S3-compatible services).
type Storage struct {
	client  *awss3.Client
	presign *awss3.PresignClient
	bucket  string
}

// NewStorage creates a new S3 storage client from the given config.
func NewStorage(ctx context.Context, cfg *Config) (*Storage, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	var s3Opts []func(*awss3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *awss3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *awss3.Options) {
			o.UsePathStyle = true
		})
	}

	client := awss3.NewFromConfig(awsCfg, s3Opts...)
	return &Storage{
		client:  client,
		presign: awss3.NewPresignClient(client),
		bucket:  cfg.Bucket,
	}, nil
}

// Upload writes data from reader to S3.
func (s *Storage) Upload(ctx context.Context, path string, reader io.Reader) error {
	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
		Body:   reader,
	})
	if err != nil {
		return fmt.Errorf("storage: s3 upload: %w", err)
	}
	return nil
}

// Download returns a reader for the S3 object at the given path.
func (s *Storage) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, path)
		}
		return nil, fmt.Errorf("storage: s3 download: %w", err)
	}
	return out.Body, nil
}

// Delete removes an S3 object. S3 treats deleting a missing key as success.
func (s *Storage) Delete(ctx context.Context, path string) error {
	_, err := s.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("storage: s3 delete: %w", err)
	}
	return nil
}

// DeletePrefix removes every object whose key starts with prefix. S3 has no
// folder objects, so unlike backends with recursive folder deletion this
// lists and deletes matching keys in batches.
func (s *Storage) DeletePrefix(ctx context.Context, prefix string) error {
	input := &awss3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(strings.TrimSuffix(prefix, "/")),
	}

	for {
		out, err := s.client.ListObjectsV2(ctx, input)
		if err != nil {
			return fmt.Errorf("storage: s3 delete prefix: %w", err)
		}
		if len(out.Contents) > 0 {
			objects := make([]types.ObjectIdentifier, 0, len(out.Contents))
			for _, obj := range out.Contents {
				objects = append(objects, types.ObjectIdentifier{Key: obj.Key})
			}
			_, err := s.client.DeleteObjects(ctx, &awss3.DeleteObjectsInput{
				Bucket: aws.String(s.bucket),
				Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
			})
			if err != nil {
				return fmt.Errorf("storage: s3 delete prefix: %w", err)
			}
		}
		if !aws.ToBool(out.IsTruncated) {
			return nil
		}
		input.ContinuationToken = out.NextContinuationToken
	}
}

// Exists checks whether an S3 object exists. Only a missing key maps to
// false; other failures are returned.
func (s *Storage) Exists(ctx context.Context, path string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("storage: s3 head: %w", err)
	}
	return true, nil
}

// URL returns a public URL for the S3 object.
func (s *Storage) URL(_ context.Context, path string) (string, error) {
	endpoint := s.resolveEndpoint()
	return fmt.Sprintf("%s/%s/%s", endpoint, s.bucket, path), nil
}

// SignedURL returns a presigned GET URL for the object. The expiry,
// filename, disposition and content type options are all applied.
func (s *Storage) SignedURL(ctx context.Context, path string, opts storage.SignedURLOptions) (string, error) {
	input := &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	}
	if opts.Disposition != "" || opts.Filename != "" {
		disposition := opts.Disposition
		if disposition == "" {
			disposition = "attachment"
		}
		params := map[string]string{}
		if opts.Filename != "" {
			params["filename"] = opts.Filename
		}
		input.ResponseContentDisposition = aws.String(mime.FormatMediaType(disposition, params))
	}
	if opts.ContentType != "" {
		input.ResponseContentType = aws.String(opts.ContentType)
	}

	req, err := s.presign.PresignGetObject(ctx, input, func(po *awss3.PresignOptions) {
		if opts.Expiry > 0 {
			po.Expires = opts.Expiry
		}
	})
	if err != nil {
		return "", fmt.Errorf("storage: s3 presign: %w", err)
	}
	return req.URL, nil
}

// List returns metadata for all objects whose key starts with prefix.
func (s *Storage) List(ctx context.Context, prefix string) ([]storage.FileInfo, error) {
	input := &awss3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	}

	var files []storage.FileInfo
	for {
		out, err := s.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("storage: s3 list: %w", err)
		}
		for _, obj := range out.Contents {
			fi := storage.FileInfo{
				Path: aws.ToString(obj.Key),
				Size: aws.ToInt64(obj.Size),
			}
			if obj.LastModified != nil {
				fi.LastModified = *obj.LastModified
			}
			files = append(files, fi)
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		input.ContinuationToken = out.NextContinuationToken
	}
	return files, nil
}

func (s *Storage) resolveEndpoint() string {
	opts := s.client.Options()
	if opts.BaseEndpoint != nil && *opts.BaseEndpoint != "" {
		return *opts.BaseEndpoint
	}
	return fmt.Sprintf("https://s3.%s.amazonaws.com", opts.Region)
}

// isNotFound reports whether err is S3's missing-key signal in any of its
// shapes (NoSuchKey from GetObject, NotFound from HeadObject).
func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
	return errors.As(err, &notFound)
}

// compile-time checks
var _ storage.Storage = (*Storage)(nil)
var _ storage.SignedURLProvider = (*Storage)(nil)
