package assets

import (
	"context"
	"fmt"
	"mime"
	"path"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// Base is the key prefix of the tree, DefaultBase when empty.
	Base string
}

// Complete reports whether every connection setting is present.
func (c S3Config) Complete() bool {
	return strings.TrimSpace(c.Endpoint) != "" && strings.TrimSpace(c.AccessKey) != "" &&
		strings.TrimSpace(c.SecretKey) != "" && strings.TrimSpace(c.Bucket) != ""
}

// S3 keeps the tree in an S3-compatible bucket.
type S3 struct {
	client     *minio.Client
	bucketName string
	region     string
	base       string
	initOnce   sync.Once
	initErr    error
}

var _ Tree = (*S3)(nil)

func NewS3(cfg S3Config) (*S3, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}
	base := strings.Trim(strings.TrimSpace(cfg.Base), "/")
	if base == "" {
		base = DefaultBase
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &S3{client: client, bucketName: bucket, region: region, base: base}, nil
}

func (s *S3) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucketName)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

func (s *S3) StageContent(ctx context.Context, contentID int64, srcDir string) error {
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	prefix := contentPrefix(s.base, contentID)
	err := s.client.RemoveObject(ctx, s.bucketName, path.Join(prefix, "content.json"), minio.RemoveObjectOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return fmt.Errorf("remove stale content.json: %w", err)
	}
	return s.upload(ctx, prefix, srcDir)
}

func (s *S3) StageLibrary(ctx context.Context, folder, srcDir string) error {
	if strings.ContainsAny(folder, `/\`) || folder == "" || folder == "." || folder == ".." {
		return fmt.Errorf("invalid library folder %q", folder)
	}
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	return s.upload(ctx, libraryPrefix(s.base, folder), srcDir)
}

func (s *S3) upload(ctx context.Context, prefix, srcDir string) error {
	return walkFiles(srcDir, func(abs, rel string) error {
		key := path.Join(prefix, rel)
		_, err := s.client.FPutObject(ctx, s.bucketName, key, abs, minio.PutObjectOptions{
			ContentType: contentType(rel),
		})
		if err != nil {
			return fmt.Errorf("put %s: %w", key, err)
		}
		return nil
	})
}

func contentType(name string) string {
	if t := mime.TypeByExtension(path.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
