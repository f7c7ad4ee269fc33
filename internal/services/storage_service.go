// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"golang.org/x/sync/errgroup"

	"github.com/sarawan-tech/products-backend/internal/apperrors"
	"github.com/sarawan-tech/products-backend/internal/config"
)

// tempPrefix stages every uploaded object; a lifecycle job relocates blobs
// that survive moderation.
const tempPrefix = "temp"

// FileObject pairs an object's storage path (without the temp/ prefix) with
// its raw bytes.
type FileObject struct {
	StoragePath string
	Body        []byte
}

// BlobStore is the key-addressed object storage the media layer writes to.
type BlobStore interface {
	MultiUpload(ctx context.Context, bucket string, files []FileObject, public bool) error
	MultiDelete(ctx context.Context, bucket string, keys []string) error
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	// ObjectURL returns the externally visible URL of an uploaded object.
	ObjectURL(bucket, storagePath string) string
}

type StorageService struct {
	s3Client *s3.S3
	config   *config.Config
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	sess, err := session.NewSession(&aws.Config{
		Endpoint:         aws.String(cfg.S3.Endpoint),
		Region:           aws.String(cfg.S3.Region),
		S3ForcePathStyle: aws.Bool(true),
		Credentials: credentials.NewStaticCredentials(
			cfg.S3.AccessKeyID,
			cfg.S3.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		config:   cfg,
	}, nil
}

// MultiUpload stores every file under temp/<storage path>, fanning the
// uploads out concurrently. The fan-out is bounded by the request's own file
// count; there is no shared worker pool.
func (s *StorageService) MultiUpload(ctx context.Context, bucket string, files []FileObject, public bool) error {
	if len(files) == 0 {
		return nil
	}

	acl := "private"
	if public {
		acl = "public-read"
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, file := range files {
		file := file
		g.Go(func() error {
			_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
				Bucket:        aws.String(bucket),
				Key:           aws.String(path.Join(tempPrefix, file.StoragePath)),
				Body:          bytes.NewReader(file.Body),
				ContentLength: aws.Int64(int64(len(file.Body))),
				ACL:           aws.String(acl),
			})
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return apperrors.Storage("failed to upload files", err)
	}
	return nil
}

// MultiDelete removes a batch of objects. Keys may be full object URLs; the
// key is whatever follows the bucket segment.
func (s *StorageService) MultiDelete(ctx context.Context, bucket string, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	objects := make([]*s3.ObjectIdentifier, 0, len(keys))
	for _, key := range keys {
		objects = append(objects, &s3.ObjectIdentifier{
			Key: aws.String(objectKey(bucket, key)),
		})
	}

	_, err := s.s3Client.DeleteObjectsWithContext(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(bucket),
		Delete: &s3.Delete{Objects: objects},
	})
	if err != nil {
		return apperrors.Storage("failed to delete files", err)
	}
	return nil
}

func (s *StorageService) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := s.s3Client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(objectKey(bucket, key)),
	})
	if err != nil {
		return nil, apperrors.Storage("failed to fetch file", err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, apperrors.Storage("failed to read file body", err)
	}
	return body, nil
}

func (s *StorageService) ObjectURL(bucket, storagePath string) string {
	return strings.Join([]string{
		strings.TrimSuffix(s.config.S3.Endpoint, "/"),
		bucket,
		tempPrefix,
		storagePath,
	}, "/")
}

// objectKey strips an object URL down to its bucket-relative key. Plain keys
// pass through unchanged.
func objectKey(bucket, key string) string {
	if idx := strings.Index(key, bucket+"/"); idx >= 0 {
		return key[idx+len(bucket)+1:]
	}
	return key
}
