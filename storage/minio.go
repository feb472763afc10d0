package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"tunehub/config"
	"tunehub/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Object key prefixes inside the bucket, one per asset kind.
const (
	AudioPrefix = "songs/"
	CoverPrefix = "covers/"
)

var (
	minioClient *minio.Client
	bucket      string
)

// InitMinio initializes the MinIO client and ensures the bucket exists.
func InitMinio(cfg *config.Config) error {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		logger.Info("Created storage bucket", logger.String("bucket", cfg.MinioBucket))
	}

	minioClient = client
	bucket = cfg.MinioBucket
	logger.Info("MinIO client initialized", logger.String("endpoint", cfg.MinioEndpoint))
	return nil
}

// PutObject streams an uploaded file into the bucket under the given key.
func PutObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	if minioClient == nil {
		return fmt.Errorf("MinIO client not initialized")
	}

	_, err := minioClient.PutObject(ctx, bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to store object %s: %w", key, err)
	}
	return nil
}

// OpenObject opens a stored object for streaming reads. The caller must
// close the returned object. A missing key surfaces on the first read.
func OpenObject(ctx context.Context, key string) (*minio.Object, error) {
	if minioClient == nil {
		return nil, fmt.Errorf("MinIO client not initialized")
	}

	object, err := minioClient.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open object %s: %w", key, err)
	}
	return object, nil
}

// StatObject checks an object exists and returns its metadata.
func StatObject(ctx context.Context, key string) (minio.ObjectInfo, error) {
	if minioClient == nil {
		return minio.ObjectInfo{}, fmt.Errorf("MinIO client not initialized")
	}
	return minioClient.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
}

// RemoveObject deletes a stored object.
func RemoveObject(ctx context.Context, key string) error {
	if minioClient == nil {
		return fmt.Errorf("MinIO client not initialized")
	}
	if err := minioClient.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object %s: %w", key, err)
	}
	return nil
}

// IsNotFound reports whether err is the storage backend's missing-key error.
func IsNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == 404
}
