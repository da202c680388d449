package storage

import (
	"construction-backend/config"
	"context"
	"fmt"
	"mime/multipart"
)

// Storage 上传文件并返回可访问的地址
type Storage interface {
	UploadFile(ctx context.Context, file *multipart.FileHeader, path string) (string, error)
}

// New 根据 STORAGE_BACKEND 创建存储后端
func New(ctx context.Context, cfg config.Config) (Storage, error) {
	switch cfg.StorageBackend {
	case "", "local":
		return NewLocalStorage(cfg.LocalStoragePath, "/uploads")
	case "s3":
		return NewS3Client(cfg.S3Region, cfg.S3Bucket)
	case "gcs":
		return NewGCSClient(ctx, cfg.GCSBucketName, cfg.GCSCredentialsFile)
	}
	return nil, fmt.Errorf("未知的存储后端: %s", cfg.StorageBackend)
}
