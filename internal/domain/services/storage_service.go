package services

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/stkr22/private-assistant-web-ui/internal/infrastructure/config"
	"github.com/stkr22/private-assistant-web-ui/pkg/logger"
)

// 预签名URL过期时间范围，S3协议上限为7天
const (
	MinPresignExpireHours = 1
	MaxPresignExpireHours = 168
)

// InterfaceStorageService 定义对象存储服务接口
type InterfaceStorageService interface {
	EnsureBucket(ctx context.Context) error
	UploadImage(ctx context.Context, data []byte, fileName, contentType string) (string, error)
	DeleteImage(ctx context.Context, storagePath string) error
	GetPresignedURL(ctx context.Context, storagePath string, expiresHours int) (string, error)
}

// StorageService 提供基于MinIO的图片对象存储服务
type StorageService struct {
	Client *minio.Client
	Config *config.Config
}

// NewStorageService 创建一个新的对象存储服务
func NewStorageService(cfg *config.Config) (InterfaceStorageService, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioSecure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &StorageService{
		Client: client,
		Config: cfg,
	}, nil
}

// 1 EnsureBucket 确保图片存储桶存在，不存在则创建
func (s *StorageService) EnsureBucket(ctx context.Context) error {
	exists, err := s.Client.BucketExists(ctx, s.Config.MinioBucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := s.Client.MakeBucket(ctx, s.Config.MinioBucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		logger.Info("已创建MinIO存储桶: %s", s.Config.MinioBucketName)
	}
	return nil
}

// 2 UploadImage 上传图片，返回桶内对象路径
func (s *StorageService) UploadImage(ctx context.Context, data []byte, fileName, contentType string) (string, error) {
	ext := filepath.Ext(fileName)
	if ext == "" {
		ext = ".jpg"
	}
	storagePath := fmt.Sprintf("images/%s%s", uuid.New().String(), ext)

	_, err := s.Client.PutObject(ctx, s.Config.MinioBucketName, storagePath,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	logger.Info("已上传图片到MinIO: %s", storagePath)
	return storagePath, nil
}

// 3 DeleteImage 删除桶内图片对象
func (s *StorageService) DeleteImage(ctx context.Context, storagePath string) error {
	if err := s.Client.RemoveObject(ctx, s.Config.MinioBucketName, storagePath,
		minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	logger.Info("已删除MinIO图片: %s", storagePath)
	return nil
}

// 4 GetPresignedURL 生成图片的预签名访问URL，过期时间限制在1到168小时
func (s *StorageService) GetPresignedURL(ctx context.Context, storagePath string, expiresHours int) (string, error) {
	if expiresHours < MinPresignExpireHours {
		expiresHours = MinPresignExpireHours
	}
	if expiresHours > MaxPresignExpireHours {
		expiresHours = MaxPresignExpireHours
	}

	u, err := s.Client.PresignedGetObject(ctx, s.Config.MinioBucketName, storagePath,
		time.Duration(expiresHours)*time.Hour, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned url: %w", err)
	}
	return u.String(), nil
}
