package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stkr22/private-assistant-web-ui/internal/domain/models"
	"github.com/stkr22/private-assistant-web-ui/internal/infrastructure/config"
	"github.com/stkr22/private-assistant-web-ui/pkg/logger"
)

// MaxImageSizeBytes 图片上传大小上限 10MB
const MaxImageSizeBytes = 10 * 1024 * 1024

// 图片相关的业务错误
var (
	ErrImageNotFound    = errors.New("图片不存在")
	ErrInvalidImageType = errors.New("文件必须是图片类型")
	ErrImageTooLarge    = errors.New("图片大小超过10MB限制")
)

// InterfaceImageService 定义图片展示服务接口
type InterfaceImageService interface {
	UploadImage(ctx context.Context, data []byte, fileName, contentType string, image *models.Image) (*models.Image, error)
	GetAllImages(page, pageSize int) ([]models.Image, int64, error)
	GetImageByID(id uuid.UUID) (*models.Image, error)
	GetImageURL(ctx context.Context, id uuid.UUID, expiresHours int) (string, int, error)
	UpdateImage(id uuid.UUID, updates map[string]interface{}) (*models.Image, error)
	DeleteImage(ctx context.Context, id uuid.UUID) error
}

// ImageService 提供相框图片管理相关的服务
type ImageService struct {
	DB      *gorm.DB
	Config  *config.Config
	Storage InterfaceStorageService
}

// NewImageService 创建一个新的图片服务
func NewImageService(db *gorm.DB, cfg *config.Config, storageService InterfaceStorageService) InterfaceImageService {
	return &ImageService{
		DB:      db,
		Config:  cfg,
		Storage: storageService,
	}
}

// 1 UploadImage 校验并上传图片到对象存储，再写入元数据记录
func (s *ImageService) UploadImage(ctx context.Context, data []byte, fileName, contentType string, image *models.Image) (*models.Image, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrInvalidImageType
	}
	if len(data) > MaxImageSizeBytes {
		return nil, ErrImageTooLarge
	}

	if fileName == "" {
		fileName = "uploaded.jpg"
	}

	storagePath, err := s.Storage.UploadImage(ctx, data, fileName, contentType)
	if err != nil {
		return nil, err
	}

	image.SourceName = fileName
	image.StoragePath = storagePath
	if err := s.DB.Create(image).Error; err != nil {
		return nil, err
	}

	return image, nil
}

// 2 GetAllImages 获取所有图片元数据，按创建时间倒序分页
func (s *ImageService) GetAllImages(page, pageSize int) ([]models.Image, int64, error) {
	var images []models.Image
	var total int64

	if err := s.DB.Model(&models.Image{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := s.DB.Order("created_at DESC").Limit(pageSize).Offset(offset).
		Find(&images).Error; err != nil {
		return nil, 0, err
	}

	return images, total, nil
}

// 3 GetImageByID 根据ID获取图片元数据
func (s *ImageService) GetImageByID(id uuid.UUID) (*models.Image, error) {
	var image models.Image
	if err := s.DB.First(&image, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrImageNotFound
		}
		return nil, err
	}
	return &image, nil
}

// 4 GetImageURL 生成图片的预签名访问URL，返回URL和有效秒数
func (s *ImageService) GetImageURL(ctx context.Context, id uuid.UUID, expiresHours int) (string, int, error) {
	image, err := s.GetImageByID(id)
	if err != nil {
		return "", 0, err
	}

	if expiresHours < MinPresignExpireHours {
		expiresHours = MinPresignExpireHours
	}
	if expiresHours > MaxPresignExpireHours {
		expiresHours = MaxPresignExpireHours
	}

	url, err := s.Storage.GetPresignedURL(ctx, image.StoragePath, expiresHours)
	if err != nil {
		return "", 0, err
	}

	return url, expiresHours * 3600, nil
}

// 5 UpdateImage 更新图片元数据
func (s *ImageService) UpdateImage(id uuid.UUID, updates map[string]interface{}) (*models.Image, error) {
	image, err := s.GetImageByID(id)
	if err != nil {
		return nil, err
	}

	if err := s.DB.Model(image).Updates(updates).Error; err != nil {
		return nil, err
	}

	return s.GetImageByID(id)
}

// 6 DeleteImage 删除图片，对象存储删除失败时仅记录告警，元数据总是删除
func (s *ImageService) DeleteImage(ctx context.Context, id uuid.UUID) error {
	image, err := s.GetImageByID(id)
	if err != nil {
		return err
	}

	if err := s.Storage.DeleteImage(ctx, image.StoragePath); err != nil {
		logger.Warning("删除MinIO图片失败，继续删除记录: %v", err)
	}

	return s.DB.Delete(image).Error
}
