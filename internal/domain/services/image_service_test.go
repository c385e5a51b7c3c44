package services

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/stkr22/private-assistant-web-ui/internal/domain/models"
	"github.com/stkr22/private-assistant-web-ui/internal/infrastructure/config"
)

// stubStorage 记录调用的对象存储替身
type stubStorage struct {
	uploadedPath string
	presignedURL string
	lastExpires  int
	deletedPaths []string
	deleteErr    error
}

func (s *stubStorage) EnsureBucket(ctx context.Context) error { return nil }

func (s *stubStorage) UploadImage(ctx context.Context, data []byte, fileName, contentType string) (string, error) {
	return s.uploadedPath, nil
}

func (s *stubStorage) DeleteImage(ctx context.Context, path string) error {
	s.deletedPaths = append(s.deletedPaths, path)
	return s.deleteErr
}

func (s *stubStorage) GetPresignedURL(ctx context.Context, path string, expiresHours int) (string, error) {
	s.lastExpires = expiresHours
	return s.presignedURL, nil
}

// setupImageServiceTest 构造基于sqlmock的图片服务和存储替身
func setupImageServiceTest(t *testing.T) (sqlmock.Sqlmock, *stubStorage, InterfaceImageService) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	storage := &stubStorage{
		uploadedPath: "images/2026/08/uploaded.jpg",
		presignedURL: "https://minio.local/assistant-images/uploaded.jpg?sig=abc",
	}
	return mock, storage, NewImageService(db, &config.Config{}, storage)
}

func imageRows(images ...models.Image) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "created_at", "updated_at", "source_name", "storage_path",
		"title", "description", "tags", "display_duration_seconds", "priority",
	})
	for _, img := range images {
		rows.AddRow(img.ID.String(), img.CreatedAt, img.UpdatedAt, img.SourceName, img.StoragePath,
			strOrNil(img.Title), strOrNil(img.Description), strOrNil(img.Tags), img.DisplayDurationSeconds, img.Priority)
	}
	return rows
}

// ============================================
// 上传校验测试
// ============================================

func TestUploadImage_RejectsNonImageContentType(t *testing.T) {
	mock, _, svc := setupImageServiceTest(t)

	// 类型校验发生在任何存储或数据库访问之前
	_, err := svc.UploadImage(context.Background(), []byte("%PDF-1.4"), "report.pdf", "application/pdf", &models.Image{})

	assert.ErrorIs(t, err, ErrInvalidImageType)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUploadImage_RejectsOversizedPayload(t *testing.T) {
	mock, _, svc := setupImageServiceTest(t)

	oversized := make([]byte, MaxImageSizeBytes+1)
	_, err := svc.UploadImage(context.Background(), oversized, "huge.jpg", "image/jpeg", &models.Image{})

	assert.ErrorIs(t, err, ErrImageTooLarge)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUploadImage_StoresObjectAndMetadata(t *testing.T) {
	mock, storage, svc := setupImageServiceTest(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "images"`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	image, err := svc.UploadImage(context.Background(), []byte{0xFF, 0xD8, 0xFF}, "sunset.jpg", "image/jpeg", &models.Image{})

	require.NoError(t, err)
	assert.Equal(t, "sunset.jpg", image.SourceName)
	assert.Equal(t, storage.uploadedPath, image.StoragePath)
	assert.NotEqual(t, uuid.Nil, image.ID)

	require.NoError(t, mock.ExpectationsWereMet())
}

// ============================================
// 预签名URL测试
// ============================================

func TestGetImageURL_ClampsExpiryToUpperBound(t *testing.T) {
	mock, storage, svc := setupImageServiceTest(t)
	imageID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "images" WHERE id = \$1`).
		WithArgs(imageID.String(), 1).
		WillReturnRows(imageRows(models.Image{
			BaseModel:   models.BaseModel{ID: imageID},
			SourceName:  "sunset.jpg",
			StoragePath: "images/2026/08/sunset.jpg",
		}))

	url, expiresIn, err := svc.GetImageURL(context.Background(), imageID, 9999)

	require.NoError(t, err)
	assert.Equal(t, storage.presignedURL, url)
	assert.Equal(t, MaxPresignExpireHours, storage.lastExpires)
	assert.Equal(t, MaxPresignExpireHours*3600, expiresIn)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetImageURL_ClampsExpiryToLowerBound(t *testing.T) {
	mock, storage, svc := setupImageServiceTest(t)
	imageID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "images" WHERE id = \$1`).
		WithArgs(imageID.String(), 1).
		WillReturnRows(imageRows(models.Image{
			BaseModel:   models.BaseModel{ID: imageID},
			SourceName:  "sunset.jpg",
			StoragePath: "images/2026/08/sunset.jpg",
		}))

	_, expiresIn, err := svc.GetImageURL(context.Background(), imageID, 0)

	require.NoError(t, err)
	assert.Equal(t, MinPresignExpireHours, storage.lastExpires)
	assert.Equal(t, MinPresignExpireHours*3600, expiresIn)

	require.NoError(t, mock.ExpectationsWereMet())
}

// ============================================
// 删除操作测试
// ============================================

func TestDeleteImage_StorageFailureStillRemovesRecord(t *testing.T) {
	mock, storage, svc := setupImageServiceTest(t)
	storage.deleteErr = errors.New("minio unreachable")
	imageID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "images" WHERE id = \$1`).
		WithArgs(imageID.String(), 1).
		WillReturnRows(imageRows(models.Image{
			BaseModel:   models.BaseModel{ID: imageID},
			SourceName:  "old.jpg",
			StoragePath: "images/2026/01/old.jpg",
		}))
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "images"`).
		WithArgs(imageID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.DeleteImage(context.Background(), imageID))
	assert.Equal(t, []string{"images/2026/01/old.jpg"}, storage.deletedPaths)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAllImages_NewestFirst(t *testing.T) {
	mock, _, svc := setupImageServiceTest(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "images"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`SELECT \* FROM "images" ORDER BY created_at DESC LIMIT \$1`).
		WithArgs(10).
		WillReturnRows(imageRows(
			models.Image{BaseModel: models.BaseModel{ID: uuid.New()}, SourceName: "b.jpg", StoragePath: "images/b.jpg"},
			models.Image{BaseModel: models.BaseModel{ID: uuid.New()}, SourceName: "a.jpg", StoragePath: "images/a.jpg"},
		))

	images, total, err := svc.GetAllImages(1, 10)

	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, images, 2)
	assert.Equal(t, "b.jpg", images[0].SourceName)

	require.NoError(t, mock.ExpectationsWereMet())
}
