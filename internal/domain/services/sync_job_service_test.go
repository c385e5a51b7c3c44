package services

import (
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

// setupSyncJobServiceTest 构造基于sqlmock的同步任务服务
func setupSyncJobServiceTest(t *testing.T) (sqlmock.Sqlmock, InterfaceSyncJobService) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	return mock, NewSyncJobService(db, &config.Config{})
}

// jobRows 构造同步任务结果集，未列出的列保持零值
func jobRows(jobs ...models.ImmichSyncJob) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "created_at", "updated_at", "name", "target_device_id",
		"strategy", "query", "count", "is_active",
	})
	for _, j := range jobs {
		rows.AddRow(j.ID.String(), j.CreatedAt, j.UpdatedAt, j.Name, j.TargetDeviceID.String(),
			string(j.Strategy), strOrNil(j.Query), j.Count, j.IsActive)
	}
	return rows
}

// ============================================
// 创建校验测试
// ============================================

func TestCreateSyncJob_DefaultsToRandomStrategy(t *testing.T) {
	mock, svc := setupSyncJobServiceTest(t)
	deviceID := uuid.New()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "immich_sync_jobs" WHERE name = \$1`).
		WithArgs("bedroom-frame-daily").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "global_devices" WHERE id = \$1`).
		WithArgs(deviceID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "immich_sync_jobs"`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	job := &models.ImmichSyncJob{Name: "bedroom-frame-daily", TargetDeviceID: deviceID}
	require.NoError(t, svc.CreateSyncJob(job))

	assert.Equal(t, models.SyncStrategyRandom, job.Strategy)
	assert.NotEqual(t, uuid.Nil, job.ID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSyncJob_SmartRequiresQuery(t *testing.T) {
	mock, svc := setupSyncJobServiceTest(t)

	// 校验在任何数据库访问之前完成
	err := svc.CreateSyncJob(&models.ImmichSyncJob{
		Name:           "hallway-smart",
		TargetDeviceID: uuid.New(),
		Strategy:       models.SyncStrategySmart,
	})

	assert.ErrorIs(t, err, ErrSyncJobQueryRequired)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSyncJob_DuplicateName(t *testing.T) {
	mock, svc := setupSyncJobServiceTest(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "immich_sync_jobs" WHERE name = \$1`).
		WithArgs("bedroom-frame-daily").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	err := svc.CreateSyncJob(&models.ImmichSyncJob{Name: "bedroom-frame-daily", TargetDeviceID: uuid.New()})

	assert.ErrorIs(t, err, ErrSyncJobNameTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSyncJob_MissingTargetDevice(t *testing.T) {
	mock, svc := setupSyncJobServiceTest(t)
	deviceID := uuid.New()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "immich_sync_jobs" WHERE name = \$1`).
		WithArgs("orphan-job").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "global_devices" WHERE id = \$1`).
		WithArgs(deviceID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	err := svc.CreateSyncJob(&models.ImmichSyncJob{Name: "orphan-job", TargetDeviceID: deviceID})

	assert.ErrorIs(t, err, ErrDeviceNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

// ============================================
// 更新校验测试
// ============================================

func TestUpdateSyncJob_MergedSmartValidation(t *testing.T) {
	mock, svc := setupSyncJobServiceTest(t)
	jobID := uuid.New()

	// 现有任务没有query，切到SMART策略必须被拒绝
	mock.ExpectQuery(`SELECT \* FROM "immich_sync_jobs" WHERE id = \$1`).
		WithArgs(jobID.String(), 1).
		WillReturnRows(jobRows(models.ImmichSyncJob{
			BaseModel:      models.BaseModel{ID: jobID},
			Name:           "bedroom-frame-daily",
			TargetDeviceID: uuid.New(),
			Strategy:       models.SyncStrategyRandom,
		}))

	_, err := svc.UpdateSyncJob(jobID, map[string]interface{}{"strategy": models.SyncStrategySmart})

	assert.ErrorIs(t, err, ErrSyncJobQueryRequired)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateSyncJob_ChangesTargetDevice(t *testing.T) {
	mock, svc := setupSyncJobServiceTest(t)
	jobID := uuid.New()
	newDeviceID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "immich_sync_jobs" WHERE id = \$1`).
		WithArgs(jobID.String(), 1).
		WillReturnRows(jobRows(models.ImmichSyncJob{
			BaseModel:      models.BaseModel{ID: jobID},
			Name:           "bedroom-frame-daily",
			TargetDeviceID: uuid.New(),
			Strategy:       models.SyncStrategyRandom,
		}))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "global_devices" WHERE id = \$1`).
		WithArgs(newDeviceID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "immich_sync_jobs" SET "target_device_id"=\$1`).
		WithArgs(newDeviceID.String(), sqlmock.AnyArg(), jobID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT \* FROM "immich_sync_jobs" WHERE id = \$1`).
		WithArgs(jobID.String(), 1).
		WillReturnRows(jobRows(models.ImmichSyncJob{
			BaseModel:      models.BaseModel{ID: jobID},
			Name:           "bedroom-frame-daily",
			TargetDeviceID: newDeviceID,
			Strategy:       models.SyncStrategyRandom,
		}))

	job, err := svc.UpdateSyncJob(jobID, map[string]interface{}{"target_device_id": newDeviceID})

	require.NoError(t, err)
	assert.Equal(t, newDeviceID, job.TargetDeviceID)

	require.NoError(t, mock.ExpectationsWereMet())
}

// ============================================
// 删除操作测试
// ============================================

func TestDeleteSyncJob_Success(t *testing.T) {
	mock, svc := setupSyncJobServiceTest(t)
	jobID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "immich_sync_jobs" WHERE id = \$1`).
		WithArgs(jobID.String(), 1).
		WillReturnRows(jobRows(models.ImmichSyncJob{
			BaseModel:      models.BaseModel{ID: jobID},
			Name:           "retired-job",
			TargetDeviceID: uuid.New(),
			Strategy:       models.SyncStrategyRandom,
		}))
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "immich_sync_jobs"`).
		WithArgs(jobID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.DeleteSyncJob(jobID))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSyncJobByID_NotFound(t *testing.T) {
	mock, svc := setupSyncJobServiceTest(t)
	jobID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "immich_sync_jobs" WHERE id = \$1`).
		WithArgs(jobID.String(), 1).
		WillReturnRows(jobRows())

	_, err := svc.GetSyncJobByID(jobID)

	assert.ErrorIs(t, err, ErrSyncJobNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
