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

// setupDeviceTypeServiceTest 构造基于sqlmock的设备类型服务
func setupDeviceTypeServiceTest(t *testing.T) (sqlmock.Sqlmock, InterfaceDeviceTypeService) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	return mock, NewDeviceTypeService(db, &config.Config{})
}

func deviceTypeRows(types ...models.DeviceType) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "created_at", "updated_at", "name"})
	for _, dt := range types {
		rows.AddRow(dt.ID.String(), dt.CreatedAt, dt.UpdatedAt, dt.Name)
	}
	return rows
}

// ============================================
// 基础 CRUD 操作测试
// ============================================

func TestGetAllDeviceTypes_OrderedByName(t *testing.T) {
	mock, svc := setupDeviceTypeServiceTest(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "device_types"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`SELECT \* FROM "device_types" ORDER BY name LIMIT \$1`).
		WithArgs(10).
		WillReturnRows(deviceTypeRows(
			models.DeviceType{BaseModel: models.BaseModel{ID: uuid.New()}, Name: "curtain"},
			models.DeviceType{BaseModel: models.BaseModel{ID: uuid.New()}, Name: "light"},
			models.DeviceType{BaseModel: models.BaseModel{ID: uuid.New()}, Name: "thermostat"},
		))

	types, total, err := svc.GetAllDeviceTypes(1, 10)

	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, types, 3)
	assert.Equal(t, "curtain", types[0].Name)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDeviceType_DuplicateName(t *testing.T) {
	mock, svc := setupDeviceTypeServiceTest(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "device_types" WHERE name = \$1`).
		WithArgs("light").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	err := svc.CreateDeviceType(&models.DeviceType{Name: "light"})

	assert.ErrorIs(t, err, ErrDeviceTypeNameTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateDeviceType_NotFound(t *testing.T) {
	mock, svc := setupDeviceTypeServiceTest(t)
	typeID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "device_types" WHERE id = \$1`).
		WithArgs(typeID.String(), 1).
		WillReturnRows(deviceTypeRows())

	_, err := svc.UpdateDeviceType(typeID, map[string]interface{}{"name": "plug"})

	assert.ErrorIs(t, err, ErrDeviceTypeNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

// ============================================
// 删除保护测试
// ============================================

func TestDeleteDeviceType_RejectedWhileInUse(t *testing.T) {
	mock, svc := setupDeviceTypeServiceTest(t)
	typeID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "device_types" WHERE id = \$1`).
		WithArgs(typeID.String(), 1).
		WillReturnRows(deviceTypeRows(models.DeviceType{BaseModel: models.BaseModel{ID: typeID}, Name: "light"}))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "global_devices" WHERE device_type_id = \$1`).
		WithArgs(typeID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	err := svc.DeleteDeviceType(typeID)

	assert.ErrorIs(t, err, ErrDeviceTypeInUse)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteDeviceType_Unreferenced(t *testing.T) {
	mock, svc := setupDeviceTypeServiceTest(t)
	typeID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "device_types" WHERE id = \$1`).
		WithArgs(typeID.String(), 1).
		WillReturnRows(deviceTypeRows(models.DeviceType{BaseModel: models.BaseModel{ID: typeID}, Name: "spotify_device"}))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "global_devices" WHERE device_type_id = \$1`).
		WithArgs(typeID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "device_types"`).
		WithArgs(typeID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.DeleteDeviceType(typeID))
	require.NoError(t, mock.ExpectationsWereMet())
}
