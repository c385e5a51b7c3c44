package services

import (
	"testing"
	"time"

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

// setupSkillServiceTest 构造基于sqlmock的技能服务
func setupSkillServiceTest(t *testing.T, cfg *config.Config) (sqlmock.Sqlmock, InterfaceSkillService) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	return mock, NewSkillService(db, cfg)
}

// timeOrNil 把可空时间转换成sqlmock可用的行值
func timeOrNil(p *time.Time) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func skillRows(skills ...models.Skill) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "created_at", "updated_at", "name", "last_seen"})
	for _, sk := range skills {
		rows.AddRow(sk.ID.String(), sk.CreatedAt, sk.UpdatedAt, sk.Name, timeOrNil(sk.LastSeen))
	}
	return rows
}

// ============================================
// 心跳状态测试
// ============================================

func TestGetSkillStatuses_DerivesAliveFromHeartbeat(t *testing.T) {
	mock, svc := setupSkillServiceTest(t, &config.Config{SkillAliveWindowSeconds: 300})

	recent := time.Now().Add(-30 * time.Second)
	stale := time.Now().Add(-2 * time.Hour)

	mock.ExpectQuery(`SELECT \* FROM "skills" ORDER BY name`).
		WillReturnRows(skillRows(
			models.Skill{BaseModel: models.BaseModel{ID: uuid.New()}, Name: "climate", LastSeen: &recent},
			models.Skill{BaseModel: models.BaseModel{ID: uuid.New()}, Name: "lights", LastSeen: &stale},
			models.Skill{BaseModel: models.BaseModel{ID: uuid.New()}, Name: "vacuum"},
		))

	statuses, err := svc.GetSkillStatuses()

	require.NoError(t, err)
	require.Len(t, statuses, 3)
	assert.True(t, statuses[0].Alive, "最近上报过心跳的技能应视为在线")
	assert.False(t, statuses[1].Alive, "心跳超出窗口的技能应视为离线")
	assert.False(t, statuses[2].Alive, "从未上报心跳的技能应视为离线")

	require.NoError(t, mock.ExpectationsWereMet())
}

// ============================================
// 基础 CRUD 操作测试
// ============================================

func TestGetSkillByID_NotFound(t *testing.T) {
	mock, svc := setupSkillServiceTest(t, &config.Config{})
	skillID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "skills" WHERE id = \$1`).
		WithArgs(skillID.String(), 1).
		WillReturnRows(skillRows())

	_, err := svc.GetSkillByID(skillID)

	assert.ErrorIs(t, err, ErrSkillNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSkill_Success(t *testing.T) {
	mock, svc := setupSkillServiceTest(t, &config.Config{})

	mock.ExpectQuery(`SELECT count\(\*\) FROM "skills" WHERE name = \$1`).
		WithArgs("media-player").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "skills"`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	skill := &models.Skill{Name: "media-player"}
	require.NoError(t, svc.CreateSkill(skill))
	assert.NotEqual(t, uuid.Nil, skill.ID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSkill_DuplicateName(t *testing.T) {
	mock, svc := setupSkillServiceTest(t, &config.Config{})

	mock.ExpectQuery(`SELECT count\(\*\) FROM "skills" WHERE name = \$1`).
		WithArgs("lights").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	err := svc.CreateSkill(&models.Skill{Name: "lights"})

	assert.ErrorIs(t, err, ErrSkillNameTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateSkill_NameAlreadyTaken(t *testing.T) {
	mock, svc := setupSkillServiceTest(t, &config.Config{})
	skillID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "skills" WHERE id = \$1`).
		WithArgs(skillID.String(), 1).
		WillReturnRows(skillRows(models.Skill{BaseModel: models.BaseModel{ID: skillID}, Name: "vacuum"}))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "skills" WHERE name = \$1 AND id != \$2`).
		WithArgs("lights", skillID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, err := svc.UpdateSkill(skillID, map[string]interface{}{"name": "lights"})

	assert.ErrorIs(t, err, ErrSkillNameTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

// ============================================
// 删除保护测试
// ============================================

func TestDeleteSkill_RejectedWhileInUse(t *testing.T) {
	mock, svc := setupSkillServiceTest(t, &config.Config{})
	skillID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "skills" WHERE id = \$1`).
		WithArgs(skillID.String(), 1).
		WillReturnRows(skillRows(models.Skill{BaseModel: models.BaseModel{ID: skillID}, Name: "lights"}))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "global_devices" WHERE skill_id = \$1`).
		WithArgs(skillID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	err := svc.DeleteSkill(skillID)

	assert.ErrorIs(t, err, ErrSkillInUse)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSkill_Unreferenced(t *testing.T) {
	mock, svc := setupSkillServiceTest(t, &config.Config{})
	skillID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "skills" WHERE id = \$1`).
		WithArgs(skillID.String(), 1).
		WillReturnRows(skillRows(models.Skill{BaseModel: models.BaseModel{ID: skillID}, Name: "weather"}))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "global_devices" WHERE skill_id = \$1`).
		WithArgs(skillID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "skills"`).
		WithArgs(skillID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.DeleteSkill(skillID))
	require.NoError(t, mock.ExpectationsWereMet())
}
