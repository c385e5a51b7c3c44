package services

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/stkr22/private-assistant-web-ui/internal/domain/models"
	"github.com/stkr22/private-assistant-web-ui/internal/infrastructure/config"
)

// setupUserServiceTest 构造基于sqlmock的用户服务
func setupUserServiceTest(t *testing.T, cfg *config.Config) (sqlmock.Sqlmock, InterfaceUserService) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	return mock, NewUserService(db, cfg)
}

// strOrNil 把可空字符串转换成sqlmock可用的行值
func strOrNil(p *string) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func userRows(users ...models.User) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "created_at", "updated_at", "email", "full_name",
		"hashed_password", "is_active", "is_superuser", "oauth_provider", "oauth_subject",
	})
	for _, u := range users {
		rows.AddRow(u.ID.String(), u.CreatedAt, u.UpdatedAt, u.Email, strOrNil(u.FullName),
			strOrNil(u.HashedPassword), u.IsActive, u.IsSuperuser, strOrNil(u.OAuthProvider), strOrNil(u.OAuthSubject))
	}
	return rows
}

// ============================================
// 查询操作测试
// ============================================

func TestGetAllUsers_SearchFiltersEmailAndName(t *testing.T) {
	mock, svc := setupUserServiceTest(t, &config.Config{})

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE email LIKE \$1 OR full_name LIKE \$2`).
		WithArgs("%alice%", "%alice%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email LIKE \$1 OR full_name LIKE \$2 ORDER BY email LIMIT \$3`).
		WithArgs("%alice%", "%alice%", 10).
		WillReturnRows(userRows(models.User{
			BaseModel: models.BaseModel{ID: uuid.New()},
			Email:     "alice@example.com",
			IsActive:  true,
		}))

	users, total, err := svc.GetAllUsers(1, 10, "alice")

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	assert.Equal(t, "alice@example.com", users[0].Email)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	mock, svc := setupUserServiceTest(t, &config.Config{})

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
		WithArgs("ghost@example.com", 1).
		WillReturnRows(userRows())

	_, err := svc.GetUserByEmail("ghost@example.com")

	assert.ErrorIs(t, err, ErrUserNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

// ============================================
// 创建和更新操作测试
// ============================================

func TestCreateUser_HashesPassword(t *testing.T) {
	mock, svc := setupUserServiceTest(t, &config.Config{})

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE email = \$1`).
		WithArgs("bob@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "users"`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	user := &models.User{Email: "bob@example.com", IsActive: true}
	require.NoError(t, svc.CreateUser(user, "s3cret-pass"))

	assert.NotEqual(t, uuid.Nil, user.ID)
	require.NotNil(t, user.HashedPassword, "明文密码应被替换为哈希")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*user.HashedPassword), []byte("s3cret-pass")))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_EmailTaken(t *testing.T) {
	mock, svc := setupUserServiceTest(t, &config.Config{})

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE email = \$1`).
		WithArgs("bob@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	err := svc.CreateUser(&models.User{Email: "bob@example.com"}, "s3cret-pass")

	assert.ErrorIs(t, err, ErrEmailTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUser_RehashesPassword(t *testing.T) {
	mock, svc := setupUserServiceTest(t, &config.Config{})
	userID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1`).
		WithArgs(userID.String(), 1).
		WillReturnRows(userRows(models.User{BaseModel: models.BaseModel{ID: userID}, Email: "bob@example.com", IsActive: true}))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET "hashed_password"=\$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1`).
		WithArgs(userID.String(), 1).
		WillReturnRows(userRows(models.User{BaseModel: models.BaseModel{ID: userID}, Email: "bob@example.com", IsActive: true}))

	_, err := svc.UpdateUser(userID, map[string]interface{}{"password": "new-pass"})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUser_EmptyPasswordSkipsWrite(t *testing.T) {
	mock, svc := setupUserServiceTest(t, &config.Config{})
	userID := uuid.New()

	// 空密码被剥离后没有剩余字段，不应产生UPDATE
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1`).
		WithArgs(userID.String(), 1).
		WillReturnRows(userRows(models.User{BaseModel: models.BaseModel{ID: userID}, Email: "bob@example.com", IsActive: true}))
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1`).
		WithArgs(userID.String(), 1).
		WillReturnRows(userRows(models.User{BaseModel: models.BaseModel{ID: userID}, Email: "bob@example.com", IsActive: true}))

	user, err := svc.UpdateUser(userID, map[string]interface{}{"password": ""})

	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", user.Email)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUser_EmailAlreadyTaken(t *testing.T) {
	mock, svc := setupUserServiceTest(t, &config.Config{})
	userID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1`).
		WithArgs(userID.String(), 1).
		WillReturnRows(userRows(models.User{BaseModel: models.BaseModel{ID: userID}, Email: "bob@example.com", IsActive: true}))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE email = \$1 AND id != \$2`).
		WithArgs("alice@example.com", userID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, err := svc.UpdateUser(userID, map[string]interface{}{"email": "alice@example.com"})

	assert.ErrorIs(t, err, ErrEmailTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

// ============================================
// 删除操作测试
// ============================================

func TestDeleteUser_RejectsSelfDeletion(t *testing.T) {
	mock, svc := setupUserServiceTest(t, &config.Config{})
	userID := uuid.New()

	// 自删检查发生在任何数据库访问之前
	err := svc.DeleteUser(userID, userID)

	assert.ErrorIs(t, err, ErrSelfDelete)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUser_Success(t *testing.T) {
	mock, svc := setupUserServiceTest(t, &config.Config{})
	userID := uuid.New()
	currentID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1`).
		WithArgs(userID.String(), 1).
		WillReturnRows(userRows(models.User{BaseModel: models.BaseModel{ID: userID}, Email: "old@example.com"}))
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "users"`).
		WithArgs(userID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.DeleteUser(userID, currentID))
	require.NoError(t, mock.ExpectationsWereMet())
}

// ============================================
// OAuth自动建号测试
// ============================================

func TestProvisionOAuthUser_ReturnsExistingBySubject(t *testing.T) {
	mock, svc := setupUserServiceTest(t, &config.Config{})
	userID := uuid.New()
	subject := "sub-123"

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE oauth_subject = \$1`).
		WithArgs(subject, 1).
		WillReturnRows(userRows(models.User{
			BaseModel:    models.BaseModel{ID: userID},
			Email:        "carol@example.com",
			IsActive:     true,
			OAuthSubject: &subject,
		}))

	user, err := svc.ProvisionOAuthUser("zitadel", subject, "carol@example.com", "Carol")

	require.NoError(t, err)
	assert.Equal(t, userID, user.ID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProvisionOAuthUser_BindsExistingEmailAccount(t *testing.T) {
	mock, svc := setupUserServiceTest(t, &config.Config{})
	userID := uuid.New()
	subject := "sub-456"

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE oauth_subject = \$1`).
		WithArgs(subject, 1).
		WillReturnRows(userRows())
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
		WithArgs("dave@example.com", 1).
		WillReturnRows(userRows(models.User{BaseModel: models.BaseModel{ID: userID}, Email: "dave@example.com", IsActive: true}))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET "oauth_provider"=\$1,"oauth_subject"=\$2`).
		WithArgs("zitadel", subject, sqlmock.AnyArg(), userID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	provider := "zitadel"
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1`).
		WithArgs(userID.String(), 1).
		WillReturnRows(userRows(models.User{
			BaseModel:     models.BaseModel{ID: userID},
			Email:         "dave@example.com",
			IsActive:      true,
			OAuthProvider: &provider,
			OAuthSubject:  &subject,
		}))

	user, err := svc.ProvisionOAuthUser("zitadel", subject, "dave@example.com", "")

	require.NoError(t, err)
	require.NotNil(t, user.OAuthSubject)
	assert.Equal(t, subject, *user.OAuthSubject)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProvisionOAuthUser_CreatesNewUser(t *testing.T) {
	mock, svc := setupUserServiceTest(t, &config.Config{})
	subject := "sub-789"

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE oauth_subject = \$1`).
		WithArgs(subject, 1).
		WillReturnRows(userRows())
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
		WithArgs("erin@example.com", 1).
		WillReturnRows(userRows())
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "users"`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	user, err := svc.ProvisionOAuthUser("zitadel", subject, "erin@example.com", "Erin")

	require.NoError(t, err)
	assert.Equal(t, "erin@example.com", user.Email)
	assert.True(t, user.IsActive)
	require.NotNil(t, user.OAuthProvider)
	assert.Equal(t, "zitadel", *user.OAuthProvider)
	require.NotNil(t, user.FullName)
	assert.Equal(t, "Erin", *user.FullName)

	require.NoError(t, mock.ExpectationsWereMet())
}

// ============================================
// 初始超级用户测试
// ============================================

func TestEnsureFirstSuperuser_NotConfigured(t *testing.T) {
	mock, svc := setupUserServiceTest(t, &config.Config{})

	require.NoError(t, svc.EnsureFirstSuperuser())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureFirstSuperuser_AlreadyPresent(t *testing.T) {
	mock, svc := setupUserServiceTest(t, &config.Config{
		FirstSuperuser:         "root@example.com",
		FirstSuperuserPassword: "root-pass",
	})

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE email = \$1`).
		WithArgs("root@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	require.NoError(t, svc.EnsureFirstSuperuser())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureFirstSuperuser_CreatesSuperuser(t *testing.T) {
	mock, svc := setupUserServiceTest(t, &config.Config{
		FirstSuperuser:         "root@example.com",
		FirstSuperuserPassword: "root-pass",
	})

	// 存在性检查后走常规建号流程，该流程会再查一次邮箱唯一性
	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE email = \$1`).
		WithArgs("root@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE email = \$1`).
		WithArgs("root@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "users"`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.EnsureFirstSuperuser())
	require.NoError(t, mock.ExpectationsWereMet())
}
