package services

import (
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/stkr22/private-assistant-web-ui/internal/domain/models"
	"github.com/stkr22/private-assistant-web-ui/internal/infrastructure/config"
	"github.com/stkr22/private-assistant-web-ui/pkg/logger"
)

// 用户相关的业务错误
var (
	ErrUserNotFound = errors.New("用户不存在")
	ErrEmailTaken   = errors.New("该邮箱已被注册")
	ErrSelfDelete   = errors.New("不能删除当前登录用户")
)

// InterfaceUserService 定义用户服务接口
type InterfaceUserService interface {
	GetAllUsers(page, pageSize int, search string) ([]models.User, int64, error)
	GetUserByID(id uuid.UUID) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByOAuthSubject(subject string) (*models.User, error)
	CreateUser(user *models.User, password string) error
	UpdateUser(id uuid.UUID, updates map[string]interface{}) (*models.User, error)
	DeleteUser(id, currentUserID uuid.UUID) error
	ProvisionOAuthUser(provider, subject, email, fullName string) (*models.User, error)
	EnsureFirstSuperuser() error
}

// UserService 提供用户相关的服务
type UserService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewUserService 创建一个新的用户服务
func NewUserService(db *gorm.DB, cfg *config.Config) InterfaceUserService {
	return &UserService{
		DB:     db,
		Config: cfg,
	}
}

// 1 GetAllUsers 获取所有用户，支持分页和搜索
func (s *UserService) GetAllUsers(page, pageSize int, search string) ([]models.User, int64, error) {
	var users []models.User
	var total int64

	query := s.DB.Model(&models.User{})

	// 添加搜索条件
	if search != "" {
		query = query.Where("email LIKE ? OR full_name LIKE ?", "%"+search+"%", "%"+search+"%")
	}

	// 获取总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 分页查询，按邮箱排序
	offset := (page - 1) * pageSize
	if err := query.Order("email").Offset(offset).Limit(pageSize).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// 2 GetUserByID 根据ID获取用户
func (s *UserService) GetUserByID(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.DB.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// 3 GetUserByEmail 根据邮箱获取用户
func (s *UserService) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.DB.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// 4 GetUserByOAuthSubject 根据OIDC sub声明获取用户
func (s *UserService) GetUserByOAuthSubject(subject string) (*models.User, error) {
	var user models.User
	if err := s.DB.Where("oauth_subject = ?", subject).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// 5 CreateUser 创建新用户并对密码进行哈希处理
func (s *UserService) CreateUser(user *models.User, password string) error {
	// 验证邮箱唯一性
	var count int64
	if err := s.DB.Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrEmailTaken
	}

	if password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		hashedStr := string(hashed)
		user.HashedPassword = &hashedStr
	}

	return s.DB.Create(user).Error
}

// 6 UpdateUser 更新用户信息，updates中的password会重新哈希
func (s *UserService) UpdateUser(id uuid.UUID, updates map[string]interface{}) (*models.User, error) {
	user, err := s.GetUserByID(id)
	if err != nil {
		return nil, err
	}

	// 如果更新邮箱，需要检查唯一性
	if email, ok := updates["email"].(string); ok && email != user.Email {
		var count int64
		if err := s.DB.Model(&models.User{}).Where("email = ? AND id != ?", email, id).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrEmailTaken
		}
	}

	// 密码明文不直接入库
	if password, ok := updates["password"].(string); ok {
		delete(updates, "password")
		if password != "" {
			hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return nil, err
			}
			updates["hashed_password"] = string(hashed)
		}
	}

	if len(updates) > 0 {
		if err := s.DB.Model(user).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	return s.GetUserByID(id)
}

// 7 DeleteUser 删除用户，禁止删除当前登录用户
func (s *UserService) DeleteUser(id, currentUserID uuid.UUID) error {
	if id == currentUserID {
		return ErrSelfDelete
	}

	user, err := s.GetUserByID(id)
	if err != nil {
		return err
	}

	return s.DB.Delete(user).Error
}

// 8 ProvisionOAuthUser 根据OIDC身份自动创建或返回已有用户
func (s *UserService) ProvisionOAuthUser(provider, subject, email, fullName string) (*models.User, error) {
	user, err := s.GetUserByOAuthSubject(subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	// 同邮箱的本地账户存在时直接绑定OIDC身份
	if email != "" {
		existing, err := s.GetUserByEmail(email)
		if err == nil {
			updates := map[string]interface{}{
				"oauth_provider": provider,
				"oauth_subject":  subject,
			}
			if err := s.DB.Model(existing).Updates(updates).Error; err != nil {
				return nil, err
			}
			return s.GetUserByID(existing.ID)
		}
		if !errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
	}

	newUser := &models.User{
		Email:         email,
		IsActive:      true,
		OAuthProvider: &provider,
		OAuthSubject:  &subject,
	}
	if fullName != "" {
		newUser.FullName = &fullName
	}

	if err := s.DB.Create(newUser).Error; err != nil {
		return nil, err
	}

	logger.Info("已自动创建OAuth用户: %s (sub=%s)", email, subject)
	return newUser, nil
}

// 9 EnsureFirstSuperuser 确保系统中有初始超级用户
func (s *UserService) EnsureFirstSuperuser() error {
	email := s.Config.FirstSuperuser
	password := s.Config.FirstSuperuserPassword
	if email == "" || password == "" {
		return nil
	}

	var count int64
	if err := s.DB.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	superuser := &models.User{
		Email:       email,
		IsActive:    true,
		IsSuperuser: true,
	}
	if err := s.CreateUser(superuser, password); err != nil {
		return err
	}

	logger.Info("已创建初始超级用户: %s", email)
	return nil
}
