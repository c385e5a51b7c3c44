package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stkr22/private-assistant-web-ui/internal/domain/models"
	"github.com/stkr22/private-assistant-web-ui/internal/infrastructure/config"
)

// 技能相关的业务错误
var (
	ErrSkillNotFound  = errors.New("技能不存在")
	ErrSkillNameTaken = errors.New("技能已存在")
	ErrSkillInUse     = errors.New("技能正在被设备使用")
)

// SkillStatus 表示技能及其心跳派生的在线状态
type SkillStatus struct {
	models.Skill
	Alive bool `json:"alive"`
}

// InterfaceSkillService 定义技能服务接口
type InterfaceSkillService interface {
	GetAllSkills(page, pageSize int) ([]models.Skill, int64, error)
	GetSkillByID(id uuid.UUID) (*models.Skill, error)
	CreateSkill(skill *models.Skill) error
	UpdateSkill(id uuid.UUID, updates map[string]interface{}) (*models.Skill, error)
	DeleteSkill(id uuid.UUID) error
	GetSkillStatuses() ([]SkillStatus, error)
}

// SkillService 提供技能相关的服务
type SkillService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewSkillService 创建一个新的技能服务
func NewSkillService(db *gorm.DB, cfg *config.Config) InterfaceSkillService {
	return &SkillService{
		DB:     db,
		Config: cfg,
	}
}

// 1 GetAllSkills 获取所有技能，支持分页，按名称排序
func (s *SkillService) GetAllSkills(page, pageSize int) ([]models.Skill, int64, error) {
	var skills []models.Skill
	var total int64

	// 获取总数
	if err := s.DB.Model(&models.Skill{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 分页查询
	offset := (page - 1) * pageSize
	if err := s.DB.Order("name").Limit(pageSize).Offset(offset).Find(&skills).Error; err != nil {
		return nil, 0, err
	}

	return skills, total, nil
}

// 2 GetSkillByID 根据ID获取技能
func (s *SkillService) GetSkillByID(id uuid.UUID) (*models.Skill, error) {
	var skill models.Skill
	if err := s.DB.First(&skill, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSkillNotFound
		}
		return nil, err
	}
	return &skill, nil
}

// 3 CreateSkill 创建新技能
func (s *SkillService) CreateSkill(skill *models.Skill) error {
	// 验证名称唯一性
	var count int64
	if err := s.DB.Model(&models.Skill{}).Where("name = ?", skill.Name).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrSkillNameTaken
	}

	return s.DB.Create(skill).Error
}

// 4 UpdateSkill 更新技能信息
func (s *SkillService) UpdateSkill(id uuid.UUID, updates map[string]interface{}) (*models.Skill, error) {
	skill, err := s.GetSkillByID(id)
	if err != nil {
		return nil, err
	}

	// 如果更新名称，需要检查唯一性
	if name, ok := updates["name"].(string); ok && name != skill.Name {
		var count int64
		if err := s.DB.Model(&models.Skill{}).Where("name = ? AND id != ?", name, id).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrSkillNameTaken
		}
	}

	if err := s.DB.Model(skill).Updates(updates).Error; err != nil {
		return nil, err
	}

	return s.GetSkillByID(id)
}

// 5 DeleteSkill 删除技能，被设备引用时拒绝删除
func (s *SkillService) DeleteSkill(id uuid.UUID) error {
	skill, err := s.GetSkillByID(id)
	if err != nil {
		return err
	}

	// 检查是否有设备引用此技能
	var deviceCount int64
	if err := s.DB.Model(&models.GlobalDevice{}).Where("skill_id = ?", id).Count(&deviceCount).Error; err != nil {
		return err
	}
	if deviceCount > 0 {
		return ErrSkillInUse
	}

	return s.DB.Delete(skill).Error
}

// 6 GetSkillStatuses 获取全部技能及心跳派生的在线状态，按名称排序
func (s *SkillService) GetSkillStatuses() ([]SkillStatus, error) {
	var skills []models.Skill
	if err := s.DB.Order("name").Find(&skills).Error; err != nil {
		return nil, err
	}

	aliveWindow := time.Duration(s.Config.SkillAliveWindowSeconds) * time.Second
	now := time.Now()

	statuses := make([]SkillStatus, 0, len(skills))
	for _, skill := range skills {
		alive := skill.LastSeen != nil && now.Sub(*skill.LastSeen) <= aliveWindow
		statuses = append(statuses, SkillStatus{Skill: skill, Alive: alive})
	}
	return statuses, nil
}
