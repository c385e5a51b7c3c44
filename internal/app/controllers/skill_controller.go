package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stkr22/private-assistant-web-ui/internal/domain/models"
	"github.com/stkr22/private-assistant-web-ui/internal/domain/services"
	"github.com/stkr22/private-assistant-web-ui/internal/domain/services/container"
	"github.com/stkr22/private-assistant-web-ui/internal/error/code"
	"github.com/stkr22/private-assistant-web-ui/internal/error/response"
)

// InterfaceSkillController 定义技能控制器接口
type InterfaceSkillController interface {
	GetSkills()
	GetSkill()
	CreateSkill()
	UpdateSkill()
	DeleteSkill()
	GetMonitoringSkills()
}

// SkillController 处理技能相关的请求
type SkillController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewSkillController 创建一个新的技能控制器
func NewSkillController(ctx *gin.Context, container *container.ServiceContainer) *SkillController {
	return &SkillController{
		Ctx:       ctx,
		Container: container,
	}
}

// SkillRequest 表示创建技能请求
type SkillRequest struct {
	Name string `json:"name" binding:"required,max=255" example:"switch"`
}

// SkillUpdateRequest 表示更新技能请求，last_seen供技能注册心跳使用
type SkillUpdateRequest struct {
	Name     *string    `json:"name" binding:"omitempty,max=255"`
	LastSeen *time.Time `json:"last_seen"`
}

// HandleSkillFunc 返回一个处理技能请求的Gin处理函数
func HandleSkillFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewSkillController(ctx, container)

		switch method {
		case "getSkills":
			controller.GetSkills()
		case "getSkill":
			controller.GetSkill()
		case "createSkill":
			controller.CreateSkill()
		case "updateSkill":
			controller.UpdateSkill()
		case "deleteSkill":
			controller.DeleteSkill()
		case "getMonitoringSkills":
			controller.GetMonitoringSkills()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

// 1. GetSkills 获取所有技能列表
// @Summary 获取所有技能
// @Description 获取系统中所有技能的列表，按名称排序
// @Tags Skill
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码，默认为1"
// @Param page_size query int false "每页条数，默认为10"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} ErrorResponse
// @Router /skills [get]
func (c *SkillController) GetSkills() {
	// 获取分页参数
	page, _ := strconv.Atoi(c.Ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.Ctx.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	skillService := c.Container.GetService("skill").(services.InterfaceSkillService)
	skills, total, err := skillService.GetAllSkills(page, pageSize)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "获取技能列表失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{
		"total":       total,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": (total + int64(pageSize) - 1) / int64(pageSize),
		"data":        skills,
	})
}

// 2. GetSkill 获取单个技能详情
// @Summary 获取技能详情
// @Description 根据ID获取技能详细信息
// @Tags Skill
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "技能ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /skills/{id} [get]
func (c *SkillController) GetSkill() {
	skillID, err := uuid.Parse(c.Ctx.Param("id"))
	if err != nil {
		response.ParamError(c.Ctx, "无效的技能ID")
		return
	}

	skillService := c.Container.GetService("skill").(services.InterfaceSkillService)
	skill, err := skillService.GetSkillByID(skillID)
	if err != nil {
		response.NotFound(c.Ctx, "技能不存在: "+err.Error())
		return
	}

	response.Success(c.Ctx, skill)
}

// 3. CreateSkill 创建新技能
// @Summary 创建技能
// @Description 注册一个新的技能，名称全局唯一
// @Tags Skill
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param skill body SkillRequest true "技能信息"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Router /skills [post]
func (c *SkillController) CreateSkill() {
	var req SkillRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	skill := &models.Skill{
		Name: req.Name,
	}

	skillService := c.Container.GetService("skill").(services.InterfaceSkillService)
	if err := skillService.CreateSkill(skill); err != nil {
		if errors.Is(err, services.ErrSkillNameTaken) {
			response.FailWithMessage(c.Ctx, code.ErrSkillAlreadyExist, err.Error(), nil)
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "创建技能失败: "+err.Error(), nil)
		return
	}

	c.Ctx.Status(http.StatusCreated)
	response.Success(c.Ctx, skill)
}

// 4. UpdateSkill 更新技能信息
// @Summary 更新技能
// @Description 更新技能名称或上报心跳时间
// @Tags Skill
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "技能ID"
// @Param skill body SkillUpdateRequest true "技能信息"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /skills/{id} [put]
func (c *SkillController) UpdateSkill() {
	skillID, err := uuid.Parse(c.Ctx.Param("id"))
	if err != nil {
		response.ParamError(c.Ctx, "无效的技能ID")
		return
	}

	var req SkillUpdateRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	// 创建更新映射
	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.LastSeen != nil {
		updates["last_seen"] = *req.LastSeen
	}

	skillService := c.Container.GetService("skill").(services.InterfaceSkillService)
	skill, err := skillService.UpdateSkill(skillID, updates)
	if err != nil {
		if errors.Is(err, services.ErrSkillNotFound) {
			response.NotFound(c.Ctx, "技能不存在")
			return
		}
		if errors.Is(err, services.ErrSkillNameTaken) {
			response.FailWithMessage(c.Ctx, code.ErrSkillAlreadyExist, err.Error(), nil)
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "更新技能失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, skill)
}

// 5. DeleteSkill 删除技能
// @Summary 删除技能
// @Description 删除指定技能，仍被设备引用时拒绝删除
// @Tags Skill
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "技能ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /skills/{id} [delete]
func (c *SkillController) DeleteSkill() {
	skillID, err := uuid.Parse(c.Ctx.Param("id"))
	if err != nil {
		response.ParamError(c.Ctx, "无效的技能ID")
		return
	}

	skillService := c.Container.GetService("skill").(services.InterfaceSkillService)
	if err := skillService.DeleteSkill(skillID); err != nil {
		if errors.Is(err, services.ErrSkillNotFound) {
			response.NotFound(c.Ctx, "技能不存在")
			return
		}
		if errors.Is(err, services.ErrSkillInUse) {
			response.FailWithMessage(c.Ctx, code.ErrDeviceRefInvalid, err.Error(), nil)
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "删除技能失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{"message": "技能已删除"})
}

// 6. GetMonitoringSkills 获取技能监控状态
// @Summary 获取技能监控状态
// @Description 获取所有技能及其在线状态，按名称排序
// @Tags Monitoring
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} ErrorResponse
// @Router /monitoring/skills [get]
func (c *SkillController) GetMonitoringSkills() {
	skillService := c.Container.GetService("skill").(services.InterfaceSkillService)
	statuses, err := skillService.GetSkillStatuses()
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "获取技能状态失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{
		"data":  statuses,
		"count": len(statuses),
	})
}
