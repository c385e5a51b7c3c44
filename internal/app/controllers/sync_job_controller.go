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

// InterfaceSyncJobController 定义同步任务控制器接口
type InterfaceSyncJobController interface {
	GetSyncJobs()
	GetSyncJob()
	CreateSyncJob()
	UpdateSyncJob()
	DeleteSyncJob()
	PreviewSyncJob()
}

// SyncJobController 处理Immich同步任务相关的请求
type SyncJobController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewSyncJobController 创建一个新的同步任务控制器
func NewSyncJobController(ctx *gin.Context, container *container.ServiceContainer) *SyncJobController {
	return &SyncJobController{
		Ctx:       ctx,
		Container: container,
	}
}

// SyncJobRequest 表示创建同步任务的请求
type SyncJobRequest struct {
	Name                string              `json:"name" binding:"required,max=255" example:"living room favorites"`
	TargetDeviceID      uuid.UUID           `json:"target_device_id" binding:"required"`
	Strategy            models.SyncStrategy `json:"strategy" binding:"omitempty,oneof=RANDOM SMART"`
	Query               *string             `json:"query" binding:"omitempty,max=500"`
	Count               int                 `json:"count" binding:"omitempty,min=1,max=1000"`
	RandomPick          bool                `json:"random_pick"`
	OverfetchMultiplier int                 `json:"overfetch_multiplier" binding:"omitempty,min=1,max=10"`
	MinColorScore       float64             `json:"min_color_score" binding:"omitempty,min=0,max=1"`
	IsActive            *bool               `json:"is_active"`
	AlbumIDs            []string            `json:"album_ids"`
	PersonIDs           []string            `json:"person_ids"`
	TagIDs              []string            `json:"tag_ids"`
	IsFavorite          *bool               `json:"is_favorite"`
	City                *string             `json:"city" binding:"omitempty,max=255"`
	State               *string             `json:"state" binding:"omitempty,max=255"`
	Country             *string             `json:"country" binding:"omitempty,max=255"`
	TakenAfter          *time.Time          `json:"taken_after"`
	TakenBefore         *time.Time          `json:"taken_before"`
	Rating              *int                `json:"rating" binding:"omitempty,min=0,max=5"`
}

// SyncJobUpdateRequest 表示更新同步任务的请求，未提供的字段保持原值
type SyncJobUpdateRequest struct {
	Name                *string              `json:"name" binding:"omitempty,max=255"`
	TargetDeviceID      *uuid.UUID           `json:"target_device_id"`
	Strategy            *models.SyncStrategy `json:"strategy" binding:"omitempty,oneof=RANDOM SMART"`
	Query               *string              `json:"query" binding:"omitempty,max=500"`
	Count               *int                 `json:"count" binding:"omitempty,min=1,max=1000"`
	RandomPick          *bool                `json:"random_pick"`
	OverfetchMultiplier *int                 `json:"overfetch_multiplier" binding:"omitempty,min=1,max=10"`
	MinColorScore       *float64             `json:"min_color_score" binding:"omitempty,min=0,max=1"`
	IsActive            *bool                `json:"is_active"`
	AlbumIDs            *[]string            `json:"album_ids"`
	PersonIDs           *[]string            `json:"person_ids"`
	TagIDs              *[]string            `json:"tag_ids"`
	IsFavorite          *bool                `json:"is_favorite"`
	City                *string              `json:"city" binding:"omitempty,max=255"`
	State               *string              `json:"state" binding:"omitempty,max=255"`
	Country             *string              `json:"country" binding:"omitempty,max=255"`
	TakenAfter          *time.Time           `json:"taken_after"`
	TakenBefore         *time.Time           `json:"taken_before"`
	Rating              *int                 `json:"rating" binding:"omitempty,min=0,max=5"`
}

// HandleSyncJobFunc 返回一个处理同步任务请求的Gin处理函数
func HandleSyncJobFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewSyncJobController(ctx, container)

		switch method {
		case "getSyncJobs":
			controller.GetSyncJobs()
		case "getSyncJob":
			controller.GetSyncJob()
		case "createSyncJob":
			controller.CreateSyncJob()
		case "updateSyncJob":
			controller.UpdateSyncJob()
		case "deleteSyncJob":
			controller.DeleteSyncJob()
		case "previewSyncJob":
			controller.PreviewSyncJob()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

// 1. GetSyncJobs 获取同步任务列表
// @Summary 获取同步任务列表
// @Description 获取所有Immich同步任务，按名称排序分页
// @Tags ImmichSyncJobs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码，默认为1"
// @Param page_size query int false "每页条数，默认为10"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} ErrorResponse
// @Router /immich-sync-jobs [get]
func (c *SyncJobController) GetSyncJobs() {
	// 获取分页参数
	page, _ := strconv.Atoi(c.Ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.Ctx.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	syncJobService := c.Container.GetService("sync_job").(services.InterfaceSyncJobService)
	jobs, total, err := syncJobService.GetAllSyncJobs(page, pageSize)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "获取同步任务列表失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{
		"total":       total,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": (total + int64(pageSize) - 1) / int64(pageSize),
		"data":        jobs,
	})
}

// 2. GetSyncJob 获取单个同步任务详情
// @Summary 获取同步任务详情
// @Description 根据ID获取同步任务
// @Tags ImmichSyncJobs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "同步任务ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /immich-sync-jobs/{id} [get]
func (c *SyncJobController) GetSyncJob() {
	jobID, err := uuid.Parse(c.Ctx.Param("id"))
	if err != nil {
		response.ParamError(c.Ctx, "无效的同步任务ID")
		return
	}

	syncJobService := c.Container.GetService("sync_job").(services.InterfaceSyncJobService)
	job, err := syncJobService.GetSyncJobByID(jobID)
	if err != nil {
		response.NotFound(c.Ctx, "同步任务不存在: "+err.Error())
		return
	}

	response.Success(c.Ctx, job)
}

// 3. CreateSyncJob 创建同步任务
// @Summary 创建同步任务
// @Description 创建新的Immich同步任务，SMART策略必须提供查询语句
// @Tags ImmichSyncJobs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sync_job body SyncJobRequest true "同步任务信息"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /immich-sync-jobs [post]
func (c *SyncJobController) CreateSyncJob() {
	var req SyncJobRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	// 过滤条件列表统一存成JSON数组
	if req.AlbumIDs == nil {
		req.AlbumIDs = []string{}
	}
	if req.PersonIDs == nil {
		req.PersonIDs = []string{}
	}
	if req.TagIDs == nil {
		req.TagIDs = []string{}
	}
	albumIDs, err := marshalJSONField(req.AlbumIDs)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的相册列表: "+err.Error(), nil)
		return
	}
	personIDs, err := marshalJSONField(req.PersonIDs)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的人物列表: "+err.Error(), nil)
		return
	}
	tagIDs, err := marshalJSONField(req.TagIDs)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的标签列表: "+err.Error(), nil)
		return
	}

	job := &models.ImmichSyncJob{
		Name:                req.Name,
		TargetDeviceID:      req.TargetDeviceID,
		Strategy:            req.Strategy,
		Query:               req.Query,
		Count:               req.Count,
		RandomPick:          req.RandomPick,
		OverfetchMultiplier: req.OverfetchMultiplier,
		MinColorScore:       req.MinColorScore,
		IsActive:            true,
		AlbumIDs:            albumIDs,
		PersonIDs:           personIDs,
		TagIDs:              tagIDs,
		IsFavorite:          req.IsFavorite,
		City:                req.City,
		State:               req.State,
		Country:             req.Country,
		TakenAfter:          req.TakenAfter,
		TakenBefore:         req.TakenBefore,
		Rating:              req.Rating,
	}
	if req.IsActive != nil {
		job.IsActive = *req.IsActive
	}

	syncJobService := c.Container.GetService("sync_job").(services.InterfaceSyncJobService)
	if err := syncJobService.CreateSyncJob(job); err != nil {
		if errors.Is(err, services.ErrSyncJobNameTaken) {
			response.Fail(c.Ctx, code.ErrSyncJobAlreadyExist, nil)
			return
		}
		if errors.Is(err, services.ErrDeviceNotFound) {
			response.FailWithMessage(c.Ctx, code.ErrDeviceRefInvalid, "目标设备不存在", nil)
			return
		}
		if errors.Is(err, services.ErrSyncJobQueryRequired) {
			response.Fail(c.Ctx, code.ErrSyncJobQueryRequired, nil)
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "创建同步任务失败: "+err.Error(), nil)
		return
	}

	c.Ctx.Status(http.StatusCreated)
	response.Success(c.Ctx, job)
}

// 4. UpdateSyncJob 更新同步任务
// @Summary 更新同步任务
// @Description 更新同步任务，合并后的策略和查询仍需满足SMART约束
// @Tags ImmichSyncJobs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "同步任务ID"
// @Param sync_job body SyncJobUpdateRequest true "同步任务信息"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /immich-sync-jobs/{id} [put]
func (c *SyncJobController) UpdateSyncJob() {
	jobID, err := uuid.Parse(c.Ctx.Param("id"))
	if err != nil {
		response.ParamError(c.Ctx, "无效的同步任务ID")
		return
	}

	var req SyncJobUpdateRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	// 创建更新映射
	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.TargetDeviceID != nil {
		updates["target_device_id"] = *req.TargetDeviceID
	}
	if req.Strategy != nil {
		updates["strategy"] = *req.Strategy
	}
	if req.Query != nil {
		updates["query"] = req.Query
	}
	if req.Count != nil {
		updates["count"] = *req.Count
	}
	if req.RandomPick != nil {
		updates["random_pick"] = *req.RandomPick
	}
	if req.OverfetchMultiplier != nil {
		updates["overfetch_multiplier"] = *req.OverfetchMultiplier
	}
	if req.MinColorScore != nil {
		updates["min_color_score"] = *req.MinColorScore
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.AlbumIDs != nil {
		albumIDs, err := marshalJSONField(*req.AlbumIDs)
		if err != nil {
			response.FailWithMessage(c.Ctx, code.ErrBind, "无效的相册列表: "+err.Error(), nil)
			return
		}
		updates["album_ids"] = albumIDs
	}
	if req.PersonIDs != nil {
		personIDs, err := marshalJSONField(*req.PersonIDs)
		if err != nil {
			response.FailWithMessage(c.Ctx, code.ErrBind, "无效的人物列表: "+err.Error(), nil)
			return
		}
		updates["person_ids"] = personIDs
	}
	if req.TagIDs != nil {
		tagIDs, err := marshalJSONField(*req.TagIDs)
		if err != nil {
			response.FailWithMessage(c.Ctx, code.ErrBind, "无效的标签列表: "+err.Error(), nil)
			return
		}
		updates["tag_ids"] = tagIDs
	}
	if req.IsFavorite != nil {
		updates["is_favorite"] = *req.IsFavorite
	}
	if req.City != nil {
		updates["city"] = *req.City
	}
	if req.State != nil {
		updates["state"] = *req.State
	}
	if req.Country != nil {
		updates["country"] = *req.Country
	}
	if req.TakenAfter != nil {
		updates["taken_after"] = *req.TakenAfter
	}
	if req.TakenBefore != nil {
		updates["taken_before"] = *req.TakenBefore
	}
	if req.Rating != nil {
		updates["rating"] = *req.Rating
	}

	syncJobService := c.Container.GetService("sync_job").(services.InterfaceSyncJobService)
	job, err := syncJobService.UpdateSyncJob(jobID, updates)
	if err != nil {
		if errors.Is(err, services.ErrSyncJobNotFound) {
			response.NotFound(c.Ctx, "同步任务不存在")
			return
		}
		if errors.Is(err, services.ErrSyncJobNameTaken) {
			response.Fail(c.Ctx, code.ErrSyncJobAlreadyExist, nil)
			return
		}
		if errors.Is(err, services.ErrDeviceNotFound) {
			response.FailWithMessage(c.Ctx, code.ErrDeviceRefInvalid, "目标设备不存在", nil)
			return
		}
		if errors.Is(err, services.ErrSyncJobQueryRequired) {
			response.Fail(c.Ctx, code.ErrSyncJobQueryRequired, nil)
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "更新同步任务失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, job)
}

// 5. DeleteSyncJob 删除同步任务
// @Summary 删除同步任务
// @Description 根据ID删除同步任务
// @Tags ImmichSyncJobs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "同步任务ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /immich-sync-jobs/{id} [delete]
func (c *SyncJobController) DeleteSyncJob() {
	jobID, err := uuid.Parse(c.Ctx.Param("id"))
	if err != nil {
		response.ParamError(c.Ctx, "无效的同步任务ID")
		return
	}

	syncJobService := c.Container.GetService("sync_job").(services.InterfaceSyncJobService)
	if err := syncJobService.DeleteSyncJob(jobID); err != nil {
		if errors.Is(err, services.ErrSyncJobNotFound) {
			response.NotFound(c.Ctx, "同步任务不存在")
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "删除同步任务失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{"message": "同步任务已删除"})
}

// 6. PreviewSyncJob 预览同步任务的匹配结果
// @Summary 预览同步任务
// @Description 按任务配置查询Immich，返回匹配数量和示例资源ID，不落库
// @Tags ImmichSyncJobs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "同步任务ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /immich-sync-jobs/{id}/preview [post]
func (c *SyncJobController) PreviewSyncJob() {
	jobID, err := uuid.Parse(c.Ctx.Param("id"))
	if err != nil {
		response.ParamError(c.Ctx, "无效的同步任务ID")
		return
	}

	syncJobService := c.Container.GetService("sync_job").(services.InterfaceSyncJobService)
	job, err := syncJobService.GetSyncJobByID(jobID)
	if err != nil {
		response.NotFound(c.Ctx, "同步任务不存在: "+err.Error())
		return
	}

	immichService := c.Container.GetService("immich").(services.InterfaceImmichService)
	preview, err := immichService.PreviewSyncJob(job)
	if err != nil {
		if errors.Is(err, services.ErrImmichNotConfigured) {
			response.FailWithMessage(c.Ctx, code.ErrImmichUnavailable, "未配置Immich服务地址", nil)
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrImmichUnavailable, "查询Immich失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, preview)
}
