package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stkr22/private-assistant-web-ui/internal/domain/models"
	"github.com/stkr22/private-assistant-web-ui/internal/domain/services"
	"github.com/stkr22/private-assistant-web-ui/internal/domain/services/container"
	"github.com/stkr22/private-assistant-web-ui/internal/error/code"
	"github.com/stkr22/private-assistant-web-ui/internal/error/response"
)

// InterfaceImageController 定义图片控制器接口
type InterfaceImageController interface {
	UploadImage()
	GetImages()
	GetImage()
	GetImageURL()
	UpdateImage()
	DeleteImage()
}

// ImageController 处理相框图片相关的请求
type ImageController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewImageController 创建一个新的图片控制器
func NewImageController(ctx *gin.Context, container *container.ServiceContainer) *ImageController {
	return &ImageController{
		Ctx:       ctx,
		Container: container,
	}
}

// ImageUploadRequest 表示图片上传的表单字段
type ImageUploadRequest struct {
	Title                  string `form:"title" binding:"omitempty,max=255"`
	Description            string `form:"description"`
	Tags                   string `form:"tags"`
	DisplayDurationSeconds int    `form:"display_duration_seconds,default=3600" binding:"min=5,max=86400"`
	Priority               int    `form:"priority,default=0" binding:"min=0,max=100"`
}

// ImageUpdateRequest 表示图片元数据更新请求，未提供的字段保持原值
type ImageUpdateRequest struct {
	Title                  *string `json:"title" binding:"omitempty,max=255"`
	Description            *string `json:"description"`
	Tags                   *string `json:"tags"`
	DisplayDurationSeconds *int    `json:"display_duration_seconds" binding:"omitempty,min=5,max=86400"`
	Priority               *int    `json:"priority" binding:"omitempty,min=0,max=100"`
}

// HandleImageFunc 返回一个处理图片请求的Gin处理函数
func HandleImageFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewImageController(ctx, container)

		switch method {
		case "uploadImage":
			controller.UploadImage()
		case "getImages":
			controller.GetImages()
		case "getImage":
			controller.GetImage()
		case "getImageURL":
			controller.GetImageURL()
		case "updateImage":
			controller.UpdateImage()
		case "deleteImage":
			controller.DeleteImage()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

// 1. UploadImage 上传图片
// @Summary 上传图片
// @Description 上传图片到对象存储并创建元数据记录，仅接受image/*类型且不超过10MB
// @Tags PictureDisplay
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "图片文件"
// @Param title formData string false "标题"
// @Param description formData string false "描述"
// @Param tags formData string false "逗号分隔的标签"
// @Param display_duration_seconds formData int false "展示时长(秒)，默认3600"
// @Param priority formData int false "展示优先级，默认0"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Router /picture-display/images/upload [post]
func (c *ImageController) UploadImage() {
	var req ImageUploadRequest
	if err := c.Ctx.ShouldBind(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	fileHeader, err := c.Ctx.FormFile("file")
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "缺少上传文件", nil)
		return
	}

	// 读取前先按声明大小拦截过大的文件
	if fileHeader.Size > services.MaxImageSizeBytes {
		response.Fail(c.Ctx, code.ErrImageTooLarge, nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrStorageFailed, "读取上传文件失败: "+err.Error(), nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrStorageFailed, "读取上传文件失败: "+err.Error(), nil)
		return
	}

	image := &models.Image{
		DisplayDurationSeconds: req.DisplayDurationSeconds,
		Priority:               req.Priority,
	}
	if req.Title != "" {
		image.Title = &req.Title
	}
	if req.Description != "" {
		image.Description = &req.Description
	}
	if req.Tags != "" {
		image.Tags = &req.Tags
	}

	contentType := fileHeader.Header.Get("Content-Type")

	imageService := c.Container.GetService("image").(services.InterfaceImageService)
	image, err = imageService.UploadImage(c.Ctx.Request.Context(), data, fileHeader.Filename, contentType, image)
	if err != nil {
		if errors.Is(err, services.ErrInvalidImageType) {
			response.Fail(c.Ctx, code.ErrImageInvalidType, nil)
			return
		}
		if errors.Is(err, services.ErrImageTooLarge) {
			response.Fail(c.Ctx, code.ErrImageTooLarge, nil)
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrStorageFailed, "图片上传失败: "+err.Error(), nil)
		return
	}

	c.Ctx.Status(http.StatusCreated)
	response.Success(c.Ctx, image)
}

// 2. GetImages 获取图片列表
// @Summary 获取图片列表
// @Description 获取所有图片元数据，按创建时间倒序分页
// @Tags PictureDisplay
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码，默认为1"
// @Param page_size query int false "每页条数，默认为10"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} ErrorResponse
// @Router /picture-display/images [get]
func (c *ImageController) GetImages() {
	// 获取分页参数
	page, _ := strconv.Atoi(c.Ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.Ctx.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	imageService := c.Container.GetService("image").(services.InterfaceImageService)
	images, total, err := imageService.GetAllImages(page, pageSize)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "获取图片列表失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{
		"total":       total,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": (total + int64(pageSize) - 1) / int64(pageSize),
		"data":        images,
	})
}

// 3. GetImage 获取单个图片详情
// @Summary 获取图片详情
// @Description 根据ID获取图片元数据
// @Tags PictureDisplay
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "图片ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /picture-display/images/{id} [get]
func (c *ImageController) GetImage() {
	imageID, err := uuid.Parse(c.Ctx.Param("id"))
	if err != nil {
		response.ParamError(c.Ctx, "无效的图片ID")
		return
	}

	imageService := c.Container.GetService("image").(services.InterfaceImageService)
	image, err := imageService.GetImageByID(imageID)
	if err != nil {
		response.NotFound(c.Ctx, "图片不存在: "+err.Error())
		return
	}

	response.Success(c.Ctx, image)
}

// 4. GetImageURL 获取图片的预签名访问URL
// @Summary 获取图片访问URL
// @Description 生成图片的预签名下载URL，有效期1到168小时
// @Tags PictureDisplay
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "图片ID"
// @Param expires_hours query int false "有效期(小时)，默认为1"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /picture-display/images/{id}/url [get]
func (c *ImageController) GetImageURL() {
	imageID, err := uuid.Parse(c.Ctx.Param("id"))
	if err != nil {
		response.ParamError(c.Ctx, "无效的图片ID")
		return
	}

	expiresHours, err := strconv.Atoi(c.Ctx.DefaultQuery("expires_hours", "1"))
	if err != nil {
		response.ParamError(c.Ctx, "无效的有效期参数")
		return
	}

	imageService := c.Container.GetService("image").(services.InterfaceImageService)
	url, expiresIn, err := imageService.GetImageURL(c.Ctx.Request.Context(), imageID, expiresHours)
	if err != nil {
		if errors.Is(err, services.ErrImageNotFound) {
			response.NotFound(c.Ctx, "图片不存在")
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrPresignFailed, "生成访问URL失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{
		"url":                url,
		"expires_in_seconds": expiresIn,
	})
}

// 5. UpdateImage 更新图片元数据
// @Summary 更新图片
// @Description 更新图片的标题、描述、标签、展示时长和优先级
// @Tags PictureDisplay
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "图片ID"
// @Param image body ImageUpdateRequest true "图片元数据"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /picture-display/images/{id} [put]
func (c *ImageController) UpdateImage() {
	imageID, err := uuid.Parse(c.Ctx.Param("id"))
	if err != nil {
		response.ParamError(c.Ctx, "无效的图片ID")
		return
	}

	var req ImageUpdateRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	// 创建更新映射
	updates := make(map[string]interface{})
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Tags != nil {
		updates["tags"] = *req.Tags
	}
	if req.DisplayDurationSeconds != nil {
		updates["display_duration_seconds"] = *req.DisplayDurationSeconds
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}

	imageService := c.Container.GetService("image").(services.InterfaceImageService)
	image, err := imageService.UpdateImage(imageID, updates)
	if err != nil {
		if errors.Is(err, services.ErrImageNotFound) {
			response.NotFound(c.Ctx, "图片不存在")
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "更新图片失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, image)
}

// 6. DeleteImage 删除图片
// @Summary 删除图片
// @Description 删除图片元数据，对象存储删除失败时仍会删除记录
// @Tags PictureDisplay
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "图片ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /picture-display/images/{id} [delete]
func (c *ImageController) DeleteImage() {
	imageID, err := uuid.Parse(c.Ctx.Param("id"))
	if err != nil {
		response.ParamError(c.Ctx, "无效的图片ID")
		return
	}

	imageService := c.Container.GetService("image").(services.InterfaceImageService)
	if err := imageService.DeleteImage(c.Ctx.Request.Context(), imageID); err != nil {
		if errors.Is(err, services.ErrImageNotFound) {
			response.NotFound(c.Ctx, "图片不存在")
			return
		}
		response.FailWithMessage(c.Ctx, code.ErrDatabase, "删除图片失败: "+err.Error(), nil)
		return
	}

	response.Success(c.Ctx, gin.H{"message": "图片已删除"})
}
