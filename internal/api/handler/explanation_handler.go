package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"schedule-ai/backend/internal/dto"
	"schedule-ai/backend/internal/model"
	"schedule-ai/backend/internal/service"
	"schedule-ai/backend/pkg/apperr"
	"schedule-ai/backend/pkg/response"
)

// ExplanationHandler 讲解承诺模块 HTTP 处理器
type ExplanationHandler struct {
	expSvc service.ExplanationService
}

// NewExplanationHandler 创建 ExplanationHandler
func NewExplanationHandler(expSvc service.ExplanationService) *ExplanationHandler {
	return &ExplanationHandler{expSvc: expSvc}
}

// Create 发起讲解承诺（学生）
// POST /api/v1/explanations
func (h *ExplanationHandler) Create(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.CreateExplanationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.expSvc.Create(c.Request.Context(), actor, &req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Created(c, result)
}

// List 查询教室的全部承诺
// GET /api/v1/classrooms/:id/explanations
func (h *ExplanationHandler) List(c *gin.Context) {
	result, err := h.expSvc.ListByClassroom(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// Get 查询单条承诺
// GET /api/v1/explanations/:id
func (h *ExplanationHandler) Get(c *gin.Context) {
	result, err := h.expSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, result)
}

// Respond 受邀人应答（接受/拒绝）
// POST /api/v1/explanations/:id/respond
func (h *ExplanationHandler) Respond(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.RespondExplanationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.expSvc.Respond(c.Request.Context(), actor, c.Param("id"), req.Response)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, result)
}

// Review 教师写入评审结论
// POST /api/v1/explanations/:id/review
func (h *ExplanationHandler) Review(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.ReviewExplanationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.expSvc.Review(c.Request.Context(), actor, c.Param("id"), req.Completion)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, result)
}

// Delete 删除承诺（发起人或管理员）
// DELETE /api/v1/explanations/:id
func (h *ExplanationHandler) Delete(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	if err := h.expSvc.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteByClassroom 批量清空教室承诺（管理员）
// DELETE /api/v1/classrooms/:id/explanations
func (h *ExplanationHandler) DeleteByClassroom(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	deleted, err := h.expSvc.DeleteByClassroom(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, gin.H{"deleted": deleted})
}

func (h *ExplanationHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExplanationNotFound):
		response.NotFound(c, 14001, "讲解承诺不存在")
	case errors.Is(err, apperr.ErrPermissionDenied):
		response.Forbidden(c, 10003, "无权限访问")
	case errors.Is(err, service.ErrNotExplainable),
		errors.Is(err, service.ErrDateDayMismatch),
		errors.Is(err, service.ErrLearningOutcomeNeeded),
		errors.Is(err, service.ErrEmptyConcepts),
		errors.Is(err, service.ErrNotClassmate),
		errors.Is(err, model.ErrUnknownDay),
		apperr.IsValidation(err):
		response.UnprocessableEntity(c, 14002, err.Error())
	case errors.Is(err, model.ErrAlreadyResponded),
		errors.Is(err, model.ErrBadResponse),
		errors.Is(err, service.ErrNotFinished),
		errors.Is(err, service.ErrAlreadyReviewed):
		response.Conflict(c, 14003, err.Error())
	case errors.Is(err, service.ErrNotAssignedTeacher):
		response.Forbidden(c, 14004, "只有任课教师可以评审")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/explanation_handler.go
