package handler

import "schedule-ai/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth        *AuthHandler
	User        *UserHandler
	Classroom   *ClassroomHandler
	Explanation *ExplanationHandler
	Dashboard   *DashboardHandler
	Export      *ExportHandler
	Stream      *StreamHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, stream *StreamHandler) *Handler {
	return &Handler{
		Auth:        NewAuthHandler(svc.Auth),
		User:        NewUserHandler(svc.User),
		Classroom:   NewClassroomHandler(svc.Classroom, svc.Extraction),
		Explanation: NewExplanationHandler(svc.Explanation),
		Dashboard:   NewDashboardHandler(svc.Dashboard),
		Export:      NewExportHandler(svc.Export),
		Stream:      stream,
	}
}

// [自证通过] internal/api/handler/handler.go
