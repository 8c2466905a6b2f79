package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"schedule-ai/backend/internal/dto"
	"schedule-ai/backend/internal/model"
	"schedule-ai/backend/internal/service"
	"schedule-ai/backend/pkg/apperr"
	"schedule-ai/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	registerResult   *dto.TokenResponse
	registerErr      error
	loginResult      *dto.TokenResponse
	loginErr         error
	refreshResult    *dto.TokenResponse
	refreshErr       error
	logoutErr        error
	getCurrentResult *dto.UserResponse
	getCurrentErr    error
}

func (m *mockAuthService) Register(_ context.Context, _ *dto.RegisterRequest) (*dto.TokenResponse, error) {
	return m.registerResult, m.registerErr
}
func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) Refresh(_ context.Context, _ string) (*dto.TokenResponse, error) {
	return m.refreshResult, m.refreshErr
}
func (m *mockAuthService) Logout(_ context.Context, _ string) error {
	return m.logoutErr
}
func (m *mockAuthService) GetCurrentUser(_ context.Context, _ string) (*dto.UserResponse, error) {
	return m.getCurrentResult, m.getCurrentErr
}

// ── Mock ClassroomService ──

type mockClassroomService struct {
	getResult  *dto.ScheduleResponse
	getErr     error
	saveResult *dto.ScheduleResponse
	saveErr    error
	editResult *dto.ScheduleResponse
	editErr    error
	deleteErr  error
	lastActor  service.Actor
}

func (m *mockClassroomService) GetSchedule(_ context.Context, _ string) (*dto.ScheduleResponse, error) {
	return m.getResult, m.getErr
}
func (m *mockClassroomService) SaveSchedule(_ context.Context, actor service.Actor, _ string, _ *dto.SaveScheduleRequest) (*dto.ScheduleResponse, error) {
	m.lastActor = actor
	return m.saveResult, m.saveErr
}
func (m *mockClassroomService) EditCell(_ context.Context, actor service.Actor, _ string, _ *dto.EditCellRequest) (*dto.ScheduleResponse, error) {
	m.lastActor = actor
	return m.editResult, m.editErr
}
func (m *mockClassroomService) DeleteSchedule(_ context.Context, actor service.Actor, _ string) error {
	m.lastActor = actor
	return m.deleteErr
}

// ── Mock ExtractionService ──

type mockExtractionService struct {
	result *dto.AnalyzeScheduleResponse
	err    error
}

func (m *mockExtractionService) AnalyzeImage(_ context.Context, _ string, _ []byte) (*dto.AnalyzeScheduleResponse, error) {
	return m.result, m.err
}

// ── Mock ExplanationService ──

type mockExplanationService struct {
	createResult  *dto.ExplanationResponse
	createErr     error
	getResult     *dto.ExplanationResponse
	getErr        error
	listResult    []*dto.ExplanationResponse
	listErr       error
	respondResult *dto.ExplanationResponse
	respondErr    error
	reviewResult  *dto.ExplanationResponse
	reviewErr     error
	deleteErr     error
	deletedCount  int64
	deleteByErr   error
}

func (m *mockExplanationService) Create(_ context.Context, _ service.Actor, _ *dto.CreateExplanationRequest) (*dto.ExplanationResponse, error) {
	return m.createResult, m.createErr
}
func (m *mockExplanationService) Get(_ context.Context, _ string) (*dto.ExplanationResponse, error) {
	return m.getResult, m.getErr
}
func (m *mockExplanationService) ListByClassroom(_ context.Context, _ string) ([]*dto.ExplanationResponse, error) {
	return m.listResult, m.listErr
}
func (m *mockExplanationService) Respond(_ context.Context, _ service.Actor, _, _ string) (*dto.ExplanationResponse, error) {
	return m.respondResult, m.respondErr
}
func (m *mockExplanationService) Review(_ context.Context, _ service.Actor, _, _ string) (*dto.ExplanationResponse, error) {
	return m.reviewResult, m.reviewErr
}
func (m *mockExplanationService) Delete(_ context.Context, _ service.Actor, _ string) error {
	return m.deleteErr
}
func (m *mockExplanationService) DeleteByClassroom(_ context.Context, _ service.Actor, _ string) (int64, error) {
	return m.deletedCount, m.deleteByErr
}
func (m *mockExplanationService) AutoFinish(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

// ── Mock DashboardService ──

type mockDashboardService struct {
	result interface{}
	err    error
}

func (m *mockDashboardService) Student(_ context.Context, _ service.Actor) (*dto.StudentDashboard, error) {
	return nil, nil
}
func (m *mockDashboardService) Teacher(_ context.Context, _ service.Actor) (*dto.TeacherDashboard, error) {
	return nil, nil
}
func (m *mockDashboardService) Admin(_ context.Context) (*dto.AdminDashboard, error) {
	return nil, nil
}
func (m *mockDashboardService) ForActor(_ context.Context, _ service.Actor) (interface{}, error) {
	return m.result, m.err
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportClassroomExcel(_ context.Context, _ string) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}
func (m *mockExportService) ExportStudentCalendar(_ context.Context, _ service.Actor) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setupRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

func setAuth(c *gin.Context) {
	c.Set("user_id", "test-user-id")
	c.Set("user_name", "Omar")
	c.Set("role", "student")
	c.Set("classroom_id", "alfarabi-11-c")
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Login_Success(t *testing.T) {
	mock := &mockAuthService{
		loginResult: &dto.TokenResponse{
			AccessToken:  "test-access-token",
			RefreshToken: "test-refresh-token",
			ExpiresIn:    900,
		},
	}
	h := NewAuthHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/auth/login", jsonBody(dto.LoginRequest{
		Email:    "omar@school.edu",
		Password: "Test1234",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewReader([]byte("invalid json")))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{loginErr: service.ErrInvalidCredentials})

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/auth/login", jsonBody(dto.LoginRequest{
		Email:    "omar@school.edu",
		Password: "wrong-pass",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 11001 {
		t.Errorf("expected error code 11001, got %d", resp.Code)
	}
}

func TestAuthHandler_Register_EmailTaken(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{registerErr: service.ErrEmailTaken})

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/auth/register", jsonBody(dto.RegisterRequest{
		Name:     "Omar",
		Email:    "omar@school.edu",
		Password: "Test1234",
		Role:     "student",
		School:   "alfarabi",
		Grade:    "11",
		Class:    "c",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 11002 {
		t.Errorf("expected error code 11002, got %d", resp.Code)
	}
}

func TestAuthHandler_Register_BadAdminSecret(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{registerErr: service.ErrBadAdminSecret})

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/auth/register", jsonBody(dto.RegisterRequest{
		Name:        "Admin",
		Email:       "admin@school.edu",
		Password:    "Test1234",
		Role:        "admin",
		AdminSecret: "wrong",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 11003 {
		t.Errorf("expected error code 11003, got %d", resp.Code)
	}
}

func TestAuthHandler_RefreshToken_Invalid(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{refreshErr: service.ErrTokenRevoked})

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/auth/refresh", jsonBody(dto.RefreshTokenRequest{
		RefreshToken: "revoked-token",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/refresh", h.RefreshToken)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 11005 {
		t.Errorf("expected error code 11005, got %d", resp.Code)
	}
}

func TestAuthHandler_GetCurrentUser_Unauthenticated(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := setupRecorder()
	req := httptest.NewRequest("GET", "/auth/me", nil)

	r := gin.New()
	r.GET("/auth/me", h.GetCurrentUser)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuthHandler_Logout_MissingHeader(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/auth/logout", nil)

	r := gin.New()
	r.POST("/auth/logout", h.Logout)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ClassroomHandler Tests
// ═══════════════════════════════════════════════════════════

func TestClassroomHandler_GetSchedule_Success(t *testing.T) {
	mock := &mockClassroomService{
		getResult: &dto.ScheduleResponse{
			ClassroomID: "alfarabi-11-c",
			Schedule:    model.NewEmptySchedule(),
		},
	}
	h := NewClassroomHandler(mock, &mockExtractionService{})

	w := setupRecorder()
	req := httptest.NewRequest("GET", "/classrooms/alfarabi-11-c/schedule", nil)

	r := gin.New()
	r.GET("/classrooms/:id/schedule", h.GetSchedule)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestClassroomHandler_SaveSchedule_Success(t *testing.T) {
	mock := &mockClassroomService{
		saveResult: &dto.ScheduleResponse{ClassroomID: "alfarabi-11-c"},
	}
	h := NewClassroomHandler(mock, &mockExtractionService{})

	w := setupRecorder()
	req := httptest.NewRequest("PUT", "/classrooms/alfarabi-11-c/schedule", jsonBody(dto.SaveScheduleRequest{
		Schedule: model.NewEmptySchedule(),
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.PUT("/classrooms/:id/schedule", func(c *gin.Context) {
		setAuth(c)
		h.SaveSchedule(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	// 操作者信息来自 JWT 中间件注入的上下文
	if mock.lastActor.Name != "Omar" || mock.lastActor.Role != model.RoleStudent {
		t.Errorf("操作者信息传递错误: %+v", mock.lastActor)
	}
}

func TestClassroomHandler_SaveSchedule_Unauthenticated(t *testing.T) {
	h := NewClassroomHandler(&mockClassroomService{}, &mockExtractionService{})

	w := setupRecorder()
	req := httptest.NewRequest("PUT", "/classrooms/alfarabi-11-c/schedule", jsonBody(dto.SaveScheduleRequest{
		Schedule: model.NewEmptySchedule(),
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.PUT("/classrooms/:id/schedule", h.SaveSchedule)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestClassroomHandler_SaveSchedule_PermissionDenied(t *testing.T) {
	mock := &mockClassroomService{saveErr: apperr.ErrPermissionDenied}
	h := NewClassroomHandler(mock, &mockExtractionService{})

	w := setupRecorder()
	req := httptest.NewRequest("PUT", "/classrooms/other-12-a/schedule", jsonBody(dto.SaveScheduleRequest{
		Schedule: model.NewEmptySchedule(),
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.PUT("/classrooms/:id/schedule", func(c *gin.Context) {
		setAuth(c)
		h.SaveSchedule(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 10003 {
		t.Errorf("expected error code 10003, got %d", resp.Code)
	}
}

func TestClassroomHandler_SaveSchedule_ValidationError(t *testing.T) {
	mock := &mockClassroomService{saveErr: apperr.Validation("schedule", "网格行数不正确")}
	h := NewClassroomHandler(mock, &mockExtractionService{})

	w := setupRecorder()
	req := httptest.NewRequest("PUT", "/classrooms/alfarabi-11-c/schedule", jsonBody(dto.SaveScheduleRequest{
		Schedule: model.NewEmptySchedule(),
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.PUT("/classrooms/:id/schedule", func(c *gin.Context) {
		setAuth(c)
		h.SaveSchedule(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 13005 {
		t.Errorf("expected error code 13005, got %d", resp.Code)
	}
}

func TestClassroomHandler_EditCell_BadOp(t *testing.T) {
	h := NewClassroomHandler(&mockClassroomService{}, &mockExtractionService{})

	w := setupRecorder()
	req := httptest.NewRequest("PATCH", "/classrooms/alfarabi-11-c/schedule/cell", jsonBody(dto.EditCellRequest{
		Op:      "merge", // 不在 oneof 白名单内
		Session: "1",
		Day:     "sunday",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.PATCH("/classrooms/:id/schedule/cell", func(c *gin.Context) {
		setAuth(c)
		h.EditCell(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestClassroomHandler_EditCell_Success(t *testing.T) {
	mock := &mockClassroomService{
		editResult: &dto.ScheduleResponse{ClassroomID: "alfarabi-11-c"},
	}
	h := NewClassroomHandler(mock, &mockExtractionService{})

	w := setupRecorder()
	req := httptest.NewRequest("PATCH", "/classrooms/alfarabi-11-c/schedule/cell", jsonBody(dto.EditCellRequest{
		Op:      "split",
		Session: "1",
		Day:     "sunday",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.PATCH("/classrooms/:id/schedule/cell", func(c *gin.Context) {
		setAuth(c)
		h.EditCell(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// AnalyzeImage Tests
// ═══════════════════════════════════════════════════════════

func multipartImage(t *testing.T, mimeType string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="schedule.png"`)
	header.Set("Content-Type", mimeType)
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("构造 multipart 失败: %v", err)
	}
	part.Write([]byte("fake-image-bytes"))
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestClassroomHandler_AnalyzeImage_Success(t *testing.T) {
	mock := &mockExtractionService{
		result: &dto.AnalyzeScheduleResponse{
			Schedule:         model.NewEmptySchedule(),
			FreeformSubjects: []string{"Robotics"},
		},
	}
	h := NewClassroomHandler(&mockClassroomService{}, mock)

	body, contentType := multipartImage(t, "image/png")
	w := setupRecorder()
	req := httptest.NewRequest("POST", "/analyze-image", body)
	req.Header.Set("Content-Type", contentType)

	r := gin.New()
	r.POST("/analyze-image", h.AnalyzeImage)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestClassroomHandler_AnalyzeImage_MissingFile(t *testing.T) {
	h := NewClassroomHandler(&mockClassroomService{}, &mockExtractionService{})

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/analyze-image", nil)

	r := gin.New()
	r.POST("/analyze-image", h.AnalyzeImage)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 13001 {
		t.Errorf("expected error code 13001, got %d", resp.Code)
	}
}

func TestClassroomHandler_AnalyzeImage_NotImage(t *testing.T) {
	h := NewClassroomHandler(&mockClassroomService{}, &mockExtractionService{})

	body, contentType := multipartImage(t, "application/pdf")
	w := setupRecorder()
	req := httptest.NewRequest("POST", "/analyze-image", body)
	req.Header.Set("Content-Type", contentType)

	r := gin.New()
	r.POST("/analyze-image", h.AnalyzeImage)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 13002 {
		t.Errorf("expected error code 13002, got %d", resp.Code)
	}
}

func TestClassroomHandler_AnalyzeImage_Unavailable(t *testing.T) {
	mock := &mockExtractionService{err: service.ErrExtractionUnavailable}
	h := NewClassroomHandler(&mockClassroomService{}, mock)

	body, contentType := multipartImage(t, "image/jpeg")
	w := setupRecorder()
	req := httptest.NewRequest("POST", "/analyze-image", body)
	req.Header.Set("Content-Type", contentType)

	r := gin.New()
	r.POST("/analyze-image", h.AnalyzeImage)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 13003 {
		t.Errorf("expected error code 13003, got %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ExplanationHandler Tests
// ═══════════════════════════════════════════════════════════

func validCreateBody() io.Reader {
	lo := 3
	return jsonBody(dto.CreateExplanationRequest{
		Subject:         "MATH",
		Day:             "sunday",
		Session:         "1",
		ExplanationDate: "2026-03-01",
		LearningOutcome: &lo,
		Concepts:        []string{"二次函数"},
	})
}

func TestExplanationHandler_Create_Success(t *testing.T) {
	mock := &mockExplanationService{
		createResult: &dto.ExplanationResponse{
			ExplanationID: "exp-1",
			Subject:       "MATH",
			Status:        model.StatusUpcoming,
		},
	}
	h := NewExplanationHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/explanations", validCreateBody())
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/explanations", func(c *gin.Context) {
		setAuth(c)
		h.Create(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
}

func TestExplanationHandler_Create_MissingConcepts(t *testing.T) {
	h := NewExplanationHandler(&mockExplanationService{})

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/explanations", jsonBody(dto.CreateExplanationRequest{
		Subject:         "MATH",
		Day:             "sunday",
		Session:         "1",
		ExplanationDate: "2026-03-01",
		Concepts:        []string{}, // min=1
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/explanations", func(c *gin.Context) {
		setAuth(c)
		h.Create(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestExplanationHandler_Respond_BadResponse(t *testing.T) {
	h := NewExplanationHandler(&mockExplanationService{})

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/explanations/exp-1/respond", jsonBody(map[string]string{
		"response": "maybe", // oneof=accepted declined
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/explanations/:id/respond", func(c *gin.Context) {
		setAuth(c)
		h.Respond(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestExplanationHandler_Respond_AlreadyResponded(t *testing.T) {
	h := NewExplanationHandler(&mockExplanationService{respondErr: model.ErrAlreadyResponded})

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/explanations/exp-1/respond", jsonBody(dto.RespondExplanationRequest{
		Response: "accepted",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/explanations/:id/respond", func(c *gin.Context) {
		setAuth(c)
		h.Respond(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 14003 {
		t.Errorf("expected error code 14003, got %d", resp.Code)
	}
}

func TestExplanationHandler_Review_NotAssignedTeacher(t *testing.T) {
	h := NewExplanationHandler(&mockExplanationService{reviewErr: service.ErrNotAssignedTeacher})

	w := setupRecorder()
	req := httptest.NewRequest("POST", "/explanations/exp-1/review", jsonBody(dto.ReviewExplanationRequest{
		Completion: "explained",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/explanations/:id/review", func(c *gin.Context) {
		setAuth(c)
		h.Review(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 14004 {
		t.Errorf("expected error code 14004, got %d", resp.Code)
	}
}

func TestExplanationHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"NotFound", service.ErrExplanationNotFound, 404, 14001},
		{"PermissionDenied", apperr.ErrPermissionDenied, 403, 10003},
		{"NotExplainable", service.ErrNotExplainable, 422, 14002},
		{"DateDayMismatch", service.ErrDateDayMismatch, 422, 14002},
		{"LearningOutcomeNeeded", service.ErrLearningOutcomeNeeded, 422, 14002},
		{"NotClassmate", service.ErrNotClassmate, 422, 14002},
		{"NotFinished", service.ErrNotFinished, 409, 14003},
		{"AlreadyReviewed", service.ErrAlreadyReviewed, 409, 14003},
		{"NotAssignedTeacher", service.ErrNotAssignedTeacher, 403, 14004},
		{"InternalError", errors.New("unknown"), 500, 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewExplanationHandler(&mockExplanationService{getErr: tt.err})

			w := setupRecorder()
			req := httptest.NewRequest("GET", "/explanations/exp-1", nil)

			r := gin.New()
			r.GET("/explanations/:id", h.Get)
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			resp := parseResponse(w)
			if resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestExplanationHandler_DeleteByClassroom_Success(t *testing.T) {
	h := NewExplanationHandler(&mockExplanationService{deletedCount: 3})

	w := setupRecorder()
	req := httptest.NewRequest("DELETE", "/classrooms/alfarabi-11-c/explanations", nil)

	r := gin.New()
	r.DELETE("/classrooms/:id/explanations", func(c *gin.Context) {
		setAuth(c)
		h.DeleteByClassroom(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// DashboardHandler Tests
// ═══════════════════════════════════════════════════════════

func TestDashboardHandler_Get_Success(t *testing.T) {
	mock := &mockDashboardService{
		result: &dto.StudentDashboard{ClassroomID: "alfarabi-11-c"},
	}
	h := NewDashboardHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("GET", "/dashboard", nil)

	r := gin.New()
	r.GET("/dashboard", func(c *gin.Context) {
		setAuth(c)
		h.Get(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestDashboardHandler_Get_UnknownRole(t *testing.T) {
	h := NewDashboardHandler(&mockDashboardService{err: service.ErrUnknownRole})

	w := setupRecorder()
	req := httptest.NewRequest("GET", "/dashboard", nil)

	r := gin.New()
	r.GET("/dashboard", func(c *gin.Context) {
		setAuth(c)
		h.Get(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_ExportClassroom_Success(t *testing.T) {
	mock := &mockExportService{
		buf:      bytes.NewBufferString("excel content"),
		filename: "schedule_alfarabi-11-c.xlsx",
	}
	h := NewExportHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("GET", "/export/classrooms/alfarabi-11-c", nil)

	r := gin.New()
	r.GET("/export/classrooms/:id", h.ExportClassroom)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	ct := w.Header().Get("Content-Type")
	if ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("unexpected content type: %s", ct)
	}
	if w.Header().Get("Content-Disposition") == "" {
		t.Error("expected Content-Disposition header")
	}
}

func TestExportHandler_ExportClassroom_NotFound(t *testing.T) {
	h := NewExportHandler(&mockExportService{err: service.ErrExportNoClassroom})

	w := setupRecorder()
	req := httptest.NewRequest("GET", "/export/classrooms/ghost-1-a", nil)

	r := gin.New()
	r.GET("/export/classrooms/:id", h.ExportClassroom)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 15001 {
		t.Errorf("expected error code 15001, got %d", resp.Code)
	}
}

func TestExportHandler_ExportMyCalendar_Success(t *testing.T) {
	mock := &mockExportService{
		buf:      bytes.NewBufferString("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"),
		filename: "commitments_test-user-id.ics",
	}
	h := NewExportHandler(mock)

	w := setupRecorder()
	req := httptest.NewRequest("GET", "/export/calendar", nil)

	r := gin.New()
	r.GET("/export/calendar", func(c *gin.Context) {
		setAuth(c)
		h.ExportMyCalendar(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("Content-Type") != "text/calendar; charset=utf-8" {
		t.Errorf("unexpected content type: %s", w.Header().Get("Content-Type"))
	}
}
