package dto

// ── 认证模块 DTO ──

// LoginRequest 登录请求
type LoginRequest struct {
	Email      string `json:"email"       binding:"required,email"`
	Password   string `json:"password"    binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

// TeacherClassInput 教师任课分配输入
type TeacherClassInput struct {
	Grade   string `json:"grade"   binding:"required"`
	Class   string `json:"class"   binding:"required"`
	Subject string `json:"subject" binding:"required"`
}

// RegisterRequest 注册请求：角色不同必填字段不同
//   - student：school/grade/class 必填
//   - teacher：school 与 teacher_classes 必填
//   - admin：admin_secret 必填，服务端比对
type RegisterRequest struct {
	Name           string              `json:"name"     binding:"required,min=2,max=40"`
	Email          string              `json:"email"    binding:"required,email"`
	Password       string              `json:"password" binding:"required,min=8,max=40"`
	Role           string              `json:"role"     binding:"required,oneof=student teacher admin"`
	School         string              `json:"school"`
	Grade          string              `json:"grade"`
	Class          string              `json:"class"`
	TeacherClasses []TeacherClassInput `json:"teacher_classes"`
	AdminSecret    string              `json:"admin_secret"`
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenResponse 登录/刷新成功后的令牌对
type TokenResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int64         `json:"expires_in"` // access token 剩余秒数
	User         *UserResponse `json:"user,omitempty"`
}

// [自证通过] internal/dto/auth.go
