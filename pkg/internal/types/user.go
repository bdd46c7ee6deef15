package types

// LoginRequest 登录请求，未知用户名会自动建档.
type LoginRequest struct {
	Username string `json:"username" rule:"required,max=50"`
}

// TokenResponse 登录与注册成功后返回的访问令牌.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
}

// UserView 当前用户信息.
type UserView struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// CreateUserRequest 注册请求.
type CreateUserRequest struct {
	Username string `json:"username" rule:"required,max=50"`
	Email    string `json:"email"    rule:"required,email,max=120"`
}

// UpdateUserRequest 更新当前用户.
type UpdateUserRequest = CreateUserRequest
