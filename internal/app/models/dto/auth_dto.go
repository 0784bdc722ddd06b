package dto

// LoginRequest carries login credentials.
type LoginRequest struct {
	Email    string `json:"email" binding:"required" validate:"required,email" example:"jane@school.edu"`
	Password string `json:"password" binding:"required" validate:"required,min=1" example:"secret"`
}

// LoginResponse carries an issued access token.
type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresIn int         `json:"expiresIn" example:"3600"`
	Role      string      `json:"role" example:"student" enums:"student,instructor"`
	Account   interface{} `json:"account"`
}
