package api

// swagger:model api.RegisterRequest
type RegisterRequest struct {
	Username    string `json:"username" form:"username" validate:"required,max=150" example:"alice"`
	Email       string `json:"email" form:"email" validate:"required,email,max=254" example:"alice@Example.COM"`
	Password    string `json:"password" form:"password" validate:"required,min=8" example:"Secret123!"`
	FirstName   string `json:"first_name" form:"first_name" validate:"max=150" example:"Alice"`
	LastName    string `json:"last_name" form:"last_name" validate:"max=150" example:"Liddell"`
	DateOfBirth string `json:"date_of_birth" form:"date_of_birth" validate:"omitempty,datetime=2006-01-02" example:"1990-05-01"`
}

// swagger:model api.LoginRequest
type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required" example:"alice"`
	Password string `json:"password" form:"password" validate:"required" example:"Secret123!"`
}

// swagger:model api.TokenResponse
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type" example:"Bearer"`
	ExpiresIn    int    `json:"expires_in" example:"86400"`
}

// swagger:model api.RefreshRequest
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token" validate:"required"`
}
