package idpb

type RegisterRequest struct {
	Username  string `json:"username"`
	Password  []byte `json:"password"`
	Clearance string `json:"clearance"`
}

type RegisterResponse struct {
	UserID string `json:"user_id"`
}

type LoginRequest struct {
	Username       string `json:"username"`
	Password       []byte `json:"password"`
	Classification string `json:"classification"`
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

// RevokeRequest must be sent with the matching access token in the
// access_token metadata header.
type RevokeRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RevokeResponse struct{}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}
