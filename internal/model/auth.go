package model

// Surfaces allowed to pair with the bridge over REST.
const (
	SurfacePopup   = "popup"
	SurfaceOptions = "options"
)

type PairRequest struct {
	Surface string `json:"surface"`
	Code    string `json:"code"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Surface      string `json:"surface"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
