package authcore

import "github.com/nimbusapi/authcore/store"

// TokenType is the scheme clients present issued tokens under.
const TokenType = "Bearer"

// User is the account record as persisted.
type User = store.User

// AuthTokens is the pair returned by Login and RefreshAccessToken.
type AuthTokens struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64
}

// Operation names used in metrics and audit events.
const (
	opRegister       = "register"
	opLogin          = "login"
	opRefresh        = "refresh"
	opChangePassword = "change_password"
	opUpdateProfile  = "update_profile"
	opDeleteAccount  = "delete_account"
)
