package domain

// Session is the client-side authentication state.
// An empty AccessToken means logged out; RefreshToken may be set independently.
type Session struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	User         *User  `json:"user,omitempty"`
}

// LoggedIn reports whether an access token is present.
func (s Session) LoggedIn() bool {
	return s.AccessToken != ""
}
