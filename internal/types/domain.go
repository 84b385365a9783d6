package types

import "time"

// ------------------------------
// Core Domain Entities
// ------------------------------

// Voice represents a cloned voice owned by the signed-in user.
type Voice struct {
	ID        string    `json:"voice_id"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Story is an immutable catalog descriptor. The collection is replaced
// wholesale on each successful catalog refresh, never merged per field.
//
// HasLocalAudio and LocalURI are client-side annotations set by the cache
// manager for offline filtering; they never travel over the wire.
type Story struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Author           string `json:"author,omitempty"`
	DurationSeconds  int    `json:"duration"`
	CoverURLTemplate string `json:"cover_url_template,omitempty"`

	HasLocalAudio bool   `json:"-"`
	LocalURI      string `json:"-"`
}

// Profile represents the signed-in user as reported by /auth/me.
type Profile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	Confirmed bool   `json:"confirmed"`
}

// AuthTokens is the access/refresh token pair issued by the auth endpoints.
type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
