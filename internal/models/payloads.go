package models

// These structs define the JSON payloads exchanged between the admin SPA and
// the admin-api function.

// SignInRequest is the body of POST /api/session.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInResponse carries the Firebase ID token the SPA sends back as a bearer token.
type SignInResponse struct {
	UserID       string `json:"userId"`
	Email        string `json:"email"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// ProfileListResponse is the output of GET /api/profiles.
type ProfileListResponse struct {
	Profiles []Profile `json:"profiles"`
}

// SaveProfileResponse is the output of POST and PATCH on /api/profiles.
type SaveProfileResponse struct {
	Status  string `json:"status"`
	ID      string `json:"id"`
	Created bool   `json:"created"`
}

// UploadResponse is the output of POST /api/uploads.
type UploadResponse struct {
	Status string `json:"status"`
	URL    string `json:"url"`
	Bytes  int64  `json:"bytes"`
}

// BioDraftResponse is the output of POST /api/profiles/{id}/bio-draft.
type BioDraftResponse struct {
	Status     string `json:"status"`
	BioSummary string `json:"bioSummary"`
}

// ErrorResponse is written for every failed request.
type ErrorResponse struct {
	Status    string            `json:"status"`
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
}
