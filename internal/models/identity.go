package models

// Identity is the primary account a user signs in with.
type Identity struct {
	ID          string `json:"uid"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Provider    string `json:"provider"`
	PhotoURL    string `json:"photo_url,omitempty"`
}
