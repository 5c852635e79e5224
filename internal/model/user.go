package model

// User is a signed-in identity merged with its profile document.
type User struct {
	ID          string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url"`
	IsAdmin     bool   `json:"is_admin"`
}
