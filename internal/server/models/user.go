package models

import "time"

// User is a registered identity and its current chain target, stored in
// canonical token form.
type User struct {
	ID         string    `json:"id"`
	UserName   string    `json:"username"`
	Credential string    `json:"credential"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
