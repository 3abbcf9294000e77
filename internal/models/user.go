// internal/models/user.go
package models

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

type UserStatus string

const (
	UserActive    UserStatus = "active"
	UserSuspended UserStatus = "suspended"
)

func (s UserStatus) Valid() bool {
	return s == UserActive || s == UserSuspended
}

type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FullName  string     `json:"full_name"`
	Phone     string     `json:"phone,omitempty"`
	Role      Role       `json:"role"`
	Status    UserStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// UserUpdate carries the optional fields of PATCH /users/{id}.
type UserUpdate struct {
	Role     *Role       `json:"role,omitempty"`
	Status   *UserStatus `json:"status,omitempty"`
	FullName *string     `json:"full_name,omitempty"`
	Phone    *string     `json:"phone,omitempty"`
}

func (u UserUpdate) Empty() bool {
	return u.Role == nil && u.Status == nil && u.FullName == nil && u.Phone == nil
}

type UserFilter struct {
	Role   Role
	Status UserStatus
	Page
}

// Owner is the user that receives verification notifications for an entity.
type Owner struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone,omitempty"`
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   Role   `json:"role"`
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// SystemActor is used by workflow jobs that act on behalf of a named reviewer.
func SystemActor(reviewerID string) Actor {
	return Actor{UserID: reviewerID, Role: RoleAdmin}
}
