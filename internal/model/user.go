package model

// PlatformRole is the role a user holds across the whole platform.
type PlatformRole string

const (
	RoleStudent    PlatformRole = "student"
	RoleInstructor PlatformRole = "instructor"
	RoleAdmin      PlatformRole = "admin"
)

func (r PlatformRole) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

// Actor is the authenticated caller of a request.
type Actor struct {
	ID   string       `json:"id"`
	Role PlatformRole `json:"role"`
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// User is the directory record of a platform user.
type User struct {
	ID       string       `json:"id"`
	Username string       `json:"username"`
	Email    string       `json:"email"`
	Role     PlatformRole `json:"role"`
}

// Course is the catalog record referenced by chats and message context links.
type Course struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}
