package model

type Role string

const (
	RoleInstructor   Role = "instructor"
	RoleCoInstructor Role = "co_instructor"
	RoleStudent      Role = "student"
	RoleAdmin        Role = "admin"
	RoleGuest        Role = "guest" // не записан на курс
)

// CanManageMeeting reports whether the role may start or end a live session.
func (r Role) CanManageMeeting() bool {
	return r == RoleInstructor || r == RoleCoInstructor
}

// CanJoin reports whether the role may take a seat in a live session.
func (r Role) CanJoin() bool {
	return r != RoleGuest && r != ""
}

// Actor - кто выполняет действие; роль передаётся вызывающей стороной
type Actor struct {
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
}
