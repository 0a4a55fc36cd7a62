package model

import "time"

type Course struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Timezone        string    `json:"timezone"` // IANA, например "Asia/Bangkok"
	InstructorID    int64     `json:"instructor_id"`
	CoInstructorIDs []int64   `json:"co_instructor_ids"`
	CreatedAt       time.Time `json:"created_at"`
}

// RoleOf resolves the role a user plays in the course, assuming a non-staff
// user is enrolled. Enrollment is checked by service.UserService.ActorFor.
func (c *Course) RoleOf(user *User) Role {
	if user == nil {
		return RoleStudent
	}
	if user.ID == c.InstructorID {
		return RoleInstructor
	}
	for _, id := range c.CoInstructorIDs {
		if id == user.ID {
			return RoleCoInstructor
		}
	}
	if user.IsAdmin {
		return RoleAdmin
	}
	return RoleStudent
}
