package memory

import (
	"context"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
)

type CourseStore struct {
	s *Store
}

func cloneCourse(course *model.Course) *model.Course {
	c := *course
	c.CoInstructorIDs = append([]int64(nil), course.CoInstructorIDs...)
	return &c
}

func (r *CourseStore) Create(_ context.Context, course *model.Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	course.ID = r.s.nextID()
	course.CreatedAt = r.s.now()
	r.s.courses[course.ID] = cloneCourse(course)
	return nil
}

func (r *CourseStore) GetByID(_ context.Context, id int64) (*model.Course, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	course, ok := r.s.courses[id]
	if !ok {
		return nil, model.ErrCourseNotFound
	}
	return cloneCourse(course), nil
}

func (r *CourseStore) ListForUser(_ context.Context, userID int64) ([]*model.Course, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*model.Course
	for _, id := range sortedKeys(r.s.courses) {
		course := r.s.courses[id]
		_, enrolled := r.s.enrollments[id][userID]
		if course.InstructorID == userID || contains(course.CoInstructorIDs, userID) || enrolled {
			out = append(out, cloneCourse(course))
		}
	}
	return out, nil
}

func (r *CourseStore) AddCoInstructor(_ context.Context, courseID, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	course, ok := r.s.courses[courseID]
	if !ok {
		return model.ErrCourseNotFound
	}
	if !contains(course.CoInstructorIDs, userID) {
		course.CoInstructorIDs = append(course.CoInstructorIDs, userID)
	}
	return nil
}

func (r *CourseStore) Enroll(_ context.Context, courseID, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.courses[courseID]; !ok {
		return model.ErrCourseNotFound
	}
	if r.s.enrollments[courseID] == nil {
		r.s.enrollments[courseID] = make(map[int64]struct{})
	}
	r.s.enrollments[courseID][userID] = struct{}{}
	return nil
}

func (r *CourseStore) IsEnrolled(_ context.Context, courseID, userID int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, enrolled := r.s.enrollments[courseID][userID]
	return enrolled, nil
}
