package memory

import (
	"context"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
)

type SlotStore struct {
	s *Store
}

func cloneSlot(slot *model.ScheduleSlot) *model.ScheduleSlot {
	c := *slot
	if slot.Date != nil {
		d := *slot.Date
		c.Date = &d
	}
	if slot.IndividualPrice != nil {
		p := *slot.IndividualPrice
		c.IndividualPrice = &p
	}
	if slot.BoundLessonID != nil {
		id := *slot.BoundLessonID
		c.BoundLessonID = &id
	}
	return &c
}

func (r *SlotStore) Create(ctx context.Context, slot *model.ScheduleSlot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	slot.ID = r.s.nextID()
	slot.CreatedAt = r.s.now()
	r.s.slots[slot.ID] = cloneSlot(slot)

	id := slot.ID
	record(ctx, func() { delete(r.s.slots, id) })
	return nil
}

func (r *SlotStore) GetByID(_ context.Context, id int64) (*model.ScheduleSlot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	slot, ok := r.s.slots[id]
	if !ok {
		return nil, model.ErrSlotNotFound
	}
	return cloneSlot(slot), nil
}

func (r *SlotStore) ListAvailable(_ context.Context, courseID int64, kind model.SlotKind) ([]*model.ScheduleSlot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*model.ScheduleSlot
	for _, id := range sortedKeys(r.s.slots) {
		slot := r.s.slots[id]
		if slot.CourseID != courseID || !slot.IsAvailable() {
			continue
		}
		if kind != "" && slot.Kind != kind {
			continue
		}
		out = append(out, cloneSlot(slot))
	}
	return out, nil
}

func (r *SlotStore) ListByCourses(_ context.Context, courseIDs []int64) ([]*model.ScheduleSlot, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*model.ScheduleSlot
	for _, id := range sortedKeys(r.s.slots) {
		if slot := r.s.slots[id]; contains(courseIDs, slot.CourseID) {
			out = append(out, cloneSlot(slot))
		}
	}
	return out, nil
}

func (r *SlotStore) Bind(ctx context.Context, slotID, lessonID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	slot, ok := r.s.slots[slotID]
	if !ok || !slot.IsAvailable() {
		return model.ErrSlotAlreadyBound
	}
	slot.BoundLessonID = &lessonID

	record(ctx, func() { slot.BoundLessonID = nil })
	return nil
}

func (r *SlotStore) Release(ctx context.Context, slotID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	slot, ok := r.s.slots[slotID]
	if !ok {
		return model.ErrSlotNotFound
	}
	prev := slot.BoundLessonID
	slot.BoundLessonID = nil

	record(ctx, func() { slot.BoundLessonID = prev })
	return nil
}

func (r *SlotStore) Deactivate(ctx context.Context, slotID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	slot, ok := r.s.slots[slotID]
	if !ok {
		return model.ErrSlotNotFound
	}
	prev := slot.IsActive
	slot.IsActive = false

	record(ctx, func() { slot.IsActive = prev })
	return nil
}
