package model

// FieldFill tracks where a draft field value came from.
// unset -> auto_filled -> manually_overridden; the override is sticky for the life of the draft.
type FieldFill string

const (
	FieldUnset      FieldFill = ""
	FieldAutoFilled FieldFill = "auto_filled"
	FieldOverridden FieldFill = "manually_overridden"
)

// LessonDraft - черновик урока до первого сохранения
type LessonDraft struct {
	CourseID                    int64     `json:"course_id"`
	Title                       string    `json:"title"`
	SlotID                      *int64    `json:"slot_id"`
	Price                       int       `json:"price"`
	Duration                    int       `json:"duration"`
	PriceFill                   FieldFill `json:"price_fill"`
	DurationFill                FieldFill `json:"duration_fill"`
	MaxParticipants             int       `json:"max_participants"`
	RegistrationDeadlineMinutes int       `json:"registration_deadline_minutes"`
}

func NewLessonDraft(courseID int64, title string) *LessonDraft {
	return &LessonDraft{CourseID: courseID, Title: title}
}

// ApplySlot selects a slot and refreshes every field the author has not overridden.
func (d *LessonDraft) ApplySlot(slot *ScheduleSlot) {
	id := slot.ID
	d.SlotID = &id

	if d.DurationFill != FieldOverridden {
		d.Duration = slot.DurationMinutes
		d.DurationFill = FieldAutoFilled
	}

	if d.PriceFill != FieldOverridden {
		d.Price = slot.DefaultPrice()
		d.PriceFill = FieldAutoFilled
	}
}

// SetPrice records a manual price edit.
func (d *LessonDraft) SetPrice(price int) {
	d.Price = price
	d.PriceFill = FieldOverridden
}

// SetDuration records a manual duration edit.
func (d *LessonDraft) SetDuration(minutes int) {
	d.Duration = minutes
	d.DurationFill = FieldOverridden
}

func (d *LessonDraft) PriceOverridden() bool {
	return d.PriceFill == FieldOverridden
}

func (d *LessonDraft) DurationOverridden() bool {
	return d.DurationFill == FieldOverridden
}
