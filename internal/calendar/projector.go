// Package calendar turns schedule slots, lessons and meeting sessions into
// timezone-correct, color-coded calendar events.
//
// Projection is pure: the same Input always yields the same events, so callers may
// re-run it whenever any of the inputs change.
package calendar

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/lesson_scheduler/internal/model"
)

// Palette maps event statuses to display colors.
type Palette struct {
	Active    string
	Done      string
	Available string
	Scheduled string
}

var DefaultPalette = Palette{
	Active:    "#22C55E",
	Done:      "#9CA3AF",
	Available: "#60A5FA",
	Scheduled: "#F59E0B",
}

func (p Palette) Color(status model.EventStatus) string {
	switch status {
	case model.EventStatusActive:
		return p.Active
	case model.EventStatusDone:
		return p.Done
	case model.EventStatusAvailable:
		return p.Available
	default:
		return p.Scheduled
	}
}

// Input is a snapshot of everything a projection depends on.
type Input struct {
	Slots    []*model.ScheduleSlot
	Lessons  []*model.Lesson
	Sessions []*model.MeetingSession
	// CourseTimezones maps course id to an IANA zone name. Missing courses use DefaultTimezone.
	CourseTimezones map[int64]string
	DefaultTimezone string
	ViewerTimezone  string
	Now             time.Time
}

const availableTitle = "Свободный слот"

type Projector struct {
	palette Palette
	logger  *zap.Logger
}

func NewProjector(palette Palette, logger *zap.Logger) *Projector {
	return &Projector{palette: palette, logger: logger}
}

// Project projects with the default palette and no logging.
func Project(in Input) []model.CalendarEvent {
	return NewProjector(DefaultPalette, zap.NewNop()).Project(in)
}

// Project places every weekly slot on its next occurrence relative to in.Now
// (today if it has not started yet) and every dated slot on its date.
// A weekly lesson whose meeting is running stays on the occurrence being held.
func (p *Projector) Project(in Input) []model.CalendarEvent {
	return p.project(in, func(e entry, now time.Time) []civilDate {
		if e.slot.Kind == model.SlotKindDated {
			return []civilDate{dateOf(*e.slot.Date)}
		}
		if d, ok := e.heldDate(); ok && (e.state == model.MeetingStateLive || e.state == model.MeetingStateStarting) {
			return []civilDate{d}
		}
		return []civilDate{nextWeekly(now.In(e.loc), e.slot.DayOfWeek, e.startMin)}
	})
}

// ProjectRange expands weekly slots into every occurrence starting in [from, to).
// Dated slots are included when they start inside the window.
func (p *Projector) ProjectRange(in Input, from, to time.Time) []model.CalendarEvent {
	events := p.project(in, func(e entry, _ time.Time) []civilDate {
		if e.slot.Kind == model.SlotKindDated {
			return []civilDate{dateOf(*e.slot.Date)}
		}
		return weeklyIn(from.In(e.loc), to.In(e.loc), e.slot.DayOfWeek)
	})

	inRange := events[:0]
	for _, ev := range events {
		if !ev.Start.Before(from) && ev.Start.Before(to) {
			inRange = append(inRange, ev)
		}
	}
	return inRange
}

// entry is one slot joined with its lesson and meeting state.
type entry struct {
	slot     *model.ScheduleSlot
	lesson   *model.Lesson
	session  *model.MeetingSession
	state    model.MeetingState
	loc      *time.Location
	startMin int
	endMin   int
}

// heldDate returns the weekly occurrence the session was started for: the one
// nearest to its actual start.
func (e entry) heldDate() (civilDate, bool) {
	if e.session == nil || e.session.ActualStartTime == nil || e.slot.Kind != model.SlotKindWeekly {
		return civilDate{}, false
	}
	from := e.session.ActualStartTime.In(e.loc).Add(-model.WeeklyReopenAfter)
	return nextWeekly(from, e.slot.DayOfWeek, e.startMin), true
}

// otherOccurrence reports whether d is a weekly occurrence the session was not held for.
func (e entry) otherOccurrence(d civilDate) bool {
	held, ok := e.heldDate()
	return ok && held != d
}

type civilDate struct {
	year  int
	month time.Month
	day   int
}

func dateOf(t time.Time) civilDate {
	y, m, d := t.Date()
	return civilDate{y, m, d}
}

func (d civilDate) at(minutes int, loc *time.Location) time.Time {
	return time.Date(d.year, d.month, d.day, minutes/60, minutes%60, 0, 0, loc)
}

func (p *Projector) project(in Input, dates func(e entry, now time.Time) []civilDate) []model.CalendarEvent {
	zones := newZoneCache()
	viewer := p.viewerLocation(in, zones)

	var events []model.CalendarEvent
	for _, e := range p.entries(in, zones) {
		for _, d := range dates(e, in.Now) {
			start := d.at(e.startMin, e.loc)
			end := d.at(e.endMin, e.loc)
			if e.lesson != nil && e.lesson.Duration > 0 {
				end = start.Add(time.Duration(e.lesson.Duration) * time.Minute)
			}

			status := statusOf(e, d)
			ev := model.CalendarEvent{
				Start:       start.In(viewer),
				End:         end.In(viewer),
				Status:      status,
				StatusColor: p.palette.Color(status),
				Title:       availableTitle,
				CourseID:    e.slot.CourseID,
				SlotID:      e.slot.ID,
			}
			if e.lesson != nil {
				ev.Title = e.lesson.Title
				ev.LessonID = e.lesson.ID
			}
			events = append(events, ev)
		}
	}

	sortEvents(events)
	return events
}

// entries joins slots with lessons and sessions, dropping malformed ones.
func (p *Projector) entries(in Input, zones *zoneCache) []entry {
	lessonsBySlot := make(map[int64]*model.Lesson, len(in.Lessons))
	for _, l := range in.Lessons {
		if l == nil {
			continue
		}
		lessonsBySlot[l.ScheduleRef] = l
	}

	sessions := make(map[int64]*model.MeetingSession, len(in.Sessions))
	for _, s := range in.Sessions {
		if s != nil {
			sessions[s.LessonID] = s
		}
	}

	seenSlots := make(map[int64]bool, len(in.Slots))
	var out []entry
	for _, slot := range in.Slots {
		if slot == nil {
			continue
		}
		seenSlots[slot.ID] = true

		lesson := lessonsBySlot[slot.ID]
		if lesson == nil && !slot.IsActive {
			continue
		}

		e, err := p.entry(in, zones, slot, lesson)
		if err != nil {
			p.skip(slot, lesson, err)
			continue
		}

		if lesson != nil {
			e.state = lesson.MeetingState
			if session, ok := sessions[lesson.ID]; ok {
				e.session = session
				e.state = session.State
			}
		}
		out = append(out, e)
	}

	for _, l := range in.Lessons {
		if l != nil && !seenSlots[l.ScheduleRef] {
			p.logger.Warn("Skipping calendar entry",
				zap.Int64("lesson_id", l.ID),
				zap.Int64("slot_id", l.ScheduleRef),
				zap.String("reason", "lesson references a slot outside the snapshot"),
			)
		}
	}

	return out
}

func (p *Projector) entry(in Input, zones *zoneCache, slot *model.ScheduleSlot, lesson *model.Lesson) (entry, error) {
	if lesson != nil && lesson.CourseID != slot.CourseID {
		return entry{}, fmt.Errorf("lesson course %d differs from slot course %d", lesson.CourseID, slot.CourseID)
	}

	switch slot.Kind {
	case model.SlotKindWeekly:
		if slot.DayOfWeek < 0 || slot.DayOfWeek > 6 {
			return entry{}, fmt.Errorf("day_of_week %d out of range", slot.DayOfWeek)
		}
	case model.SlotKindDated:
		if slot.Date == nil {
			return entry{}, fmt.Errorf("dated slot without date")
		}
	default:
		return entry{}, fmt.Errorf("unknown slot kind %q", slot.Kind)
	}

	startMin, err := model.ClockMinutes(slot.StartTime)
	if err != nil {
		return entry{}, fmt.Errorf("start_time: %w", err)
	}
	endMin, err := model.ClockMinutes(slot.EndTime)
	if err != nil {
		return entry{}, fmt.Errorf("end_time: %w", err)
	}
	if endMin <= startMin {
		return entry{}, fmt.Errorf("end_time %s is not after start_time %s", slot.EndTime, slot.StartTime)
	}

	tz, ok := in.CourseTimezones[slot.CourseID]
	if !ok || tz == "" {
		tz = in.DefaultTimezone
	}
	loc, err := zones.load(tz)
	if err != nil {
		return entry{}, fmt.Errorf("course timezone: %w", err)
	}

	return entry{
		slot:     slot,
		lesson:   lesson,
		state:    model.MeetingStateIdle,
		loc:      loc,
		startMin: startMin,
		endMin:   endMin,
	}, nil
}

func (p *Projector) skip(slot *model.ScheduleSlot, lesson *model.Lesson, err error) {
	fields := []zap.Field{
		zap.Int64("slot_id", slot.ID),
		zap.Int64("course_id", slot.CourseID),
		zap.Error(err),
	}
	if lesson != nil {
		fields = append(fields, zap.Int64("lesson_id", lesson.ID))
	}
	p.logger.Warn("Skipping malformed calendar entry", fields...)
}

func (p *Projector) viewerLocation(in Input, zones *zoneCache) *time.Location {
	for _, tz := range []string{in.ViewerTimezone, in.DefaultTimezone} {
		if tz == "" {
			continue
		}
		loc, err := zones.load(tz)
		if err == nil {
			return loc
		}
		p.logger.Warn("Unknown viewer timezone", zap.String("timezone", tz), zap.Error(err))
	}
	return time.UTC
}

// statusOf: live beats ended/completed, which beat a free weekly slot; the rest is scheduled.
// Meeting state of a weekly lesson only colors the occurrence it was held for.
func statusOf(e entry, d civilDate) model.EventStatus {
	switch {
	case e.otherOccurrence(d):
		return model.EventStatusScheduled
	case e.state == model.MeetingStateLive:
		return model.EventStatusActive
	case e.state == model.MeetingStateEnded, e.lesson != nil && e.lesson.IsCompleted():
		return model.EventStatusDone
	case e.lesson == nil && e.slot.Kind == model.SlotKindWeekly && !e.slot.IsBound():
		return model.EventStatusAvailable
	default:
		return model.EventStatusScheduled
	}
}

// nextWeekly returns the date of the next occurrence of dow at startMin, today included
// while the start is not in the past.
func nextWeekly(now time.Time, dow, startMin int) civilDate {
	today := dateOf(now)
	for offset := 0; offset <= 7; offset++ {
		noon := time.Date(today.year, today.month, today.day+offset, 12, 0, 0, 0, now.Location())
		if int(noon.Weekday()) != dow {
			continue
		}
		d := dateOf(noon)
		if offset == 0 && d.at(startMin, now.Location()).Before(now) {
			continue
		}
		return d
	}
	// unreachable: one of eight consecutive days after today matches
	return today
}

// weeklyIn returns every date with weekday dow between from and to, padded by a day on
// each side; the caller filters by exact start instant.
func weeklyIn(from, to time.Time, dow int) []civilDate {
	first := dateOf(from)
	var out []civilDate
	for offset := -1; ; offset++ {
		noon := time.Date(first.year, first.month, first.day+offset, 12, 0, 0, 0, from.Location())
		if noon.After(to.Add(24 * time.Hour)) {
			return out
		}
		if int(noon.Weekday()) == dow {
			out = append(out, dateOf(noon))
		}
	}
}

func sortEvents(events []model.CalendarEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		if a.LessonID != b.LessonID {
			return a.LessonID < b.LessonID
		}
		return a.SlotID < b.SlotID
	})
}

type zoneCache struct {
	zones map[string]*time.Location
}

func newZoneCache() *zoneCache {
	return &zoneCache{zones: make(map[string]*time.Location)}
}

func (c *zoneCache) load(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	if loc, ok := c.zones[name]; ok {
		return loc, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, err
	}
	c.zones[name] = loc
	return loc, nil
}
