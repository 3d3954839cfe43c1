package guard

import (
	"fmt"
	"time"

	"hireline/internal/domain"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// FieldError is a rejected request field, caught before any store write.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Message) }

func fieldErr(field, format string, args ...any) *FieldError {
	return &FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Slot is the date/time/location portion of a schedule or reschedule request.
type Slot struct {
	ScheduledDate string
	StartTime     string
	EndTime       string
	Location      domain.Location
	MeetingLink   *string
	MeetingAddr   *string
}

// ValidateSlot checks the slot's syntactic shape and the conditionally
// required location fields: meeting_link iff online, meeting_address iff
// onsite, phone needs neither.
func ValidateSlot(s Slot) *FieldError {
	if _, err := time.Parse(DateLayout, s.ScheduledDate); err != nil {
		return fieldErr("scheduled_date", "must be a date in %s form", DateLayout)
	}
	start, err := time.Parse(TimeLayout, s.StartTime)
	if err != nil {
		return fieldErr("start_time", "must be a time in %s form", TimeLayout)
	}
	end, err := time.Parse(TimeLayout, s.EndTime)
	if err != nil {
		return fieldErr("end_time", "must be a time in %s form", TimeLayout)
	}
	if !end.After(start) {
		return fieldErr("end_time", "must be after start_time")
	}
	if !s.Location.Valid() {
		return fieldErr("location", "must be one of online, onsite, phone")
	}
	switch s.Location {
	case domain.LocationOnline:
		if s.MeetingLink == nil || *s.MeetingLink == "" {
			return fieldErr("meeting_link", "required for online interviews")
		}
	case domain.LocationOnsite:
		if s.MeetingAddr == nil || *s.MeetingAddr == "" {
			return fieldErr("meeting_address", "required for onsite interviews")
		}
	}
	return nil
}

// CombineEnd joins a calendar date and a wall-clock end time in loc.
func CombineEnd(date, endTime string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+endTime, loc)
}

// IsPast implements the upcoming/past partition: an interview is past iff its
// scheduled date is before today or its status is terminal. Exactly one of
// IsPast / !IsPast holds for any interview.
func IsPast(iv domain.Interview, now time.Time) bool {
	if iv.Status.Terminal() {
		return true
	}
	day, err := time.ParseInLocation(DateLayout, iv.ScheduledDate, now.Location())
	if err != nil {
		return true
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return day.Before(today)
}
