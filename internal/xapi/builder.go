package xapi

import (
	"fmt"
	"time"

	"github.com/skillbase/skillbase-backend/internal/apperr"
)

// EventKind enumerates the closed set of learning events that produce
// statements. One builder function switches over this set; there is no open
// builder hierarchy.
type EventKind int

const (
	EventCourseRegistered EventKind = iota
	EventTargetCompleted
	EventCourseCompleted
)

func (k EventKind) String() string {
	switch k {
	case EventCourseRegistered:
		return "course_registered"
	case EventTargetCompleted:
		return "target_completed"
	case EventCourseCompleted:
		return "course_completed"
	default:
		return fmt.Sprintf("event_kind(%d)", int(k))
	}
}

// CourseInfo is the course-shaped input to the builder. Registration
// statements report Name, completion statements report Title; the fields are
// deliberately distinct.
type CourseInfo struct {
	URL         string
	Name        string
	Title       string
	Description string
	EndsAt      *time.Time
}

// TargetInfo is the target-shaped input to the builder.
type TargetInfo struct {
	URL         string
	Title       string
	Description string
}

// Event is a tagged variant: Kind selects which of Course/Target is read.
type Event struct {
	Kind   EventKind
	Agent  Agent
	Course *CourseInfo
	Target *TargetInfo
}

// BuildStatement constructs an immutable statement for the event. It is pure:
// no I/O, no clock reads (now is injected for the planned-duration
// extension). A registration event for a course whose end date is before now
// fails with apperr.ErrInvalidDuration rather than emitting a malformed
// negative duration.
func BuildStatement(ev Event, now time.Time) (*Statement, error) {
	var st *Statement
	switch ev.Kind {
	case EventCourseRegistered:
		if ev.Course == nil {
			return nil, fmt.Errorf("%w: registration event without course", apperr.ErrInvalidArgument)
		}
		extensions, err := plannedDurationExtension(ev.Course.EndsAt, now)
		if err != nil {
			return nil, err
		}
		st = &Statement{
			Actor:     ev.Agent,
			Verb:      VerbRegistered,
			Object:    newActivity(ev.Course.URL, ev.Course.Name, ev.Course.Description, ActivityTypeProduct, extensions),
			Timestamp: now.UTC(),
		}

	case EventTargetCompleted:
		if ev.Target == nil {
			return nil, fmt.Errorf("%w: target completion event without target", apperr.ErrInvalidArgument)
		}
		st = &Statement{
			Actor:     ev.Agent,
			Verb:      VerbCompletedAssignment,
			Object:    newActivity(ev.Target.URL, ev.Target.Title, ev.Target.Description, ActivityTypeTask, nil),
			Timestamp: now.UTC(),
		}

	case EventCourseCompleted:
		if ev.Course == nil {
			return nil, fmt.Errorf("%w: course completion event without course", apperr.ErrInvalidArgument)
		}
		st = &Statement{
			Actor:     ev.Agent,
			Verb:      VerbCompleted,
			Object:    newActivity(ev.Course.URL, ev.Course.Title, ev.Course.Description, ActivityTypeProduct, nil),
			Timestamp: now.UTC(),
		}

	default:
		return nil, fmt.Errorf("%w: unknown event kind %d", apperr.ErrInvalidArgument, int(ev.Kind))
	}

	if err := st.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidArgument, err)
	}
	return st, nil
}

func plannedDurationExtension(endsAt *time.Time, now time.Time) (map[string]string, error) {
	if endsAt == nil {
		return nil, nil
	}
	seconds := int64(endsAt.Sub(now).Seconds())
	if seconds < 0 {
		return nil, fmt.Errorf("%w: course ended %s before now", apperr.ErrInvalidDuration, (-time.Duration(seconds) * time.Second).String())
	}
	return map[string]string{
		ExtensionPlannedDuration: FormatISO8601Duration(seconds),
	}, nil
}
