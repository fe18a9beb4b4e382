package xapi

// The statement vocabulary is closed: three verbs, two activity types, one
// extension key. Nothing here is constructible by callers.

const (
	verbRegisteredID          = "http://adlnet.gov/expapi/verbs/registered"
	verbCompletedID           = "http://adlnet.gov/expapi/verbs/completed"
	verbCompletedAssignmentID = "https://w3id.org/xapi/dod-isd/verbs/completed-assignment"

	// ActivityTypeProduct marks a course-level activity.
	ActivityTypeProduct = "http://adlnet.gov/expapi/activities/product"
	// ActivityTypeTask marks a target-level activity.
	ActivityTypeTask = "http://activitystrea.ms/schema/1.0/task"

	// ExtensionPlannedDuration keys the ISO-8601 time remaining until a
	// course's end date on registration statements.
	ExtensionPlannedDuration = "http://id.tincanapi.com/extension/planned-duration"
)

// Verb is a fixed vocabulary entry. Values come from the package-level verb
// variables only.
type Verb struct {
	ID      string      `json:"id"`
	Display LanguageMap `json:"display"`
}

var (
	VerbRegistered = Verb{
		ID:      verbRegisteredID,
		Display: LanguageMap{"en-US": "registered"},
	}
	VerbCompleted = Verb{
		ID:      verbCompletedID,
		Display: LanguageMap{"en-US": "completed"},
	}
	VerbCompletedAssignment = Verb{
		ID:      verbCompletedAssignmentID,
		Display: LanguageMap{"en-US": "completed assignment"},
	}
)
