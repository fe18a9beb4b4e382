package xapi

import (
	"fmt"
	"strings"
	"time"
)

type LanguageMap map[string]string

// Agent identifies the learning subject of a statement by display name and
// mailbox IRI. Immutable once constructed.
type Agent struct {
	Name string `json:"name"`
	Mbox string `json:"mbox"`
}

// NewAgent builds an Agent from a display name and a plain email address.
func NewAgent(name, email string) Agent {
	email = strings.TrimSpace(email)
	mbox := email
	if !strings.HasPrefix(mbox, "mailto:") {
		mbox = "mailto:" + mbox
	}
	return Agent{Name: strings.TrimSpace(name), Mbox: mbox}
}

// Key is the stable per-subject identity used for ordered dispatch lanes.
func (a Agent) Key() string { return a.Mbox }

// ActivityDefinition is the definition block of an activity object.
type ActivityDefinition struct {
	Name        LanguageMap       `json:"name,omitempty"`
	Description LanguageMap       `json:"description,omitempty"`
	Type        string            `json:"type,omitempty"`
	Extensions  map[string]string `json:"extensions,omitempty"`
}

// Activity is the object a verb is performed on: a course or a target.
type Activity struct {
	ObjectType string             `json:"objectType"`
	ID         string             `json:"id"`
	Definition ActivityDefinition `json:"definition"`
}

func newActivity(id, name, description, activityType string, extensions map[string]string) Activity {
	def := ActivityDefinition{Type: activityType, Extensions: extensions}
	if name != "" {
		def.Name = LanguageMap{"en-US": name}
	}
	if description != "" {
		def.Description = LanguageMap{"en-US": description}
	}
	return Activity{ObjectType: "Activity", ID: id, Definition: def}
}

// Statement is the (agent, verb, activity) tuple plus timestamp. Built once,
// never mutated, handed to the dispatcher exactly once.
type Statement struct {
	Actor     Agent     `json:"actor"`
	Verb      Verb      `json:"verb"`
	Object    Activity  `json:"object"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Statement) validate() error {
	if s.Actor.Mbox == "" || s.Actor.Mbox == "mailto:" {
		return fmt.Errorf("statement actor has no mailbox")
	}
	if s.Verb.ID == "" {
		return fmt.Errorf("statement verb has no id")
	}
	if s.Object.ID == "" {
		return fmt.Errorf("statement object has no id")
	}
	return nil
}
