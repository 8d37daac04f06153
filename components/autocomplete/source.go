package autocomplete

import (
	"context"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Participant is an event participant offered to the assignee select.
type Participant struct {
	ID        int       `yaml:"id"`
	Username  string    `yaml:"username"`
	FirstName string    `yaml:"first_name"`
	LastName  string    `yaml:"last_name"`
	Email     string    `yaml:"email"`
	StartDate time.Time `yaml:"start_date"`
	EndDate   time.Time `yaml:"end_date"`
	Tags      []string  `yaml:"tags"`
}

// DisplayName is the text shown in the select.
func (p Participant) DisplayName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// AvailableOn reports whether day falls inside the participant's stay.
func (p Participant) AvailableOn(day time.Time) bool {
	if !p.StartDate.IsZero() && day.Before(p.StartDate) {
		return false
	}
	if !p.EndDate.IsZero() && day.After(p.EndDate) {
		return false
	}
	return true
}

type Tag struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
}

// Source provides the searchable entries. Implementations must be safe for
// concurrent use.
type Source interface {
	Participants(ctx context.Context) ([]Participant, error)
	Tags(ctx context.Context) ([]Tag, error)
}

// StaticSource serves fixed slices.
type StaticSource struct {
	participants []Participant
	tags         []Tag
}

func NewStaticSource(participants []Participant, tags []Tag) *StaticSource {
	return &StaticSource{
		participants: append([]Participant(nil), participants...),
		tags:         append([]Tag(nil), tags...),
	}
}

func (s *StaticSource) Participants(context.Context) ([]Participant, error) {
	if s == nil {
		return nil, nil
	}
	return s.participants, nil
}

func (s *StaticSource) Tags(context.Context) ([]Tag, error) {
	if s == nil {
		return nil, nil
	}
	return s.tags, nil
}

type sourceFile struct {
	Participants []participantEntry `yaml:"participants"`
	Tags         []Tag              `yaml:"tags"`
}

type participantEntry struct {
	ID        int      `yaml:"id"`
	Username  string   `yaml:"username"`
	FirstName string   `yaml:"first_name"`
	LastName  string   `yaml:"last_name"`
	Email     string   `yaml:"email"`
	StartDate string   `yaml:"start_date"`
	EndDate   string   `yaml:"end_date"`
	Tags      []string `yaml:"tags"`
}

// LoadSource reads participants and tags from a YAML (or JSON) file in fsys.
// Dates use YYYY-MM-DD.
func LoadSource(fsys fs.FS, path string) (*StaticSource, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("autocomplete: read %s: %w", path, err)
	}
	var doc sourceFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("autocomplete: parse %s: %w", path, err)
	}

	participants := make([]Participant, 0, len(doc.Participants))
	for _, entry := range doc.Participants {
		start, err := parseDay(entry.StartDate)
		if err != nil {
			return nil, fmt.Errorf("autocomplete: %s participant %d start_date: %w", path, entry.ID, err)
		}
		end, err := parseDay(entry.EndDate)
		if err != nil {
			return nil, fmt.Errorf("autocomplete: %s participant %d end_date: %w", path, entry.ID, err)
		}
		participants = append(participants, Participant{
			ID:        entry.ID,
			Username:  entry.Username,
			FirstName: entry.FirstName,
			LastName:  entry.LastName,
			Email:     entry.Email,
			StartDate: start,
			EndDate:   end,
			Tags:      append([]string(nil), entry.Tags...),
		})
	}
	return NewStaticSource(participants, doc.Tags), nil
}

func parseDay(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(dayLayout, raw)
}

const dayLayout = "2006-01-02"
