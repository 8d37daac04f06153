package autocomplete

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
)

func TestLoadSource(t *testing.T) {
	fsys := fstest.MapFS{"people.yaml": {Data: []byte(`
participants:
  - id: 1
    username: jdoe
    first_name: Jane
    last_name: Doe
    email: jane@example.com
    start_date: 2016-08-27
    end_date: "2016-08-29"
    tags: [kitchen]
tags:
  - {id: 10, name: kitchen}
`)}}

	source, err := LoadSource(fsys, "people.yaml")
	if err != nil {
		t.Fatalf("load source: %v", err)
	}

	participants, _ := source.Participants(context.Background())
	want := []Participant{{
		ID: 1, Username: "jdoe", FirstName: "Jane", LastName: "Doe", Email: "jane@example.com",
		StartDate: day("2016-08-27"), EndDate: day("2016-08-29"), Tags: []string{"kitchen"},
	}}
	if diff := cmp.Diff(want, participants); diff != "" {
		t.Fatalf("participants mismatch (-want +got):\n%s", diff)
	}
	tags, _ := source.Tags(context.Background())
	if diff := cmp.Diff([]Tag{{ID: 10, Name: "kitchen"}}, tags); diff != "" {
		t.Fatalf("tags mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadSource_Errors(t *testing.T) {
	fsys := fstest.MapFS{
		"bad-date.yaml": {Data: []byte("participants:\n  - id: 1\n    start_date: 27/08/2016\n")},
		"bad-yaml.yaml": {Data: []byte("participants: [")},
	}
	for _, path := range []string{"bad-date.yaml", "bad-yaml.yaml", "missing.yaml"} {
		if _, err := LoadSource(fsys, path); err == nil {
			t.Fatalf("%s: expected error", path)
		}
	}
}

func TestParticipant_AvailableOn(t *testing.T) {
	p := Participant{StartDate: day("2016-08-27"), EndDate: day("2016-08-29")}
	for raw, want := range map[string]bool{
		"2016-08-26": false,
		"2016-08-27": true,
		"2016-08-29": true,
		"2016-08-30": false,
	} {
		if got := p.AvailableOn(day(raw)); got != want {
			t.Fatalf("AvailableOn(%s) = %v, want %v", raw, got, want)
		}
	}
	if !(Participant{}).AvailableOn(day("2016-01-01")) {
		t.Fatalf("open ended stay should always be available")
	}
}
