package formset

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func participantSubmission() url.Values {
	return url.Values{
		"participants-TOTAL_FORMS":     {"2"},
		"participants-INITIAL_FORMS":   {"1"},
		"participants-MIN_NUM_FORMS":   {"0"},
		"participants-MAX_NUM_FORMS":   {"1000"},
		"participants-0-user":          {"Jane Doe (jane@example.com)"},
		"participants-0-start_date":    {"08/27/2016"},
		"participants-0-tags":          {"3", "5"},
		"participants-0-initial_score": {"4"},
		"participants-1-user":          {"John Roe (john@example.com)"},
		"participants-1-start_date":    {"2016-08-29"},
		"participants-1-initial_score": {""},
		"csrfmiddlewaretoken":          {"token"},
		"tags-0-name":                  {"other formset"},
	}
}

func TestSectionFromValues(t *testing.T) {
	section, err := SectionFromValues(participantSubmission(), "participants")
	if err != nil {
		t.Fatalf("section from values: %v", err)
	}

	if section.TotalForms() != 2 || section.InitialForms != 1 {
		t.Fatalf("unexpected counts: total=%d initial=%d", section.TotalForms(), section.InitialForms)
	}
	wantFields := []string{"initial_score", "start_date", "tags", "user"}
	if diff := cmp.Diff(wantFields, section.Fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	row, _ := section.Row(0)
	if diff := cmp.Diff([]string{"3", "5"}, row.Values["tags"]); diff != "" {
		t.Fatalf("tags mismatch (-want +got):\n%s", diff)
	}
}

func TestSectionFromValues_FieldFilter(t *testing.T) {
	section, err := SectionFromValues(participantSubmission(), "participants", "user")
	if err != nil {
		t.Fatalf("section from values: %v", err)
	}
	row, _ := section.Row(1)
	if diff := cmp.Diff(url.Values{"user": {"John Roe (john@example.com)"}}, row.Values); diff != "" {
		t.Fatalf("row mismatch (-want +got):\n%s", diff)
	}
}

func TestSectionFromValues_Errors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(url.Values)
		want   error
	}{
		{
			name:   "missing total",
			mutate: func(v url.Values) { v.Del("participants-TOTAL_FORMS") },
			want:   ErrManagementForm,
		},
		{
			name:   "non numeric total",
			mutate: func(v url.Values) { v.Set("participants-TOTAL_FORMS", "two") },
			want:   ErrManagementForm,
		},
		{
			name:   "gap",
			mutate: func(v url.Values) { v.Set("participants-TOTAL_FORMS", "3"); v.Set("participants-3-user", "x") },
			want:   ErrIndexOutOfRange,
		},
		{
			name: "total above absolute max",
			mutate: func(v url.Values) {
				v.Set("participants-TOTAL_FORMS", "1000000000000")
				v.Set("participants-MAX_NUM_FORMS", "1000000000000")
			},
			want: ErrTooManyForms,
		},
		{
			name:   "too many",
			mutate: func(v url.Values) { v.Set("participants-MAX_NUM_FORMS", "1") },
			want:   ErrTooManyForms,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			values := participantSubmission()
			tc.mutate(values)
			if _, err := SectionFromValues(values, "participants"); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSectionFromValuesLimit(t *testing.T) {
	values := participantSubmission()
	if _, err := SectionFromValuesLimit(values, "participants", 1); !errors.Is(err, ErrTooManyForms) {
		t.Fatalf("expected ErrTooManyForms, got %v", err)
	}
	section, err := SectionFromValuesLimit(values, "participants", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if section.TotalForms() != 2 {
		t.Fatalf("expected 2 rows, got %d", section.TotalForms())
	}
	if _, err := SectionFromValuesLimit(values, "participants", 0); err != nil {
		t.Fatalf("non-positive limit should fall back to AbsoluteMaxForms, got %v", err)
	}
}

func TestSectionFromValues_RowWithoutKeysIsEmpty(t *testing.T) {
	values := participantSubmission()
	values.Set("participants-TOTAL_FORMS", "3")

	section, err := SectionFromValues(values, "participants")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if section.TotalForms() != 3 {
		t.Fatalf("expected 3 rows, got %d", section.TotalForms())
	}
	row, ok := section.Row(2)
	if !ok {
		t.Fatalf("expected row 2")
	}
	if diff := cmp.Diff(url.Values{}, row.Values); diff != "" {
		t.Fatalf("row mismatch (-want +got):\n%s", diff)
	}
}

type participantRow struct {
	User         string    `form:"user"`
	StartDate    time.Time `form:"start_date"`
	Tags         []int     `form:"tags"`
	InitialScore int       `form:"initial_score"`
}

func TestDecode(t *testing.T) {
	rows, err := Decode[participantRow](participantSubmission(), "participants")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	want := []participantRow{
		{
			User:         "Jane Doe (jane@example.com)",
			StartDate:    time.Date(2016, 8, 27, 0, 0, 0, 0, time.UTC),
			Tags:         []int{3, 5},
			InitialScore: 4,
		},
		{
			User:      "John Roe (john@example.com)",
			StartDate: time.Date(2016, 8, 29, 0, 0, 0, 0, time.UTC),
		},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_BadDate(t *testing.T) {
	values := participantSubmission()
	values.Set("participants-1-start_date", "next tuesday")
	if _, err := Decode[participantRow](values, "participants"); err == nil {
		t.Fatalf("expected date decode error")
	}
}

func TestSection_ValuesRoundTrip(t *testing.T) {
	submitted := participantSubmission()
	section, err := SectionFromValues(submitted, "participants")
	if err != nil {
		t.Fatalf("section from values: %v", err)
	}
	if _, err := section.AddRow(); err != nil {
		t.Fatalf("add row: %v", err)
	}

	got := section.Values()
	if got.Get("participants-TOTAL_FORMS") != "3" || got.Get("participants-INITIAL_FORMS") != "1" {
		t.Fatalf("unexpected management values: %v", got)
	}
	if got.Get("participants-2-user") != "John Roe (john@example.com)" {
		t.Fatalf("expected copied row values, got %v", got)
	}
	if _, ok := got["csrfmiddlewaretoken"]; ok {
		t.Fatalf("unrelated keys must not be encoded")
	}

	again, err := SectionFromValues(got, "participants")
	if err != nil {
		t.Fatalf("decode encoded values: %v", err)
	}
	if diff := cmp.Diff(section.Rows(), again.Rows()); diff != "" {
		t.Fatalf("rows mismatch after round trip (-want +got):\n%s", diff)
	}
}
