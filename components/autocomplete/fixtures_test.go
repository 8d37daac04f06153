package autocomplete

import "time"

func day(raw string) time.Time {
	t, err := time.Parse(dayLayout, raw)
	if err != nil {
		panic(err)
	}
	return t
}

func testParticipants() []Participant {
	return []Participant{
		{ID: 1, Username: "jdoe", FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", StartDate: day("2016-08-27"), EndDate: day("2016-08-29"), Tags: []string{"kitchen"}},
		{ID: 2, Username: "jroe", FirstName: "John", LastName: "Roe", Email: "john@example.com", StartDate: day("2016-08-25"), EndDate: day("2016-09-05"), Tags: []string{"bar"}},
		{ID: 3, Username: "aja", FirstName: "Ajay", LastName: "Patel", Email: "ajay@example.com", StartDate: day("2016-08-28"), EndDate: day("2016-09-04")},
		{ID: 4, Username: "jadams", FirstName: "Jane", LastName: "Adams", Email: "adams@example.com", StartDate: day("2016-08-20"), EndDate: day("2016-09-05"), Tags: []string{"bar", "kitchen"}},
	}
}

func testTags() []Tag {
	return []Tag{
		{ID: 10, Name: "kitchen"},
		{ID: 11, Name: "bar"},
		{ID: 12, Name: "Barista"},
		{ID: 13, Name: "greeter"},
	}
}

func testSource() *StaticSource {
	return NewStaticSource(testParticipants(), testTags())
}
