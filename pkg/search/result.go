package search

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ID is a result identifier. Remote services send numbers or strings; both
// decode to their textual form. Integer IDs are encoded back as numbers.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// Result is one autocomplete entry. The flags drive visual annotation: a
// disabled entry cannot be selected and Tooltip explains why.
type Result struct {
	ID                  ID     `json:"id"`
	Text                string `json:"text"`
	Disabled            bool   `json:"disabled,omitempty"`
	DisqualifiedForDate bool   `json:"disqualified_for_date,omitempty"`
	DisqualifiedForTags bool   `json:"disqualified_for_tags,omitempty"`
	Tooltip             string `json:"tooltip,omitempty"`
}

// Response is the wire envelope of the autocomplete endpoints.
type Response struct {
	Results []Result `json:"results"`
}
