// Package autocomplete serves the participant and tag search endpoints used
// by the select widgets of the task formsets.
//
// Both handlers answer GET and HEAD requests with {"results":[...]} and
// accept q and limit parameters. The participant handler also takes a date
// (d, YYYY-MM-DD) and pipe separated tag names (t); participants unavailable
// on that date or lacking every requested tag are returned disabled, with a
// tooltip explaining why.
package autocomplete
