// Package formset models repeating form sections ("formsets") whose rows are
// addressed by dash-delimited field names such as `participants-0-start_date`.
//
// Two views of the same contract live here. IncrementDashTokens rewrites an
// opaque identifier by advancing every numeric dash token, which is what the
// HTML row replicator in pkg/dom uses when it clones a rendered row. Section
// keeps rows as typed values instead: the row index is an int, names and ids
// are rendered from it, and the row count reported through the management
// form is always len(rows).
//
// The management form mirrors the hidden inputs server-side formset binders
// expect (`<prefix>-TOTAL_FORMS`, `<prefix>-INITIAL_FORMS`,
// `<prefix>-MIN_NUM_FORMS`, `<prefix>-MAX_NUM_FORMS`). SectionFromValues and
// Decode read a submission back into rows.
package formset
