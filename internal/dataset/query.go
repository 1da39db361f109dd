package dataset

import "encoding/json"

// SearchQuery is the request envelope for every dataset operation: plain
// filter/search, delete, update and reload. Exactly which operation runs
// is selected by Op.
type SearchQuery struct {
	Expr    string         `json:"expr"`
	Filter  map[string]any `json:"filter,omitempty"`
	Op      string         `json:"op,omitempty"`
	Sort    string         `json:"sort,omitempty"`
	Reverse bool           `json:"reverse,omitempty"`
	Limit   *int           `json:"limit,omitempty"`
	Offset  int            `json:"offset,omitempty"`
	Fields  []string       `json:"fields,omitempty"`
	Aggregate []string     `json:"aggregate,omitempty"`
	Discard bool           `json:"discard,omitempty"`
	Data    string         `json:"data,omitempty"`

	// Update is the current update form: field -> new value.
	Update map[string]any `json:"update,omitempty"`
	// UpdateField/UpdateData are the legacy single-field update form.
	// Both forms are accepted; if Update is also set, Update wins (see
	// DESIGN.md Open Question #1).
	UpdateField string `json:"update_field,omitempty"`
	UpdateData  string `json:"update_data,omitempty"`
}

// DefaultSearchQuery returns a SearchQuery with the spec's documented
// defaults (expr defaults to "True", offset to 0).
func DefaultSearchQuery() SearchQuery {
	return SearchQuery{Expr: "True"}
}

// UnmarshalJSON applies SearchQuery's field defaults (expr defaults to
// "True" when absent or empty) on top of the standard decode.
func (q *SearchQuery) UnmarshalJSON(data []byte) error {
	type alias SearchQuery
	aux := alias(DefaultSearchQuery())
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Expr == "" {
		aux.Expr = "True"
	}
	*q = SearchQuery(aux)
	return nil
}

// OpOrDefault returns Op, defaulting to "filter" per spec §4.2 step 1.
func (q SearchQuery) OpOrDefault() string {
	if q.Op == "" {
		return "filter"
	}
	return q.Op
}
