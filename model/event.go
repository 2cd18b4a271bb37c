package model

// TimeWindow is one scheduled occurrence of a map event.
type TimeWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// EventTimer is a recurring map event and its schedule.
type EventTimer struct {
	Name  string       `json:"name"`
	Map   string       `json:"map"`
	Icon  string       `json:"icon,omitempty"`
	Times []TimeWindow `json:"times"`
}
