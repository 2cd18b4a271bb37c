package model

// Enemy is a hostile ARC unit from the primary provider.
type Enemy struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	Image       string    `json:"image,omitempty"`
	Threat      string    `json:"threat,omitempty"`
	Weakness    string    `json:"weakness,omitempty"`
	Loot        []ItemRef `json:"loot,omitempty"`
}

// ItemRef is a lightweight reference to an item inside another record.
type ItemRef struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Icon   string `json:"icon,omitempty"`
	Rarity string `json:"rarity,omitempty"`
}
