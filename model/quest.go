package model

// QuestReward is one reward line of a quest.
type QuestReward struct {
	Item     ItemRef `json:"item"`
	Quantity int     `json:"quantity"`
}

// Quest is a trader quest from the primary provider.
type Quest struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Trader      string        `json:"trader_name,omitempty"`
	Objectives  []string      `json:"objectives,omitempty"`
	XP          int           `json:"xp,omitempty"`
	Rewards     []QuestReward `json:"rewards,omitempty"`
	Locations   []Location    `json:"locations,omitempty"`
	GuideLinks  []GuideLink   `json:"guide_links,omitempty"`
}
