package model

import "sort"

// TraderOffer is one item a trader sells.
type TraderOffer struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Icon        string  `json:"icon,omitempty"`
	Rarity      string  `json:"rarity,omitempty"`
	ItemType    string  `json:"item_type,omitempty"`
	Value       float64 `json:"value"`
	TraderPrice float64 `json:"trader_price,omitempty"`
}

// TraderMap is the trader dataset keyed by trader name.
type TraderMap map[string][]TraderOffer

// Names returns the trader names, sorted.
func (m TraderMap) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
