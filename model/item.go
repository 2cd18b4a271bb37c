package model

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// Rarity is the provider's rarity tier of an item.
type Rarity = string

const (
	RarityCommon    Rarity = "Common"
	RarityUncommon  Rarity = "Uncommon"
	RarityRare      Rarity = "Rare"
	RarityEpic      Rarity = "Epic"
	RarityLegendary Rarity = "Legendary"
)

var rarityOrder = map[string]int{
	"common":    0,
	"uncommon":  1,
	"rare":      2,
	"epic":      3,
	"legendary": 4,
}

// RarityRank orders the known rarities from Common (0) to Legendary (4).
// Unknown or empty rarities rank -1.
func RarityRank(r string) int {
	if n, ok := rarityOrder[strings.ToLower(strings.TrimSpace(r))]; ok {
		return n
	}
	return -1
}

// Location points at a spot on one of the game maps.
type Location struct {
	ID  string `json:"id"`
	Map string `json:"map"`
}

// GuideLink is an external guide about an item.
type GuideLink struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// StatBlock holds the optional numeric stats of an item (damage, fireRate,
// weight, stackSize, ...). Fields the provider leaves null, and fields that
// are not numbers, are absent.
type StatBlock map[string]float64

func (s *StatBlock) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = nil
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(StatBlock, len(raw))
	for k, v := range raw {
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			continue
		}
		var f float64
		if err := json.Unmarshal(v, &f); err != nil {
			continue
		}
		out[k] = f
	}
	*s = out
	return nil
}

// Stat returns the named stat and whether it is present.
func (s StatBlock) Stat(name string) (float64, bool) {
	v, ok := s[name]
	return v, ok
}

// Names returns the present stat names, sorted.
func (s StatBlock) Names() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Item is a primary-provider item record.
type Item struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	ItemType    string      `json:"item_type"`
	Rarity      Rarity      `json:"rarity,omitempty"`
	Value       float64     `json:"value"`
	Icon        string      `json:"icon,omitempty"`
	StatBlock   StatBlock   `json:"stat_block,omitempty"`
	Workbench   *string     `json:"workbench,omitempty"`
	LootArea    string      `json:"loot_area,omitempty"` // comma-joined zone tags
	Locations   []Location  `json:"locations,omitempty"`
	GuideLinks  []GuideLink `json:"guide_links,omitempty"`
}

// Zones splits LootArea into its trimmed, non-empty zone tags.
func (it Item) Zones() []string {
	if it.LootArea == "" {
		return nil
	}
	parts := strings.Split(it.LootArea, ",")
	zones := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			zones = append(zones, p)
		}
	}
	return zones
}
