package model

// SecondaryRecord is an item as listed by the secondary provider. It shares
// no identifier with Item; the two are joined by display name only.
type SecondaryRecord struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Icon   string `json:"icon,omitempty"` // relative to the provider's icon base
	Rarity string `json:"rarity,omitempty"`
}

// Ingredient is one line of a recipe or recycling output.
type Ingredient struct {
	ItemID string `json:"itemId"`
	Name   string `json:"name,omitempty"`
	Icon   string `json:"icon,omitempty"`
	Amount int    `json:"amount"`
}

// SecondaryDetail is the full secondary-provider record of one item.
type SecondaryDetail struct {
	SecondaryRecord
	Description   string       `json:"description,omitempty"`
	Recipe        []Ingredient `json:"recipe,omitempty"`
	RecyclesInto  []Ingredient `json:"recyclesInto,omitempty"`
	SalvagesInto  []Ingredient `json:"salvagesInto,omitempty"`
	UsedIn        []ItemRef    `json:"usedIn,omitempty"`
	CraftingBench string       `json:"craftingBench,omitempty"`
}
