package catalog

import (
	"sort"
	"strings"

	"github.com/kasuganosora/raiderdex/model"
)

// Group is the set of items sharing one canonical name. Members are
// ordered by tier rank, then by raw name.
type Group struct {
	Key      string       `json:"key"`
	BaseName string       `json:"base_name"`
	Members  []model.Item `json:"members"`

	// decl[i] is the input position of Members[i].
	decl []int
}

// Tiered reports whether the group has more than one member.
func (g *Group) Tiered() bool { return len(g.Members) > 1 }

// Representative returns the member whose rarity and icon stand for the
// group: the highest-ranked member that is not a Blueprint or Recipe, the
// earliest declared one on ties. A group of only blueprints returns its
// first member.
func (g *Group) Representative() *model.Item {
	best := -1
	for i, m := range g.Members {
		if IsBlueprint(m.Name) {
			continue
		}
		r := TierRank(m.Name)
		if best < 0 {
			best = i
			continue
		}
		br := TierRank(g.Members[best].Name)
		if r > br || (r == br && g.decl[i] < g.decl[best]) {
			best = i
		}
	}
	if best < 0 {
		if len(g.Members) == 0 {
			return nil
		}
		best = 0
	}
	return &g.Members[best]
}

// Member returns the member with the given id.
func (g *Group) Member(id string) *model.Item {
	for i := range g.Members {
		if g.Members[i].ID == id {
			return &g.Members[i]
		}
	}
	return nil
}

// TierLabels returns the tier label of each member, in member order.
// Untiered members get "Base".
func (g *Group) TierLabels() []string {
	labels := make([]string, len(g.Members))
	for i, m := range g.Members {
		if l := TierLabel(m.Name); l != "" {
			labels[i] = l
		} else {
			labels[i] = "Base"
		}
	}
	return labels
}

// GroupItems partitions items by GroupKey. Groups keep the order in which
// their first member appears. Items with unrelated meanings that share a
// canonical name land in the same group; no category check is made.
func GroupItems(items []model.Item) []Group {
	var groups []Group
	index := make(map[string]int)
	for pos, it := range items {
		key := GroupKey(it.Name)
		gi, ok := index[key]
		if !ok {
			gi = len(groups)
			index[key] = gi
			groups = append(groups, Group{Key: key, BaseName: CanonicalName(it.Name)})
		}
		g := &groups[gi]
		g.Members = append(g.Members, it)
		g.decl = append(g.decl, pos)
	}
	for i := range groups {
		sort.Sort(byTier{&groups[i]})
	}
	return groups
}

type byTier struct{ g *Group }

func (b byTier) Len() int { return len(b.g.Members) }

func (b byTier) Less(i, j int) bool {
	ri, rj := TierRank(b.g.Members[i].Name), TierRank(b.g.Members[j].Name)
	if ri != rj {
		return ri < rj
	}
	return b.g.Members[i].Name < b.g.Members[j].Name
}

func (b byTier) Swap(i, j int) {
	b.g.Members[i], b.g.Members[j] = b.g.Members[j], b.g.Members[i]
	b.g.decl[i], b.g.decl[j] = b.g.decl[j], b.g.decl[i]
}

// Catalog indexes item groups by group key and by member id.
type Catalog struct {
	groups []Group
	byKey  map[string]int
	byID   map[string]int
}

func NewCatalog(items []model.Item) *Catalog {
	c := &Catalog{
		groups: GroupItems(items),
		byKey:  make(map[string]int),
		byID:   make(map[string]int),
	}
	for gi, g := range c.groups {
		c.byKey[g.Key] = gi
		for _, m := range g.Members {
			c.byID[m.ID] = gi
		}
	}
	return c
}

// Groups returns all groups in first-appearance order.
func (c *Catalog) Groups() []Group { return c.groups }

// Lookup resolves a member id or a group key. A member id selects that
// member as active; a group key selects the representative.
func (c *Catalog) Lookup(slugOrID string) (*Group, *model.Item, bool) {
	s := strings.TrimSpace(slugOrID)
	if gi, ok := c.byID[s]; ok {
		g := &c.groups[gi]
		return g, g.Member(s), true
	}
	if gi, ok := c.byKey[strings.ToLower(s)]; ok {
		g := &c.groups[gi]
		return g, g.Representative(), true
	}
	return nil, nil, false
}
