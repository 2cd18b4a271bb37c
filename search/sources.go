package search

import (
	"context"

	"github.com/kasuganosora/raiderdex/model"
)

// Primary is the primary fetch service as the index reads it.
type Primary interface {
	Items(ctx context.Context, force bool) ([]model.Item, error)
	Enemies(ctx context.Context, force bool) ([]model.Enemy, error)
	Quests(ctx context.Context, force bool) ([]model.Quest, error)
	Traders(ctx context.Context, force bool) (model.TraderMap, error)
}

// PrimarySources projects the four primary entity datasets into index
// entries. Icons are resolved against iconBase.
func PrimarySources(p Primary, iconBase string) []Source {
	return []Source{
		{Type: TypeItem, Load: func(ctx context.Context, force bool) ([]Entry, error) {
			items, err := p.Items(ctx, force)
			if err != nil {
				return nil, err
			}
			out := make([]Entry, len(items))
			for i, it := range items {
				out[i] = Entry{
					ID:       it.ID,
					Name:     it.Name,
					Type:     TypeItem,
					Category: it.ItemType,
					Rarity:   it.Rarity,
					Icon:     model.ResolveIcon(iconBase, it.Icon),
				}
			}
			return out, nil
		}},
		{Type: TypeEnemy, Load: func(ctx context.Context, force bool) ([]Entry, error) {
			enemies, err := p.Enemies(ctx, force)
			if err != nil {
				return nil, err
			}
			out := make([]Entry, len(enemies))
			for i, e := range enemies {
				icon := e.Icon
				if icon == "" {
					icon = e.Image
				}
				out[i] = Entry{
					ID:       e.ID,
					Name:     e.Name,
					Type:     TypeEnemy,
					Category: "ARC",
					Rarity:   e.Threat,
					Icon:     model.ResolveIcon(iconBase, icon),
				}
			}
			return out, nil
		}},
		{Type: TypeQuest, Load: func(ctx context.Context, force bool) ([]Entry, error) {
			quests, err := p.Quests(ctx, force)
			if err != nil {
				return nil, err
			}
			out := make([]Entry, len(quests))
			for i, q := range quests {
				out[i] = Entry{ID: q.ID, Name: q.Name, Type: TypeQuest, Category: q.Trader}
			}
			return out, nil
		}},
		{Type: TypeTrader, Load: func(ctx context.Context, force bool) ([]Entry, error) {
			traders, err := p.Traders(ctx, force)
			if err != nil {
				return nil, err
			}
			names := traders.Names()
			out := make([]Entry, len(names))
			for i, name := range names {
				out[i] = Entry{ID: name, Name: name, Type: TypeTrader, Category: "Trader"}
			}
			return out, nil
		}},
	}
}
