package catalog

import (
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Display buckets, in listing order.
const (
	BucketWeapons     = "weapons"
	BucketAttachments = "attachments"
	BucketConsumables = "consumables"
	BucketMaterials   = "materials"
	BucketBlueprints  = "blueprints"
	BucketArmor       = "armor"
	BucketUtility     = "utility"
	BucketKeys        = "keys"
	BucketCosmetics   = "cosmetics"
)

// Buckets lists every bucket in display order.
func Buckets() []string {
	return []string{
		BucketWeapons, BucketAttachments, BucketConsumables, BucketMaterials,
		BucketBlueprints, BucketArmor, BucketUtility, BucketKeys, BucketCosmetics,
	}
}

// bucketTable maps lowercase provider category labels to buckets.
var bucketTable = map[string]string{
	"weapon":        BucketWeapons,
	"assault rifle": BucketWeapons,
	"battle rifle":  BucketWeapons,
	"smg":           BucketWeapons,
	"shotgun":       BucketWeapons,
	"pistol":        BucketWeapons,
	"hand cannon":   BucketWeapons,
	"sniper rifle":  BucketWeapons,
	"lmg":           BucketWeapons,
	"special":       BucketWeapons,

	"modification": BucketAttachments,
	"mod":          BucketAttachments,
	"mods":         BucketAttachments,
	"attachment":   BucketAttachments,

	"ammunition": BucketConsumables,
	"ammo":       BucketConsumables,
	"quick use":  BucketConsumables,
	"medical":    BucketConsumables,
	"consumable": BucketConsumables,
	"grenade":    BucketConsumables,
	"throwable":  BucketConsumables,
	"trap":       BucketConsumables,

	"material":          BucketMaterials,
	"basic material":    BucketMaterials,
	"topside material":  BucketMaterials,
	"refined material":  BucketMaterials,
	"advanced material": BucketMaterials,
	"recyclable":        BucketMaterials,
	"nature":            BucketMaterials,
	"trinket":           BucketMaterials,

	"blueprint": BucketBlueprints,
	"recipe":    BucketBlueprints,

	"shield":  BucketArmor,
	"augment": BucketArmor,
	"armor":   BucketArmor,

	"gadget":  BucketUtility,
	"utility": BucketUtility,
	"tool":    BucketUtility,

	"key": BucketKeys,

	"cosmetic": BucketCosmetics,
	"outfit":   BucketCosmetics,
	"emote":    BucketCosmetics,
}

// Bucketer maps category labels onto buckets and logs each unmapped label
// the first time it is seen.
type Bucketer struct {
	logger *zap.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

func NewBucketer(logger *zap.Logger) *Bucketer {
	return &Bucketer{logger: logger, seen: make(map[string]struct{})}
}

// Bucket returns the bucket of label, or false when the label is unmapped.
func (b *Bucketer) Bucket(label string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(label))
	if key == "" {
		return "", false
	}
	if bucket, ok := bucketTable[key]; ok {
		return bucket, true
	}
	b.mu.Lock()
	_, logged := b.seen[key]
	if !logged {
		b.seen[key] = struct{}{}
	}
	b.mu.Unlock()
	if !logged {
		b.logger.Warn("catalog: unmapped category label", zap.String("label", label))
	}
	return "", false
}

// Unmapped returns the unmapped labels seen so far, lowercased and sorted.
func (b *Bucketer) Unmapped() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.seen))
	for k := range b.seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Reset forgets which unmapped labels were already logged.
func (b *Bucketer) Reset() {
	b.mu.Lock()
	b.seen = make(map[string]struct{})
	b.mu.Unlock()
}
