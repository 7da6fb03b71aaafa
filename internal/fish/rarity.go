package fish

type RarityTier int

const (
	TierCommon RarityTier = iota
	TierUncommon
	TierRare
	TierEpic
	TierLegendary
	TierMythic
)

func (t RarityTier) String() string {
	switch t {
	case TierMythic:
		return "Mythic"
	case TierLegendary:
		return "Legendary"
	case TierEpic:
		return "Epic"
	case TierRare:
		return "Rare"
	case TierUncommon:
		return "Uncommon"
	default:
		return "Common"
	}
}

// Tier buckets a species by its abundance relative to the catalog mean,
// so labels stay meaningful as the catalog grows or shrinks.
func (c *Catalog) Tier(name string) RarityTier {
	sp, ok := c.byName[name]
	if !ok || c.Len() == 0 {
		return TierCommon
	}
	mean := c.total / float64(c.Len())
	r := sp.Abundance / mean
	switch {
	case r < 0.05:
		return TierMythic
	case r < 0.20:
		return TierLegendary
	case r < 0.50:
		return TierEpic
	case r < 1.00:
		return TierRare
	case r < 1.50:
		return TierUncommon
	default:
		return TierCommon
	}
}
