package domain

// LayerGroup is the set of features sharing one marker type.
type LayerGroup struct {
	Typ      string
	Style    Style
	Known    bool // false when Style is the fallback
	Features []Feature
}

// Bounds returns the extent of the group's features.
func (g LayerGroup) Bounds() Bounds {
	return FeatureBounds(g.Features)
}

// PartitionByType groups features by their typ property in first-seen order.
// Every feature lands in exactly one group, and each group owns copies of its
// features.
func PartitionByType(features []Feature, styles StyleSet) []LayerGroup {
	var groups []LayerGroup
	index := make(map[string]int)

	for _, f := range features {
		typ := f.Typ()
		i, ok := index[typ]
		if !ok {
			style, known := styles.Lookup(typ)
			i = len(groups)
			index[typ] = i
			groups = append(groups, LayerGroup{Typ: typ, Style: style, Known: known})
		}
		groups[i].Features = append(groups[i].Features, f.clone())
	}

	return groups
}
