/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package stimuli

// Validate rejects configurations whose sampling loops could never succeed.
func Validate(catalog Catalog, opts Options) error {
	opts = opts.withDefaults()

	if len(catalog) == 0 {
		return invalidf("catalog is empty")
	}
	if opts.NumRounds < 1 {
		return invalidf("rounds must be positive, got %d", opts.NumRounds)
	}

	blockLen := len(catalog) * len(opts.ContextTypes)
	if opts.NumRounds%blockLen != 0 {
		return invalidf("rounds (%d) must be a multiple of catalog size (%d) × context types (%d)",
			opts.NumRounds, len(catalog), len(opts.ContextTypes))
	}

	if opts.NumRounds > 1 {
		// A shuffled block can avoid adjacent repeats only if no identity
		// fills more than half of it; across block boundaries, at most half.
		limit := (blockLen + 1) / 2
		if opts.NumRounds > blockLen {
			limit = blockLen / 2
		}
		for subID, n := range catalog.subIDCounts() {
			if n*len(opts.ContextTypes) > limit {
				return invalidf("object %q repeats too often for distinct adjacent targets", subID)
			}
		}
	}

	if opts.OcclusionBudget < 0 {
		return invalidf("occlusion budget must not be negative, got %d", opts.OcclusionBudget)
	}
	if opts.CellSize < 1 {
		return invalidf("cell size must be positive, got %d", opts.CellSize)
	}

	for _, ct := range opts.ContextTypes {
		if !ct.Context.valid() {
			return invalidf("unrecognized context %q", ct.Context)
		}
		if !ct.Occlusions.valid() {
			return invalidf("unrecognized occlusion policy %q", ct.Occlusions)
		}
		if ct.NumOccluded > opts.OcclusionBudget {
			return invalidf("context type %s occludes more objects than the budget of %d", ct, opts.OcclusionBudget)
		}
		if opts.OcclusionBudget-ct.NumOccluded > GridCells-MaxDistractors-1 {
			return invalidf("context type %s leaves %d empty occlusions, more than the grid can hold",
				ct, opts.OcclusionBudget-ct.NumOccluded)
		}
		for _, target := range catalog {
			if !Feasible(target, ct, catalog) {
				return invalidf("context type %s cannot be satisfied for target %q", ct, target.SubID)
			}
		}
	}

	return nil
}

// Feasible reports whether some distractor set for target satisfies both the
// context's distractor rule and its occlusion policy.
func Feasible(target Object, ct ContextType, catalog Catalog) bool {
	// Eligible objects split by shape match, and by basic match within each.
	var same, diff, sameBasic, diffBasic int
	for _, o := range eligiblePool(ct.Context, target, catalog) {
		if o.Shape == target.Shape {
			same++
			if o.Basic == target.Basic {
				sameBasic++
			}
		} else {
			diff++
			if o.Basic == target.Basic {
				diffBasic++
			}
		}
	}

	for _, k := range DistractorCounts {
		for s := 0; s <= k; s++ {
			d := k - s
			if s > same || d > diff {
				continue
			}
			switch ct.Context {
			case Basic:
				if s < 1 {
					continue
				}
			case Sub:
				if !(s >= 1 && sameBasic >= 1) && !(d >= 1 && diffBasic >= 1) {
					continue
				}
			}
			switch ct.Occlusions {
			case Critical:
				if ct.NumOccluded < 1 || s < 1 || d < ct.NumOccluded-1 {
					continue
				}
			case Irrelevant:
				if d < ct.NumOccluded {
					continue
				}
			}
			return true
		}
	}
	return false
}
