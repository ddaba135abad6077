package insights

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/alexanderjulianmartinez/outlier-watch/internal/table"
	"github.com/alexanderjulianmartinez/outlier-watch/pkg/types"
)

type Options struct {
	GroupBy      string
	PriceColumn  string
	VolumeColumn string
	PLUColumn    string
	TopN         int
	// Budget is the highest affordable price per avocado.
	Budget      float64
	DaysPerWeek int
	// Keys lists every group the totals report; a listed group without
	// rows totals 0. Nil means the groups of the answered table.
	Keys []string
}

// Answer computes the sales questions over t:
// the mean PLU volume per group, the top groups by total volume, the
// cheapest group among rows priced within budget, and the group with the
// largest estimated daily volume (weekly volume spread evenly over the week).
// Means leave out groups without values; totals report them as 0.
func Answer(t *table.Table, opts Options) (*types.Insights, error) {
	if opts.DaysPerWeek <= 0 {
		return nil, fmt.Errorf("days per week must be positive, got %d", opts.DaysPerWeek)
	}
	out := &types.Insights{GroupBy: opts.GroupBy, Budget: opts.Budget}

	var err error
	out.AveragePLU, err = GroupMean(t, opts.GroupBy, opts.PLUColumn)
	if err != nil {
		return nil, fmt.Errorf("average %s: %w", opts.PLUColumn, err)
	}

	keys := opts.Keys
	if keys == nil {
		if keys, err = Keys(t, opts.GroupBy); err != nil {
			return nil, fmt.Errorf("group keys: %w", err)
		}
	}

	totals, err := groupSum(t, opts.GroupBy, opts.VolumeColumn, keys)
	if err != nil {
		return nil, fmt.Errorf("total %s: %w", opts.VolumeColumn, err)
	}
	if out.TopVolume, err = TopN(totals, opts.TopN); err != nil {
		return nil, fmt.Errorf("top %s: %w", opts.VolumeColumn, err)
	}

	out.AffordablePrices, err = aggregate(t, opts.GroupBy, opts.PriceColumn, dataframe.Aggregation_MEAN, dataframe.F{
		Colname:    valueCol,
		Comparator: series.LessEq,
		Comparando: opts.Budget,
	})
	if err != nil {
		return nil, fmt.Errorf("affordable regions: %w", err)
	}
	if best, ok := ArgMin(out.AffordablePrices); ok {
		out.BestAffordable = &best
	}

	const daily = "Daily Volume"
	days := float64(opts.DaysPerWeek)
	withDaily, err := t.WithColumn(table.Column{Name: daily, Kind: table.Numeric}, func(r table.Row) table.Value {
		v, ok := r.Float(opts.VolumeColumn)
		if !ok {
			return table.Missing()
		}
		return table.Float(v / days)
	})
	if err != nil {
		return nil, fmt.Errorf("daily volume: %w", err)
	}
	out.DailyVolume, err = groupSum(withDaily, opts.GroupBy, daily, keys)
	if err != nil {
		return nil, fmt.Errorf("daily volume: %w", err)
	}
	if best, ok := ArgMax(out.DailyVolume); ok {
		out.BestDailyVolume = &best
	}
	return out, nil
}
