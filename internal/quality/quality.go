// Package quality classifies metric readings into coarse tiers so the
// UI can color a value without re-deriving thresholds client side.
package quality

import "github.com/hostdiag/wifiradar/internal/model"

// bounds delimits the good and fair regions of one metric. Values past
// the fair bound are poor.
type bounds struct {
	// good is the threshold for the good tier.
	good float64

	// fair is the threshold for the fair tier.
	fair float64

	// higherIsBetter selects the comparison direction.
	higherIsBetter bool
}

// thresholds maps each scored metric to its bounds. Metrics absent
// from this table always score unknown.
var thresholds = map[model.MetricID]bounds{
	model.MetricSignalPercent:  {good: 70, fair: 40, higherIsBetter: true},
	model.MetricRSSI:           {good: -60, fair: -75, higherIsBetter: true},
	model.MetricSNR:            {good: 25, fair: 15, higherIsBetter: true},
	model.MetricRouterPing:     {good: 50, fair: 150, higherIsBetter: false},
	model.MetricInternetPing:   {good: 50, fair: 150, higherIsBetter: false},
	model.MetricRouterJitter:   {good: 10, fair: 30, higherIsBetter: false},
	model.MetricInternetJitter: {good: 10, fair: 30, higherIsBetter: false},
	model.MetricRouterLoss:     {good: 1, fair: 5, higherIsBetter: false},
	model.MetricInternetLoss:   {good: 1, fair: 5, higherIsBetter: false},
	model.MetricDNSLookup:      {good: 50, fair: 150, higherIsBetter: false},
}

// Score returns the tier of the given reading. Invalid readings and
// metrics without thresholds score [model.TierUnknown].
func Score(r model.Reading) model.QualityTier {
	if !r.Valid {
		return model.TierUnknown
	}
	b, found := thresholds[r.Metric]
	if !found {
		return model.TierUnknown
	}
	if b.higherIsBetter {
		switch {
		case r.Value >= b.good:
			return model.TierGood
		case r.Value >= b.fair:
			return model.TierFair
		default:
			return model.TierPoor
		}
	}
	switch {
	case r.Value <= b.good:
		return model.TierGood
	case r.Value <= b.fair:
		return model.TierFair
	default:
		return model.TierPoor
	}
}
