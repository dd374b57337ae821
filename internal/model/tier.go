package model

// QualityTier classifies a reading against per-metric thresholds.
type QualityTier int

const (
	// TierUnknown means the reading was invalid or the metric is not scored.
	TierUnknown = QualityTier(iota)

	// TierGood means the reading clears the good threshold.
	TierGood

	// TierFair means the reading sits between the good and poor thresholds.
	TierFair

	// TierPoor means the reading is past the poor threshold.
	TierPoor
)

// String implements fmt.Stringer.
func (t QualityTier) String() string {
	switch t {
	case TierGood:
		return "good"
	case TierFair:
		return "fair"
	case TierPoor:
		return "poor"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler using the string form.
func (t QualityTier) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}
