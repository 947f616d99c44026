package models

// FeatureName names one column of the per-driver feature vector.
type FeatureName string

const (
	FeatureTrackTemp          FeatureName = "TrackTemp"
	FeatureOvertakeDifficulty FeatureName = "OvertakeDifficulty"
	FeatureDriverAvgPos       FeatureName = "DriverAvgPos"
	FeatureDriverDNFRate      FeatureName = "DriverDNFRate"
	FeatureQualiDeltaTeammate FeatureName = "QualiDeltaTeammate"
	FeatureReliabilityScore   FeatureName = "ReliabilityScore"
	FeatureGridPosition       FeatureName = "GridPosition"
	FeatureRacePace           FeatureName = "RacePace"
	FeatureTireDegradation    FeatureName = "TireDegradation"
	FeatureTopSpeed           FeatureName = "TopSpeed"
	FeatureRainProbability    FeatureName = "RainProbability"
)

// FeatureNames lists every column in schema order.
var FeatureNames = []FeatureName{
	FeatureTrackTemp,
	FeatureOvertakeDifficulty,
	FeatureDriverAvgPos,
	FeatureDriverDNFRate,
	FeatureQualiDeltaTeammate,
	FeatureReliabilityScore,
	FeatureGridPosition,
	FeatureRacePace,
	FeatureTireDegradation,
	FeatureTopSpeed,
	FeatureRainProbability,
}

// FeatureVector is the fixed-schema row scored by every model.
type FeatureVector struct {
	Driver             string  `json:"driver" csv:"Driver"`
	ConstructorID      string  `json:"constructor_id" csv:"Constructor"`
	TrackTemp          float64 `json:"track_temp"`
	OvertakeDifficulty float64 `json:"overtake_difficulty"`
	DriverAvgPos       float64 `json:"driver_avg_pos"`
	DriverDNFRate      float64 `json:"driver_dnf_rate"`
	QualiDeltaTeammate float64 `json:"quali_delta_teammate"`
	ReliabilityScore   float64 `json:"reliability_score"`
	GridPosition       float64 `json:"grid_position"`
	RacePace           float64 `json:"race_pace"`
	TireDegradation    float64 `json:"tire_degradation"`
	TopSpeed           float64 `json:"top_speed"`
	RainProbability    float64 `json:"rain_probability"`

	// Fallbacks lists the fields that were filled from defaults.
	Fallbacks []FeatureName `json:"fallbacks,omitempty"`
}

// Value returns the named field. Unknown names return 0.
func (f *FeatureVector) Value(name FeatureName) float64 {
	switch name {
	case FeatureTrackTemp:
		return f.TrackTemp
	case FeatureOvertakeDifficulty:
		return f.OvertakeDifficulty
	case FeatureDriverAvgPos:
		return f.DriverAvgPos
	case FeatureDriverDNFRate:
		return f.DriverDNFRate
	case FeatureQualiDeltaTeammate:
		return f.QualiDeltaTeammate
	case FeatureReliabilityScore:
		return f.ReliabilityScore
	case FeatureGridPosition:
		return f.GridPosition
	case FeatureRacePace:
		return f.RacePace
	case FeatureTireDegradation:
		return f.TireDegradation
	case FeatureTopSpeed:
		return f.TopSpeed
	case FeatureRainProbability:
		return f.RainProbability
	default:
		return 0
	}
}

// Set assigns the named field. It reports false for unknown names.
func (f *FeatureVector) Set(name FeatureName, v float64) bool {
	switch name {
	case FeatureTrackTemp:
		f.TrackTemp = v
	case FeatureOvertakeDifficulty:
		f.OvertakeDifficulty = v
	case FeatureDriverAvgPos:
		f.DriverAvgPos = v
	case FeatureDriverDNFRate:
		f.DriverDNFRate = v
	case FeatureQualiDeltaTeammate:
		f.QualiDeltaTeammate = v
	case FeatureReliabilityScore:
		f.ReliabilityScore = v
	case FeatureGridPosition:
		f.GridPosition = v
	case FeatureRacePace:
		f.RacePace = v
	case FeatureTireDegradation:
		f.TireDegradation = v
	case FeatureTopSpeed:
		f.TopSpeed = v
	case FeatureRainProbability:
		f.RainProbability = v
	default:
		return false
	}
	return true
}

// Values returns the named fields in the given order.
func (f *FeatureVector) Values(names []FeatureName) []float64 {
	out := make([]float64, len(names))
	for i, n := range names {
		out[i] = f.Value(n)
	}
	return out
}

// UsedFallback reports whether the named field came from defaults.
func (f *FeatureVector) UsedFallback(name FeatureName) bool {
	for _, n := range f.Fallbacks {
		if n == name {
			return true
		}
	}
	return false
}
