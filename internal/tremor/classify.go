package tremor

// Class is the heuristic tremor etiology assigned to a detected
// movement pattern, keyed on the estimated dominant frequency.
type Class string

const (
	ClassEssential         Class = "essential"
	ClassParkinsonian      Class = "parkinsonian"
	ClassPhysiological     Class = "physiological"
	ClassMedicationInduced Class = "medication_induced"
	ClassStressRelated     Class = "stress_related"
)

// Frequency band boundaries (Hz) for the deterministic class lookup.
// Bands follow the conventional tremor literature ranges; the
// parkinsonian/essential overlap is the ambiguous mid-range.
const (
	MedicationFreqMax    = 3.0  // below: slow, medication-induced oscillation
	ParkinsonianFreqMax  = 5.5  // 3–5.5 Hz: rest tremor band
	EssentialFreqMax     = 8.0  // 5.5–8 Hz: essential/action tremor band
	PhysiologicalFreqMax = 12.0 // 8–12 Hz: enhanced physiological band

	// AmbiguousFreqMin/Max bound the parkinsonian/essential overlap.
	// Under healthcare mode, frequencies in this band classify as
	// stress_related rather than asserting an etiology.
	AmbiguousFreqMin = 4.5
	AmbiguousFreqMax = 6.5
)

// Classify performs the deterministic frequency-range lookup.
// healthcareMode is a policy flag of unverified clinical validity: it
// makes ambiguous mid-range frequencies default to stress_related.
func Classify(frequencyHz float64, healthcareMode bool) Class {
	if healthcareMode && frequencyHz >= AmbiguousFreqMin && frequencyHz < AmbiguousFreqMax {
		return ClassStressRelated
	}
	switch {
	case frequencyHz < MedicationFreqMax:
		return ClassMedicationInduced
	case frequencyHz < ParkinsonianFreqMax:
		return ClassParkinsonian
	case frequencyHz < EssentialFreqMax:
		return ClassEssential
	case frequencyHz <= PhysiologicalFreqMax:
		return ClassPhysiological
	default:
		return ClassStressRelated
	}
}

// Recommendation is the fixed settings tier a tremor class maps to.
// A positive detection auto-applies its class recommendation through
// the settings store with stabilization enabled.
type Recommendation struct {
	Sensitivity int   `json:"sensitivity"`
	WindowMs    int64 `json:"window_ms"`
	DwellMs     int64 `json:"dwell_ms"`
}

// recommendations holds the per-class recommended settings. Slower,
// larger-amplitude tremor classes get heavier smoothing and longer
// dwell; fine high-frequency tremor keeps the filter responsive.
var recommendations = map[Class]Recommendation{
	ClassParkinsonian:      {Sensitivity: 9, WindowMs: 10_000, DwellMs: 1500},
	ClassEssential:         {Sensitivity: 8, WindowMs: 8000, DwellMs: 1200},
	ClassMedicationInduced: {Sensitivity: 7, WindowMs: 8000, DwellMs: 1200},
	ClassStressRelated:     {Sensitivity: 6, WindowMs: 6000, DwellMs: 1000},
	ClassPhysiological:     {Sensitivity: 4, WindowMs: 5000, DwellMs: 800},
}

// RecommendationFor returns the fixed recommended settings for a class.
func RecommendationFor(c Class) Recommendation {
	if r, ok := recommendations[c]; ok {
		return r
	}
	return recommendations[ClassPhysiological]
}
