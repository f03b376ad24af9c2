package compliance

// Verdict is the PPE compliance classification of a single detection
// response's label set.
type Verdict string

const (
	// VerdictPass means a person was detected wearing both helmet and vest.
	VerdictPass Verdict = "pass"
	// VerdictRejected means a person was detected with helmet or vest missing.
	VerdictRejected Verdict = "rejected"
	// VerdictUnknown means no person was detected, or no detection ran yet.
	VerdictUnknown Verdict = "unknown"
)

const (
	LabelPerson = "person"
	LabelHelmet = "helmet"
	LabelVest   = "vest"
)

// Classify maps a label set to a compliance verdict. It is a pure function
// of the presence of "person", "helmet" and "vest" in the given labels and
// never depends on prior verdicts.
func Classify(labels []string) Verdict {
	var person, helmet, vest bool
	for _, l := range labels {
		switch l {
		case LabelPerson:
			person = true
		case LabelHelmet:
			helmet = true
		case LabelVest:
			vest = true
		}
	}

	switch {
	case person && helmet && vest:
		return VerdictPass
	case person:
		return VerdictRejected
	default:
		return VerdictUnknown
	}
}
