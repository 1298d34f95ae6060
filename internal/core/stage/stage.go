package stage

// Stage is one step of the fixed courtroom sequence.
type Stage string

const (
	OpeningStatement  Stage = "opening_statement"
	PlaintiffArgument Stage = "plaintiff_argument"
	CrossExamination  Stage = "cross_examination"
	DefendantArgument Stage = "defendant_argument"
	ClosingSubmission Stage = "closing_submission"

	// Verdict is the terminal stage. No submissions are accepted once a case
	// reaches it; adjudication takes over.
	Verdict Stage = "verdict"
)

// Order lists the argumentation stages in procedural order. Verdict is not a
// member; it is where the sequence ends.
var Order = []Stage{
	OpeningStatement,
	PlaintiffArgument,
	CrossExamination,
	DefendantArgument,
	ClosingSubmission,
}

// Index returns the position of s in Order, or -1 for Verdict and unknown values.
func Index(s Stage) int {
	for i, st := range Order {
		if st == s {
			return i
		}
	}
	return -1
}

// Next returns the stage that follows s. The last stage, the terminal stage and
// any unrecognized value all map to Verdict.
func Next(s Stage) Stage {
	i := Index(s)
	if i == -1 || i == len(Order)-1 {
		return Verdict
	}
	return Order[i+1]
}

// IsTerminal reports whether s is the verdict stage.
func IsTerminal(s Stage) bool {
	return s == Verdict
}

// Label returns the courtroom display name for s.
func Label(s Stage) string {
	switch s {
	case OpeningStatement:
		return "Opening Statements"
	case PlaintiffArgument:
		return "Plaintiff Case Presentation"
	case CrossExamination:
		return "Cross-examination"
	case DefendantArgument:
		return "Defendant Case Presentation"
	case ClosingSubmission:
		return "Closing Submissions"
	case Verdict:
		return "Verdict"
	default:
		return string(s)
	}
}
