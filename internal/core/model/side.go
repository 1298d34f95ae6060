package model

// Side is one of the two fixed positions in a case. Lawyer A argues for the
// plaintiff, Lawyer B for the defendant.
type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

func (s Side) Valid() bool {
	return s == SideA || s == SideB
}

func (s Side) Opponent() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

// Party returns the party the side represents, for prompt text.
func (s Side) Party() string {
	if s == SideA {
		return "the Plaintiff"
	}
	return "the Defendant"
}

// Submitter identifies the author of a submission: either a human participant
// or the automated opponent. Keeping this tagged (instead of a magic user ID)
// means partitioning and ranking-exclusion logic never string-compare IDs.
type Submitter struct {
	UserID    string
	Automated bool
}

func HumanSubmitter(userID string) Submitter {
	return Submitter{UserID: userID}
}

func AutomatedSubmitter() Submitter {
	return Submitter{Automated: true}
}
