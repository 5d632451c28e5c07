/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package tournament

// OutcomeKind classifies a resolved round.
type OutcomeKind string

const (
	OutcomeAllSame  OutcomeKind = "all_same"
	OutcomeThreeWay OutcomeKind = "three_way"
	OutcomeDecisive OutcomeKind = "decisive"
	// OutcomeVoid is the no-op tie for an assignment that cannot eliminate
	// anyone safely (missing or invalid moves, empty or full survivor set).
	OutcomeVoid OutcomeKind = "void"
)

type Outcome struct {
	Kind        OutcomeKind   `json:"kind"`
	WinningMove Move          `json:"winning_move,omitempty"`
	Survivors   []Participant `json:"survivors"`
	Eliminated  []Participant `json:"eliminated,omitempty"`
}

func (o Outcome) IsTie() bool {
	return o.Kind != OutcomeDecisive
}

// Resolve decides one round among remaining given one move per participant.
// It never mutates its arguments.
func Resolve(remaining []Participant, choices map[int]Move) Outcome {
	tie := func(kind OutcomeKind) Outcome {
		return Outcome{
			Kind:      kind,
			Survivors: append([]Participant(nil), remaining...),
		}
	}

	if len(remaining) == 0 {
		return tie(OutcomeVoid)
	}

	var seen [len(Moves)]bool
	distinct := make([]Move, 0, len(Moves))
	for _, p := range remaining {
		m, ok := choices[p.ID]
		if !ok || !m.Valid() {
			return tie(OutcomeVoid)
		}

		i := moveIndex(m)
		if !seen[i] {
			seen[i] = true
			distinct = append(distinct, m)
		}
	}

	switch len(distinct) {
	case 1:
		return tie(OutcomeAllSame)
	case 3:
		return tie(OutcomeThreeWay)
	}

	winning := distinct[0]
	if distinct[1].Beats(distinct[0]) {
		winning = distinct[1]
	}

	var survivors, eliminated []Participant
	for _, p := range remaining {
		if choices[p.ID] == winning {
			survivors = append(survivors, p)
			continue
		}
		p.Eliminated = true
		eliminated = append(eliminated, p)
	}

	if len(survivors) == 0 || len(survivors) == len(remaining) {
		return tie(OutcomeVoid)
	}

	return Outcome{
		Kind:        OutcomeDecisive,
		WinningMove: winning,
		Survivors:   survivors,
		Eliminated:  eliminated,
	}
}

func moveIndex(m Move) int {
	for i, candidate := range Moves {
		if candidate == m {
			return i
		}
	}
	return -1
}
