/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package tournament

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func players(n int) []Participant {
	return BuildRoster(n, nil, nil)
}

func ids(ps []Participant) []int {
	out := make([]int, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func TestMoveBeats(t *testing.T) {
	cases := []struct {
		a, b Move
		want bool
	}{
		{Rock, Scissors, true},
		{Scissors, Paper, true},
		{Paper, Rock, true},
		{Scissors, Rock, false},
		{Paper, Scissors, false},
		{Rock, Paper, false},
		{Rock, Rock, false},
		{Move("lizard"), Rock, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.a)+"_vs_"+string(tc.b), func(t *testing.T) {
			assert.Equal(t, tc.want, tc.a.Beats(tc.b))
		})
	}
}

func TestResolve(t *testing.T) {
	cases := []struct {
		name           string
		n              int
		choices        map[int]Move
		wantKind       OutcomeKind
		wantMove       Move
		wantSurvivors  []int
		wantEliminated []int
	}{
		{
			name:          "all same is a tie",
			n:             2,
			choices:       map[int]Move{1: Rock, 2: Rock},
			wantKind:      OutcomeAllSame,
			wantSurvivors: []int{1, 2},
		},
		{
			name:           "rock beats scissors",
			n:              2,
			choices:        map[int]Move{1: Rock, 2: Scissors},
			wantKind:       OutcomeDecisive,
			wantMove:       Rock,
			wantSurvivors:  []int{1},
			wantEliminated: []int{2},
		},
		{
			name:           "paper beats rock regardless of order",
			n:              2,
			choices:        map[int]Move{1: Rock, 2: Paper},
			wantKind:       OutcomeDecisive,
			wantMove:       Paper,
			wantSurvivors:  []int{2},
			wantEliminated: []int{1},
		},
		{
			name:           "scissors beats paper with several winners",
			n:              5,
			choices:        map[int]Move{1: Scissors, 2: Paper, 3: Scissors, 4: Paper, 5: Paper},
			wantKind:       OutcomeDecisive,
			wantMove:       Scissors,
			wantSurvivors:  []int{1, 3},
			wantEliminated: []int{2, 4, 5},
		},
		{
			name:          "three distinct moves is a tie",
			n:             4,
			choices:       map[int]Move{1: Rock, 2: Paper, 3: Scissors, 4: Rock},
			wantKind:      OutcomeThreeWay,
			wantSurvivors: []int{1, 2, 3, 4},
		},
		{
			name:          "missing choice is a void tie",
			n:             3,
			choices:       map[int]Move{1: Rock, 2: Scissors},
			wantKind:      OutcomeVoid,
			wantSurvivors: []int{1, 2, 3},
		},
		{
			name:          "invalid move is a void tie",
			n:             2,
			choices:       map[int]Move{1: Rock, 2: Move("spock")},
			wantKind:      OutcomeVoid,
			wantSurvivors: []int{1, 2},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			remaining := players(tc.n)
			got := Resolve(remaining, tc.choices)

			assert.Equal(t, tc.wantKind, got.Kind)
			assert.Equal(t, tc.wantMove, got.WinningMove)
			if diff := cmp.Diff(tc.wantSurvivors, ids(got.Survivors)); diff != "" {
				t.Fatalf("survivors mismatch (-want +got):\n%s", diff)
			}
			if tc.wantEliminated == nil {
				assert.Empty(t, got.Eliminated)
			} else {
				assert.Equal(t, tc.wantEliminated, ids(got.Eliminated))
			}
			for _, p := range got.Eliminated {
				assert.True(t, p.Eliminated, "eliminated participant %d not flagged", p.ID)
			}
			assert.Equal(t, tc.wantKind != OutcomeDecisive, got.IsTie())
		})
	}
}

func TestResolve_DoesNotMutateInput(t *testing.T) {
	remaining := players(3)
	before := append([]Participant(nil), remaining...)

	out := Resolve(remaining, map[int]Move{1: Paper, 2: Rock, 3: Rock})
	require.Equal(t, OutcomeDecisive, out.Kind)

	assert.Equal(t, before, remaining)
}

func TestResolve_EmptyRemaining(t *testing.T) {
	out := Resolve(nil, nil)

	assert.Equal(t, OutcomeVoid, out.Kind)
	assert.Empty(t, out.Survivors)
}

func TestResolve_NeverIncreasesOrEmpties(t *testing.T) {
	gen := NewMoveGenerator(nil)

	for n := MinParticipants; n <= MaxParticipants; n++ {
		remaining := players(n)
		for range 200 {
			out := Resolve(remaining, gen.Assign(remaining))

			require.NotEmpty(t, out.Survivors)
			require.LessOrEqual(t, len(out.Survivors), len(remaining))
			if !out.IsTie() {
				require.Less(t, len(out.Survivors), len(remaining))
			}
			assert.Equal(t, len(remaining), len(out.Survivors)+len(out.Eliminated))
		}
	}
}
