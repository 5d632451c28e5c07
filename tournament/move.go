/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package tournament

import (
	"math/rand/v2"
)

// Move is one of the three janken hands.
type Move string

const (
	Rock     Move = "rock"
	Paper    Move = "paper"
	Scissors Move = "scissors"
)

// Moves lists every valid move, in the order used to map random indexes.
var Moves = [3]Move{Rock, Paper, Scissors}

func (m Move) Valid() bool {
	switch m {
	case Rock, Paper, Scissors:
		return true
	}
	return false
}

// Beats reports whether m wins against other.
func (m Move) Beats(other Move) bool {
	switch m {
	case Rock:
		return other == Scissors
	case Scissors:
		return other == Paper
	case Paper:
		return other == Rock
	}
	return false
}

// RandomSource returns a uniformly distributed int in [0, n).
// *rand.Rand from math/rand/v2 satisfies it.
type RandomSource interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// MoveGenerator draws one independent move per participant per round.
type MoveGenerator struct {
	src RandomSource
}

// NewMoveGenerator wraps src; a nil src uses the process-wide generator.
func NewMoveGenerator(src RandomSource) *MoveGenerator {
	if src == nil {
		src = globalSource{}
	}
	return &MoveGenerator{src: src}
}

func (g *MoveGenerator) Next() Move {
	return Moves[g.src.IntN(len(Moves))]
}

// Assign returns a complete assignment for participants, keyed by id.
func (g *MoveGenerator) Assign(participants []Participant) map[int]Move {
	choices := make(map[int]Move, len(participants))
	for _, p := range participants {
		choices[p.ID] = g.Next()
	}
	return choices
}
