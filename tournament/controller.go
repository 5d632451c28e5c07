/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package tournament

import (
	"errors"
	"maps"
	"time"
)

var (
	ErrNotInSetup      = errors.New("tournament already started")
	ErrNotPlaying      = errors.New("tournament is not in play")
	ErrRoundInProgress = errors.New("round already in progress")
	ErrInvalidRoster   = errors.New("invalid roster")
)

type Phase string

const (
	PhaseSetup    Phase = "setup"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

type RoundPhase string

const (
	RoundWaiting   RoundPhase = "waiting"
	RoundCountdown RoundPhase = "countdown"
	RoundRevealing RoundPhase = "revealing"
	RoundResolved  RoundPhase = "resolved"
)

// Timing holds the fixed delays between round phases.
type Timing struct {
	CountdownSteps int
	CountdownTick  time.Duration
	RevealDelay    time.Duration
	ResultDelay    time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		CountdownSteps: 3,
		CountdownTick:  time.Second,
		RevealDelay:    time.Second,
		ResultDelay:    3 * time.Second,
	}
}

type Round struct {
	Number    int           `json:"number"`
	Phase     RoundPhase    `json:"phase"`
	Countdown int           `json:"countdown"`
	Remaining []Participant `json:"remaining"`
	Choices   map[int]Move  `json:"choices,omitempty"`
	Outcome   *Outcome      `json:"outcome,omitempty"`
}

type RoundRecord struct {
	Number  int          `json:"number"`
	Choices map[int]Move `json:"choices"`
	Outcome Outcome      `json:"outcome"`
}

type State struct {
	Phase   Phase         `json:"phase"`
	Roster  []Participant `json:"roster,omitempty"`
	Round   Round         `json:"round"`
	Winner  *Participant  `json:"winner,omitempty"`
	History []RoundRecord `json:"history,omitempty"`
}

// Clone returns a deep copy that shares nothing with s.
func (s State) Clone() State {
	out := s
	out.Roster = cloneParticipants(s.Roster)
	out.Round.Remaining = cloneParticipants(s.Round.Remaining)
	out.Round.Choices = maps.Clone(s.Round.Choices)

	if s.Round.Outcome != nil {
		o := cloneOutcome(*s.Round.Outcome)
		out.Round.Outcome = &o
	}

	if s.Winner != nil {
		w := *s.Winner
		out.Winner = &w
	}

	if s.History != nil {
		out.History = make([]RoundRecord, len(s.History))
		for i, r := range s.History {
			out.History[i] = RoundRecord{
				Number:  r.Number,
				Choices: maps.Clone(r.Choices),
				Outcome: cloneOutcome(r.Outcome),
			}
		}
	}

	return out
}

func cloneParticipants(ps []Participant) []Participant {
	if ps == nil {
		return nil
	}
	return append([]Participant(nil), ps...)
}

func cloneOutcome(o Outcome) Outcome {
	o.Survivors = cloneParticipants(o.Survivors)
	o.Eliminated = cloneParticipants(o.Eliminated)
	return o
}

type EventKind string

const (
	EventTournamentStarted EventKind = "tournament_started"
	EventCountdown         EventKind = "countdown"
	EventRevealed          EventKind = "revealed"
	EventResolved          EventKind = "resolved"
	EventRoundAdvanced     EventKind = "round_advanced"
	EventFinished          EventKind = "finished"
	EventRestarted         EventKind = "restarted"
)

// Update is emitted after every state transition.
type Update struct {
	Event EventKind
	State State
}

type Observer func(Update)

// Controller owns one tournament and advances it through its phases. It is
// not safe for concurrent use; every call, including Scheduler callbacks,
// must happen on one goroutine.
type Controller struct {
	state   State
	sched   Scheduler
	moves   *MoveGenerator
	timing  Timing
	observe Observer

	pending Timer
	gen     uint64
}

func NewController(sched Scheduler, moves *MoveGenerator, timing Timing, observe Observer) *Controller {
	if moves == nil {
		moves = NewMoveGenerator(nil)
	}
	if observe == nil {
		observe = func(Update) {}
	}

	return &Controller{
		state:   State{Phase: PhaseSetup},
		sched:   sched,
		moves:   moves,
		timing:  timing,
		observe: observe,
	}
}

func (c *Controller) State() State {
	return c.state.Clone()
}

// StartTournament moves from setup to playing with roster as round 1.
func (c *Controller) StartTournament(roster []Participant) (State, error) {
	if c.state.Phase != PhaseSetup {
		return c.State(), ErrNotInSetup
	}

	if err := validateRoster(roster); err != nil {
		return c.State(), err
	}

	players := cloneParticipants(roster)
	for i := range players {
		players[i].Eliminated = false
	}

	c.state = State{
		Phase:  PhasePlaying,
		Roster: players,
		Round: Round{
			Number:    1,
			Phase:     RoundWaiting,
			Remaining: cloneParticipants(players),
		},
	}

	c.emit(EventTournamentStarted)

	return c.State(), nil
}

func validateRoster(roster []Participant) error {
	if len(roster) < MinParticipants || len(roster) > MaxParticipants {
		return ErrInvalidRoster
	}

	ids := make(map[int]bool, len(roster))
	for _, p := range roster {
		if p.Name == "" || ids[p.ID] {
			return ErrInvalidRoster
		}
		ids[p.ID] = true
	}

	return nil
}

// StartRound begins the countdown. Later phases are delivered to the
// Observer as their timers fire.
func (c *Controller) StartRound() error {
	if c.state.Phase != PhasePlaying {
		return ErrNotPlaying
	}
	if c.state.Round.Phase != RoundWaiting {
		return ErrRoundInProgress
	}

	r := &c.state.Round
	r.Phase = RoundCountdown
	r.Countdown = max(c.timing.CountdownSteps, 0)
	r.Choices = nil
	r.Outcome = nil

	c.emit(EventCountdown)
	c.schedule(c.timing.CountdownTick, c.tick)

	return nil
}

// Restart discards the tournament from any phase and returns to setup.
func (c *Controller) Restart() State {
	c.cancel()

	c.state = State{Phase: PhaseSetup}

	c.emit(EventRestarted)

	return c.State()
}

func (c *Controller) tick() {
	r := &c.state.Round

	r.Countdown--
	if r.Countdown > 0 {
		c.emit(EventCountdown)
		c.schedule(c.timing.CountdownTick, c.tick)
		return
	}

	r.Countdown = 0
	c.reveal()
}

func (c *Controller) reveal() {
	r := &c.state.Round

	r.Choices = c.moves.Assign(r.Remaining)
	r.Phase = RoundRevealing

	c.emit(EventRevealed)
	c.schedule(c.timing.RevealDelay, c.resolve)
}

func (c *Controller) resolve() {
	r := &c.state.Round

	outcome := Resolve(r.Remaining, r.Choices)
	r.Outcome = &outcome
	r.Phase = RoundResolved

	c.state.History = append(c.state.History, RoundRecord{
		Number:  r.Number,
		Choices: maps.Clone(r.Choices),
		Outcome: cloneOutcome(outcome),
	})

	c.emit(EventResolved)
	c.schedule(c.timing.ResultDelay, c.advance)
}

func (c *Controller) advance() {
	r := &c.state.Round
	outcome := r.Outcome

	if outcome != nil && !outcome.IsTie() {
		r.Remaining = cloneParticipants(outcome.Survivors)
		for _, out := range outcome.Eliminated {
			for i := range c.state.Roster {
				if c.state.Roster[i].ID == out.ID {
					c.state.Roster[i].Eliminated = true
				}
			}
		}
	}

	r.Number++
	r.Choices = nil
	r.Outcome = nil

	if len(r.Remaining) == 1 {
		winner := r.Remaining[0]
		c.state.Winner = &winner
		c.state.Phase = PhaseFinished
		r.Phase = RoundResolved

		c.emit(EventFinished)
		return
	}

	r.Phase = RoundWaiting
	c.emit(EventRoundAdvanced)
}

// schedule replaces the pending timer. Callbacks from replaced timers that
// already fired are ignored through the generation check.
func (c *Controller) schedule(d time.Duration, fn func()) {
	c.cancel()

	gen := c.gen
	c.pending = c.sched.AfterFunc(d, func() {
		if gen != c.gen {
			return
		}
		c.pending = nil
		fn()
	})
}

func (c *Controller) cancel() {
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	c.gen++
}

func (c *Controller) emit(kind EventKind) {
	c.observe(Update{Event: kind, State: c.State()})
}
