/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package tournament

import (
	"fmt"
	"strings"
)

const (
	MinParticipants = 2
	MaxParticipants = 10
)

type Participant struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Eliminated bool   `json:"eliminated"`
}

// DefaultName formats the placeholder used for a blank name at a 1-based index.
type DefaultName func(index int) string

func EnglishDefaultName(index int) string {
	return fmt.Sprintf("Participant %d", index)
}

// ClampCount forces n into [MinParticipants, MaxParticipants].
func ClampCount(n int) int {
	return min(max(n, MinParticipants), MaxParticipants)
}

// BuildRoster creates ClampCount(n) participants with ids 1..n. Names are
// trimmed; blank or missing names are replaced using defaultName, or
// EnglishDefaultName when defaultName is nil. Extra names are ignored.
func BuildRoster(n int, names []string, defaultName DefaultName) []Participant {
	if defaultName == nil {
		defaultName = EnglishDefaultName
	}

	n = ClampCount(n)

	roster := make([]Participant, n)
	for i := range roster {
		name := ""
		if i < len(names) {
			name = strings.TrimSpace(names[i])
		}
		if name == "" {
			name = defaultName(i + 1)
		}

		roster[i] = Participant{
			ID:   i + 1,
			Name: name,
		}
	}

	return roster
}
