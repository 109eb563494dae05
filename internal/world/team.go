package world

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
)

// Team identifies one of the two competing sides.
type Team uint8

const (
	TeamRed Team = iota
	TeamBlue
)

// NumTeams is the number of teams in a contest.
const NumTeams = 2

// Teams lists every team in a fixed order.
var Teams = [NumTeams]Team{TeamRed, TeamBlue}

// String returns the lowercase team color.
func (t Team) String() string {
	switch t {
	case TeamRed:
		return "red"
	case TeamBlue:
		return "blue"
	default:
		return fmt.Sprintf("team(%d)", uint8(t))
	}
}

// ParseTeam converts a team color name into a Team.
func ParseTeam(s string) (Team, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "red":
		return TeamRed, nil
	case "blue":
		return TeamBlue, nil
	}
	return 0, fmt.Errorf("unknown team %q", s)
}

// MarshalText encodes the team as its color name.
func (t Team) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a team color name.
func (t *Team) UnmarshalText(b []byte) error {
	parsed, err := ParseTeam(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Base is a team's fixed delivery point. Bases are compared by identity:
// a drone delivers only to the *Base it was created with.
type Base struct {
	Team     Team      `json:"team"`
	Position orb.Point `json:"position"`
	Radius   float64   `json:"radius"` // Contact radius
}

// NewBase creates a base for a team.
func NewBase(team Team, pos orb.Point, radius float64) *Base {
	return &Base{Team: team, Position: pos, Radius: radius}
}

// String returns a short description of the base.
func (b *Base) String() string {
	return fmt.Sprintf("%s base (%.2f, %.2f)", b.Team, b.Position[0], b.Position[1])
}
