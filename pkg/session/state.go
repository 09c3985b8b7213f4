package session

import "strings"

// State is a step of the reconciliation session.
type State int

const (
	// Comparing runs a dry run from the source to the destination to find out
	// whether the trees differ.
	Comparing State = iota

	// ChoosingDirection asks which tree should win.
	ChoosingDirection

	// ConfirmingSync previews the chosen sync and asks for confirmation.
	ConfirmingSync

	// Watching pushes source changes to the destination until the process
	// is stopped.
	Watching

	// Terminated ends the session without syncing. It's not an error.
	Terminated
)

func (s State) String() string {
	switch s {
	case Comparing:
		return "Comparing"
	case ChoosingDirection:
		return "ChoosingDirection"
	case ConfirmingSync:
		return "ConfirmingSync"
	case Watching:
		return "Watching"
	case Terminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// Direction is the direction of a sync.
type Direction int

const (
	// NoDirection means that the user didn't pick a direction.
	NoDirection Direction = iota
	SourceToDestination
	DestinationToSource
)

func (d Direction) String() string {
	switch d {
	case SourceToDestination:
		return "source to destination"
	case DestinationToSource:
		return "destination to source"
	default:
		return "none"
	}
}

// AfterCompare returns the state following the initial comparison, given the
// number of entries the dry run reported.
func AfterCompare(changed int) State {
	if changed == 0 {
		return Watching
	}
	return ChoosingDirection
}

// ChooseDirection interprets the answer to the direction prompt. Anything
// other than `s` or `d` terminates the session.
func ChooseDirection(answer string) (Direction, State) {
	switch normalize(answer) {
	case "s":
		return SourceToDestination, ConfirmingSync
	case "d":
		return DestinationToSource, ConfirmingSync
	default:
		return NoDirection, Terminated
	}
}

// Confirm interprets the answer to the confirmation prompt. Only `y`
// proceeds with the sync, after which the session starts watching.
func Confirm(answer string) State {
	if normalize(answer) == "y" {
		return Watching
	}
	return Terminated
}

func normalize(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}
