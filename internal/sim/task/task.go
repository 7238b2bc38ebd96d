// Package task defines the closed outcome taxonomy for avatar actions and
// the classifier that maps a terminal condition of an action loop to its
// reported status.
package task

import "fmt"

// Status is the outcome of an avatar action. Every completed action reports
// exactly one of these; transport failures are errors, never statuses.
type Status string

const (
	Idle    Status = "idle"
	Ongoing Status = "ongoing"
	Success Status = "success"

	TooCloseToReach Status = "too_close_to_reach"
	TooFarToReach   Status = "too_far_to_reach"
	BehindAvatar    Status = "behind_avatar"
	NoLongerBending Status = "no_longer_bending"
	FailedToPickUp  Status = "failed_to_pick_up"
	TooLong         Status = "too_long"
	Overshot        Status = "overshot"
	CollidedHeavy   Status = "collided_with_something_heavy"
	CollidedEnv     Status = "collided_with_environment"
	BadRaycast      Status = "bad_raycast"
	FailedToTap     Status = "failed_to_tap"
	MittenCollision Status = "mitten_collision"
	NotInContainer  Status = "not_in_container"
	NotAContainer   Status = "not_a_container"
	FullContainer   Status = "full_container"
)

// Kind names an action family for classification purposes.
type Kind string

const (
	KindTurn  Kind = "turn"
	KindMove  Kind = "move"
	KindReach Kind = "reach"
	KindGrasp Kind = "grasp"
	KindDrop  Kind = "drop"
	KindReset Kind = "reset_arm"
	KindTap   Kind = "tap"
	KindPutIn Kind = "put_in_container"
)

// Terminal is the condition under which an action loop stopped.
type Terminal string

const (
	TermArrived       Terminal = "arrived"    // within stopping threshold
	TermOvershot      Terminal = "overshot"   // distance grew after shrinking
	TermHeavyHit      Terminal = "heavy_hit"  // body hit a heavy object
	TermEnvHit        Terminal = "env_hit"    // body hit the environment
	TermBudget        Terminal = "budget"     // attempt budget exhausted
	TermReached       Terminal = "reached"    // mitten within precision
	TermSettled       Terminal = "settled"    // moving set drained
	TermMittenHit     Terminal = "mitten_hit" // mitten hit a foreign object
	TermAttached      Terminal = "attached"   // object stuck to mitten
	TermHeld          Terminal = "held"       // already held, no-op
	TermReleased      Terminal = "released"   // drop issued
	TermContact       Terminal = "contact"    // mitten touched the target
	TermContained     Terminal = "contained"  // object settled inside
	TermNotContained  Terminal = "not_contained"
	TermTooClose      Terminal = "too_close"
	TermTooFar        Terminal = "too_far"
	TermBehind        Terminal = "behind"
	TermBadRaycast    Terminal = "bad_raycast"
	TermNotAContainer Terminal = "not_a_container"
	TermFullContainer Terminal = "full_container"
)

// Result is what a manipulation action hands back to the caller.
type Result struct {
	Status   Status `json:"status"`
	Arm      string `json:"arm,omitempty"`
	ObjectID int    `json:"object_id,omitempty"`
}

// outcomes maps every terminal condition reachable by each action kind to
// the status the caller sees. Kept total: Classify panics on a pair missing
// here, and ValidateClassifier is run by tests and at agent startup.
var outcomes = map[Kind]map[Terminal]Status{
	KindTurn: {
		TermArrived:  Success,
		TermHeavyHit: CollidedHeavy,
		TermEnvHit:   CollidedEnv,
		TermBudget:   TooLong,
	},
	KindMove: {
		TermArrived:  Success,
		TermOvershot: Overshot,
		TermHeavyHit: CollidedHeavy,
		TermEnvHit:   CollidedEnv,
		TermBudget:   TooLong,
	},
	KindReach: {
		TermReached:   Success,
		TermSettled:   NoLongerBending,
		TermBudget:    NoLongerBending,
		TermMittenHit: MittenCollision,
		TermTooClose:  TooCloseToReach,
		TermTooFar:    TooFarToReach,
		TermBehind:    BehindAvatar,
	},
	KindGrasp: {
		TermAttached:   Success,
		TermHeld:       Success,
		TermReached:    FailedToPickUp,
		TermSettled:    FailedToPickUp,
		TermBudget:     FailedToPickUp,
		TermMittenHit:  MittenCollision,
		TermTooClose:   TooCloseToReach,
		TermTooFar:     TooFarToReach,
		TermBehind:     BehindAvatar,
		TermBadRaycast: BadRaycast,
	},
	KindDrop: {
		TermReleased: Success,
	},
	KindReset: {
		TermReached: Success,
		TermSettled: NoLongerBending,
		TermBudget:  NoLongerBending,
	},
	KindTap: {
		TermContact:    Success,
		TermReached:    FailedToTap,
		TermSettled:    FailedToTap,
		TermBudget:     FailedToTap,
		TermTooClose:   TooCloseToReach,
		TermTooFar:     TooFarToReach,
		TermBehind:     BehindAvatar,
		TermBadRaycast: BadRaycast,
	},
	KindPutIn: {
		TermContained:     Success,
		TermNotContained:  NotInContainer,
		TermNotAContainer: NotAContainer,
		TermFullContainer: FullContainer,
	},
}

// Classify resolves the status of an action that stopped with term.
func Classify(kind Kind, term Terminal) Status {
	m, ok := outcomes[kind]
	if !ok {
		panic(fmt.Sprintf("task: unknown kind %q", kind))
	}
	s, ok := m[term]
	if !ok {
		panic(fmt.Sprintf("task: kind %q has no outcome for terminal %q", kind, term))
	}
	return s
}

// ValidateClassifier checks the outcome table is well formed: every kind is
// present and no pair resolves to a non-final status.
func ValidateClassifier() error {
	kinds := []Kind{KindTurn, KindMove, KindReach, KindGrasp, KindDrop, KindReset, KindTap, KindPutIn}
	for _, k := range kinds {
		m, ok := outcomes[k]
		if !ok {
			return fmt.Errorf("task: kind %q missing from outcome table", k)
		}
		if len(m) == 0 {
			return fmt.Errorf("task: kind %q has an empty outcome table", k)
		}
		for term, s := range m {
			if s == Ongoing || s == Idle {
				return fmt.Errorf("task: kind %q terminal %q resolves to non-final status %q", k, term, s)
			}
		}
	}
	if len(outcomes) != len(kinds) {
		return fmt.Errorf("task: outcome table has %d kinds, want %d", len(outcomes), len(kinds))
	}
	return nil
}

// Final reports whether s is a completed-action status.
func Final(s Status) bool { return s != Idle && s != Ongoing }
