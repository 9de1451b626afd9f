package session

import (
	"fmt"

	"github.com/planetxonline/server/pkg/games"
	"github.com/planetxonline/server/pkg/session/types"
)

// Outcome is the structured result of a validation check. A denied intent
// is a normal result, not an error: the caller may safely retry, and no
// state changed.
type Outcome struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func allowed() Outcome {
	return Outcome{Allowed: true}
}

func denied(format string, args ...interface{}) Outcome {
	return Outcome{Reason: fmt.Sprintf(format, args...)}
}

// validateIntent checks a player's claimed turn against their single
// pending action. The (turn, actionType) pair is the optimistic
// concurrency token: a resubmission or duplicate retry fails here and
// changes nothing.
func validateIntent(pending *types.Action, claimedTurn int, accepts ...types.ActionType) Outcome {
	if pending == nil {
		return denied("no action is pending for this player")
	}
	if pending.Turn != claimedTurn {
		return denied("stale turn %d, the pending action is turn %d", claimedTurn, pending.Turn)
	}
	for _, t := range accepts {
		if pending.Type == t {
			return allowed()
		}
	}
	return denied("pending action %s does not accept this intent", pending.Type)
}

// validateTheories applies the submission caps and uniqueness rules:
// no more claims on an object type than copies on the board, no duplicate
// (sector, object) pair per player, no claims on sectors whose contents
// are already public knowledge, only scoreable object types.
func validateTheories(existing []*types.Theory, submitted []*types.Theory, playerID int64, bt *games.BoardType, maxTheories int) Outcome {
	if len(submitted) > maxTheories {
		return denied("at most %d theories may be submitted", maxTheories)
	}

	revealedSectors := make(map[int]bool)
	objectCounts := make(map[string]int)
	pairs := make(map[[2]int]bool)
	for _, t := range existing {
		if t.Revealed() && t.Accurate {
			revealedSectors[t.Sector] = true
		}
		if t.PlayerID != playerID {
			continue
		}
		// A disproven claim no longer holds a copy of the object.
		if !t.Revealed() || t.Accurate {
			objectCounts[t.Object.Initial]++
		}
		pairs[[2]int{t.Sector, int(t.Object.Initial[0])}] = true
	}

	for _, t := range submitted {
		if _, ok := bt.ScoreValues[t.Object.Initial]; !ok {
			return denied("cannot submit a theory about %s", t.Object.Name)
		}
		if t.Sector < 0 || t.Sector >= bt.BoardSize {
			return denied("sector %d is not on the board", t.Sector)
		}
		if revealedSectors[t.Sector] {
			return denied("sector %d is already revealed", t.Sector+1)
		}
		pair := [2]int{t.Sector, int(t.Object.Initial[0])}
		if pairs[pair] {
			return denied("duplicate theory for sector %d", t.Sector+1)
		}
		pairs[pair] = true
		objectCounts[t.Object.Initial]++
		if objectCounts[t.Object.Initial] > bt.NumObjects[t.Object.Initial] {
			return denied("too many active theories for %s", t.Object.Plural())
		}
	}
	return allowed()
}

// kickQuorumReached applies the half-count threshold: votes in favor from
// active players must reach activePlayers/2, exact half included.
func kickQuorumReached(votes []types.KickVote, active []*types.Player, targetID int64) bool {
	activeIDs := make(map[int64]bool, len(active))
	for _, p := range active {
		activeIDs[p.ID] = true
	}
	inFavor := 0
	for _, v := range votes {
		if v.KickPlayerID == targetID && v.Vote && activeIDs[v.VotePlayerID] {
			inFavor++
		}
	}
	return 2*inFavor >= len(active)
}

// lastActionTheoryCap trims the final submission for players close to the
// leading edge: two theories when three or more sectors behind, else one.
func lastActionTheoryCap(behind int) int {
	if behind >= 3 {
		return 2
	}
	return 1
}
