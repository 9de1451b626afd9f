package session

import (
	"sort"

	"github.com/planetxonline/server/pkg/games"
	"github.com/planetxonline/server/pkg/session/types"
)

// occupiedSectors returns the distinct sectors players stand on, ascending.
func occupiedSectors(players []*types.Player) []int {
	seen := make(map[int]bool, len(players))
	var sectors []int
	for _, p := range players {
		if !seen[p.Sector] {
			seen[p.Sector] = true
			sectors = append(sectors, p.Sector)
		}
	}
	sort.Ints(sectors)
	return sectors
}

// largestGap finds the biggest empty stretch between consecutive occupied
// sectors and returns the sectors before and after it. With one occupied
// sector the whole ring is the gap and both ends are that sector. Equal
// gaps resolve to the end sector nearest ahead of current.
func largestGap(sectors []int, boardSize, current int) (before, after int) {
	if len(sectors) == 1 {
		return sectors[0], sectors[0]
	}
	bestGap := -1
	bestDist := boardSize + 1
	for i, s := range sectors {
		prev := sectors[(i+len(sectors)-1)%len(sectors)]
		gap := ((s - prev) % boardSize + boardSize) % boardSize
		if gap == 0 {
			gap = boardSize
		}
		dist := ((s - current) % boardSize + boardSize) % boardSize
		if gap > bestGap || (gap == bestGap && dist < bestDist) {
			bestGap = gap
			bestDist = dist
			before, after = prev, s
		}
	}
	return before, after
}

// rearmostPlayer picks who acts next: the player just past the largest
// empty stretch, lowest arrival first when a sector is shared.
func rearmostPlayer(players []*types.Player, boardSize, current int) *types.Player {
	_, sector := largestGap(occupiedSectors(players), boardSize, current)
	var next *types.Player
	for _, p := range players {
		if p.Sector != sector {
			continue
		}
		if next == nil || p.Arrival < next.Arrival {
			next = p
		}
	}
	return next
}

// leadingEdge is the sector of the furthest-ahead player: the one the
// largest empty stretch begins at.
func leadingEdge(players []*types.Player, boardSize, current int) int {
	sector, _ := largestGap(occupiedSectors(players), boardSize, current)
	return sector
}

// sectorsBehind measures the circular distance from the leading edge back
// to a player. Zero for the leader and for unknown players.
func sectorsBehind(players []*types.Player, boardSize int, playerID int64) int {
	if len(players) == 0 {
		return 0
	}
	var target *types.Player
	for _, p := range players {
		if p.ID == playerID {
			target = p
		}
	}
	if target == nil {
		return 0
	}
	leader := leadingEdge(players, boardSize, target.Sector)
	return ((leader - target.Sector) % boardSize + boardSize) % boardSize
}

// distanceTo finds how far ahead of current the next listed sector lies.
// skipCurrent starts the search one sector ahead. Returns boardSize+1 when
// the list is empty.
func distanceTo(sectors []int, boardSize, current int, skipCurrent bool) int {
	start := 0
	if skipCurrent {
		start = 1
	}
	for d := start; d <= boardSize; d++ {
		s := (current + d) % boardSize
		for _, cp := range sectors {
			if cp == s {
				return d
			}
		}
	}
	return boardSize + 1
}

// nextAction decides the next game event from the players' positions and
// the phase that just completed.
//
// The candidate is a turn for the player trailing the pack. A theory
// checkpoint at or before that player's sector preempts it; during the
// first rotation a conference sector can preempt both. A phase that just
// completed on its own trigger sector does not re-trigger.
func nextAction(players []*types.Player, bt *games.BoardType, currentSector int, currentAction types.Action, firstRotation bool) (types.Action, int, bool) {
	turn := currentAction.Turn + 1
	if len(players) == 0 {
		return types.Action{Type: types.ActionEndGame, Subject: types.ForAllActive(), Turn: turn}, currentSector, firstRotation
	}

	n := bt.BoardSize
	next := rearmostPlayer(players, n, currentSector)
	dist := ((next.Sector - currentSector) % n + n) % n
	action := types.Action{Type: types.ActionPlayerTurn, Subject: types.ForPlayer(next.ID), Turn: turn}

	justCompleted := currentAction.Type == types.ActionTheoryPhase || currentAction.Type == types.ActionConferencePhase
	theoryDist := distanceTo(bt.TheoryPhases, n, currentSector, justCompleted)
	if theoryDist < dist {
		dist = theoryDist
		action = types.Action{Type: types.ActionTheoryPhase, Subject: types.ForAllActive(), Turn: turn}
	}

	if firstRotation {
		confDist := distanceTo(bt.ConferencePhases, n, currentSector,
			currentAction.Type == types.ActionConferencePhase)
		if confDist < dist {
			dist = confDist
			action = types.Action{Type: types.ActionConferencePhase, Subject: types.ForAllActive(), Turn: turn}
		}
	}

	sector := (currentSector + dist) % n
	stillFirst := firstRotation && currentSector+dist < n
	return action, sector, stillFirst
}
