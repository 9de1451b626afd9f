package session

import (
	"sort"

	"github.com/planetxonline/server/pkg/games"
	"github.com/planetxonline/server/pkg/session/types"
)

// computeScores derives every player's score from the full snapshot. While
// the game is running only revealed theories count; once it has ended every
// accurate theory counts regardless of reveal state.
func computeScores(players []*types.Player, theories []*types.Theory, history []types.Turn, bt *games.BoardType, gameOver bool) map[int64]*types.Score {
	scores := make(map[int64]*types.Score, len(players))
	for _, p := range players {
		scores[p.ID] = types.NewScore(p.ID, bt.ScoreValues)
	}

	var eligible []*types.Theory
	for _, t := range theories {
		if t.Accurate && (gameOver || t.Revealed()) {
			eligible = append(eligible, t)
		}
	}

	// First-claimant bonus: deeper claims outrank shallower ones, earlier
	// submissions win at equal depth, one point per sector.
	ordered := make([]*types.Theory, len(eligible))
	copy(ordered, eligible)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Progress != ordered[j].Progress {
			return ordered[i].Progress > ordered[j].Progress
		}
		return ordered[i].Turn < ordered[j].Turn
	})
	claimed := make(map[int]bool)
	for _, t := range ordered {
		if claimed[t.Sector] {
			continue
		}
		claimed[t.Sector] = true
		if score, ok := scores[t.PlayerID]; ok {
			score.AddFirstPoint()
		}
	}

	for _, t := range eligible {
		if score, ok := scores[t.PlayerID]; ok {
			// Eligible theories always carry a scoreable object type.
			_ = score.AddObjectPoints(t.Object.Initial)
		}
	}

	// Locate bonuses: full value for the first finder, time-based for
	// everyone who finds Planet X afterwards.
	active := make([]*types.Player, 0, len(players))
	for _, p := range players {
		if !p.Kicked {
			active = append(active, p)
		}
	}
	first := true
	found := make(map[int64]bool)
	for _, turn := range history {
		locate, ok := turn.(*types.LocateTurn)
		if !ok || !locate.Successful || found[locate.PlayerID] {
			continue
		}
		found[locate.PlayerID] = true
		score, ok := scores[locate.PlayerID]
		if !ok {
			continue
		}
		if first {
			score.PlanetXPoints = bt.PlanetXBonus
			first = false
		} else {
			score.PlanetXPoints = 2 * sectorsBehind(active, bt.BoardSize, locate.PlayerID)
		}
	}

	return scores
}
