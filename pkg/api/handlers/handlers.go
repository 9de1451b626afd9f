package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/planetxonline/server/pkg/log"
	"github.com/planetxonline/server/pkg/notifier"
	"github.com/planetxonline/server/pkg/session"
	"github.com/planetxonline/server/pkg/session/types"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9 ]+$`)

func validName(name string) bool {
	return len(name) >= 1 && len(name) <= 16 && nameRegex.MatchString(name)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response: %v", err)
	}
}

// writeOutcome reports a rejected intent. The reason is advisory; clients
// resynchronize from the next published view.
func writeOutcome(w http.ResponseWriter, out session.Outcome) {
	writeJSON(w, http.StatusConflict, out)
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	return id, err == nil
}

func HandleCreateSession(manager *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			BoardSize int    `json:"boardSize"`
			Name      string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Failed to parse request body", http.StatusBadRequest)
			return
		}
		if !validName(req.Name) {
			http.Error(w, "Name must be 1 to 16 letters, digits or spaces", http.StatusBadRequest)
			return
		}
		info, err := manager.CreateSession(r.Context(), nil, req.BoardSize, req.Name)
		if err != nil {
			log.Error("failed to create session: %v", err)
			http.Error(w, "Failed to create session", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, info)
	}
}

func HandleJoinSession(manager *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			SessionCode string `json:"sessionCode"`
			Name        string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Failed to parse request body", http.StatusBadRequest)
			return
		}
		if !validName(req.Name) {
			http.Error(w, "Name must be 1 to 16 letters, digits or spaces", http.StatusBadRequest)
			return
		}
		info, out, err := manager.JoinSession(r.Context(), nil, req.SessionCode, req.Name)
		if err != nil {
			log.Error("failed to join session: %v", err)
			http.Error(w, "Failed to join session", http.StatusInternalServerError)
			return
		}
		if !out.Allowed {
			writeOutcome(w, out)
			return
		}
		writeJSON(w, http.StatusOK, info)
	}
}

func HandleGetSession(manager *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := pathID(r, "sessionID")
		if !ok {
			http.Error(w, "Failed to parse sessionID", http.StatusBadRequest)
			return
		}
		view, err := manager.SessionView(r.Context(), nil, sessionID)
		if err != nil {
			log.Error("failed to build view for session %d: %v", sessionID, err)
			http.Error(w, "Failed to load session", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// HandleGetGame serves the session's static game content: the board, the
// research and conference rules and the seasonal starting clues.
func HandleGetGame(manager *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := pathID(r, "sessionID")
		if !ok {
			http.Error(w, "Failed to parse sessionID", http.StatusBadRequest)
			return
		}
		view, err := manager.GameView(r.Context(), nil, sessionID)
		if err != nil {
			log.Error("failed to load game for session %d: %v", sessionID, err)
			http.Error(w, "Failed to load game", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func HandleStartSession(manager *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := pathID(r, "sessionID")
		if !ok {
			http.Error(w, "Failed to parse sessionID", http.StatusBadRequest)
			return
		}
		var req struct {
			PlayerID int64 `json:"playerID"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Failed to parse request body", http.StatusBadRequest)
			return
		}
		out, err := manager.StartSession(r.Context(), nil, sessionID, req.PlayerID)
		if err != nil {
			log.Error("failed to start session %d: %v", sessionID, err)
			http.Error(w, "Failed to start session", http.StatusInternalServerError)
			return
		}
		if !out.Allowed {
			writeOutcome(w, out)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// HandleSubmitMove accepts a survey, target, research or locate intent as
// a turn code plus its time cost in sectors.
func HandleSubmitMove(manager *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := pathID(r, "sessionID")
		if !ok {
			http.Error(w, "Failed to parse sessionID", http.StatusBadRequest)
			return
		}
		var req struct {
			PlayerID   int64  `json:"playerID"`
			TurnNumber int    `json:"turnNumber"`
			Turn       string `json:"turn"`
			TimeCost   int    `json:"timeCost"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Failed to parse request body", http.StatusBadRequest)
			return
		}
		turn, err := types.ParseTurn(req.Turn, req.TurnNumber, req.PlayerID, time.Now())
		if err != nil {
			http.Error(w, "Failed to parse turn", http.StatusBadRequest)
			return
		}
		if req.TimeCost < 0 {
			http.Error(w, "Time cost cannot be negative", http.StatusBadRequest)
			return
		}
		out, err := manager.SubmitMove(r.Context(), nil, sessionID, req.PlayerID, turn, req.TimeCost)
		if err != nil {
			log.Error("failed to submit move in session %d: %v", sessionID, err)
			http.Error(w, "Failed to submit move", http.StatusInternalServerError)
			return
		}
		if !out.Allowed {
			writeOutcome(w, out)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func HandleSubmitTheories(manager *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := pathID(r, "sessionID")
		if !ok {
			http.Error(w, "Failed to parse sessionID", http.StatusBadRequest)
			return
		}
		var req struct {
			PlayerID   int64 `json:"playerID"`
			TurnNumber int   `json:"turnNumber"`
			Theories   []struct {
				Object string `json:"object"`
				Sector int    `json:"sector"`
			} `json:"theories"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Failed to parse request body", http.StatusBadRequest)
			return
		}
		theories := make([]*types.Theory, 0, len(req.Theories))
		for _, t := range req.Theories {
			theory, err := types.ParseTheory(t.Object, t.Sector)
			if err != nil {
				http.Error(w, "Failed to parse theory", http.StatusBadRequest)
				return
			}
			theories = append(theories, theory)
		}
		out, err := manager.SubmitTheories(r.Context(), nil, sessionID, req.PlayerID, theories, req.TurnNumber)
		if err != nil {
			log.Error("failed to submit theories in session %d: %v", sessionID, err)
			http.Error(w, "Failed to submit theories", http.StatusInternalServerError)
			return
		}
		if !out.Allowed {
			writeOutcome(w, out)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func HandleAcknowledgeConference(manager *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := pathID(r, "sessionID")
		if !ok {
			http.Error(w, "Failed to parse sessionID", http.StatusBadRequest)
			return
		}
		var req struct {
			PlayerID int64 `json:"playerID"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Failed to parse request body", http.StatusBadRequest)
			return
		}
		out, err := manager.AcknowledgeConference(r.Context(), nil, sessionID, req.PlayerID)
		if err != nil {
			log.Error("failed to acknowledge conference in session %d: %v", sessionID, err)
			http.Error(w, "Failed to acknowledge conference", http.StatusInternalServerError)
			return
		}
		if !out.Allowed {
			writeOutcome(w, out)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func HandleCastKickVote(manager *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := pathID(r, "sessionID")
		if !ok {
			http.Error(w, "Failed to parse sessionID", http.StatusBadRequest)
			return
		}
		var req struct {
			VoterID  int64 `json:"voterID"`
			TargetID int64 `json:"targetID"`
			Vote     bool  `json:"vote"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Failed to parse request body", http.StatusBadRequest)
			return
		}
		out, err := manager.CastKickVote(r.Context(), nil, sessionID, req.VoterID, req.TargetID, req.Vote)
		if err != nil {
			log.Error("failed to cast kick vote in session %d: %v", sessionID, err)
			http.Error(w, "Failed to cast kick vote", http.StatusInternalServerError)
			return
		}
		if !out.Allowed {
			writeOutcome(w, out)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func HandleSetPlayerColor(manager *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, ok := pathID(r, "playerID")
		if !ok {
			http.Error(w, "Failed to parse playerID", http.StatusBadRequest)
			return
		}
		var req struct {
			Color string `json:"color"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Failed to parse request body", http.StatusBadRequest)
			return
		}
		if req.Color == "" {
			http.Error(w, "Color is required", http.StatusBadRequest)
			return
		}
		out, err := manager.SetPlayerColor(r.Context(), nil, playerID, req.Color)
		if err != nil {
			log.Error("failed to set color for player %d: %v", playerID, err)
			http.Error(w, "Failed to set color", http.StatusInternalServerError)
			return
		}
		if !out.Allowed {
			writeOutcome(w, out)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// HandleSubscribe upgrades the request to a WebSocket subscription on the
// session's view stream.
func HandleSubscribe(hub *notifier.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := pathID(r, "sessionID")
		if !ok {
			http.Error(w, "Failed to parse sessionID", http.StatusBadRequest)
			return
		}
		playerID, err := strconv.ParseInt(r.URL.Query().Get("playerID"), 10, 64)
		if err != nil {
			http.Error(w, "Failed to parse playerID", http.StatusBadRequest)
			return
		}
		hub.HandleWS(w, r, sessionID, playerID)
	}
}
