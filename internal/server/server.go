package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"gamehub-backend/internal/domain"
	"gamehub-backend/internal/rules"
	"gamehub-backend/internal/service"

	"github.com/rs/zerolog"
)

// Server exposes the dashboard-facing JSON API as thin wrappers over
// the services.
type Server struct {
	games   *service.GameService
	players *service.PlayerService
	groups  *service.GroupService
	preview *service.PreviewService
	logger  zerolog.Logger
}

func New(
	games *service.GameService,
	players *service.PlayerService,
	groups *service.GroupService,
	preview *service.PreviewService,
	logger zerolog.Logger,
) *Server {
	return &Server{games: games, players: players, groups: groups, preview: preview, logger: logger}
}

func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/games", s.createGame)

	mux.HandleFunc("POST /v1/games/{gameID}/players", s.createPlayer)
	mux.HandleFunc("GET /v1/players/{playerID}", s.getPlayer)
	mux.HandleFunc("PATCH /v1/players/{playerID}", s.patchPlayer)

	mux.HandleFunc("POST /v1/games/{gameID}/player-groups", s.createGroup)
	mux.HandleFunc("GET /v1/games/{gameID}/player-groups", s.listGroups)
	mux.HandleFunc("GET /v1/games/{gameID}/player-groups/preview-count", s.previewCount)
	mux.HandleFunc("GET /v1/player-groups/{groupID}", s.getGroup)
	mux.HandleFunc("PUT /v1/player-groups/{groupID}", s.updateGroup)
	mux.HandleFunc("DELETE /v1/player-groups/{groupID}", s.deleteGroup)
	mux.HandleFunc("GET /v1/player-groups/{groupID}/members", s.listMembers)

	return mux
}

func (s *Server) createGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		s.writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	game, err := s.games.Create(r.Context(), req.Name)
	if err != nil {
		s.mapError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, game)
}

func (s *Server) createPlayer(w http.ResponseWriter, r *http.Request) {
	var req createPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	player, err := s.players.Create(r.Context(), r.PathValue("gameID"), req.DevBuild, req.Props)
	if err != nil {
		s.mapError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toPlayerResponse(*player))
}

func (s *Server) getPlayer(w http.ResponseWriter, r *http.Request) {
	player, err := s.players.Get(r.Context(), r.PathValue("playerID"))
	if err != nil {
		s.mapError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toPlayerResponse(*player))
}

func (s *Server) patchPlayer(w http.ResponseWriter, r *http.Request) {
	var req patchPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	player, err := s.players.Patch(r.Context(), r.PathValue("playerID"), service.PlayerPatch{
		SetProps:    req.SetProps,
		DeleteProps: req.DeleteProps,
		DevBuild:    req.DevBuild,
		TouchSeen:   req.TouchSeen,
	})
	if err != nil {
		s.mapError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toPlayerResponse(*player))
}

func (s *Server) createGroup(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		s.writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	group, err := s.groups.Create(r.Context(), r.PathValue("gameID"), req.toInput())
	if err != nil {
		s.mapError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toGroupResponse(*group, 0))
}

func (s *Server) updateGroup(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	group, err := s.groups.Update(r.Context(), r.PathValue("groupID"), req.toInput())
	if err != nil {
		s.mapError(w, err)
		return
	}

	count := 0
	if gc, err := s.groups.Get(r.Context(), group.ID); err == nil {
		count = gc.MemberCount
	}
	s.writeJSON(w, http.StatusOK, toGroupResponse(*group, count))
}

func (s *Server) deleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := s.groups.Delete(r.Context(), r.PathValue("groupID")); err != nil {
		s.mapError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getGroup(w http.ResponseWriter, r *http.Request) {
	group, err := s.groups.Get(r.Context(), r.PathValue("groupID"))
	if err != nil {
		s.mapError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toGroupResponse(group.Group, group.MemberCount))
}

func (s *Server) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.groups.ListByGame(r.Context(), r.PathValue("gameID"))
	if err != nil {
		s.mapError(w, err)
		return
	}

	out := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, toGroupResponse(g.Group, g.MemberCount))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"groups": out})
}

func (s *Server) listMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.groups.Members(r.Context(), r.PathValue("groupID"))
	if err != nil {
		s.mapError(w, err)
		return
	}

	out := make([]playerResponse, 0, len(members))
	for _, p := range members {
		out = append(out, toPlayerResponse(p))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"members": out})
}

// previewCount evaluates an ad-hoc rule set against the game's player
// population. ruleMode and a JSON-encoded rules array arrive as query
// parameters; nothing is persisted.
func (s *Server) previewCount(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("ruleMode")
	if mode == "" {
		mode = string(domain.RuleModeAnd)
	}

	var dtos []ruleDTO
	if raw := r.URL.Query().Get("rules"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &dtos); err != nil {
			s.writeError(w, http.StatusBadRequest, "rules must be a JSON array")
			return
		}
	}
	ruleSet := make([]domain.Rule, 0, len(dtos))
	for _, d := range dtos {
		ruleSet = append(ruleSet, d.toDomain())
	}

	count, err := s.preview.PreviewCount(r.Context(), r.PathValue("gameID"), domain.RuleMode(mode), ruleSet)
	if err != nil {
		s.mapError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) mapError(w http.ResponseWriter, err error) {
	var verr *rules.ValidationError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "not found")
	case errors.As(err, &verr), errors.Is(err, service.ErrInvalidRuleMode):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error().Err(err).Msg("request failed")
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}
