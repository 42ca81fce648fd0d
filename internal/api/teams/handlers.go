// internal/api/teams/handlers.go
package teams

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/slapshotlabs/rinkside/internal/api/apiutil"
	"github.com/slapshotlabs/rinkside/internal/api/authz"
	"github.com/slapshotlabs/rinkside/internal/roster"
	"github.com/slapshotlabs/rinkside/internal/store"
)

const queryTimeout = 5 * time.Second

// Handlers serves team and roster endpoints. Reads are open to any
// authenticated caller with a role; writes need league management rights.
type Handlers struct {
	store *store.Store
	rng   *rand.Rand
}

func NewHandlers(st *store.Store) *Handlers {
	return &Handlers{
		store: st,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type teamView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	City string `json:"city"`
}

// HandleListTeams returns all teams. GET /api/v1/teams
func (h *Handlers) HandleListTeams(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if !apiutil.RequireRole(w, r) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	teams, err := h.store.ListTeams(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list teams")
		apiutil.WriteError(w, http.StatusInternalServerError, "failed to list teams", "")
		return
	}

	views := make([]teamView, 0, len(teams))
	for _, t := range teams {
		views = append(views, teamView{ID: t.ID, Name: t.Name, City: t.City})
	}
	apiutil.WriteJSON(w, http.StatusOK, map[string]any{"teams": views})
}

type createTeamRequest struct {
	Name string `json:"name"`
	City string `json:"city"`
}

// HandleCreateTeam registers a team under a canonical id derived from its
// name. POST /api/v1/teams
func (h *Handlers) HandleCreateTeam(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if !apiutil.RequireRole(w, r, authz.RoleAdmin, authz.RoleCommissioner) {
		return
	}

	var req createTeamRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid request body", "name is required")
		return
	}

	id := roster.NormalizeTeamID(req.Name)
	if id == "" {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid request body", "name has no usable characters")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	if err := h.store.CreateTeam(ctx, id, req.Name, strings.TrimSpace(req.City)); err != nil {
		logger.Error().Err(err).Str("team_id", id).Msg("Failed to create team")
		apiutil.WriteError(w, http.StatusInternalServerError, "failed to create team", "")
		return
	}

	logger.Info().Str("team_id", id).Msg("Team created")
	apiutil.WriteJSON(w, http.StatusCreated, teamView{ID: id, Name: req.Name, City: strings.TrimSpace(req.City)})
}

type playerView struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Position     string `json:"position"`
	JerseyNumber int64  `json:"jersey_number"`
	HeightCM     int64  `json:"height_cm"`
	WeightKG     int64  `json:"weight_kg"`
}

// HandleRoster returns a team's players. GET /api/v1/teams/{id}/roster
func (h *Handlers) HandleRoster(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if !apiutil.RequireRole(w, r) {
		return
	}

	teamID := r.PathValue("id")

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	team, err := h.store.GetTeam(ctx, teamID)
	if errors.Is(err, store.ErrNotFound) {
		apiutil.WriteError(w, http.StatusNotFound, "team not found", "")
		return
	}
	if err != nil {
		logger.Error().Err(err).Str("team_id", teamID).Msg("Failed to load team")
		apiutil.WriteError(w, http.StatusInternalServerError, "failed to load team", "")
		return
	}

	players, err := h.store.ListPlayersByTeam(ctx, teamID)
	if err != nil {
		logger.Error().Err(err).Str("team_id", teamID).Msg("Failed to list players")
		apiutil.WriteError(w, http.StatusInternalServerError, "failed to load roster", "")
		return
	}

	views := make([]playerView, 0, len(players))
	for _, p := range players {
		views = append(views, playerView{
			ID:           p.ID,
			Name:         p.Name,
			Position:     p.Position,
			JerseyNumber: p.JerseyNumber,
			HeightCM:     p.HeightCM,
			WeightKG:     p.WeightKG,
		})
	}
	apiutil.WriteJSON(w, http.StatusOK, map[string]any{
		"team":    teamView{ID: team.ID, Name: team.Name, City: team.City},
		"players": views,
	})
}

type addPlayerRequest struct {
	Name         string `json:"name"`
	Position     string `json:"position"`
	JerseyNumber int64  `json:"jersey_number"`
	HeightCM     int64  `json:"height_cm,omitempty"`
	WeightKG     int64  `json:"weight_kg,omitempty"`
}

// HandleAddPlayer adds a player to a team's roster, filling in sampled
// physical stats when the scout sheet has none. POST /api/v1/teams/{id}/roster
func (h *Handlers) HandleAddPlayer(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if !apiutil.RequireRole(w, r, authz.RoleAdmin, authz.RoleCommissioner, authz.RoleGM) {
		return
	}

	teamID := r.PathValue("id")

	var req addPlayerRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Position == "" {
		apiutil.WriteError(w, http.StatusBadRequest, "invalid request body", "name and position are required")
		return
	}

	if req.HeightCM == 0 || req.WeightKG == 0 {
		physical := roster.GeneratePhysical(req.Position, h.rng)
		if req.HeightCM == 0 {
			req.HeightCM = physical.HeightCM
		}
		if req.WeightKG == 0 {
			req.WeightKG = physical.WeightKG
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	if _, err := h.store.GetTeam(ctx, teamID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			apiutil.WriteError(w, http.StatusNotFound, "team not found", "")
			return
		}
		logger.Error().Err(err).Str("team_id", teamID).Msg("Failed to load team")
		apiutil.WriteError(w, http.StatusInternalServerError, "failed to load team", "")
		return
	}

	id, err := h.store.CreatePlayer(ctx, store.CreatePlayerParams{
		TeamID:       teamID,
		Name:         req.Name,
		Position:     req.Position,
		JerseyNumber: req.JerseyNumber,
		HeightCM:     req.HeightCM,
		WeightKG:     req.WeightKG,
	})
	if err != nil {
		logger.Error().Err(err).Str("team_id", teamID).Msg("Failed to create player")
		apiutil.WriteError(w, http.StatusInternalServerError, "failed to add player", "")
		return
	}

	logger.Info().Int64("player_id", id).Str("team_id", teamID).Msg("Player added to roster")
	apiutil.WriteJSON(w, http.StatusCreated, playerView{
		ID:           id,
		Name:         req.Name,
		Position:     req.Position,
		JerseyNumber: req.JerseyNumber,
		HeightCM:     req.HeightCM,
		WeightKG:     req.WeightKG,
	})
}
