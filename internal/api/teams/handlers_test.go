package teams

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/slapshotlabs/rinkside/internal/api/authz"
	"github.com/slapshotlabs/rinkside/internal/store"
	"github.com/slapshotlabs/rinkside/internal/testutil"
)

func requestAs(method, path, body string, role authz.Role) *http.Request {
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	user := &authz.AuthUser{ID: "u-1", Email: "fan@rinkside.test", Role: role, RoleResolved: true}
	return r.WithContext(authz.ContextWithUser(r.Context(), user))
}

func seedTeam(t *testing.T, st *store.Store, id, name, city string) {
	t.Helper()
	if err := st.CreateTeam(context.Background(), id, name, city); err != nil {
		t.Fatalf("seed team: %v", err)
	}
}

func TestListTeamsAnyRoledCaller(t *testing.T) {
	database := testutil.NewTestDB(t)
	seedTeam(t, database.Store, "ice-hawks", "Ice Hawks", "Duluth")
	seedTeam(t, database.Store, "north-stars", "North Stars", "Bemidji")
	h := NewHandlers(database.Store)

	w := httptest.NewRecorder()
	h.HandleListTeams(w, requestAs(http.MethodGet, "/api/v1/teams", "", authz.RoleUser))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Teams []teamView `json:"teams"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Teams) != 2 {
		t.Fatalf("got %d teams, want 2", len(resp.Teams))
	}
	if resp.Teams[0].ID != "ice-hawks" {
		t.Errorf("teams not ordered by name: %+v", resp.Teams)
	}
}

func TestListTeamsRequiresRole(t *testing.T) {
	database := testutil.NewTestDB(t)
	h := NewHandlers(database.Store)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/teams", nil)
	user := &authz.AuthUser{ID: "u-2", Email: "new@rinkside.test"}
	h.HandleListTeams(w, r.WithContext(authz.ContextWithUser(r.Context(), user)))

	if w.Code != http.StatusForbidden {
		t.Errorf("roleless caller: status = %d, want 403", w.Code)
	}
}

func TestCreateTeamNormalizesID(t *testing.T) {
	database := testutil.NewTestDB(t)
	h := NewHandlers(database.Store)

	w := httptest.NewRecorder()
	h.HandleCreateTeam(w, requestAs(http.MethodPost, "/api/v1/teams",
		`{"name":"  St. Cloud Blizzard ","city":"St. Cloud"}`, authz.RoleCommissioner))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	var resp teamView
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != "st-cloud-blizzard" {
		t.Errorf("id = %q, want st-cloud-blizzard", resp.ID)
	}

	if _, err := database.Store.GetTeam(context.Background(), "st-cloud-blizzard"); err != nil {
		t.Errorf("team not persisted: %v", err)
	}
}

func TestCreateTeamForbiddenForGM(t *testing.T) {
	database := testutil.NewTestDB(t)
	h := NewHandlers(database.Store)

	w := httptest.NewRecorder()
	h.HandleCreateTeam(w, requestAs(http.MethodPost, "/api/v1/teams",
		`{"name":"Rogue Team"}`, authz.RoleGM))

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestRosterNotFound(t *testing.T) {
	database := testutil.NewTestDB(t)
	h := NewHandlers(database.Store)

	w := httptest.NewRecorder()
	r := requestAs(http.MethodGet, "/api/v1/teams/ghosts/roster", "", authz.RoleUser)
	r.SetPathValue("id", "ghosts")
	h.HandleRoster(w, r)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestAddPlayerFillsPhysicalStats(t *testing.T) {
	database := testutil.NewTestDB(t)
	seedTeam(t, database.Store, "ice-hawks", "Ice Hawks", "Duluth")
	h := NewHandlers(database.Store)

	w := httptest.NewRecorder()
	r := requestAs(http.MethodPost, "/api/v1/teams/ice-hawks/roster",
		`{"name":"Sven Karlsson","position":"D","jersey_number":4}`, authz.RoleGM)
	r.SetPathValue("id", "ice-hawks")
	h.HandleAddPlayer(w, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	var resp playerView
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.HeightCM < 180 || resp.HeightCM > 200 {
		t.Errorf("generated height %d outside defense range", resp.HeightCM)
	}
	if resp.WeightKG < 85 || resp.WeightKG > 105 {
		t.Errorf("generated weight %d outside defense range", resp.WeightKG)
	}
}

func TestRosterRoundTrip(t *testing.T) {
	database := testutil.NewTestDB(t)
	seedTeam(t, database.Store, "ice-hawks", "Ice Hawks", "Duluth")
	h := NewHandlers(database.Store)

	add := requestAs(http.MethodPost, "/api/v1/teams/ice-hawks/roster",
		`{"name":"Ole Lindgren","position":"G","jersey_number":31,"height_cm":188,"weight_kg":88}`, authz.RoleGM)
	add.SetPathValue("id", "ice-hawks")
	addRec := httptest.NewRecorder()
	h.HandleAddPlayer(addRec, add)
	if addRec.Code != http.StatusCreated {
		t.Fatalf("add player status = %d: %s", addRec.Code, addRec.Body.String())
	}

	get := requestAs(http.MethodGet, "/api/v1/teams/ice-hawks/roster", "", authz.RoleUser)
	get.SetPathValue("id", "ice-hawks")
	getRec := httptest.NewRecorder()
	h.HandleRoster(getRec, get)
	if getRec.Code != http.StatusOK {
		t.Fatalf("roster status = %d: %s", getRec.Code, getRec.Body.String())
	}

	var resp struct {
		Team    teamView     `json:"team"`
		Players []playerView `json:"players"`
	}
	if err := json.Unmarshal(getRec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Team.Name != "Ice Hawks" {
		t.Errorf("team name = %q", resp.Team.Name)
	}
	if len(resp.Players) != 1 || resp.Players[0].Name != "Ole Lindgren" || resp.Players[0].HeightCM != 188 {
		t.Errorf("unexpected roster: %+v", resp.Players)
	}
}
