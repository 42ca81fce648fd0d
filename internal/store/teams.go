package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type Team struct {
	ID        string
	Name      string
	City      string
	CreatedAt time.Time
}

type Player struct {
	ID           int64
	TeamID       string
	Name         string
	Position     string
	JerseyNumber int64
	HeightCM     int64
	WeightKG     int64
}

func (s *Store) CreateTeam(ctx context.Context, id, name, city string) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO teams (id, name, city) VALUES (?, ?, ?)`,
		id, name, city,
	); err != nil {
		return fmt.Errorf("create team: %w", err)
	}
	return nil
}

func (s *Store) GetTeam(ctx context.Context, id string) (Team, error) {
	var team Team
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, city, created_at FROM teams WHERE id = ?`,
		id,
	).Scan(&team.ID, &team.Name, &team.City, &team.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Team{}, ErrNotFound
	}
	if err != nil {
		return Team{}, fmt.Errorf("get team: %w", err)
	}
	return team, nil
}

func (s *Store) ListTeams(ctx context.Context) ([]Team, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, city, created_at FROM teams ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	var teams []Team
	for rows.Next() {
		var team Team
		if err := rows.Scan(&team.ID, &team.Name, &team.City, &team.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, team)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate teams: %w", err)
	}
	return teams, nil
}

type CreatePlayerParams struct {
	TeamID       string
	Name         string
	Position     string
	JerseyNumber int64
	HeightCM     int64
	WeightKG     int64
}

func (s *Store) CreatePlayer(ctx context.Context, params CreatePlayerParams) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO players (team_id, name, position, jersey_number, height_cm, weight_kg)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		params.TeamID, params.Name, params.Position, params.JerseyNumber, params.HeightCM, params.WeightKG,
	)
	if err != nil {
		return 0, fmt.Errorf("create player: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("player id: %w", err)
	}
	return id, nil
}

func (s *Store) ListPlayersByTeam(ctx context.Context, teamID string) ([]Player, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, team_id, name, position, jersey_number, height_cm, weight_kg
		 FROM players WHERE team_id = ? ORDER BY jersey_number, name`,
		teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var players []Player
	for rows.Next() {
		var player Player
		if err := rows.Scan(&player.ID, &player.TeamID, &player.Name, &player.Position,
			&player.JerseyNumber, &player.HeightCM, &player.WeightKG); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, player)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate players: %w", err)
	}
	return players, nil
}
