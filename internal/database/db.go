package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"pointbid/internal/game"
	"pointbid/internal/model"
)

// Store keeps the history of finished games in SQLite.
type Store struct {
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// every connection to ":memory:" opens its own database
	db.SetMaxOpenConns(1)

	sqlStmt := `CREATE TABLE IF NOT EXISTS games (id INTEGER PRIMARY KEY AUTOINCREMENT, session_id TEXT NOT NULL, turns INTEGER NOT NULL, forced INTEGER NOT NULL, played_at DATETIME DEFAULT CURRENT_TIMESTAMP);`
	sqlStmt += `CREATE TABLE IF NOT EXISTS game_players (game_id INTEGER NOT NULL REFERENCES games(id), player_id TEXT NOT NULL, player_name TEXT NOT NULL, points INTEGER NOT NULL, winner INTEGER NOT NULL);`
	sqlStmt += `CREATE INDEX IF NOT EXISTS game_players_name ON game_players(player_name);`
	if _, err = db.Exec(sqlStmt); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordGame stores one finished game and the standing of every player in
// it. forced marks games that ended because the other players left.
func (s *Store) RecordGame(ctx context.Context, sessionID string, forced bool, res game.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	r, err := tx.ExecContext(ctx, "INSERT INTO games(session_id, turns, forced) VALUES(?, ?, ?)", sessionID, res.TurnNum, forced)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	gameID, err := r.LastInsertId()
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO game_players(game_id, player_id, player_name, points, winner) VALUES(?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, p := range res.Players {
		if _, err := stmt.ExecContext(ctx, gameID, p.ID, p.Name, p.Points, p.Winner); err != nil {
			return fmt.Errorf("insert player %s: %w", p.Name, err)
		}
	}
	return tx.Commit()
}

// PlayerStats totals the recorded games of every player that signed in as
// name. Unknown names report zero games.
func (s *Store) PlayerStats(ctx context.Context, name string) (model.PlayerStat, error) {
	st := model.PlayerStat{Name: name}
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(winner), 0), COALESCE(SUM(points), 0) FROM game_players WHERE player_name = ?`,
		name).Scan(&st.TotalGames, &st.TotalWins, &st.TotalPoints)
	if err != nil {
		return model.PlayerStat{}, err
	}
	return st, nil
}

// GameCount reports how many games have been recorded.
func (s *Store) GameCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM games").Scan(&n)
	return n, err
}
