package main

import (
	"database/sql"
	"log"
	"time"

	_ "modernc.org/sqlite"
)

// Ladder points awarded to a match winner
const ladderWinPoints = 10

// Match record statuses
const (
	MatchPending  = "pending"
	MatchFinished = "finished"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// PlayerRow represents a player record in the database
type PlayerRow struct {
	ID        int64
	Username  string
	PassHash  string
	Wins      int
	Losses    int
	Points    int
	CreatedAt time.Time
}

// MatchRow represents a match record. Records are created before the
// match goes live and updated (or deleted) from its finish descriptor.
type MatchRow struct {
	ID        int64
	Player1ID int64
	Player2ID int64
	Status    string
	Score1    int
	Score2    int
	WinnerID  int64
	Options   string // JSON-encoded OptionOverrides, "" for defaults
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// WAL for concurrent readers alongside the writer
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS players (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		pass_hash TEXT NOT NULL DEFAULT '',
		wins INTEGER NOT NULL DEFAULT 0,
		losses INTEGER NOT NULL DEFAULT 0,
		points INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS matches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		player1_id INTEGER NOT NULL REFERENCES players(id),
		player2_id INTEGER NOT NULL REFERENCES players(id),
		status TEXT NOT NULL DEFAULT 'pending',
		score1 INTEGER NOT NULL DEFAULT 0,
		score2 INTEGER NOT NULL DEFAULT 0,
		winner_id INTEGER NOT NULL DEFAULT 0,
		options TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		finished_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS match_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		player_id INTEGER,
		match_id INTEGER,
		data TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_players_username ON players(username);
	CREATE INDEX IF NOT EXISTS idx_matches_status ON matches(status);
	CREATE INDEX IF NOT EXISTS idx_match_events_match ON match_events(match_id);
	`
	_, err := db.conn.Exec(schema)
	if err != nil {
		log.Printf("DB migration error: %v", err)
	}
	return err
}

// CreatePlayer creates a new player account (returns player ID)
func (db *DB) CreatePlayer(username, passHash string) (int64, error) {
	res, err := db.conn.Exec(
		"INSERT INTO players (username, pass_hash) VALUES (?, ?)",
		username, passHash,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UsernameExists checks whether a username is taken
func (db *DB) UsernameExists(username string) (bool, error) {
	var n int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM players WHERE username = ?", username).Scan(&n)
	return n > 0, err
}

// GetPlayerByUsername returns a player by username, nil when absent
func (db *DB) GetPlayerByUsername(username string) (*PlayerRow, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, pass_hash, wins, losses, points, created_at FROM players WHERE username = ?",
		username,
	)
	return scanPlayer(row)
}

// GetPlayerByID returns a player by ID, nil when absent
func (db *DB) GetPlayerByID(id int64) (*PlayerRow, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, pass_hash, wins, losses, points, created_at FROM players WHERE id = ?",
		id,
	)
	return scanPlayer(row)
}

func scanPlayer(row *sql.Row) (*PlayerRow, error) {
	p := &PlayerRow{}
	err := row.Scan(&p.ID, &p.Username, &p.PassHash, &p.Wins, &p.Losses, &p.Points, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// CreateMatch records a paired match before it goes live
func (db *DB) CreateMatch(player1, player2 int64, options string) (int64, error) {
	res, err := db.conn.Exec(
		"INSERT INTO matches (player1_id, player2_id, options) VALUES (?, ?, ?)",
		player1, player2, options,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// HasPendingMatch reports whether a pending match already pairs the two
// players, in either order
func (db *DB) HasPendingMatch(p1, p2 int64) (bool, error) {
	var n int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM matches WHERE status = ?
		 AND ((player1_id = ? AND player2_id = ?) OR (player1_id = ? AND player2_id = ?))`,
		MatchPending, p1, p2, p2, p1,
	).Scan(&n)
	return n > 0, err
}

// GetMatch returns a match record by ID, nil when absent
func (db *DB) GetMatch(id int64) (*MatchRow, error) {
	row := db.conn.QueryRow(
		"SELECT id, player1_id, player2_id, status, score1, score2, winner_id, options FROM matches WHERE id = ?",
		id,
	)
	m := &MatchRow{}
	err := row.Scan(&m.ID, &m.Player1ID, &m.Player2ID, &m.Status, &m.Score1, &m.Score2, &m.WinnerID, &m.Options)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

// RecordFinish applies a finish descriptor: the "delete" action removes an
// abandoned match record, "update" persists scores and bumps the ladder.
// Results carry paddle order, which is connect order; scores are mapped to
// columns by player id so the row stays consistent whichever participant
// connected first.
func (db *DB) RecordFinish(matchID int64, res FinishResult) error {
	if res.Action == FinishDelete {
		_, err := db.conn.Exec("DELETE FROM matches WHERE id = ?", matchID)
		return err
	}

	row, err := db.GetMatch(matchID)
	if err != nil {
		return err
	}
	if row == nil {
		return nil
	}

	winnerID := res.Player1.ID
	loserID := res.Player2.ID
	if res.Player2.Won {
		winnerID, loserID = res.Player2.ID, res.Player1.ID
	}

	score1, score2 := res.Player1.Score, res.Player2.Score
	if res.Player1.ID == row.Player2ID || res.Player2.ID == row.Player1ID {
		score1, score2 = score2, score1
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`UPDATE matches SET status = ?, score1 = ?, score2 = ?, winner_id = ?, finished_at = CURRENT_TIMESTAMP WHERE id = ?`,
		MatchFinished, score1, score2, winnerID, matchID,
	)
	if err != nil {
		return err
	}

	// Ladder increment for the winner; a never-connected loser (id 0)
	// has no row to update
	if _, err := tx.Exec(
		"UPDATE players SET wins = wins + 1, points = points + ? WHERE id = ?",
		ladderWinPoints, winnerID,
	); err != nil {
		return err
	}
	if loserID != 0 {
		if _, err := tx.Exec(
			"UPDATE players SET losses = losses + 1 WHERE id = ?",
			loserID,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LadderRow is one standings entry
type LadderRow struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
	Points   int    `json:"points"`
}

// Ladder returns the top standings ordered by points
func (db *DB) Ladder(limit int) ([]LadderRow, error) {
	rows, err := db.conn.Query(
		"SELECT id, username, wins, losses, points FROM players ORDER BY points DESC, wins DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ladder []LadderRow
	for rows.Next() {
		var r LadderRow
		if err := rows.Scan(&r.ID, &r.Username, &r.Wins, &r.Losses, &r.Points); err != nil {
			return nil, err
		}
		ladder = append(ladder, r)
	}
	return ladder, rows.Err()
}

// GetSetting returns a settings value, "" when absent
func (db *DB) GetSetting(key string) string {
	var v string
	err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&v)
	if err != nil {
		return ""
	}
	return v
}

// SetSetting upserts a settings value
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}
