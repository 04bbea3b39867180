package main

import (
	"database/sql"
	"log"
	"sync"
	"time"
)

// Boundary event types. The engine itself swallows invalid input; these
// make the drops and lifecycle observable.
const (
	EvtMatchStart    = "match_start"
	EvtMatchEnd      = "match_end"
	EvtMatchDrop     = "match_drop" // finished with no result
	EvtSpectatorJoin = "spectator_join"
	EvtExtraJoin     = "extra_join" // third player silently dropped
	EvtInputRejected = "input_rejected"
)

// MatchEvent is a single trackable boundary event
type MatchEvent struct {
	Type      string
	PlayerID  int64
	MatchID   int64
	Data      string
	Timestamp time.Time
}

// EventLog batches boundary events and writes them to the database in the
// background, off the tick path.
type EventLog struct {
	db     *DB
	events chan MatchEvent
	stop   chan struct{}
	wg     sync.WaitGroup
}

// NewEventLog creates and starts the background writer
func NewEventLog(db *DB) *EventLog {
	e := &EventLog{
		db:     db,
		events: make(chan MatchEvent, 1024),
		stop:   make(chan struct{}),
	}
	e.wg.Add(1)
	go e.writer()
	return e
}

// Track enqueues an event (non-blocking; drops when the buffer is full)
func (e *EventLog) Track(evtType string, playerID, matchID int64, data string) {
	select {
	case e.events <- MatchEvent{
		Type:      evtType,
		PlayerID:  playerID,
		MatchID:   matchID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}:
	default:
	}
}

// Stop flushes and shuts down the writer
func (e *EventLog) Stop() {
	close(e.stop)
	e.wg.Wait()
}

func (e *EventLog) writer() {
	defer e.wg.Done()

	batch := make([]MatchEvent, 0, 64)
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case evt := <-e.events:
			batch = append(batch, evt)
			if len(batch) >= 50 {
				e.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				e.flush(batch)
				batch = batch[:0]
			}
		case <-e.stop:
			// Drain what is already queued; the channel stays open
			// so late Track calls drop instead of panicking
			for {
				select {
				case evt := <-e.events:
					batch = append(batch, evt)
				default:
					if len(batch) > 0 {
						e.flush(batch)
					}
					return
				}
			}
		}
	}
}

func (e *EventLog) flush(events []MatchEvent) {
	if e.db == nil || len(events) == 0 {
		return
	}
	tx, err := e.db.conn.Begin()
	if err != nil {
		log.Printf("events: begin tx error: %v", err)
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO match_events (event_type, player_id, match_id, data, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		log.Printf("events: prepare error: %v", err)
		return
	}
	defer stmt.Close()

	for _, evt := range events {
		pid := sql.NullInt64{Int64: evt.PlayerID, Valid: evt.PlayerID > 0}
		mid := sql.NullInt64{Int64: evt.MatchID, Valid: evt.MatchID > 0}
		data := sql.NullString{String: evt.Data, Valid: evt.Data != ""}
		if _, err := stmt.Exec(evt.Type, pid, mid, data, evt.Timestamp.Format(time.RFC3339)); err != nil {
			log.Printf("events: insert error: %v", err)
		}
	}
	tx.Commit()
}
