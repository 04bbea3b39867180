package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	qrcode "github.com/skip2/go-qrcode"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// bearerUser validates the Authorization header and returns the user id,
// or 0 when missing/invalid
func bearerUser(hub *Hub, r *http.Request) int64 {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return 0
	}
	id, _, err := hub.auth.ValidateToken(strings.TrimPrefix(h, "Bearer "))
	if err != nil {
		return 0
	}
	return id
}

// SetupRoutes configures HTTP routes
func SetupRoutes(hub *Hub, clientDir string) *http.ServeMux {
	mux := http.NewServeMux()

	if clientDir != "" {
		fs := http.FileServer(http.Dir(clientDir))
		mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-cache")
			fs.ServeHTTP(w, r)
		}))
	}

	mux.HandleFunc("POST /api/register", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid payload")
			return
		}
		id, token, err := hub.auth.Register(req.Username, req.Password)
		if err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, map[string]interface{}{"id": id, "token": token})
	})

	mux.HandleFunc("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid payload")
			return
		}
		id, token, err := hub.auth.Login(req.Username, req.Password, extractIP(r))
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "token": token})
	})

	// Pair two registered players into a match record. The live match
	// spins up when the first participant connects over /ws.
	mux.HandleFunc("POST /api/matches", func(w http.ResponseWriter, r *http.Request) {
		if bearerUser(hub, r) == 0 {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		var req struct {
			Player1 int64           `json:"player1_id"`
			Player2 int64           `json:"player2_id"`
			Options OptionOverrides `json:"options"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid payload")
			return
		}
		if req.Player1 == 0 || req.Player2 == 0 || req.Player1 == req.Player2 {
			writeError(w, http.StatusBadRequest, "two distinct players required")
			return
		}
		for _, pid := range []int64{req.Player1, req.Player2} {
			p, err := hub.db.GetPlayerByID(pid)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "database error")
				return
			}
			if p == nil {
				writeError(w, http.StatusNotFound, fmt.Sprintf("player %d not found", pid))
				return
			}
		}
		pending, err := hub.db.HasPendingMatch(req.Player1, req.Player2)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "database error")
			return
		}
		if pending {
			writeError(w, http.StatusConflict, "match already pending for these players")
			return
		}
		opts, err := json.Marshal(req.Options)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid options")
			return
		}
		id, err := hub.db.CreateMatch(req.Player1, req.Player2, string(opts))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "database error")
			return
		}
		writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
	})

	mux.HandleFunc("GET /api/matches/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid match id")
			return
		}
		row, err := hub.db.GetMatch(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "database error")
			return
		}
		if row == nil {
			writeError(w, http.StatusNotFound, "match not found")
			return
		}
		resp := map[string]interface{}{
			"id":         row.ID,
			"player1_id": row.Player1ID,
			"player2_id": row.Player2ID,
			"status":     row.Status,
			"score1":     row.Score1,
			"score2":     row.Score2,
			"winner_id":  row.WinnerID,
			"live":       false,
		}
		if m := hub.sessions.SessionGet(id); m != nil {
			resp["live"] = true
			resp["state"] = m.State().String()
			resp["spectators"] = len(hub.sessions.SessionSpectators(id))
		}
		writeJSON(w, http.StatusOK, resp)
	})

	mux.HandleFunc("GET /api/ladder", func(w http.ResponseWriter, r *http.Request) {
		ladder, err := hub.db.Ladder(50)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "database error")
			return
		}
		if ladder == nil {
			ladder = []LadderRow{}
		}
		writeJSON(w, http.StatusOK, ladder)
	})

	// Shareable invite: QR code pointing spectators at the match page
	mux.HandleFunc("GET /invite/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid match id")
			return
		}
		row, err := hub.db.GetMatch(id)
		if err != nil || row == nil {
			writeError(w, http.StatusNotFound, "match not found")
			return
		}
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		link := fmt.Sprintf("%s://%s/match/%d", scheme, r.Host, id)
		png, err := qrcode.Encode(link, qrcode.Medium, 256)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "qr encode error")
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	})

	// WebSocket endpoint; a valid token is required up front
	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		userID, username, err := hub.auth.ValidateToken(r.URL.Query().Get("token"))
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade error: %v", err)
			return
		}

		hub.TrackConnect(ip)

		client := NewClient(hub, conn, uuid.NewString(), userID, username, ip)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()
	})

	return mux
}
