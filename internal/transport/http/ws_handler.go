package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/issakobayashi1992/Lightning-league/internal/app"
	"github.com/issakobayashi1992/Lightning-league/internal/domain"
)

type WSHandler struct {
	matches  *app.MatchService
	practice *app.PracticeService
	upgrader websocket.Upgrader
}

func NewWSHandler(matches *app.MatchService, practice *app.PracticeService) *WSHandler {
	return &WSHandler{
		matches:  matches,
		practice: practice,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Answer string `json:"answer"`
}

type buzzResult struct {
	Verdict string `json:"verdict"`
}

type answerResult struct {
	Outcome string `json:"outcome"`
	Correct bool   `json:"correct"`
}

type joinedPayload struct {
	MatchID  string `json:"matchId"`
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the game
// use cases. Players attach to an existing match with ?matchId=...; solo
// practice starts with ?mode=practice and optional filter params.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("playerId")
	displayName := r.URL.Query().Get("name")
	matchID := r.URL.Query().Get("matchId")
	role := r.URL.Query().Get("role")
	mode := r.URL.Query().Get("mode")
	if playerID == "" || displayName == "" || (matchID == "" && mode != "practice") {
		http.Error(w, "missing playerId, name, or matchId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	if mode == "practice" {
		// The session outlives this request's context; the player cancels it
		// through the protocol, not by disconnecting.
		matchID, err = h.practice.StartPractice(context.Background(), playerID, r.URL.Query().Get("teamId"), filterFromQuery(r))
		if err != nil {
			_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
			return
		}
		role = "coach" // a solo player owns the session
	} else if role != "coach" {
		if err := h.matches.Join(r.Context(), matchID, playerID); err != nil {
			_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
			return
		}
	}

	updates, cancel, err := h.matches.Subscribe(matchID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	// Unsubscribe first, then let the store drop the session if it is done.
	defer h.matches.Leave(matchID)
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		summarySent := false
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: update}:
				case <-closeSignals:
					return
				}
				if !summarySent && update.Status == domain.MatchCompleted && update.Summary != nil {
					summarySent = true
					select {
					case send <- outboundMessage[any]{Type: "summary", Payload: *update.Summary}:
					case <-closeSignals:
						return
					}
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "joined", Payload: joinedPayload{MatchID: matchID, PlayerID: playerID, Name: displayName, Role: role}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "buzz":
			verdict, err := h.matches.Buzz(matchID, playerID)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "buzzResult", Payload: buzzResult{Verdict: string(verdict)}}
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			outcome, err := h.matches.Answer(matchID, playerID, payload.Answer)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "answerResult", Payload: answerResult{
				Outcome: string(outcome),
				Correct: outcome == domain.OutcomeCorrect,
			}}
		case "launch":
			if err := h.matches.Launch(context.Background(), matchID, playerID); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		case "cancel":
			if err := h.matches.Cancel(matchID, playerID); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func filterFromQuery(r *http.Request) domain.QuestionFilter {
	q := r.URL.Query()
	filter := domain.QuestionFilter{
		TeamID:      q.Get("teamId"),
		SubjectArea: q.Get("subject"),
	}
	if q.Get("public") == "true" {
		public := true
		filter.IsPublic = &public
	}
	return filter
}
