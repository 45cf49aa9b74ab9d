package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/issakobayashi1992/Lightning-league/internal/app"
	"github.com/issakobayashi1992/Lightning-league/internal/domain"
	"github.com/issakobayashi1992/Lightning-league/internal/game"
	"github.com/issakobayashi1992/Lightning-league/internal/infra/memory"
)

type wsEnv struct {
	matches *app.MatchService
	server  *httptest.Server
}

func newWSEnv(t *testing.T) *wsEnv {
	t.Helper()
	// High word rate so the reveal completes in a few milliseconds of real time.
	settings := game.Settings{
		QuestionTime:        5 * time.Second,
		Hesitation:          5 * time.Second,
		WordsPerMinute:      60000,
		QuestionsPerSession: 10,
	}
	history := memory.NewHistoryStore()
	aggregates := memory.NewAggregateStore()
	committer := app.NewSummaryCommitter(history, aggregates)
	questions := memory.NewQuestionRepository(memory.NewStaticQuestionLoader(sampleBank()), time.Minute)
	matches := app.NewMatchService(clockwork.NewRealClock(), settings, memory.NewMatchStore(), questions, committer)
	practice := app.NewPracticeService(matches, aggregates)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", NewWSHandler(matches, practice).ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &wsEnv{matches: matches, server: server}
}

func (e *wsEnv) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + e.server.URL[len("http"):] + "/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", query, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketMatchFlow(t *testing.T) {
	env := newWSEnv(t)

	record, err := env.matches.CreateMatch(context.Background(), "coach-1", "team-1", domain.QuestionFilter{SubjectArea: "MA"})
	if err != nil {
		t.Fatalf("create match: %v", err)
	}

	player := env.dial(t, "matchId="+record.ID+"&playerId=p1&name=Pat")
	readUntil(t, player, "joined")

	coach := env.dial(t, "matchId="+record.ID+"&playerId=coach-1&name=Coach&role=coach")
	readUntil(t, coach, "joined")

	if err := coach.WriteJSON(map[string]any{"type": "launch"}); err != nil {
		t.Fatalf("write launch: %v", err)
	}

	// Wait for the first word before buzzing.
	waitForState(t, player, func(state map[string]any) bool {
		question, _ := state["question"].(map[string]any)
		if question == nil {
			return false
		}
		revealed, _ := question["revealedWords"].(float64)
		return revealed >= 1
	})

	if err := player.WriteJSON(map[string]any{"type": "buzz"}); err != nil {
		t.Fatalf("write buzz: %v", err)
	}
	payload := readUntil(t, player, "buzzResult")
	if payload["verdict"] != "accepted" {
		t.Fatalf("expected accepted buzz, got %v", payload["verdict"])
	}

	if err := player.WriteJSON(map[string]any{"type": "answer", "payload": map[string]any{"answer": "four"}}); err != nil {
		t.Fatalf("write answer: %v", err)
	}
	answered := readUntil(t, player, "answerResult")
	if answered["correct"] != true || answered["outcome"] != "correct" {
		t.Fatalf("expected correct answer acknowledgement, got %v", answered)
	}

	summary := readUntil(t, player, "summary")
	if summary["score"] != float64(1) {
		t.Fatalf("expected score 1 in summary, got %v", summary["score"])
	}
}

func TestWebSocketPracticeFlow(t *testing.T) {
	env := newWSEnv(t)

	conn := env.dial(t, "mode=practice&playerId=p1&name=Pat&subject=MA")
	joined := readUntil(t, conn, "joined")
	if joined["role"] != "coach" {
		t.Fatalf("practice player should own the session, got role %v", joined["role"])
	}
	if joined["name"] != "Pat" {
		t.Fatalf("expected display name echoed back, got %v", joined["name"])
	}

	waitForState(t, conn, func(state map[string]any) bool {
		question, _ := state["question"].(map[string]any)
		if question == nil {
			return false
		}
		revealed, _ := question["revealedWords"].(float64)
		return revealed >= 1
	})

	if err := conn.WriteJSON(map[string]any{"type": "buzz"}); err != nil {
		t.Fatalf("write buzz: %v", err)
	}
	if err := conn.WriteJSON(map[string]any{"type": "answer", "payload": map[string]any{"answer": "four"}}); err != nil {
		t.Fatalf("write answer: %v", err)
	}

	summary := readUntil(t, conn, "summary")
	if summary["total"] != float64(1) {
		t.Fatalf("expected one attempted question, got %v", summary["total"])
	}
}

func TestWebSocketRejectsMissingParams(t *testing.T) {
	env := newWSEnv(t)

	for _, query := range []string{"", "?matchId=m1&playerId=p1", "?playerId=p1&name=Pat"} {
		resp, err := http.Get(env.server.URL + "/ws" + query)
		if err != nil {
			t.Fatalf("get %q: %v", query, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("query %q: expected 400, got %d", query, resp.StatusCode)
		}
	}
}

// readUntil skips messages until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, want string) map[string]any {
	t.Helper()
	for {
		var msg struct {
			Type    string         `json:"type"`
			Payload map[string]any `json:"payload"`
		}
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read json waiting for %s: %v", want, err)
		}
		if msg.Type == "error" {
			t.Fatalf("unexpected error message waiting for %s: %v", want, msg.Payload)
		}
		if msg.Type == want {
			return msg.Payload
		}
	}
}

func waitForState(t *testing.T, conn *websocket.Conn, pred func(map[string]any) bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		state := readUntil(t, conn, "state")
		if pred(state) {
			return
		}
	}
	t.Fatalf("timed out waiting for state")
}

func sampleBank() []domain.Question {
	return []domain.Question{
		{
			ID:            "q1",
			SubjectArea:   "MA",
			Text:          "what is the sum of two and two",
			CorrectAnswer: "four",
			Distractors:   []string{"three", "five", "six"},
			IsPublic:      true,
		},
	}
}
