package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"xiangqi/internal/engine"
	"xiangqi/internal/server/game"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	games := game.NewManager(engine.DefaultLevels(), time.Hour, 100, 2)
	srv := httptest.NewServer(NewRouter(NewHandler(games), t.TempDir(), ""))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

func createGame(t *testing.T, srv *httptest.Server, req CreateGameRequest) CreateGameResponse {
	t.Helper()
	var out CreateGameResponse
	if code := doJSON(t, http.MethodPost, srv.URL+"/api/games", req, &out); code != http.StatusOK {
		t.Fatalf("create game status %d", code)
	}
	return out
}

func TestCreateAndGetGame(t *testing.T) {
	srv := newTestServer(t)
	created := createGame(t, srv, CreateGameRequest{AIType: "greedy", PlayerColor: "red"})
	if created.GameID == "" || created.AIConfig.Level != engine.LevelGreedy {
		t.Fatalf("create = %+v", created)
	}
	st := created.GameState
	if st.CurrentTurn != "red" || st.GameResult != "ongoing" || st.MoveCount != 0 || st.LastMove != nil {
		t.Fatalf("initial state = %+v", st)
	}
	if len(st.Board) != 10 || len(st.Board[0]) != 9 {
		t.Fatalf("board is %dx%d", len(st.Board), len(st.Board[0]))
	}
	if p := st.Board[9][4]; p == nil || p.Type != "general" || p.Color != "red" {
		t.Fatalf("board[9][4] = %+v", p)
	}
	if st.Board[4][4] != nil {
		t.Fatalf("board[4][4] should be empty")
	}

	var got GameStateDTO
	if code := doJSON(t, http.MethodGet, srv.URL+"/api/games/"+created.GameID, nil, &got); code != http.StatusOK {
		t.Fatalf("get status %d", code)
	}
	if got.GameID != created.GameID || got.FEN != st.FEN {
		t.Fatalf("get = %+v", got)
	}
}

func TestCreateGameValidation(t *testing.T) {
	srv := newTestServer(t)
	cases := []CreateGameRequest{
		{AIType: "grandmaster"},
		{AIType: "random", PlayerColor: "green"},
		{AIType: "random", FEN: "not a fen"},
	}
	for _, req := range cases {
		var out ErrorResponse
		if code := doJSON(t, http.MethodPost, srv.URL+"/api/games", req, &out); code != http.StatusBadRequest || out.Error == "" {
			t.Fatalf("%+v: status %d, %+v", req, code, out)
		}
	}
}

func TestMoveUndoFlow(t *testing.T) {
	srv := newTestServer(t)
	id := createGame(t, srv, CreateGameRequest{AIType: "greedy"}).GameID
	base := srv.URL + "/api/games/" + id

	var moved MoveResponse
	code := doJSON(t, http.MethodPost, base+"/moves", MoveRequest{FromRow: 7, FromCol: 7, ToRow: 7, ToCol: 4}, &moved)
	if code != http.StatusOK || !moved.Success {
		t.Fatalf("move status %d", code)
	}
	if moved.MoveInfo.Notation != "炮二平五" || moved.GameState.CurrentTurn != "black" {
		t.Fatalf("move = %+v", moved.MoveInfo)
	}
	if moved.GameState.LastMove == nil || moved.GameState.LastMove.To != [2]int{7, 4} {
		t.Fatalf("last move = %+v", moved.GameState.LastMove)
	}

	// 该黑方走了，红方再走是错的
	var e ErrorResponse
	if code := doJSON(t, http.MethodPost, base+"/moves", MoveRequest{FromRow: 9, FromCol: 1, ToRow: 7, ToCol: 2}, &e); code != http.StatusBadRequest {
		t.Fatalf("wrong-side move status %d", code)
	}

	var ai MoveResponse
	if code := doJSON(t, http.MethodPost, base+"/ai-move", nil, &ai); code != http.StatusOK {
		t.Fatalf("ai-move status %d", code)
	}
	if !ai.MoveInfo.ByAI || ai.Thinking == nil || ai.GameState.CurrentTurn != "red" || ai.GameState.MoveCount != 2 {
		t.Fatalf("ai move = %+v", ai)
	}

	var undone UndoResponse
	if code := doJSON(t, http.MethodPost, base+"/undo", nil, &undone); code != http.StatusOK {
		t.Fatalf("undo status %d", code)
	}
	if undone.GameState.MoveCount != 0 || undone.GameState.CurrentTurn != "red" {
		t.Fatalf("undo = %+v", undone.GameState)
	}
	if code := doJSON(t, http.MethodPost, base+"/undo", UndoRequest{Steps: 1}, &e); code != http.StatusBadRequest {
		t.Fatalf("undo on empty history status %d", code)
	}
}

func TestLegalMoves(t *testing.T) {
	srv := newTestServer(t)
	id := createGame(t, srv, CreateGameRequest{AIType: "random"}).GameID
	base := srv.URL + "/api/games/" + id + "/legal-moves"

	var out LegalMovesResponse
	if code := doJSON(t, http.MethodGet, base+"?row=9&col=1", nil, &out); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if len(out.LegalMoves) != 2 {
		t.Fatalf("horse moves = %v", out.LegalMoves)
	}

	out = LegalMovesResponse{}
	if code := doJSON(t, http.MethodPost, base, map[string]int{"row": 0, "col": 1}, &out); code != http.StatusOK || len(out.LegalMoves) != 0 {
		t.Fatalf("black horse on red's turn: %d %v", code, out.LegalMoves)
	}
	if code := doJSON(t, http.MethodGet, base+"?row=x", nil, nil); code != http.StatusBadRequest {
		t.Fatalf("bad query status %d", code)
	}
}

func TestNotFoundAndDelete(t *testing.T) {
	srv := newTestServer(t)
	if code := doJSON(t, http.MethodGet, srv.URL+"/api/games/nope", nil, nil); code != http.StatusNotFound {
		t.Fatalf("missing game status %d", code)
	}
	id := createGame(t, srv, CreateGameRequest{AIType: "random"}).GameID
	if code := doJSON(t, http.MethodDelete, srv.URL+"/api/games/"+id, nil, nil); code != http.StatusOK {
		t.Fatalf("delete status %d", code)
	}
	if code := doJSON(t, http.MethodPost, srv.URL+"/api/games/"+id+"/ai-move", nil, nil); code != http.StatusNotFound {
		t.Fatalf("ai-move on deleted game status %d", code)
	}
}

func TestAITypes(t *testing.T) {
	srv := newTestServer(t)
	var out map[string]engine.LevelConfig
	if code := doJSON(t, http.MethodGet, srv.URL+"/api/ai-types", nil, &out); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if len(out) != 5 || out["master"].Depth != 10 {
		t.Fatalf("ai types = %+v", out)
	}
}

func TestStaticRedirect(t *testing.T) {
	srv := newTestServer(t)
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}

	cases := []struct {
		path, ua, want string
	}{
		{"/", "Mozilla/5.0 (Windows NT 10.0)", "/web/"},
		{"/", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0)", "/web_mobile/"},
		{"/?view=mobile", "Mozilla/5.0 (Windows NT 10.0)", "/web_mobile/"},
		{"/web", "", "/web/"},
	}
	for _, tc := range cases {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+tc.path, nil)
		req.Header.Set("User-Agent", tc.ua)
		resp, err := client.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != tc.want {
			t.Fatalf("%s (%s): %d -> %q", tc.path, tc.ua, resp.StatusCode, resp.Header.Get("Location"))
		}
	}
}

func readWS(t *testing.T, conn *websocket.Conn, wantType string) wsMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %s: %v", wantType, err)
		}
		if msg.Type == wantType {
			return msg
		}
	}
}

func TestWebSocketFlow(t *testing.T) {
	srv := newTestServer(t)
	id := createGame(t, srv, CreateGameRequest{AIType: "random"}).GameID

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/games/" + id + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var st GameStateDTO
	if err := json.Unmarshal(readWS(t, conn, msgGameState).Data, &st); err != nil || st.GameID != id {
		t.Fatalf("initial state %+v, %v", st, err)
	}

	send := func(typ string, data any) {
		raw, _ := json.Marshal(data)
		if err := conn.WriteJSON(wsMessage{Type: typ, Data: raw}); err != nil {
			t.Fatalf("send %s: %v", typ, err)
		}
	}

	send("get_legal_moves", map[string]int{"row": 9, "col": 7})
	var legal struct {
		Moves [][2]int `json:"moves"`
	}
	if err := json.Unmarshal(readWS(t, conn, msgLegalMoves).Data, &legal); err != nil || len(legal.Moves) != 2 {
		t.Fatalf("legal moves %v, %v", legal.Moves, err)
	}

	send("move", MoveRequest{FromRow: 9, FromCol: 7, ToRow: 7, ToCol: 6})
	var moved MoveResponse
	if err := json.Unmarshal(readWS(t, conn, msgMoveMade).Data, &moved); err != nil || moved.MoveInfo.Notation != "马二进三" {
		t.Fatalf("move_made %+v, %v", moved.MoveInfo, err)
	}

	send("request_ai_move", nil)
	readWS(t, conn, msgAIThinking)
	var ai MoveResponse
	if err := json.Unmarshal(readWS(t, conn, msgAIMove).Data, &ai); err != nil || !ai.MoveInfo.ByAI {
		t.Fatalf("ai_move %+v, %v", ai.MoveInfo, err)
	}

	send("undo", UndoRequest{Steps: 2})
	var undone UndoResponse
	if err := json.Unmarshal(readWS(t, conn, msgUndoDone).Data, &undone); err != nil || undone.GameState.MoveCount != 0 {
		t.Fatalf("undo_done %+v, %v", undone.GameState, err)
	}

	send("fly", nil)
	readWS(t, conn, msgError)
}

func TestWebSocketUnknownGame(t *testing.T) {
	srv := newTestServer(t)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/games/nope/ws"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatalf("dial to a missing game succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("resp = %v", resp)
	}
}

func TestMoveOffBoardRejected(t *testing.T) {
	srv := newTestServer(t)
	created := createGame(t, srv, CreateGameRequest{AIType: "greedy"})
	base := srv.URL + "/api/games/" + created.GameID

	// 263 截成 int8 正好是 7，不能被当成 炮二平五
	cases := []MoveRequest{
		{FromRow: 263, FromCol: 7, ToRow: 263, ToCol: 4},
		{FromRow: 7, FromCol: 7, ToRow: 7, ToCol: 260},
		{FromRow: -1, FromCol: 0, ToRow: 0, ToCol: 0},
		{FromRow: 9, FromCol: 0, ToRow: 10, ToCol: 0},
	}
	for _, req := range cases {
		var e ErrorResponse
		if code := doJSON(t, http.MethodPost, base+"/moves", req, &e); code != http.StatusBadRequest || e.Error == "" {
			t.Fatalf("%+v: status %d, %+v", req, code, e)
		}
	}

	var got GameStateDTO
	if code := doJSON(t, http.MethodGet, base, nil, &got); code != http.StatusOK {
		t.Fatalf("get status %d", code)
	}
	if got.FEN != created.GameState.FEN || got.MoveCount != 0 {
		t.Fatalf("board changed: %s, %d moves", got.FEN, got.MoveCount)
	}
}

func TestWebSocketRejectsBadPayloads(t *testing.T) {
	srv := newTestServer(t)
	created := createGame(t, srv, CreateGameRequest{AIType: "greedy"})
	id := created.GameID

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/games/" + id + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	readWS(t, conn, msgGameState)

	send := func(typ string, raw string) {
		if err := conn.WriteJSON(wsMessage{Type: typ, Data: json.RawMessage(raw)}); err != nil {
			t.Fatalf("send %s: %v", typ, err)
		}
	}

	send("move", `{"from_row":263,"from_col":7,"to_row":263,"to_col":4}`)
	readWS(t, conn, msgError)

	// 先走一步，坏的 undo 不能把它悔掉
	send("move", `{"from_row":7,"from_col":7,"to_row":7,"to_col":4}`)
	readWS(t, conn, msgMoveMade)
	send("undo", `{"steps":"two"}`)
	readWS(t, conn, msgError)

	send("get_state", `null`)
	var st GameStateDTO
	if err := json.Unmarshal(readWS(t, conn, msgGameState).Data, &st); err != nil || st.MoveCount != 1 {
		t.Fatalf("state after bad undo: %d moves, %v", st.MoveCount, err)
	}
}
