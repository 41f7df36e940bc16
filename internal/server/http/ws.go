package httpserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"xiangqi/internal/server/game"
)

// 服务端推送的消息类型
const (
	msgGameState  = "game_state"
	msgMoveMade   = "move_made"
	msgAIThinking = "ai_thinking"
	msgAIMove     = "ai_move"
	msgUndoDone   = "undo_done"
	msgLegalMoves = "legal_moves"
	msgError      = "error"
	msgPong       = "pong"
)

const (
	wsPingInterval = 30 * time.Second
	wsPongWait     = wsPingInterval * 2
	wsWriteWait    = 10 * time.Second
	wsSendBuffer   = 16
)

type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type wsClient struct {
	gameID string
	send   chan []byte
}

// Hub 按对局分组的 websocket 连接，同一局的所有连接都能收到走子广播
type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[*wsClient]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*wsClient]struct{})}
}

func (h *Hub) join(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[c.gameID]
	if room == nil {
		room = make(map[*wsClient]struct{})
		h.rooms[c.gameID] = room
	}
	room[c] = struct{}{}
}

func (h *Hub) leave(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[c.gameID]
	if _, ok := room[c]; !ok {
		return
	}
	delete(room, c)
	close(c.send)
	if len(room) == 0 {
		delete(h.rooms, c.gameID)
	}
}

// Clients gameID 上当前的连接数
func (h *Hub) Clients(gameID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[gameID])
}

// Broadcast 发给 gameID 的所有连接；发送队列满的连接丢掉这条
func (h *Hub) Broadcast(gameID, typ string, data any) {
	msg, ok := encodeWS(typ, data)
	if !ok {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[gameID] {
		c.push(msg)
	}
}

func encodeWS(typ string, data any) ([]byte, bool) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Warn().Err(err).Str("type", typ).Msg("ws payload")
		return nil, false
	}
	msg, err := json.Marshal(wsMessage{Type: typ, Data: payload})
	if err != nil {
		return nil, false
	}
	return msg, true
}

func (c *wsClient) push(msg []byte) {
	select {
	case c.send <- msg:
	default:
	}
}

// 只给单个连接回消息；调用方保证 c 还没离开 hub
func (c *wsClient) reply(typ string, data any) {
	if msg, ok := encodeWS(typ, data); ok {
		c.push(msg)
	}
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

func (h *Handler) serveWS(w http.ResponseWriter, r *http.Request) {
	s, err := h.games.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("ws upgrade")
		return
	}

	c := &wsClient{gameID: s.ID, send: make(chan []byte, wsSendBuffer)}
	h.hub.join(c)
	c.reply(msgGameState, stateDTO(s.State()))

	go func() {
		defer conn.Close()
		if err := writeWSWithHeartbeat(conn, c.send); err != nil {
			log.Debug().Err(err).Str("game", s.ID).Msg("ws write")
		}
	}()

	// AI 思考可能很久，放到单独的协程里；退出前等它结束再关 send
	var pending sync.WaitGroup
	defer func() {
		pending.Wait()
		h.hub.leave(c)
	}()

	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsPongWait))

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.reply(msgError, ErrorResponse{Error: "invalid message"})
			continue
		}
		if msg.Type == "request_ai_move" {
			pending.Add(1)
			go func() {
				defer pending.Done()
				h.wsAIMove(s)
			}()
			continue
		}
		h.handleWS(s, c, msg)
	}
}

func (h *Handler) handleWS(s *game.Session, c *wsClient, msg wsMessage) {
	switch msg.Type {
	case "move":
		var req MoveRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			c.reply(msgError, ErrorResponse{Error: "invalid move"})
			return
		}
		resp, err := playMove(s, req)
		if err != nil {
			c.reply(msgError, ErrorResponse{Error: err.Error()})
			return
		}
		h.hub.Broadcast(s.ID, msgMoveMade, resp)

	case "undo":
		var req UndoRequest
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &req); err != nil {
				c.reply(msgError, ErrorResponse{Error: "invalid undo"})
				return
			}
		}
		st, err := s.Undo(req.Steps)
		if err != nil {
			c.reply(msgError, ErrorResponse{Error: err.Error()})
			return
		}
		h.hub.Broadcast(s.ID, msgUndoDone, UndoResponse{Success: true, GameState: stateDTO(st)})

	case "get_state":
		c.reply(msgGameState, stateDTO(s.State()))

	case "get_legal_moves":
		var sq struct {
			Row int `json:"row"`
			Col int `json:"col"`
		}
		if err := json.Unmarshal(msg.Data, &sq); err != nil {
			c.reply(msgError, ErrorResponse{Error: "invalid square"})
			return
		}
		c.reply(msgLegalMoves, map[string]any{"moves": legalTargets(s, sq.Row, sq.Col)})

	case "ping":
		c.reply(msgPong, nil)

	default:
		c.reply(msgError, ErrorResponse{Error: "unknown message type " + msg.Type})
	}
}

// AI 出错时广播给整局，请求方也在其中
func (h *Handler) wsAIMove(s *game.Session) {
	h.hub.Broadcast(s.ID, msgAIThinking, map[string]string{"status": "started"})
	resp, err := aiMove(s)
	if err != nil {
		h.hub.Broadcast(s.ID, msgError, ErrorResponse{Error: err.Error()})
		return
	}
	h.hub.Broadcast(s.ID, msgAIMove, resp)
}

// writeWSWithHeartbeat 独占连接的写端：转发 send 里的消息，空闲时发 ping
func writeWSWithHeartbeat(conn *websocket.Conn, send <-chan []byte) error {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-send:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return nil
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return err
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}
