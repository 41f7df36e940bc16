package httpserver

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"xiangqi/internal/engine"
	"xiangqi/internal/server/game"
	"xiangqi/internal/xiangqi"
)

// Handler /api 下的全部接口，REST 和 websocket 共用一个会话管理器
type Handler struct {
	games *game.Manager
	hub   *Hub
}

func NewHandler(games *game.Manager) *Handler {
	return &Handler{games: games, hub: NewHub()}
}

func (h *Handler) Hub() *Hub { return h.hub }

// Routes 挂在 /api 下
func (h *Handler) Routes(r chi.Router) {
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	r.Get("/ai-types", h.handleAITypes)

	r.Post("/games", h.handleCreateGame)
	r.Route("/games/{id}", func(r chi.Router) {
		r.Get("/", h.handleGetGame)
		r.Delete("/", h.handleDeleteGame)
		r.Post("/moves", h.handleMove)
		r.Post("/ai-move", h.handleAIMove)
		r.Post("/undo", h.handleUndo)
		r.Get("/legal-moves", h.handleLegalMoves)
		r.Post("/legal-moves", h.handleLegalMoves)
		r.Get("/ws", h.serveWS)
	})
}

func (h *Handler) handleAITypes(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]engine.LevelConfig)
	for _, l := range h.games.Levels() {
		out[string(l.Level)] = l
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req CreateGameRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.AIType == "" {
		req.AIType = string(engine.LevelAlphaBeta)
	}
	side, ok := parseSide(req.PlayerColor)
	if !ok {
		writeError(w, game.ErrBadColor)
		return
	}

	s, err := h.games.NewGame(game.Options{Level: engine.Level(req.AIType), PlayerSide: side, FEN: req.FEN})
	if err != nil {
		writeError(w, err)
		return
	}
	st := s.State()
	writeJSON(w, http.StatusOK, CreateGameResponse{
		GameID:    s.ID,
		GameState: stateDTO(st),
		AIConfig:  st.Level,
	})
}

func (h *Handler) handleGetGame(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, stateDTO(s.State()))
}

func (h *Handler) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	if err := h.games.Delete(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) handleMove(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req MoveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := playMove(s, req)
	if err != nil {
		writeError(w, err)
		return
	}
	h.hub.Broadcast(s.ID, msgMoveMade, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleAIMove(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.hub.Broadcast(s.ID, msgAIThinking, map[string]string{"status": "started"})
	resp, err := aiMove(s)
	if err != nil {
		writeError(w, err)
		return
	}
	h.hub.Broadcast(s.ID, msgAIMove, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleUndo(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req UndoRequest
	if !decodeBody(w, r, &req) {
		return
	}
	st, err := s.Undo(req.Steps)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := UndoResponse{Success: true, GameState: stateDTO(st)}
	h.hub.Broadcast(s.ID, msgUndoDone, resp)
	writeJSON(w, http.StatusOK, resp)
}

// GET 用 ?row=&col=，POST 用 JSON {"row":..,"col":..}
func (h *Handler) handleLegalMoves(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var sq struct {
		Row int `json:"row"`
		Col int `json:"col"`
	}
	if r.Method == http.MethodPost {
		if !decodeBody(w, r, &sq) {
			return
		}
	} else {
		var err1, err2 error
		sq.Row, err1 = strconv.Atoi(r.URL.Query().Get("row"))
		sq.Col, err2 = strconv.Atoi(r.URL.Query().Get("col"))
		if err1 != nil || err2 != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "row and col are required"})
			return
		}
	}
	writeJSON(w, http.StatusOK, LegalMovesResponse{LegalMoves: legalTargets(s, sq.Row, sq.Col)})
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*game.Session, bool) {
	s, err := h.games.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return s, true
}

func playMove(s *game.Session, req MoveRequest) (MoveResponse, error) {
	from, okFrom := xiangqi.SquareOf(req.FromRow, req.FromCol)
	to, okTo := xiangqi.SquareOf(req.ToRow, req.ToCol)
	if !okFrom || !okTo {
		return MoveResponse{}, errors.Wrapf(xiangqi.ErrOffBoard, "move (%d,%d)->(%d,%d)", req.FromRow, req.FromCol, req.ToRow, req.ToCol)
	}
	rec, st, err := s.MakeMove(from, to)
	if err != nil {
		return MoveResponse{}, err
	}
	return MoveResponse{Success: true, MoveInfo: moveInfoDTO(rec), GameState: stateDTO(st)}, nil
}

func aiMove(s *game.Session) (MoveResponse, error) {
	rec, res, st, err := s.AIMove()
	if err != nil {
		return MoveResponse{}, err
	}
	return MoveResponse{
		Success:   true,
		MoveInfo:  moveInfoDTO(rec),
		Thinking:  thinkingDTO(res),
		GameState: stateDTO(st),
	}, nil
}

func legalTargets(s *game.Session, row, col int) [][2]int {
	out := [][2]int{}
	from, ok := xiangqi.SquareOf(row, col)
	if !ok {
		return out
	}
	for _, sq := range s.LegalTargets(from) {
		out = append(out, squarePair(sq))
	}
	return out
}

// 空 body 当成零值请求
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid payload"})
	return false
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, game.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrGameOver),
		errors.Is(err, game.ErrNotYourTurn),
		errors.Is(err, game.ErrIllegalMove),
		errors.Is(err, game.ErrNothingToUndo),
		errors.Is(err, game.ErrBadColor),
		errors.Is(err, engine.ErrUnknownLevel),
		errors.Is(err, xiangqi.ErrInvalidFEN),
		errors.Is(err, xiangqi.ErrEmptySource),
		errors.Is(err, xiangqi.ErrOffBoard):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("writeJSON")
	}
}
