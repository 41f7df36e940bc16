package httpserver

import (
	"xiangqi/internal/engine"
	"xiangqi/internal/server/game"
	"xiangqi/internal/xiangqi"
)

// CreateGameRequest 新开一局
type CreateGameRequest struct {
	AIType      string `json:"ai_type"`      // random / greedy / minimax / alphabeta / master
	PlayerColor string `json:"player_color"` // red / black
	FEN         string `json:"fen"`          // 可选，自定义开局
}

// 走子请求，坐标是 (行, 列)，行 0 在黑方底线
type MoveRequest struct {
	FromRow int `json:"from_row"`
	FromCol int `json:"from_col"`
	ToRow   int `json:"to_row"`
	ToCol   int `json:"to_col"`
}

type UndoRequest struct {
	Steps int `json:"steps"`
}

type PieceDTO struct {
	Type  string `json:"type"`
	Color string `json:"color"`
}

type LastMoveDTO struct {
	From [2]int `json:"from"`
	To   [2]int `json:"to"`
}

// 一步棋的详情，走子和 AI 走子的返回里都有
type MoveInfoDTO struct {
	From      [2]int    `json:"from"`
	To        [2]int    `json:"to"`
	PieceType string    `json:"piece_type"`
	Color     string    `json:"piece_color"`
	Captured  *PieceDTO `json:"captured"`
	IsCheck   bool      `json:"is_check"`
	Notation  string    `json:"notation"`
	ByAI      bool      `json:"by_ai"`
}

type GameStateDTO struct {
	GameID         string        `json:"game_id"`
	FEN            string        `json:"fen"`
	Board          [][]*PieceDTO `json:"board"` // 10 行 9 列，空位为 null
	CurrentTurn    string        `json:"current_turn"`
	GameResult     string        `json:"game_result"` // ongoing / red_win / black_win / draw
	IsCheck        bool          `json:"is_check"`
	MoveCount      int           `json:"move_count"`
	LastMove       *LastMoveDTO  `json:"last_move"`
	CapturedPieces []PieceDTO    `json:"captured_pieces"`
	AIType         string        `json:"ai_type"`
	PlayerColor    string        `json:"player_color"`
	History        []MoveInfoDTO `json:"history"`
}

// AI 思考信息
type ThinkingDTO struct {
	Depth          int            `json:"depth"`
	NodesEvaluated int64          `json:"nodes_evaluated"`
	Score          int            `json:"score"`
	WinProb        float32        `json:"win_prob"` // 红方胜率
	TimeMs         int64          `json:"time_ms"`
	Candidates     []CandidateDTO `json:"candidates"`
	PV             []string       `json:"pv"`
}

type CandidateDTO struct {
	From  [2]int `json:"from"`
	To    [2]int `json:"to"`
	Score int    `json:"score"`
}

type CreateGameResponse struct {
	GameID    string             `json:"game_id"`
	GameState GameStateDTO       `json:"game_state"`
	AIConfig  engine.LevelConfig `json:"ai_config"`
}

type MoveResponse struct {
	Success   bool         `json:"success"`
	MoveInfo  MoveInfoDTO  `json:"move_info"`
	Thinking  *ThinkingDTO `json:"thinking_info,omitempty"`
	GameState GameStateDTO `json:"game_state"`
}

type UndoResponse struct {
	Success   bool         `json:"success"`
	GameState GameStateDTO `json:"game_state"`
}

type LegalMovesResponse struct {
	LegalMoves [][2]int `json:"legal_moves"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func sideName(s xiangqi.Side) string { return s.String() }

func parseSide(v string) (xiangqi.Side, bool) {
	switch v {
	case "", "red":
		return xiangqi.Red, true
	case "black":
		return xiangqi.Black, true
	default:
		return xiangqi.NoSide, false
	}
}

func squarePair(sq xiangqi.Square) [2]int { return [2]int{int(sq.Row), int(sq.Col)} }

func pieceDTO(pt xiangqi.PieceType, side xiangqi.Side) PieceDTO {
	return PieceDTO{Type: pt.String(), Color: sideName(side)}
}

func moveInfoDTO(rec game.MoveRecord) MoveInfoDTO {
	out := MoveInfoDTO{
		From:      squarePair(rec.From),
		To:        squarePair(rec.To),
		PieceType: rec.Piece.String(),
		Color:     sideName(rec.Side),
		IsCheck:   rec.IsCheck,
		Notation:  rec.Notation,
		ByAI:      rec.ByAI,
	}
	if rec.Captured != xiangqi.PieceNone {
		p := pieceDTO(rec.Captured, rec.Side.Opponent())
		out.Captured = &p
	}
	return out
}

func stateDTO(st game.State) GameStateDTO {
	board := make([][]*PieceDTO, xiangqi.Rows)
	for r := range board {
		board[r] = make([]*PieceDTO, xiangqi.Cols)
		for c := range board[r] {
			if p := st.Board.PieceAt(xiangqi.Sq(r, c)); p != nil {
				d := pieceDTO(p.Type, p.Side)
				board[r][c] = &d
			}
		}
	}

	out := GameStateDTO{
		GameID:         st.ID,
		FEN:            st.FEN,
		Board:          board,
		CurrentTurn:    sideName(st.Turn),
		GameResult:     st.Result.String(),
		IsCheck:        st.InCheck,
		MoveCount:      len(st.History),
		CapturedPieces: make([]PieceDTO, 0, len(st.Captured)),
		AIType:         string(st.Level.Level),
		PlayerColor:    sideName(st.PlayerSide),
		History:        make([]MoveInfoDTO, 0, len(st.History)),
	}
	if last, ok := st.LastMove(); ok {
		out.LastMove = &LastMoveDTO{From: squarePair(last.From), To: squarePair(last.To)}
	}
	for _, c := range st.Captured {
		out.CapturedPieces = append(out.CapturedPieces, pieceDTO(c.Type, c.Side))
	}
	for _, rec := range st.History {
		out.History = append(out.History, moveInfoDTO(rec))
	}
	return out
}

func thinkingDTO(res engine.SearchResult) *ThinkingDTO {
	out := &ThinkingDTO{
		Depth:          res.Depth,
		NodesEvaluated: res.Nodes,
		Score:          res.Score,
		WinProb:        res.WinProb,
		TimeMs:         res.TimeUsed.Milliseconds(),
		Candidates:     make([]CandidateDTO, 0, len(res.Candidates)),
		PV:             make([]string, 0, len(res.PV)),
	}
	for _, c := range res.Candidates {
		out.Candidates = append(out.Candidates, CandidateDTO{From: squarePair(c.Move.From), To: squarePair(c.Move.To), Score: c.Score})
	}
	for _, m := range res.PV {
		out.PV = append(out.PV, m.String())
	}
	return out
}
