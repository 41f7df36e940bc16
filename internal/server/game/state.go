package game

import (
	"sync"
	"sync/atomic"
	"time"

	"xiangqi/internal/engine"
	"xiangqi/internal/xiangqi"
)

// MoveRecord 棋谱里的一步
type MoveRecord struct {
	From     xiangqi.Square
	To       xiangqi.Square
	Piece    xiangqi.PieceType
	Side     xiangqi.Side
	Captured xiangqi.PieceType // 没吃子时为 PieceNone
	IsCheck  bool
	Notation string
	ByAI     bool
}

// CapturedPiece 被吃掉的子，按被吃的先后排列
type CapturedPiece struct {
	Type xiangqi.PieceType
	Side xiangqi.Side
}

type undoEntry struct {
	move     xiangqi.Move
	captured *xiangqi.Piece
}

// Session 一局棋。所有走子、悔棋、AI 思考都在 mu 下进行，同一局同时只有一个搜索。
type Session struct {
	ID string

	mu         sync.Mutex
	board      *xiangqi.Board
	turn       xiangqi.Side
	result     xiangqi.Result
	history    []MoveRecord
	stack      []undoEntry
	captured   []CapturedPiece
	level      engine.LevelConfig
	playerSide xiangqi.Side
	ai         engine.Player
	undoSteps  int
	now        func() time.Time

	createdAt    time.Time
	lastActivity atomic.Int64 // unix nano；清理协程不拿 mu 也能读
}

// State 某一时刻的快照，调用方可以随便读写
type State struct {
	ID         string
	FEN        string
	Board      *xiangqi.Board
	Turn       xiangqi.Side
	Result     xiangqi.Result
	InCheck    bool
	History    []MoveRecord
	Captured   []CapturedPiece
	Level      engine.LevelConfig
	PlayerSide xiangqi.Side
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// LastMove 最近一步；还没走过时 ok 为 false
func (s State) LastMove() (MoveRecord, bool) {
	if len(s.History) == 0 {
		return MoveRecord{}, false
	}
	return s.History[len(s.History)-1], true
}

// AISide AI 执的颜色
func (s State) AISide() xiangqi.Side { return s.PlayerSide.Opponent() }

func (s *Session) touch(now time.Time) { s.lastActivity.Store(now.UnixNano()) }

func (s *Session) lastActive() time.Time { return time.Unix(0, s.lastActivity.Load()) }

// 调用方持有 mu
func (s *Session) snapshot() State {
	return State{
		ID:         s.ID,
		FEN:        xiangqi.EncodeFEN(s.board, s.turn),
		Board:      s.board.Copy(),
		Turn:       s.turn,
		Result:     s.result,
		InCheck:    s.board.IsInCheck(s.turn),
		History:    append([]MoveRecord(nil), s.history...),
		Captured:   append([]CapturedPiece(nil), s.captured...),
		Level:      s.level,
		PlayerSide: s.playerSide,
		CreatedAt:  s.createdAt,
		UpdatedAt:  s.lastActive(),
	}
}
