package game

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"xiangqi/internal/engine"
	"xiangqi/internal/xiangqi"
)

var (
	ErrGameNotFound  = errors.New("game not found")
	ErrGameOver      = errors.New("game has ended")
	ErrNotYourTurn   = errors.New("not your turn")
	ErrIllegalMove   = errors.New("illegal move")
	ErrNothingToUndo = errors.New("not enough moves to undo")
	ErrNoAIMove      = errors.New("AI could not find a move")
	ErrBadColor      = errors.New("player color must be red or black")
)

// Options 新开一局的参数
type Options struct {
	Level      engine.Level
	PlayerSide xiangqi.Side
	// FEN 为空时从标准开局开始
	FEN string
}

type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	levels      []engine.LevelConfig
	timeout     time.Duration
	maxSessions int
	undoSteps   int
	now         func() time.Time
}

func NewManager(levels []engine.LevelConfig, timeout time.Duration, maxSessions, undoSteps int) *Manager {
	if undoSteps <= 0 {
		undoSteps = 2
	}
	return &Manager{
		sessions:    make(map[string]*Session),
		levels:      levels,
		timeout:     timeout,
		maxSessions: maxSessions,
		undoSteps:   undoSteps,
		now:         time.Now,
	}
}

// Levels 可选的 AI 档位
func (m *Manager) Levels() []engine.LevelConfig {
	return append([]engine.LevelConfig(nil), m.levels...)
}

func (m *Manager) NewGame(opts Options) (*Session, error) {
	lvl, err := engine.FindLevel(m.levels, opts.Level)
	if err != nil {
		return nil, err
	}
	if opts.PlayerSide != xiangqi.Red && opts.PlayerSide != xiangqi.Black {
		return nil, ErrBadColor
	}
	ai, err := engine.NewPlayer(lvl)
	if err != nil {
		return nil, err
	}

	board, turn := xiangqi.NewInitialBoard(), xiangqi.Red
	if opts.FEN != "" {
		if board, turn, err = xiangqi.DecodeFEN(opts.FEN); err != nil {
			return nil, err
		}
	}

	now := m.now()
	s := &Session{
		ID:         uuid.NewString(),
		board:      board,
		turn:       turn,
		result:     board.GameResult(turn),
		level:      lvl,
		playerSide: opts.PlayerSide,
		ai:         ai,
		undoSteps:  m.undoSteps,
		now:        m.now,
		createdAt:  now,
	}
	s.touch(now)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	m.Cleanup()

	log.Info().Str("game", s.ID).Str("level", string(lvl.Level)).Stringer("player", opts.PlayerSide).Msg("game created")
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, errors.Wrap(ErrGameNotFound, id)
	}
	s.touch(m.now())
	return s, nil
}

func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return errors.Wrap(ErrGameNotFound, id)
	}
	delete(m.sessions, id)
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Cleanup 回收超时的对局，总数超过上限时再按最后活动时间从旧到新删。返回删掉的数量。
func (m *Manager) Cleanup() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if m.timeout > 0 && now.Sub(s.lastActive()) > m.timeout {
			delete(m.sessions, id)
			removed++
		}
	}

	if m.maxSessions > 0 && len(m.sessions) > m.maxSessions {
		all := make([]*Session, 0, len(m.sessions))
		for _, s := range m.sessions {
			all = append(all, s)
		}
		sort.Slice(all, func(i, j int) bool { return all[i].lastActive().Before(all[j].lastActive()) })
		for _, s := range all[:len(all)-m.maxSessions] {
			delete(m.sessions, s.ID)
			removed++
		}
	}
	if removed > 0 {
		log.Debug().Int("removed", removed).Int("left", len(m.sessions)).Msg("sessions cleaned up")
	}
	return removed
}

// RunJanitor 每隔 every 清理一次，ctx 结束时返回
func (m *Manager) RunJanitor(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Cleanup()
		}
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// MakeMove 当前行棋方走一步
func (s *Session) MakeMove(from, to xiangqi.Square) (MoveRecord, State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.play(from, to, false)
	if err != nil {
		return MoveRecord{}, State{}, err
	}
	return rec, s.snapshot(), nil
}

// AIMove 轮到 AI 时让它想一步并走出去。会持有会话锁直到搜索结束。
func (s *Session) AIMove() (MoveRecord, engine.SearchResult, State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.result != xiangqi.Ongoing {
		return MoveRecord{}, engine.SearchResult{}, State{}, ErrGameOver
	}
	if s.turn != s.playerSide.Opponent() {
		return MoveRecord{}, engine.SearchResult{}, State{}, errors.Wrap(ErrNotYourTurn, "not AI turn")
	}

	res := s.ai.ChooseMove(s.board, s.turn, 0)
	if !res.Found {
		return MoveRecord{}, res, State{}, ErrNoAIMove
	}
	log.Debug().
		Str("game", s.ID).
		Str("level", string(s.level.Level)).
		Str("move", res.BestMove.String()).
		Int("score", res.Score).
		Int("depth", res.Depth).
		Int64("nodes", res.Nodes).
		Dur("took", res.TimeUsed).
		Msg("ai move")

	rec, err := s.play(res.BestMove.From, res.BestMove.To, true)
	if err != nil {
		// 搜索只会返回合法走法，走到这里说明棋盘状态坏了
		return MoveRecord{}, res, State{}, errors.Wrap(err, "apply AI move")
	}
	return rec, res, s.snapshot(), nil
}

// 调用方持有 mu
func (s *Session) play(from, to xiangqi.Square, byAI bool) (MoveRecord, error) {
	if s.result != xiangqi.Ongoing {
		return MoveRecord{}, ErrGameOver
	}
	if !from.OnBoard() || !to.OnBoard() {
		return MoveRecord{}, errors.Wrapf(xiangqi.ErrOffBoard, "%s->%s", from, to)
	}
	p := s.board.PieceAt(from)
	if p == nil {
		return MoveRecord{}, errors.Wrapf(xiangqi.ErrEmptySource, "%s", from)
	}
	if p.Side != s.turn {
		return MoveRecord{}, ErrNotYourTurn
	}
	m, ok := s.board.FindLegalMove(s.turn, from, to)
	if !ok {
		return MoveRecord{}, errors.Wrapf(ErrIllegalMove, "%s->%s", from, to)
	}

	notation := xiangqi.Notation(s.board, m)
	captured, err := s.board.ApplyMove(m)
	if err != nil {
		return MoveRecord{}, err
	}
	s.stack = append(s.stack, undoEntry{move: m, captured: captured})

	rec := MoveRecord{
		From:     from,
		To:       to,
		Piece:    p.Type,
		Side:     p.Side,
		Notation: notation,
		ByAI:     byAI,
	}
	if captured != nil {
		rec.Captured = captured.Type
		s.captured = append(s.captured, CapturedPiece{Type: captured.Type, Side: captured.Side})
	}

	s.turn = s.turn.Opponent()
	rec.IsCheck = s.board.IsInCheck(s.turn)
	s.history = append(s.history, rec)
	s.result = s.board.GameResult(s.turn)
	s.touch(s.now())
	return rec, nil
}

// Undo 退回 steps 步；steps<=0 时用默认步数
func (s *Session) Undo(steps int) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if steps <= 0 {
		steps = s.undoSteps
	}
	if len(s.stack) < steps {
		return State{}, errors.Wrapf(ErrNothingToUndo, "want %d, have %d", steps, len(s.stack))
	}
	for range steps {
		e := s.stack[len(s.stack)-1]
		s.stack = s.stack[:len(s.stack)-1]
		if err := s.board.UndoMove(e.move, e.captured); err != nil {
			return State{}, errors.Wrap(err, "undo")
		}
		s.turn = s.turn.Opponent()
		s.history = s.history[:len(s.history)-1]
		if e.captured != nil {
			s.captured = s.captured[:len(s.captured)-1]
		}
	}
	s.result = s.board.GameResult(s.turn)
	s.touch(s.now())
	return s.snapshot(), nil
}

// LegalTargets from 上的子能走到的格子；不是当前行棋方的子时返回空
func (s *Session) LegalTargets(from xiangqi.Square) []xiangqi.Square {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !from.OnBoard() {
		return nil
	}
	p := s.board.PieceAt(from)
	if p == nil || p.Side != s.turn || s.result != xiangqi.Ongoing {
		return nil
	}
	var out []xiangqi.Square
	for _, m := range s.board.LegalMovesFrom(from, s.turn) {
		out = append(out, m.To)
	}
	return out
}
