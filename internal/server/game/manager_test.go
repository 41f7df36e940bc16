package game

import (
	"testing"
	"time"

	"github.com/pkg/errors"

	"xiangqi/internal/engine"
	"xiangqi/internal/xiangqi"
)

const startFEN = "rnbakabnr/9/1c5c1/p1p1p1p1p/9/9/P1P1P1P1P/1C5C1/9/RNBAKABNR w"

func newTestManager() *Manager {
	return NewManager(engine.DefaultLevels(), time.Hour, 100, 2)
}

func newGame(t *testing.T, m *Manager, opts Options) *Session {
	t.Helper()
	if opts.Level == "" {
		opts.Level = engine.LevelRandom
	}
	s, err := m.NewGame(opts)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	return s
}

func TestNewGame(t *testing.T) {
	m := newTestManager()
	s := newGame(t, m, Options{Level: engine.LevelGreedy, PlayerSide: xiangqi.Black})

	st := s.State()
	if st.FEN != startFEN {
		t.Fatalf("fen = %q", st.FEN)
	}
	if st.Turn != xiangqi.Red || st.Result != xiangqi.Ongoing || st.InCheck {
		t.Fatalf("bad initial state: %+v", st)
	}
	if st.Level.Level != engine.LevelGreedy || st.AISide() != xiangqi.Red {
		t.Fatalf("level/side = %s/%v", st.Level.Level, st.AISide())
	}
	if _, ok := st.LastMove(); ok {
		t.Fatalf("new game has a last move")
	}

	got, err := m.Get(s.ID)
	if err != nil || got != s {
		t.Fatalf("Get = %v, %v", got, err)
	}
}

func TestNewGameErrors(t *testing.T) {
	m := newTestManager()
	if _, err := m.NewGame(Options{Level: "grandmaster", PlayerSide: xiangqi.Red}); !errors.Is(err, engine.ErrUnknownLevel) {
		t.Fatalf("unknown level err = %v", err)
	}
	if _, err := m.NewGame(Options{Level: engine.LevelRandom, PlayerSide: xiangqi.NoSide}); !errors.Is(err, ErrBadColor) {
		t.Fatalf("bad color err = %v", err)
	}
	if _, err := m.NewGame(Options{Level: engine.LevelRandom, PlayerSide: xiangqi.Red, FEN: "9/9 w"}); !errors.Is(err, xiangqi.ErrInvalidFEN) {
		t.Fatalf("bad fen err = %v", err)
	}
	if m.Len() != 0 {
		t.Fatalf("failed games were stored")
	}
}

func TestMakeMove(t *testing.T) {
	m := newTestManager()
	s := newGame(t, m, Options{})

	rec, st, err := s.MakeMove(xiangqi.Sq(7, 7), xiangqi.Sq(7, 4))
	if err != nil {
		t.Fatalf("MakeMove: %v", err)
	}
	if rec.Notation != "炮二平五" || rec.Piece != xiangqi.PieceCannon || rec.ByAI {
		t.Fatalf("record = %+v", rec)
	}
	if st.Turn != xiangqi.Black || len(st.History) != 1 {
		t.Fatalf("state after move: turn %v, history %d", st.Turn, len(st.History))
	}
	if last, ok := st.LastMove(); !ok || last.To != xiangqi.Sq(7, 4) {
		t.Fatalf("last move = %+v", last)
	}

	cases := []struct {
		name     string
		from, to xiangqi.Square
		want     error
	}{
		{"empty source", xiangqi.Sq(4, 4), xiangqi.Sq(5, 4), xiangqi.ErrEmptySource},
		{"wrong side", xiangqi.Sq(9, 1), xiangqi.Sq(7, 2), ErrNotYourTurn},
		{"illegal", xiangqi.Sq(0, 1), xiangqi.Sq(5, 1), ErrIllegalMove},
		{"off board", xiangqi.Sq(0, 1), xiangqi.Sq(12, 1), xiangqi.ErrOffBoard},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := s.MakeMove(tc.from, tc.to)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if s.State().Turn != xiangqi.Black {
				t.Fatalf("failed move changed the turn")
			}
		})
	}
}

func TestCaptureAndUndo(t *testing.T) {
	m := newTestManager()
	s := newGame(t, m, Options{})

	// 炮隔着黑炮打马
	rec, st, err := s.MakeMove(xiangqi.Sq(7, 1), xiangqi.Sq(0, 1))
	if err != nil {
		t.Fatalf("MakeMove: %v", err)
	}
	if rec.Captured != xiangqi.PieceHorse {
		t.Fatalf("captured = %v", rec.Captured)
	}
	if len(st.Captured) != 1 || st.Captured[0] != (CapturedPiece{Type: xiangqi.PieceHorse, Side: xiangqi.Black}) {
		t.Fatalf("captured list = %+v", st.Captured)
	}

	st, err = s.Undo(1)
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if st.FEN != startFEN || len(st.Captured) != 0 || len(st.History) != 0 {
		t.Fatalf("undo did not restore the start: %+v", st)
	}
	if err := st.Board.Validate(); err != nil {
		t.Fatalf("board after undo: %v", err)
	}

	if _, err := s.Undo(1); !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("undo on empty stack err = %v", err)
	}
}

func TestUndoDefaultSteps(t *testing.T) {
	m := newTestManager()
	s := newGame(t, m, Options{})
	if _, _, err := s.MakeMove(xiangqi.Sq(7, 7), xiangqi.Sq(7, 4)); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.MakeMove(xiangqi.Sq(0, 7), xiangqi.Sq(2, 6)); err != nil {
		t.Fatal(err)
	}
	st, err := s.Undo(0)
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if st.FEN != startFEN {
		t.Fatalf("fen = %q", st.FEN)
	}
}

func TestAIMove(t *testing.T) {
	m := newTestManager()
	s := newGame(t, m, Options{Level: engine.LevelGreedy, PlayerSide: xiangqi.Red})

	if _, _, _, err := s.AIMove(); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("AI moved on the player's turn: %v", err)
	}
	if _, _, err := s.MakeMove(xiangqi.Sq(6, 4), xiangqi.Sq(5, 4)); err != nil {
		t.Fatal(err)
	}
	rec, res, st, err := s.AIMove()
	if err != nil {
		t.Fatalf("AIMove: %v", err)
	}
	if !rec.ByAI || rec.Side != xiangqi.Black || !res.Found {
		t.Fatalf("record = %+v", rec)
	}
	if st.Turn != xiangqi.Red || len(st.History) != 2 {
		t.Fatalf("state = turn %v, history %d", st.Turn, len(st.History))
	}
}

func TestGameOver(t *testing.T) {
	m := newTestManager()
	s := newGame(t, m, Options{FEN: "4k4/8R/9/9/9/R8/9/9/9/3K5 w", PlayerSide: xiangqi.Red})

	rec, st, err := s.MakeMove(xiangqi.Sq(5, 0), xiangqi.Sq(0, 0))
	if err != nil {
		t.Fatalf("MakeMove: %v", err)
	}
	if !rec.IsCheck || st.Result != xiangqi.RedWin || !st.InCheck {
		t.Fatalf("want checkmate, got %+v / %v", rec, st.Result)
	}
	if _, _, err := s.MakeMove(xiangqi.Sq(0, 4), xiangqi.Sq(0, 5)); !errors.Is(err, ErrGameOver) {
		t.Fatalf("move after mate err = %v", err)
	}
	if _, _, _, err := s.AIMove(); !errors.Is(err, ErrGameOver) {
		t.Fatalf("AI move after mate err = %v", err)
	}
	if got := s.LegalTargets(xiangqi.Sq(0, 4)); len(got) != 0 {
		t.Fatalf("legal targets after mate: %v", got)
	}

	// 悔棋之后对局继续
	st, err = s.Undo(1)
	if err != nil || st.Result != xiangqi.Ongoing {
		t.Fatalf("undo after mate: %v, %v", st.Result, err)
	}
}

func TestLegalTargets(t *testing.T) {
	m := newTestManager()
	s := newGame(t, m, Options{})
	if got := s.LegalTargets(xiangqi.Sq(9, 1)); len(got) != 2 {
		t.Fatalf("horse targets = %v", got)
	}
	if got := s.LegalTargets(xiangqi.Sq(0, 1)); got != nil {
		t.Fatalf("black horse on red's turn: %v", got)
	}
	if got := s.LegalTargets(xiangqi.Sq(4, 4)); got != nil {
		t.Fatalf("empty square: %v", got)
	}
}

func TestDeleteAndNotFound(t *testing.T) {
	m := newTestManager()
	s := newGame(t, m, Options{})
	if err := m.Delete(s.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := m.Get(s.ID); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("Get after delete err = %v", err)
	}
	if err := m.Delete(s.ID); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("double delete err = %v", err)
	}
}

func TestCleanup(t *testing.T) {
	m := NewManager(engine.DefaultLevels(), time.Hour, 2, 2)
	clock := time.Unix(1_700_000_000, 0)
	m.now = func() time.Time { return clock }

	var ids []string
	for range 3 {
		ids = append(ids, newGame(t, m, Options{}).ID)
		clock = clock.Add(time.Minute)
	}
	// 第三局创建时最老的一局被挤掉
	if m.Len() != 2 {
		t.Fatalf("len = %d, want 2", m.Len())
	}
	if _, err := m.Get(ids[0]); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("oldest game survived: %v", err)
	}

	clock = clock.Add(2 * time.Hour)
	if n := m.Cleanup(); n != 2 || m.Len() != 0 {
		t.Fatalf("removed %d, left %d", n, m.Len())
	}
}
