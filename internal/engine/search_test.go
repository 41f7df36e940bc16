package engine

import (
	"testing"
	"time"

	"xiangqi/internal/xiangqi"
)

const (
	// 红车 (5,0) 下底：一车横将，一车封二路，帅管住四路
	redMateInOne = "4k4/8R/9/9/9/R8/9/9/9/3K5 w"
	// 上面局面翻转换色，黑先
	blackMateInOne = "3k5/9/9/9/r8/9/9/9/8r/4K4 b"
	// 子少的中局，搜几层也很快
	sparseMiddle = "3k5/4a4/4b4/p3c4/9/2P6/9/4C4/4R4/5K3 w"
)

func TestSearchFindsMateInOne(t *testing.T) {
	for _, v := range []Variant{VariantAlphaBeta, VariantMaster} {
		t.Run(v.String()+"/red", func(t *testing.T) {
			b, side := xiangqi.MustDecodeFEN(redMateInOne)
			res := NewEngine(v == VariantMaster).Search(b, side, SearchConfig{MaxDepth: 3, Variant: v})
			if !res.Found {
				t.Fatalf("no move found")
			}
			if res.BestMove.From != xiangqi.Sq(5, 0) || res.BestMove.To != xiangqi.Sq(0, 0) {
				t.Fatalf("best = %v, want (5,0)->(0,0)", res.BestMove)
			}
			if res.Score <= mateBound {
				t.Fatalf("score = %d, want a red mate score", res.Score)
			}
		})
		t.Run(v.String()+"/black", func(t *testing.T) {
			b, side := xiangqi.MustDecodeFEN(blackMateInOne)
			res := NewEngine(v == VariantMaster).Search(b, side, SearchConfig{MaxDepth: 3, Variant: v})
			if res.BestMove.From != xiangqi.Sq(4, 0) || res.BestMove.To != xiangqi.Sq(9, 0) {
				t.Fatalf("best = %v, want (4,0)->(9,0)", res.BestMove)
			}
			if res.Score >= -mateBound {
				t.Fatalf("score = %d, want a black mate score", res.Score)
			}
		})
	}
}

func TestSearchNoLegalMoves(t *testing.T) {
	b, side := xiangqi.MustDecodeFEN("R3k4/8R/9/9/9/9/9/9/9/3K5 b")
	res := NewEngine(true).Search(b, side, SearchConfig{MaxDepth: 3, Variant: VariantMaster})
	if res.Found {
		t.Fatalf("found %v in a mated position", res.BestMove)
	}
}

func TestSearchDeterministicAndNonMutating(t *testing.T) {
	for _, v := range []Variant{VariantAlphaBeta, VariantMaster} {
		b, side := xiangqi.MustDecodeFEN(sparseMiddle)
		before := b.Hash()
		cfg := SearchConfig{MaxDepth: 3, Variant: v}

		r1 := NewEngine(v == VariantMaster).Search(b, side, cfg)
		r2 := NewEngine(v == VariantMaster).Search(b, side, cfg)
		if !r1.BestMove.Equal(r2.BestMove) || r1.Score != r2.Score {
			t.Fatalf("%v: runs differ: %v/%d vs %v/%d", v, r1.BestMove, r1.Score, r2.BestMove, r2.Score)
		}
		if b.Hash() != before {
			t.Fatalf("%v: search modified the board", v)
		}
		if err := b.Validate(); err != nil {
			t.Fatalf("%v: board inconsistent after search: %v", v, err)
		}
		if !b.IsLegalMove(r1.BestMove, side) {
			t.Fatalf("%v: illegal best move %v", v, r1.BestMove)
		}
		if r1.Depth < 1 {
			t.Fatalf("%v: depth = %d", v, r1.Depth)
		}
		if len(r1.PV) == 0 || !r1.PV[0].Equal(r1.BestMove) {
			t.Fatalf("%v: pv %v does not start with best move", v, r1.PV)
		}
	}
}

func TestSearchRespectsTimeLimit(t *testing.T) {
	if testing.Short() {
		t.Skip("timing test")
	}
	b := xiangqi.NewInitialBoard()
	start := time.Now()
	res := NewEngine(true).Search(b, xiangqi.Red, SearchConfig{
		MaxDepth:  20,
		TimeLimit: 200 * time.Millisecond,
		Variant:   VariantMaster,
	})
	if !res.Found || !b.IsLegalMove(res.BestMove, xiangqi.Red) {
		t.Fatalf("want a legal move, got %+v", res.BestMove)
	}
	// 单个节点不可中断，给足余量
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("search took %v with a 200ms limit", elapsed)
	}
}

func TestCandidatesSorted(t *testing.T) {
	b, side := xiangqi.MustDecodeFEN(sparseMiddle)
	res := NewEngine(false).Search(b, side, SearchConfig{MaxDepth: 2, Variant: VariantAlphaBeta})
	if len(res.Candidates) == 0 || len(res.Candidates) > maxCandidates {
		t.Fatalf("got %d candidates", len(res.Candidates))
	}
	if !res.Candidates[0].Move.Equal(res.BestMove) {
		t.Fatalf("first candidate %v is not the best move %v", res.Candidates[0].Move, res.BestMove)
	}
	// 红方走，红方视角分数从高到低
	for i := 1; i < len(res.Candidates); i++ {
		if res.Candidates[i].Score > res.Candidates[i-1].Score {
			t.Fatalf("candidates not sorted: %+v", res.Candidates)
		}
	}
}

func TestOrderMovesPVFirst(t *testing.T) {
	e := NewEngine(false)
	b := xiangqi.NewInitialBoard()
	moves := b.LegalMoves(xiangqi.Red)
	pv := moves[len(moves)-1].Key()

	ordered := e.orderMoves(b, xiangqi.Red, moves, 1, pv)
	if len(ordered) != len(moves) {
		t.Fatalf("ordering dropped moves: %d vs %d", len(ordered), len(moves))
	}
	if ordered[0].Key() != pv {
		t.Fatalf("pv move not first: %v", ordered[0].Move)
	}
	for i := 1; i < len(ordered); i++ {
		if ordered[i].score > ordered[i-1].score {
			t.Fatalf("not sorted at %d", i)
		}
	}
}

func TestRecordCutoffKillersAndHistory(t *testing.T) {
	e := NewEngine(false)
	b, _ := xiangqi.MustDecodeFEN("4k4/9/9/9/r8/9/9/9/9/R2K5 w")
	capture, ok := b.FindLegalMove(xiangqi.Red, xiangqi.Sq(9, 0), xiangqi.Sq(4, 0))
	if !ok {
		t.Fatalf("capture not legal")
	}
	quiet, ok := b.FindLegalMove(xiangqi.Red, xiangqi.Sq(9, 0), xiangqi.Sq(9, 1))
	if !ok {
		t.Fatalf("quiet move not legal")
	}

	e.recordCutoff(capture, 4)
	if k := e.killerSlot(4); !k[0].IsZero() {
		t.Fatalf("capture stored as killer: %v", k)
	}
	if h := e.history[xiangqi.PieceRook][capture.From.Index()][capture.To.Index()]; h != 16 {
		t.Fatalf("capture history = %d, want 16", h)
	}
	e.recordCutoff(quiet, 4)
	if k := e.killerSlot(4); k[0] != quiet.Key() {
		t.Fatalf("killer = %v, want %v", k[0], quiet.Key())
	}
	if h := e.history[xiangqi.PieceRook][quiet.From.Index()][quiet.To.Index()]; h != 16 {
		t.Fatalf("history = %d, want 16", h)
	}
}

// 两车错杀：第一步之后黑方无论怎么应，红方都有一步杀
const (
	redMateInTwo   = "4k4/9/9/9/9/R8/8R/9/9/3K5 w"
	blackMateInTwo = "3k5/9/9/8r/r8/9/9/9/9/4K4 b"
)

func canMateAtOnce(b *xiangqi.Board, side xiangqi.Side) bool {
	for _, m := range b.LegalMoves(side) {
		mate := false
		_ = b.Scoped(m, func(*xiangqi.Piece) { mate = b.IsCheckmate(side.Opponent()) })
		if mate {
			return true
		}
	}
	return false
}

func TestSearchFindsMateInTwo(t *testing.T) {
	for _, v := range []Variant{VariantAlphaBeta, VariantMaster} {
		for _, fen := range []string{redMateInTwo, blackMateInTwo} {
			b, side := xiangqi.MustDecodeFEN(fen)
			t.Run(v.String()+"/"+side.String(), func(t *testing.T) {
				if canMateAtOnce(b, side) {
					t.Fatalf("fixture already has a mate in one")
				}
				res := NewEngine(v == VariantMaster).Search(b, side, SearchConfig{MaxDepth: 5, Variant: v})
				if !res.Found {
					t.Fatalf("no move found")
				}
				if got := sideSign(side) * res.Score; got <= mateBound {
					t.Fatalf("score = %d, want a mate score for %s", res.Score, side)
				}
				if got := sideSign(side) * res.Score; got != mateScore-3 {
					t.Fatalf("score = %d, want mate in 3 plies", res.Score)
				}

				// 最佳着之后对方的每个应着都留下一步杀
				opp := side.Opponent()
				_ = b.Scoped(res.BestMove, func(*xiangqi.Piece) {
					replies := b.LegalMoves(opp)
					if len(replies) == 0 {
						t.Fatalf("%v mates at once, fixture is wrong", res.BestMove)
					}
					for _, r := range replies {
						_ = b.Scoped(r, func(*xiangqi.Piece) {
							if !canMateAtOnce(b, side) {
								t.Errorf("after %v %v there is no mate", res.BestMove, r)
							}
						})
					}
				})
			})
		}
	}
}

// 吃子很多的局面：双车对头、双炮隔兵互打
const captureRich = "r3k4/9/4c4/9/4p4/4P4/9/4C4/9/R3K4"

func TestQuiescenceNeverBelowStandPat(t *testing.T) {
	for _, rich := range []bool{false, true} {
		for _, stm := range []string{" w", " b"} {
			b, side := xiangqi.MustDecodeFEN(captureRich + stm)
			if len(tacticalMoves(b, side)) == 0 {
				t.Fatalf("fixture has no captures for %s", side)
			}
			before := b.Hash()

			e := NewEngine(rich)
			e.cfg = SearchConfig{Variant: VariantMaster}.withDefaults()
			standPat := sideSign(side) * e.eval.Evaluate(b)
			if q := e.quiesce(b, side, -scoreInf, scoreInf, 0, e.cfg.QuiescenceDepth); q < standPat {
				t.Fatalf("rich=%v %s: quiesce %d below stand pat %d", rich, side, q, standPat)
			}

			e = NewEngine(rich)
			e.cfg = SearchConfig{Variant: VariantAlphaBeta}.withDefaults()
			red := e.eval.Evaluate(b)
			q := e.quiesceMinMax(b, side, -scoreInf, scoreInf, e.cfg.QuiescenceDepth)
			if (side == xiangqi.Red && q < red) || (side == xiangqi.Black && q > red) {
				t.Fatalf("rich=%v %s: quiesceMinMax %d worse than stand pat %d", rich, side, q, red)
			}

			if b.Hash() != before {
				t.Fatalf("quiescence modified the board")
			}
		}
	}
}
