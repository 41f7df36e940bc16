package engine

import (
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"xiangqi/internal/xiangqi"
)

// Variant 搜索算法
type Variant int

const (
	// VariantAlphaBeta 极大/极小两支分开写的 alpha-beta
	VariantAlphaBeta Variant = iota
	// VariantMaster negamax + 期望窗口 + PVS + 空着裁剪 + 后期走法缩减
	VariantMaster
)

func (v Variant) String() string {
	if v == VariantMaster {
		return "master"
	}
	return "alphabeta"
}

const (
	aspirationWindow       = 50
	defaultQuiescenceDepth = 4
	maxCandidates          = 5
)

// 搜索配置
type SearchConfig struct {
	MaxDepth        int           // 最大搜索深度（ply）
	TimeLimit       time.Duration // 搜索时间上限（0 表示不限制）
	QuiescenceDepth int           // 静态搜索最多再走几步
	Variant         Variant
}

func (c SearchConfig) withDefaults() SearchConfig {
	if c.MaxDepth <= 0 {
		c.MaxDepth = 3
	}
	c.MaxDepth = min(c.MaxDepth, maxSearchDepth)
	if c.QuiescenceDepth <= 0 {
		c.QuiescenceDepth = defaultQuiescenceDepth
	}
	return c
}

// 外层迭代加深在 limit 的这个比例之后不再开新的一层
func (c SearchConfig) outerCutoff() time.Duration {
	if c.Variant == VariantMaster {
		return c.TimeLimit * 85 / 100
	}
	return c.TimeLimit * 90 / 100
}

// Candidate 根节点上完整搜过的一个走法
type Candidate struct {
	Move  xiangqi.Move
	Score int
}

// 搜索结果
type SearchResult struct {
	BestMove   xiangqi.Move   // 最佳着法
	Found      bool           // 没有合法走法时为 false
	Score      int            // 评估分（正：红方好，负：黑方好）
	WinProb    float32        // 红方胜率的粗略换算
	Depth      int            // 完整搜完的深度
	Nodes      int64          // 节点数
	TimeUsed   time.Duration  // 花费时间
	Candidates []Candidate    // 分数最高的几个走法（只用于展示）
	PV         []xiangqi.Move // 主变
}

// 一层根搜索的结果；分数都是行棋方视角
type rootResult struct {
	best       xiangqi.Move
	score      int
	candidates []Candidate
	complete   bool
}

// Search 在 b 的私有拷贝上为 side 找一步棋，不会修改 b。
func (e *Engine) Search(b *xiangqi.Board, side xiangqi.Side, cfg SearchConfig) SearchResult {
	cfg = cfg.withDefaults()
	e.reset()
	e.cfg = cfg

	start := time.Now()
	if cfg.TimeLimit > 0 {
		e.deadline = start.Add(cfg.TimeLimit)
	}
	board := b.Copy()

	moves := board.LegalMoves(side)
	if len(moves) == 0 {
		return SearchResult{TimeUsed: time.Since(start)}
	}

	var (
		best     rootResult
		bestSet  bool
		depthHit int
	)
	for depth := 1; depth <= cfg.MaxDepth; depth++ {
		if depth > 1 && cfg.TimeLimit > 0 && time.Since(start) > cfg.outerCutoff() {
			break
		}

		var rr rootResult
		if cfg.Variant == VariantMaster && depth > 1 && bestSet {
			rr = e.aspirationRoot(board, side, moves, depth, best)
		} else {
			rr = e.searchRoot(board, side, moves, depth, -scoreInf, scoreInf, best.best.Key())
		}

		if !rr.complete {
			// 第一层都没搜完：用已经搜完的根走法，一个都没有就退回第一个合法走法
			if !bestSet {
				best = rr
				if len(rr.candidates) == 0 {
					best.best = moves[0]
					best.score = 0
				}
				sortCandidates(best.candidates)
				bestSet = true
			}
			break
		}
		best, bestSet, depthHit = rr, true, depth

		log.Debug().
			Str("variant", cfg.Variant.String()).
			Int("depth", depth).
			Int("score", rr.score).
			Str("best", rr.best.String()).
			Int64("nodes", e.nodes).
			Dur("elapsed", time.Since(start)).
			Msg("depth complete")

		if abs(rr.score) > mateBound {
			break // 已经找到杀棋，再加深也不会更好
		}
	}

	sign := sideSign(side)
	res := SearchResult{
		BestMove: best.best,
		Found:    true,
		Score:    sign * best.score,
		Depth:    depthHit,
		Nodes:    e.nodes,
		TimeUsed: time.Since(start),
	}
	res.WinProb = clamp((float32(res.Score)/2000.0+1.0)/2.0, 0, 1)
	for _, c := range best.candidates {
		if len(res.Candidates) == maxCandidates {
			break
		}
		res.Candidates = append(res.Candidates, Candidate{Move: c.Move, Score: sign * c.Score})
	}
	res.PV = e.principalVariation(board, side, best.best, depthHit)
	return res
}

// aspirationRoot 以上一层分数为中心开窄窗口，落到窗口外就用全窗口重搜
func (e *Engine) aspirationRoot(b *xiangqi.Board, side xiangqi.Side, moves []xiangqi.Move, depth int, prev rootResult) rootResult {
	alpha, beta := prev.score-aspirationWindow, prev.score+aspirationWindow
	rr := e.searchRoot(b, side, moves, depth, alpha, beta, prev.best.Key())
	if !rr.complete || (rr.score > alpha && rr.score < beta) {
		return rr
	}
	return e.searchRoot(b, side, moves, depth, -scoreInf, scoreInf, prev.best.Key())
}

// searchRoot 根节点走法循环。超过 TimeLimit 就停，结果标记为不完整。
func (e *Engine) searchRoot(b *xiangqi.Board, side xiangqi.Side, moves []xiangqi.Move, depth, alpha, beta int, pv xiangqi.MoveKey) rootResult {
	ordered := e.orderMoves(b, side, moves, depth, pv)
	rr := rootResult{score: -scoreInf}
	alphaOrig := alpha

	for i, m := range ordered {
		if e.timeUp() {
			return rr
		}

		var score int
		if e.cfg.Variant == VariantMaster && i > 0 {
			// PVS：先用零窗口证明它不比当前最好的强
			score = e.searchChild(b, m.Move, side, depth-1, alpha, alpha+1, 1)
			if !e.stopped && score > alpha && score < beta {
				score = e.searchChild(b, m.Move, side, depth-1, alpha, beta, 1)
			}
		} else {
			score = e.searchChild(b, m.Move, side, depth-1, alpha, beta, 1)
		}
		if e.stopped {
			return rr
		}

		e.nodes++
		rr.candidates = append(rr.candidates, Candidate{Move: m.Move, Score: score})
		if score > rr.score {
			rr.score = score
			rr.best = m.Move
		}
		if score > alpha {
			alpha = score
		}
		if alpha >= beta {
			break
		}
	}

	sortCandidates(rr.candidates)
	rr.complete = true
	e.storeRoot(b, side, depth, rr, alphaOrig, beta)
	return rr
}

// storeRoot 根节点结果写入置换表；alphaBeta 变体的表里存的是红方视角
func (e *Engine) storeRoot(b *xiangqi.Board, side xiangqi.Side, depth int, rr rootResult, alpha, beta int) {
	bound := boundExact
	switch {
	case rr.score <= alpha:
		bound = boundUpper
	case rr.score >= beta:
		bound = boundLower
	}
	score := rr.score
	if e.cfg.Variant == VariantAlphaBeta && side == xiangqi.Black {
		score = -score
		switch bound {
		case boundUpper:
			bound = boundLower
		case boundLower:
			bound = boundUpper
		}
	}
	e.tt.store(ttKey(b, side), ttEntry{
		Fingerprint: boardFingerprint(b),
		Depth:       depth,
		Score:       scoreToTT(score, 0),
		Bound:       bound,
		Move:        rr.best.Key(),
	})
}

// searchChild 走 m 搜对方，返回 side 视角的分数。撤销由 Scoped 保证。
func (e *Engine) searchChild(b *xiangqi.Board, m xiangqi.Move, side xiangqi.Side, depth, alpha, beta, ply int) int {
	score := -scoreInf
	_ = b.Scoped(m, func(*xiangqi.Piece) {
		opp := side.Opponent()
		if e.cfg.Variant == VariantMaster {
			score = -e.negamax(b, opp, depth, -beta, -alpha, ply, true)
			return
		}
		// alphaBeta 用红方视角的窗口
		if side == xiangqi.Red {
			score = e.alphaBeta(b, opp, depth, alpha, beta, ply)
		} else {
			score = -e.alphaBeta(b, opp, depth, -beta, -alpha, ply)
		}
	})
	return score
}

// principalVariation 从根的最佳走法出发，沿置换表里的最佳走法往下走
func (e *Engine) principalVariation(b *xiangqi.Board, side xiangqi.Side, first xiangqi.Move, depth int) []xiangqi.Move {
	pv := []xiangqi.Move{first}
	var walk func(s xiangqi.Side, left int)
	seen := map[uint64]bool{ttKey(b, side): true}
	walk = func(s xiangqi.Side, left int) {
		if left <= 0 {
			return
		}
		key := ttKey(b, s)
		if seen[key] {
			return
		}
		seen[key] = true
		ent, ok := e.tt.probe(key, boardFingerprint(b))
		if !ok || ent.Move.IsZero() {
			return
		}
		m, ok := b.FindLegalMove(s, ent.Move.From, ent.Move.To)
		if !ok {
			return
		}
		pv = append(pv, m)
		_ = b.Scoped(m, func(*xiangqi.Piece) { walk(s.Opponent(), left-1) })
	}
	_ = b.Scoped(first, func(*xiangqi.Piece) { walk(side.Opponent(), depth-1) })
	return pv
}

func sortCandidates(cs []Candidate) {
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].Score > cs[j].Score })
}
