package engine

import (
	"sort"

	"xiangqi/internal/xiangqi"
)

const (
	mateSearchDepth    = 7 // 攻方最多连将 4 步
	mateNodeBudgetBase = 20000
	mateNodeBudgetPly  = 6000
)

const (
	mateModeAttack uint64 = 0xA5A5A5A5A5A5A5A5
	mateModeDefend uint64 = 0x5A5A5A5A5A5A5A5A
)

type mateContext struct {
	tt         map[uint64]mateTTEntry
	inPath     map[uint64]bool
	pathCuts   int // 因为回到路径上的局面而剪掉的次数
	nodes      int
	nodeBudget int
}

type mateTTEntry struct {
	Depth  int
	Result bool
}

// MateResult 连将杀搜索结果
type MateResult struct {
	Found bool
	Move  xiangqi.Move
	Plies int // 包括双方在内到将死为止的步数
	Nodes int
	Line  []xiangqi.Move
}

// FindCheckMate 攻方每一步都必须将军，守方任意应对，maxDepth 层以内能否将死。
// 节点预算用完时按“找不到”处理，所以报告的杀棋一定成立，没报告的不代表没有。
func FindCheckMate(b *xiangqi.Board, side xiangqi.Side, maxDepth int) MateResult {
	if maxDepth <= 0 {
		maxDepth = mateSearchDepth
	}
	board := b.Copy()
	ctx := newMateContext(maxDepth)

	// 迭代加深：先找最短的杀
	for d := 1; d <= maxDepth; d += 2 {
		if m, ok := ctx.attack(board, side, d); ok {
			return MateResult{Found: true, Move: m, Plies: d, Nodes: ctx.nodes, Line: []xiangqi.Move{m}}
		}
		if ctx.exhausted() {
			break
		}
	}
	return MateResult{Nodes: ctx.nodes}
}

func newMateContext(maxDepth int) *mateContext {
	return &mateContext{
		tt:         make(map[uint64]mateTTEntry, 1<<12),
		inPath:     make(map[uint64]bool, 64),
		nodeBudget: mateNodeBudgetBase + maxDepth*mateNodeBudgetPly,
	}
}

// 攻方的将军走法：吃子价值高的、子力大的先试
func checkingMoves(b *xiangqi.Board, side xiangqi.Side) []xiangqi.Move {
	opp := side.Opponent()
	var out []xiangqi.Move
	var scores []int
	for _, m := range b.LegalMoves(side) {
		check := false
		_ = b.Scoped(m, func(*xiangqi.Piece) { check = b.IsInCheck(opp) })
		if !check {
			continue
		}
		s := PieceValue(m.Piece.Type) / 10
		if m.Captured != nil {
			s += PieceValue(m.Captured.Type)
		}
		out = append(out, m)
		scores = append(scores, s)
	}
	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return scores[idx[i]] > scores[idx[j]] })
	sorted := make([]xiangqi.Move, len(out))
	for i, k := range idx {
		sorted[i] = out[k]
	}
	return sorted
}

func (ctx *mateContext) attack(b *xiangqi.Board, side xiangqi.Side, depth int) (xiangqi.Move, bool) {
	if depth <= 0 || ctx.spend() {
		return xiangqi.Move{}, false
	}
	key := b.Hash() ^ xiangqi.SideKey(side) ^ mateModeAttack
	if ctx.inPath[key] {
		ctx.pathCuts++
		return xiangqi.Move{}, false
	}
	if e, ok := ctx.tt[key]; ok && e.Depth >= depth && !e.Result {
		return xiangqi.Move{}, false
	}
	ctx.inPath[key] = true
	defer delete(ctx.inPath, key)

	cuts := ctx.pathCuts
	opp := side.Opponent()
	for _, m := range checkingMoves(b, side) {
		won := false
		_ = b.Scoped(m, func(*xiangqi.Piece) {
			if !b.HasLegalMove(opp) {
				won = true // 将军且无应着
				return
			}
			won = depth > 2 && !ctx.defend(b, opp, depth-1)
		})
		if won {
			return m, true
		}
	}
	// 子树里有按路径剪掉的分支时，结论只对这条路径成立，不能入表
	if !ctx.exhausted() && ctx.pathCuts == cuts {
		ctx.tt[key] = mateTTEntry{Depth: depth, Result: false}
	}
	return xiangqi.Move{}, false
}

// defend 守方是否有一步能躲开连将杀
func (ctx *mateContext) defend(b *xiangqi.Board, side xiangqi.Side, depth int) bool {
	if depth <= 0 || ctx.spend() {
		return true
	}
	key := b.Hash() ^ xiangqi.SideKey(side) ^ mateModeDefend
	if ctx.inPath[key] {
		ctx.pathCuts++
		return true
	}
	ctx.inPath[key] = true
	defer delete(ctx.inPath, key)

	attacker := side.Opponent()
	for _, m := range b.LegalMoves(side) {
		escaped := false
		_ = b.Scoped(m, func(*xiangqi.Piece) {
			_, forced := ctx.attack(b, attacker, depth-1)
			escaped = !forced
		})
		if escaped {
			return true
		}
	}
	return false
}

func (ctx *mateContext) spend() bool {
	ctx.nodes++
	return ctx.nodes > ctx.nodeBudget
}

func (ctx *mateContext) exhausted() bool { return ctx.nodes > ctx.nodeBudget }
