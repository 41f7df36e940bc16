package engine

import (
	"time"

	"xiangqi/internal/xiangqi"
)

const (
	// 一个足够大的值，当成正负无穷
	scoreInf = 1_000_000_000
	// 被将死的分数，减去离根节点的层数，近杀优先
	mateScore = 1_000_000
	// 超过这个绝对值的都是杀棋分
	mateBound = mateScore - 1000

	maxSearchDepth = 64
)

// Engine 单线程、不可重入：一次 Search 结束前不要再调用，也不要在多个对局间共享。
type Engine struct {
	eval *Evaluator
	tt   *transTable

	killers [maxSearchDepth + 1][2]xiangqi.MoveKey
	history [xiangqi.NumPieceTypes][xiangqi.NumSquares][xiangqi.NumSquares]int

	nodes    int64
	deadline time.Time
	stopped  bool
	cfg      SearchConfig
}

// NewEngine rich 选择评估函数的完整版本
func NewEngine(rich bool) *Engine {
	return &Engine{
		eval: NewEvaluator(rich),
		tt:   newTransTable(),
	}
}

func (e *Engine) Evaluator() *Evaluator { return e.eval }

// 每次 Search 开始时清空，跨着法不保留
func (e *Engine) reset() {
	e.tt.clear()
	e.killers = [maxSearchDepth + 1][2]xiangqi.MoveKey{}
	e.history = [xiangqi.NumPieceTypes][xiangqi.NumSquares][xiangqi.NumSquares]int{}
	e.nodes = 0
	e.stopped = false
	e.deadline = time.Time{}
}

// timeUp 超时后置 stopped，递归里所有层都据此直接返回 0
func (e *Engine) timeUp() bool {
	if e.stopped {
		return true
	}
	if !e.deadline.IsZero() && time.Now().After(e.deadline) {
		e.stopped = true
	}
	return e.stopped
}

func (e *Engine) killerSlot(depth int) *[2]xiangqi.MoveKey {
	return &e.killers[clamp(depth, 0, maxSearchDepth)]
}

// 只在 beta 截断时调用。历史表所有走法都记，杀手只记不吃子的走法
func (e *Engine) recordCutoff(m xiangqi.Move, depth int) {
	if m.Piece != nil {
		e.history[m.Piece.Type][m.From.Index()][m.To.Index()] += depth * depth
	}
	if m.IsCapture() {
		return
	}
	k := e.killerSlot(depth)
	if key := m.Key(); k[0] != key {
		k[1] = k[0]
		k[0] = key
	}
}
