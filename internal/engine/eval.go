package engine

import (
	"golang.org/x/exp/constraints"

	"xiangqi/internal/xiangqi"
)

const (
	// 一方被将死
	scoreDecisive = 100_000
	// 一方一步之内就能把对方将死
	scoreMateThreat = 50_000
)

// 基础子力
var pieceValues = [xiangqi.NumPieceTypes]int{
	xiangqi.PieceGeneral:  10000,
	xiangqi.PieceRook:     900,
	xiangqi.PieceCannon:   450,
	xiangqi.PieceHorse:    450,
	xiangqi.PieceAdvisor:  200,
	xiangqi.PieceElephant: 200,
	xiangqi.PieceSoldier:  100,
}

// PieceValue 子力价值
func PieceValue(pt xiangqi.PieceType) int {
	if pt <= xiangqi.PieceNone || pt >= xiangqi.NumPieceTypes {
		return 0
	}
	return pieceValues[pt]
}

// 百分比权重
type evalWeights struct {
	material, position, kingSafety, aggression, endgame int
}

var (
	basicWeights = evalWeights{material: 40, position: 25, kingSafety: 20, aggression: 15}
	richWeights  = evalWeights{material: 35, position: 30, kingSafety: 15, aggression: 15, endgame: 5}
)

// Evaluator 静态评估，正数红方好。
// Rich 打开完整的进攻项（威胁、中路、机动性）和残局项。
type Evaluator struct {
	Rich bool
}

func NewEvaluator(rich bool) *Evaluator { return &Evaluator{Rich: rich} }

// Evaluate 局面评分（红方视角）
func (ev *Evaluator) Evaluate(b *xiangqi.Board) int {
	redMoves := b.LegalMoves(xiangqi.Red)
	blackMoves := b.LegalMoves(xiangqi.Black)

	// 先看是否已经分出胜负
	if len(redMoves) == 0 && b.IsInCheck(xiangqi.Red) {
		return -scoreDecisive
	}
	if len(blackMoves) == 0 && b.IsInCheck(xiangqi.Black) {
		return scoreDecisive
	}
	if len(redMoves) == 0 || len(blackMoves) == 0 || b.OnlyGenerals() {
		return 0
	}

	// 一步杀：只有一方有杀着时才算数，两边都有就交给搜索
	redMates := hasMateInOne(b, redMoves)
	blackMates := hasMateInOne(b, blackMoves)
	switch {
	case redMates && !blackMates:
		return scoreMateThreat
	case blackMates && !redMates:
		return -scoreMateThreat
	}

	w := basicWeights
	if ev.Rich {
		w = richWeights
	}
	material := evaluateMaterial(b)
	score := material * w.material
	score += evaluatePosition(b) * w.position
	score += evaluateKingSafety(b) * w.kingSafety
	if ev.Rich {
		score += evaluateAggression(b, len(redMoves)-len(blackMoves)) * w.aggression
		score += evaluateEndgame(b, material) * w.endgame
	} else {
		score += evaluateAdvance(b) * w.aggression
	}
	return score / 100
}

// QuickEvaluate 只算子力，给排序之类的廉价启发用
func (ev *Evaluator) QuickEvaluate(b *xiangqi.Board) int {
	return evaluateMaterial(b)
}

// moves 里是否有一步直接将死对方
func hasMateInOne(b *xiangqi.Board, moves []xiangqi.Move) bool {
	for _, m := range moves {
		mate := false
		_ = b.Scoped(m, func(*xiangqi.Piece) {
			opp := m.Piece.Side.Opponent()
			mate = b.IsInCheck(opp) && !b.HasLegalMove(opp)
		})
		if mate {
			return true
		}
	}
	return false
}

func sideSign(side xiangqi.Side) int {
	if side == xiangqi.Red {
		return 1
	}
	return -1
}

func evaluateMaterial(b *xiangqi.Board) int {
	score := 0
	for _, p := range b.Pieces(xiangqi.Red) {
		score += pieceValues[p.Type]
	}
	for _, p := range b.Pieces(xiangqi.Black) {
		score -= pieceValues[p.Type]
	}
	return score
}

func evaluatePosition(b *xiangqi.Board) int {
	score := 0
	for _, p := range b.AllPieces() {
		score += sideSign(p.Side) * positionBonus(p.Type, p.Side, int(p.Sq.Row), int(p.Sq.Col))
	}
	return score
}

// 位置表都按红方视角写，黑方把行号翻过来查
func positionBonus(pt xiangqi.PieceType, side xiangqi.Side, row, col int) int {
	if side == xiangqi.Black {
		row = xiangqi.Rows - 1 - row
	}
	return pieceSquareTables[pt][row][col]
}

// 帅周围 8 格有多少自己人
func generalGuards(b *xiangqi.Board, side xiangqi.Side) int {
	g := b.FindGeneral(side)
	if g == nil {
		return 0
	}
	n := 0
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			sq := xiangqi.Sq(int(g.Sq.Row)+dr, int(g.Sq.Col)+dc)
			if p := b.PieceAt(sq); p != nil && p.Side == side {
				n++
			}
		}
	}
	return n
}

func evaluateKingSafety(b *xiangqi.Board) int {
	score := 0
	if b.IsInCheck(xiangqi.Red) {
		score -= 60
	}
	if b.IsInCheck(xiangqi.Black) {
		score += 60
	}
	score += (generalGuards(b, xiangqi.Red) - generalGuards(b, xiangqi.Black)) * 5
	return score
}

// 过河子和过河兵
func evaluateAdvance(b *xiangqi.Board) int {
	score := 0
	for _, p := range b.AllPieces() {
		if xiangqi.OwnHalf(p.Side, int(p.Sq.Row)) {
			continue
		}
		v := 15
		if p.Type == xiangqi.PieceSoldier {
			v += 30
		}
		score += sideSign(p.Side) * v
	}
	return score
}

// 能走到对方帅 3 格（曼哈顿距离）以内的棋子数
func threatCount(b *xiangqi.Board, side xiangqi.Side) int {
	g := b.FindGeneral(side.Opponent())
	if g == nil {
		return 0
	}
	n := 0
	moves := make([]xiangqi.Move, 0, 17)
	for _, p := range b.Pieces(side) {
		moves = moves[:0]
		xiangqi.PseudoLegalMoves(b, p.Type, p.Side, p.Sq, &moves)
		for _, m := range moves {
			if manhattan(m.To, g.Sq) <= 3 {
				n++
				break
			}
		}
	}
	return n
}

func evaluateAggression(b *xiangqi.Board, mobility int) int {
	score := evaluateAdvance(b)
	score += (threatCount(b, xiangqi.Red) - threatCount(b, xiangqi.Black)) * 20

	center := 0
	for _, p := range b.AllPieces() {
		if p.Sq.Col >= 3 && p.Sq.Col <= 5 {
			center += sideSign(p.Side)
		}
	}
	score += center * 10
	score += mobility * 2
	return score
}

func evaluateEndgame(b *xiangqi.Board, material int) int {
	total := b.PieceCount()
	if total > 16 {
		return 0
	}
	score := 0
	red, black := b.FindGeneral(xiangqi.Red), b.FindGeneral(xiangqi.Black)
	if red != nil && black != nil {
		// 优势方逼近，劣势方远离
		closeness := (15 - manhattan(red.Sq, black.Sq)) * 10
		switch {
		case material > 200:
			score += closeness
		case material < -200:
			score -= closeness
		}
	}

	for _, p := range b.AllPieces() {
		if p.Type != xiangqi.PieceSoldier || xiangqi.OwnHalf(p.Side, int(p.Sq.Row)) {
			continue
		}
		v := 50
		if (p.Side == xiangqi.Red && p.Sq.Row <= 2) || (p.Side == xiangqi.Black && p.Sq.Row >= 7) {
			v += 100
		}
		score += sideSign(p.Side) * v
	}

	if total <= 10 {
		switch {
		case bareGeneral(b, xiangqi.Black) && hasMajorPiece(b, xiangqi.Red):
			score += 500
		case bareGeneral(b, xiangqi.Red) && hasMajorPiece(b, xiangqi.Black):
			score -= 500
		}
	}
	return score
}

func bareGeneral(b *xiangqi.Board, side xiangqi.Side) bool {
	ps := b.Pieces(side)
	return len(ps) == 1 && ps[0].Type == xiangqi.PieceGeneral
}

// 车或炮
func hasMajorPiece(b *xiangqi.Board, side xiangqi.Side) bool {
	for _, p := range b.Pieces(side) {
		if p.Type == xiangqi.PieceRook || p.Type == xiangqi.PieceCannon {
			return true
		}
	}
	return false
}

func manhattan(a, b xiangqi.Square) int {
	return abs(int(a.Row)-int(b.Row)) + abs(int(a.Col)-int(b.Col))
}

func abs[T constraints.Signed](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
