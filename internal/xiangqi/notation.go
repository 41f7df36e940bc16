package xiangqi

import (
	"strconv"
	"strings"
)

var (
	redPieceNames   = [NumPieceTypes]string{"", "帅", "仕", "相", "马", "车", "炮", "兵"}
	blackPieceNames = [NumPieceTypes]string{"", "将", "士", "象", "马", "车", "炮", "卒"}
	chineseDigits   = [10]string{"", "一", "二", "三", "四", "五", "六", "七", "八", "九"}
)

// PieceName 中文棋子名
func PieceName(pt PieceType, side Side) string {
	if pt <= PieceNone || pt >= NumPieceTypes {
		return "?"
	}
	if side == Red {
		return redPieceNames[pt]
	}
	return blackPieceNames[pt]
}

// 路数：红方从自己右手数起用汉字，黑方从自己右手数起用数字
func fileName(side Side, col int) string {
	if side == Red {
		return chineseDigits[Cols-col]
	}
	return strconv.Itoa(col + 1)
}

func countName(side Side, n int) string {
	if side == Red {
		return chineseDigits[n]
	}
	return strconv.Itoa(n)
}

// Notation 中文记谱，例如 炮二平五、马8进7。必须在走子之前调用。
func Notation(b *Board, m Move) string {
	p := b.PieceAt(m.From)
	if p == nil {
		return m.String()
	}
	side := p.Side

	var sb strings.Builder
	if prefix := tandemPrefix(b, p); prefix != "" {
		sb.WriteString(prefix)
		sb.WriteString(PieceName(p.Type, side))
	} else {
		sb.WriteString(PieceName(p.Type, side))
		sb.WriteString(fileName(side, int(m.From.Col)))
	}

	dr := int(m.To.Row) - int(m.From.Row)
	forward := dr*pawnDir(side) > 0
	switch {
	case dr == 0:
		sb.WriteString("平")
		sb.WriteString(fileName(side, int(m.To.Col)))
		return sb.String()
	case forward:
		sb.WriteString("进")
	default:
		sb.WriteString("退")
	}

	switch p.Type {
	case PieceHorse, PieceAdvisor, PieceElephant:
		// 斜着走的子写落点路数
		sb.WriteString(fileName(side, int(m.To.Col)))
	default:
		sb.WriteString(countName(side, abs(dr)))
	}
	return sb.String()
}

// 同一路上有同种棋子时用 前/中/后 区分
func tandemPrefix(b *Board, p *Piece) string {
	var same []*Piece
	for r := 0; r < Rows; r++ {
		q := b.grid[r][p.Sq.Col]
		if q != nil && q.Side == p.Side && q.Type == p.Type {
			same = append(same, q)
		}
	}
	if len(same) < 2 {
		return ""
	}
	// 按离对方底线由近到远排：红方行号小的在前，黑方行号大的在前
	rank := 0
	for _, q := range same {
		if q == p {
			continue
		}
		if (p.Side == Red && q.Sq.Row < p.Sq.Row) || (p.Side == Black && q.Sq.Row > p.Sq.Row) {
			rank++
		}
	}
	switch {
	case rank == 0:
		return "前"
	case rank == len(same)-1:
		return "后"
	case len(same) == 3:
		return "中"
	default:
		return countName(p.Side, rank+1)
	}
}
