package xiangqi

import "fmt"

type Side int8

const (
	NoSide Side = -1
	Red    Side = 0
	Black  Side = 1
)

func (s Side) String() string {
	switch s {
	case Red:
		return "red"
	case Black:
		return "black"
	default:
		return "none"
	}
}

// Opponent 对方；NoSide 的对方还是 NoSide
func (s Side) Opponent() Side {
	switch s {
	case Red:
		return Black
	case Black:
		return Red
	default:
		return NoSide
	}
}

type PieceType int8

const (
	PieceNone     PieceType = iota
	PieceGeneral            // 帅 / 将
	PieceAdvisor            // 仕 / 士
	PieceElephant           // 相 / 象
	PieceHorse              // 马
	PieceRook               // 车
	PieceCannon             // 炮
	PieceSoldier            // 兵 / 卒

	NumPieceTypes = 8 // 含 PieceNone，作数组下标用
)

var pieceTypeNames = [NumPieceTypes]string{
	"none", "general", "advisor", "elephant", "horse", "rook", "cannon", "soldier",
}

func (pt PieceType) String() string {
	if pt < 0 || int(pt) >= len(pieceTypeNames) {
		return fmt.Sprintf("PieceType(%d)", int8(pt))
	}
	return pieceTypeNames[pt]
}

// Square 棋盘坐标：Row 0 在黑方底线，Row 9 在红方底线
type Square struct {
	Row int8 `json:"row"`
	Col int8 `json:"col"`
}

// Sq 不做范围检查，外部输入用 SquareOf
func Sq(row, col int) Square { return Square{Row: int8(row), Col: int8(col)} }

// SquareOf 越界时返回 false，避免大数截断成 int8 后落到真实格子上
func SquareOf(row, col int) (Square, bool) {
	if !onBoard(row, col) {
		return Square{}, false
	}
	return Sq(row, col), true
}

// Index 0..89，供定长表使用
func (s Square) Index() int { return int(s.Row)*Cols + int(s.Col) }

func (s Square) OnBoard() bool { return onBoard(int(s.Row), int(s.Col)) }

func (s Square) String() string { return fmt.Sprintf("(%d,%d)", s.Row, s.Col) }

// Piece 棋子对象只会被挪动或摘下/放回，从不重建。
type Piece struct {
	Type PieceType
	Side Side
	Sq   Square

	idx int // 在本方棋子列表里的下标，撤销吃子时按原位放回
}

func (p *Piece) String() string {
	if p == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s %s@%s", p.Side, p.Type, p.Sq)
}

// Move 相等性只看四个坐标，Piece/Captured 只是生成时顺手带上的引用。
type Move struct {
	From     Square
	To       Square
	Piece    *Piece
	Captured *Piece
}

// MoveKey 可比较、可做 map 键的走法坐标
type MoveKey struct {
	From, To Square
}

func (m Move) Key() MoveKey { return MoveKey{From: m.From, To: m.To} }

func (m Move) Equal(o Move) bool { return m.From == o.From && m.To == o.To }

// IsZero 空走法（From==To 不可能是真实走法）
func (m Move) IsZero() bool { return m.From == m.To }

func (m Move) IsCapture() bool { return m.Captured != nil }

func (m Move) String() string {
	return fmt.Sprintf("%d%d-%d%d", m.From.Row, m.From.Col, m.To.Row, m.To.Col)
}

func (k MoveKey) IsZero() bool { return k.From == k.To }
