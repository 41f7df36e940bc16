package xiangqi

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	Rows       = 10
	Cols       = 9
	NumSquares = Rows * Cols

	RiverRow = 5 // 红方半场 5..9，黑方半场 0..4
)

var (
	// ErrEmptySource 走法起点没有棋子：调用方的程序错误，不是规则问题
	ErrEmptySource = errors.New("xiangqi: no piece on source square")
	// ErrEmptyTarget 撤销时终点上找不到走过去的棋子
	ErrEmptyTarget = errors.New("xiangqi: no piece on target square")
	ErrOffBoard    = errors.New("xiangqi: square off board")
	ErrOccupied    = errors.New("xiangqi: square occupied")
)

func onBoard(row, col int) bool {
	return row >= 0 && row < Rows && col >= 0 && col < Cols
}

// 兵的前进方向：红向上(-1)，黑向下(+1)
func pawnDir(side Side) int {
	if side == Red {
		return -1
	}
	return +1
}

// OwnHalf 该行是否在 side 自己的半场（河界以内）
func OwnHalf(side Side, row int) bool {
	if side == Red {
		return row >= RiverRow
	}
	return row < RiverRow
}

// 是否在 side 的九宫
func inPalace(side Side, row, col int) bool {
	if col < 3 || col > 5 {
		return false
	}
	if side == Black {
		return row >= 0 && row <= 2
	}
	return row >= 7 && row <= 9
}

// Board 棋盘：格子 + 双方棋子列表 + 增量哈希。三者始终一致。
type Board struct {
	grid   [Rows][Cols]*Piece
	pieces [2][]*Piece
	hash   uint64
}

// NewBoard 空棋盘
func NewBoard() *Board {
	initZobrist()
	return &Board{
		pieces: [2][]*Piece{make([]*Piece, 0, 16), make([]*Piece, 0, 16)},
	}
}

// Place 摆一个子，用于开局和测试局面
func (b *Board) Place(pt PieceType, side Side, sq Square) (*Piece, error) {
	if !sq.OnBoard() {
		return nil, errors.Wrapf(ErrOffBoard, "place %s", sq)
	}
	if b.grid[sq.Row][sq.Col] != nil {
		return nil, errors.Wrapf(ErrOccupied, "place %s", sq)
	}
	if pt <= PieceNone || pt >= NumPieceTypes || (side != Red && side != Black) {
		return nil, errors.Errorf("xiangqi: bad piece %v/%v", side, pt)
	}
	p := &Piece{Type: pt, Side: side, Sq: sq}
	b.link(p)
	b.hash ^= pieceHashKey(p.Type, p.Side, sq)
	return p, nil
}

// MustPlace 摆子失败直接 panic，只给固定局面用
func (b *Board) MustPlace(pt PieceType, side Side, row, col int) *Piece {
	p, err := b.Place(pt, side, Sq(row, col))
	if err != nil {
		panic(err)
	}
	return p
}

// 开局摆法，大写红方，小写黑方
const initialBoardString = `rnbakabnr
.........
.c.....c.
p.p.p.p.p
.........
.........
P.P.P.P.P
.C.....C.
.........
RNBAKABNR`

// NewInitialBoard 标准开局
func NewInitialBoard() *Board {
	b := NewBoard()
	lines := strings.Split(initialBoardString, "\n")
	if len(lines) != Rows {
		panic("initialBoardString 行数不为 10")
	}
	for r, line := range lines {
		if len(line) != Cols {
			panic("initialBoardString 列数不为 9")
		}
		for c, ch := range line {
			if ch == '.' {
				continue
			}
			pt, side, ok := pieceFromLetter(ch)
			if !ok {
				panic("unknown piece letter: " + string(ch))
			}
			b.MustPlace(pt, side, r, c)
		}
	}
	return b
}

func (b *Board) Hash() uint64 { return b.hash }

// PieceAt 越界返回 nil
func (b *Board) PieceAt(sq Square) *Piece {
	if !sq.OnBoard() {
		return nil
	}
	return b.grid[sq.Row][sq.Col]
}

func (b *Board) at(row, col int) *Piece { return b.grid[row][col] }

// Pieces side 的棋子列表。调用方不要修改返回的切片。
func (b *Board) Pieces(side Side) []*Piece {
	if side != Red && side != Black {
		return nil
	}
	return b.pieces[side]
}

// AllPieces 双方全部棋子，红方在前
func (b *Board) AllPieces() []*Piece {
	out := make([]*Piece, 0, len(b.pieces[Red])+len(b.pieces[Black]))
	out = append(out, b.pieces[Red]...)
	return append(out, b.pieces[Black]...)
}

func (b *Board) PieceCount() int { return len(b.pieces[Red]) + len(b.pieces[Black]) }

// FindGeneral 找不到返回 nil
func (b *Board) FindGeneral(side Side) *Piece {
	for _, p := range b.Pieces(side) {
		if p.Type == PieceGeneral {
			return p
		}
	}
	return nil
}

// Copy 深拷贝：新的棋子对象，同样的列表顺序，同一张哈希常数表。
func (b *Board) Copy() *Board {
	nb := &Board{hash: b.hash}
	for side := range b.pieces {
		list := make([]*Piece, len(b.pieces[side]), cap(b.pieces[side]))
		for i, p := range b.pieces[side] {
			cp := *p
			list[i] = &cp
			nb.grid[cp.Sq.Row][cp.Sq.Col] = &cp
		}
		nb.pieces[side] = list
	}
	return nb
}

// link 把棋子挂到格子和列表末尾
func (b *Board) link(p *Piece) {
	b.grid[p.Sq.Row][p.Sq.Col] = p
	p.idx = len(b.pieces[p.Side])
	b.pieces[p.Side] = append(b.pieces[p.Side], p)
}

// remove 摘下棋子：和列表末尾交换后截断，p.idx 保留原下标供 restore 使用
func (b *Board) remove(p *Piece) {
	list := b.pieces[p.Side]
	last := len(list) - 1
	i := p.idx
	if i != last {
		list[i], list[last] = list[last], list[i]
		list[i].idx = i
	}
	b.pieces[p.Side] = list[:last]
	b.grid[p.Sq.Row][p.Sq.Col] = nil
}

// restore 是 remove 的逆操作，列表顺序逐位复原
func (b *Board) restore(p *Piece) {
	list := append(b.pieces[p.Side], p)
	last := len(list) - 1
	if i := p.idx; i != last {
		list[i], list[last] = list[last], list[i]
		list[last].idx = last
	}
	b.pieces[p.Side] = list
	b.grid[p.Sq.Row][p.Sq.Col] = p
}

// String 文本棋盘，一行一排，空位用 '.'
func (b *Board) String() string {
	var sb strings.Builder
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			sb.WriteRune(pieceLetter(b.grid[r][c]))
		}
		if r != Rows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// Validate 检查格子、棋子列表和哈希是否一致
func (b *Board) Validate() error {
	seen := 0
	for side := range b.pieces {
		for i, p := range b.pieces[side] {
			if p.Side != Side(side) {
				return errors.Errorf("piece %v in %v list", p, Side(side))
			}
			if p.idx != i {
				return errors.Errorf("piece %v index %d, want %d", p, p.idx, i)
			}
			if !p.Sq.OnBoard() || b.grid[p.Sq.Row][p.Sq.Col] != p {
				return errors.Errorf("piece %v not on grid", p)
			}
			seen++
		}
	}
	occupied := 0
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			if p := b.grid[r][c]; p != nil {
				occupied++
				if p.Sq != Sq(r, c) {
					return errors.Errorf("piece %v stored at (%d,%d)", p, r, c)
				}
			}
		}
	}
	if occupied != seen {
		return errors.Errorf("grid has %d pieces, lists have %d", occupied, seen)
	}
	if h := b.ComputeHash(); h != b.hash {
		return errors.Errorf("hash %x, recomputed %x", b.hash, h)
	}
	return nil
}
