package xiangqi

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

var ErrInvalidFEN = errors.New("invalid FEN")

var letterToPieceType = map[rune]PieceType{
	'k': PieceGeneral,
	'a': PieceAdvisor,
	'b': PieceElephant,
	'n': PieceHorse,
	'r': PieceRook,
	'c': PieceCannon,
	'p': PieceSoldier,
}

var pieceTypeToLetter = [NumPieceTypes]rune{'.', 'k', 'a', 'b', 'n', 'r', 'c', 'p'}

// 大写红方，小写黑方
func pieceFromLetter(ch rune) (PieceType, Side, bool) {
	pt, ok := letterToPieceType[unicode.ToLower(ch)]
	if !ok {
		return PieceNone, NoSide, false
	}
	if unicode.IsUpper(ch) {
		return pt, Red, true
	}
	return pt, Black, true
}

func pieceLetter(p *Piece) rune {
	if p == nil {
		return '.'
	}
	ch := pieceTypeToLetter[p.Type]
	if p.Side == Red {
		return unicode.ToUpper(ch)
	}
	return ch
}

// EncodeFEN 第 0 行（黑方底线）在前，行棋方 w=红 b=黑
func EncodeFEN(b *Board, side Side) string {
	var sb strings.Builder
	for r := 0; r < Rows; r++ {
		empty := 0
		for c := 0; c < Cols; c++ {
			p := b.grid[r][c]
			if p == nil {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteRune(pieceLetter(p))
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if r != Rows-1 {
			sb.WriteByte('/')
		}
	}
	sb.WriteByte(' ')
	if side == Black {
		sb.WriteByte('b')
	} else {
		sb.WriteByte('w')
	}
	return sb.String()
}

// DecodeFEN 只解析棋盘和行棋方两段，其余字段忽略
func DecodeFEN(fen string) (*Board, Side, error) {
	fields := strings.Fields(fen)
	if len(fields) == 0 {
		return nil, NoSide, errors.Wrap(ErrInvalidFEN, "empty")
	}
	rows := strings.Split(fields[0], "/")
	if len(rows) != Rows {
		return nil, NoSide, errors.Wrapf(ErrInvalidFEN, "want %d ranks, got %d", Rows, len(rows))
	}

	b := NewBoard()
	for r, line := range rows {
		c := 0
		for _, ch := range line {
			if ch >= '1' && ch <= '9' {
				c += int(ch - '0')
				continue
			}
			pt, side, ok := pieceFromLetter(ch)
			if !ok {
				return nil, NoSide, errors.Wrapf(ErrInvalidFEN, "rank %d: bad piece %q", r, ch)
			}
			if c >= Cols {
				return nil, NoSide, errors.Wrapf(ErrInvalidFEN, "rank %d too long", r)
			}
			if _, err := b.Place(pt, side, Sq(r, c)); err != nil {
				return nil, NoSide, errors.Wrapf(ErrInvalidFEN, "rank %d: %v", r, err)
			}
			c++
		}
		if c != Cols {
			return nil, NoSide, errors.Wrapf(ErrInvalidFEN, "rank %d has %d files", r, c)
		}
	}

	side := Red
	if len(fields) > 1 {
		switch fields[1] {
		case "w", "r":
			side = Red
		case "b":
			side = Black
		default:
			return nil, NoSide, errors.Wrapf(ErrInvalidFEN, "bad side %q", fields[1])
		}
	}
	return b, side, nil
}

// MustDecodeFEN 用于固定局面和测试
func MustDecodeFEN(fen string) (*Board, Side) {
	b, side, err := DecodeFEN(fen)
	if err != nil {
		panic(err)
	}
	return b, side
}
