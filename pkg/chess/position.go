package chess

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"unicode"
)

// Position is an immutable board state. MakeMove writes the successor
// into a caller-supplied Position, so search keeps a stack of them and
// never needs an unmake.
type Position struct {
	Pawns, Knights, Bishops, Rooks, Queens, Kings uint64
	White, Black                                  uint64
	Checkers                                      uint64
	WhiteMove                                     bool
	CastleRights                                  int
	Rule50                                        int
	EpSquare                                      int
	Key                                           uint64
	LastMove                                      Move
}

var castleMask [64]int

func (p *Position) AllPieces() uint64 {
	return p.White | p.Black
}

func (p *Position) Colours(side bool) uint64 {
	if side {
		return p.White
	}
	return p.Black
}

func (p *Position) KingSq(side bool) int {
	return FirstOne(p.Kings & p.Colours(side))
}

func (p *Position) WhatPiece(sq int) int {
	var b = SquareMask[sq]
	if (p.AllPieces() & b) == 0 {
		return Empty
	}
	if (p.Pawns & b) != 0 {
		return Pawn
	}
	if (p.Knights & b) != 0 {
		return Knight
	}
	if (p.Bishops & b) != 0 {
		return Bishop
	}
	if (p.Rooks & b) != 0 {
		return Rook
	}
	if (p.Queens & b) != 0 {
		return Queen
	}
	return King
}

func (p *Position) GetPieceTypeAndSide(sq int) (pieceType int, side bool) {
	var b = SquareMask[sq]
	if (p.White & b) != 0 {
		return p.WhatPiece(sq), true
	}
	if (p.Black & b) != 0 {
		return p.WhatPiece(sq), false
	}
	return Empty, false
}

func (p *Position) IsCheck() bool {
	return p.Checkers != 0
}

func (p *Position) IsDiscoveredCheck() bool {
	return (p.Checkers & ^SquareMask[p.LastMove.To()]) != 0
}

// MakeMove applies move to src, writing the successor into result.
// Returns false if the move leaves the mover's king in check; result
// contents are then undefined.
func (src *Position) MakeMove(move Move, result *Position) bool {
	var from = move.From()
	var to = move.To()
	var movingPiece = move.MovingPiece()
	var capturedPiece = move.CapturedPiece()

	*result = Position{
		Pawns:   src.Pawns,
		Knights: src.Knights,
		Bishops: src.Bishops,
		Rooks:   src.Rooks,
		Queens:  src.Queens,
		Kings:   src.Kings,
		White:   src.White,
		Black:   src.Black,

		WhiteMove: !src.WhiteMove,
		Key:       src.Key ^ sideKey,

		CastleRights: src.CastleRights & castleMask[from] & castleMask[to],
		EpSquare:     SquareNone,
	}
	result.Key ^= castlingKey[result.CastleRights^src.CastleRights]

	if movingPiece == Pawn || capturedPiece != Empty {
		result.Rule50 = 0
	} else {
		result.Rule50 = src.Rule50 + 1
	}

	if src.EpSquare != SquareNone {
		result.Key ^= enpassantKey[File(src.EpSquare)]
	}

	if capturedPiece != Empty {
		if capturedPiece == Pawn && to == src.EpSquare {
			xorPiece(result, Pawn, !src.WhiteMove, to+let(src.WhiteMove, -8, 8))
		} else {
			xorPiece(result, capturedPiece, !src.WhiteMove, to)
		}
	}

	movePiece(result, movingPiece, src.WhiteMove, from, to)

	if movingPiece == Pawn {
		if src.WhiteMove {
			if to == from+16 {
				result.EpSquare = from + 8
				result.Key ^= enpassantKey[File(from+8)]
			}
			if Rank(to) == Rank8 {
				xorPiece(result, Pawn, true, to)
				xorPiece(result, move.Promotion(), true, to)
			}
		} else {
			if to == from-16 {
				result.EpSquare = from - 8
				result.Key ^= enpassantKey[File(from-8)]
			}
			if Rank(to) == Rank1 {
				xorPiece(result, Pawn, false, to)
				xorPiece(result, move.Promotion(), false, to)
			}
		}
	} else if movingPiece == King {
		if src.WhiteMove {
			if from == SquareE1 && to == SquareG1 {
				movePiece(result, Rook, true, SquareH1, SquareF1)
			}
			if from == SquareE1 && to == SquareC1 {
				movePiece(result, Rook, true, SquareA1, SquareD1)
			}
		} else {
			if from == SquareE8 && to == SquareG8 {
				movePiece(result, Rook, false, SquareH8, SquareF8)
			}
			if from == SquareE8 && to == SquareC8 {
				movePiece(result, Rook, false, SquareA8, SquareD8)
			}
		}
	}

	if !result.isLegal() {
		return false
	}
	result.Checkers = result.computeCheckers()
	result.LastMove = move
	return true
}

func (src *Position) MakeNullMove(result *Position) {
	*result = Position{
		Pawns:   src.Pawns,
		Knights: src.Knights,
		Bishops: src.Bishops,
		Rooks:   src.Rooks,
		Queens:  src.Queens,
		Kings:   src.Kings,
		White:   src.White,
		Black:   src.Black,

		WhiteMove: !src.WhiteMove,
		Key:       src.Key ^ sideKey,

		CastleRights: src.CastleRights,
		Rule50:       src.Rule50 + 1,
		EpSquare:     SquareNone,
		LastMove:     MoveEmpty,
	}
	if src.EpSquare != SquareNone {
		result.Key ^= enpassantKey[File(src.EpSquare)]
	}
}

func xorPiece(p *Position, piece int, side bool, square int) {
	var b = SquareMask[square]
	if side {
		p.White ^= b
	} else {
		p.Black ^= b
	}
	switch piece {
	case Pawn:
		p.Pawns ^= b
	case Knight:
		p.Knights ^= b
	case Bishop:
		p.Bishops ^= b
	case Rook:
		p.Rooks ^= b
	case Queen:
		p.Queens ^= b
	case King:
		p.Kings ^= b
	}
	p.Key ^= PieceSquareKey(piece, side, square)
}

func movePiece(p *Position, piece int, side bool, from, to int) {
	var b = SquareMask[from] ^ SquareMask[to]
	if side {
		p.White ^= b
	} else {
		p.Black ^= b
	}
	switch piece {
	case Pawn:
		p.Pawns ^= b
	case Knight:
		p.Knights ^= b
	case Bishop:
		p.Bishops ^= b
	case Rook:
		p.Rooks ^= b
	case Queen:
		p.Queens ^= b
	case King:
		p.Kings ^= b
	}
	p.Key ^= PieceSquareKey(piece, side, from) ^ PieceSquareKey(piece, side, to)
}

func (p *Position) isAttackedBySide(sq int, side bool) bool {
	var enemy = p.Colours(side)
	if (PawnAttacks(sq, !side) & p.Pawns & enemy) != 0 {
		return true
	}
	if (KnightAttacks[sq] & p.Knights & enemy) != 0 {
		return true
	}
	if (KingAttacks[sq] & p.Kings & enemy) != 0 {
		return true
	}
	var occ = p.AllPieces()
	if (BishopAttacks(sq, occ) & (p.Bishops | p.Queens) & enemy) != 0 {
		return true
	}
	if (RookAttacks(sq, occ) & (p.Rooks | p.Queens) & enemy) != 0 {
		return true
	}
	return false
}

func (p *Position) attackersTo(sq int) uint64 {
	var occ = p.AllPieces()
	return (blackPawnAttacks[sq] & p.Pawns & p.White) |
		(whitePawnAttacks[sq] & p.Pawns & p.Black) |
		(KnightAttacks[sq] & p.Knights) |
		(BishopAttacks(sq, occ) & (p.Bishops | p.Queens)) |
		(RookAttacks(sq, occ) & (p.Rooks | p.Queens)) |
		(KingAttacks[sq] & p.Kings)
}

func (p *Position) computeCheckers() uint64 {
	return p.attackersTo(p.KingSq(p.WhiteMove)) & p.Colours(!p.WhiteMove)
}

// isLegal reports whether the side that just moved left its king safe.
func (p *Position) isLegal() bool {
	return !p.isAttackedBySide(p.KingSq(!p.WhiteMove), p.WhiteMove)
}

// IsRepetition compares everything that matters for threefold
// detection; Rule50 and LastMove are deliberately ignored.
func (p *Position) IsRepetition(other *Position) bool {
	return p.White == other.White &&
		p.Black == other.Black &&
		p.Pawns == other.Pawns &&
		p.Knights == other.Knights &&
		p.Bishops == other.Bishops &&
		p.Rooks == other.Rooks &&
		p.Queens == other.Queens &&
		p.Kings == other.Kings &&
		p.WhiteMove == other.WhiteMove &&
		p.CastleRights == other.CastleRights &&
		p.EpSquare == other.EpSquare
}

func NewPositionFromFEN(fen string) (Position, error) {
	var tokens = strings.Fields(fen)
	if len(tokens) < 4 {
		return Position{}, fmt.Errorf("parse fen failed %v", fen)
	}

	var p = Position{EpSquare: SquareNone}

	var i = 0
	for _, ch := range tokens[0] {
		if unicode.IsDigit(ch) {
			i += int(ch - '0')
		} else if unicode.IsLetter(ch) {
			var pieceType = parsePieceType(unicode.ToLower(ch))
			if pieceType == Empty || i >= 64 {
				return Position{}, fmt.Errorf("parse fen failed %v", fen)
			}
			xorPiece(&p, pieceType, unicode.IsUpper(ch), FlipSquare(i))
			i++
		}
	}

	p.WhiteMove = tokens[1] == "w"

	if strings.Contains(tokens[2], "K") {
		p.CastleRights |= WhiteKingSide
	}
	if strings.Contains(tokens[2], "Q") {
		p.CastleRights |= WhiteQueenSide
	}
	if strings.Contains(tokens[2], "k") {
		p.CastleRights |= BlackKingSide
	}
	if strings.Contains(tokens[2], "q") {
		p.CastleRights |= BlackQueenSide
	}

	p.EpSquare = ParseSquare(tokens[3])

	if len(tokens) > 4 {
		p.Rule50, _ = strconv.Atoi(tokens[4])
	}

	p.Key = p.computeKey()
	if p.Kings&p.White == 0 || p.Kings&p.Black == 0 || !p.isLegal() {
		return Position{}, fmt.Errorf("parse fen failed %v", fen)
	}
	p.Checkers = p.computeCheckers()
	return p, nil
}

func parsePieceType(ch rune) int {
	switch ch {
	case 'p':
		return Pawn
	case 'n':
		return Knight
	case 'b':
		return Bishop
	case 'r':
		return Rook
	case 'q':
		return Queen
	case 'k':
		return King
	}
	return Empty
}

func (p *Position) String() string {
	var sb strings.Builder

	var emptyCount = 0
	for i := 0; i < 64; i++ {
		var sq = FlipSquare(i)
		var pieceType, side = p.GetPieceTypeAndSide(sq)
		if pieceType == Empty {
			emptyCount++
		} else {
			if emptyCount != 0 {
				sb.WriteString(strconv.Itoa(emptyCount))
				emptyCount = 0
			}
			var ch = " pnbrqk"[pieceType]
			if side {
				ch = " PNBRQK"[pieceType]
			}
			sb.WriteByte(ch)
		}
		if File(sq) == FileH {
			if emptyCount != 0 {
				sb.WriteString(strconv.Itoa(emptyCount))
				emptyCount = 0
			}
			if Rank(sq) != Rank1 {
				sb.WriteString("/")
			}
		}
	}

	if p.WhiteMove {
		sb.WriteString(" w ")
	} else {
		sb.WriteString(" b ")
	}

	if p.CastleRights == 0 {
		sb.WriteString("-")
	} else {
		if (p.CastleRights & WhiteKingSide) != 0 {
			sb.WriteString("K")
		}
		if (p.CastleRights & WhiteQueenSide) != 0 {
			sb.WriteString("Q")
		}
		if (p.CastleRights & BlackKingSide) != 0 {
			sb.WriteString("k")
		}
		if (p.CastleRights & BlackQueenSide) != 0 {
			sb.WriteString("q")
		}
	}
	sb.WriteString(" ")

	if p.EpSquare == SquareNone {
		sb.WriteString("-")
	} else {
		sb.WriteString(SquareName(p.EpSquare))
	}

	fmt.Fprintf(&sb, " %d %d", p.Rule50, p.Rule50/2+1)
	return sb.String()
}

var (
	sideKey        uint64
	enpassantKey   [8]uint64
	castlingKey    [16]uint64
	pieceSquareKey [PIECE_NB * 2 * 64]uint64
)

func PieceSquareKey(piece int, side bool, square int) uint64 {
	return pieceSquareKey[MakePiece(piece, side)*64+square]
}

func (p *Position) computeKey() uint64 {
	var result = uint64(0)
	if p.WhiteMove {
		result ^= sideKey
	}
	result ^= castlingKey[p.CastleRights]
	if p.EpSquare != SquareNone {
		result ^= enpassantKey[File(p.EpSquare)]
	}
	for sq := 0; sq < 64; sq++ {
		var pieceType, side = p.GetPieceTypeAndSide(sq)
		if pieceType != Empty {
			result ^= PieceSquareKey(pieceType, side, sq)
		}
	}
	return result
}

func init() {
	var r = rand.New(rand.NewSource(0))
	sideKey = r.Uint64()
	for i := range enpassantKey {
		enpassantKey[i] = r.Uint64()
	}
	for i := range pieceSquareKey {
		pieceSquareKey[i] = r.Uint64()
	}

	var castle [4]uint64
	for i := range castle {
		castle[i] = r.Uint64()
	}
	for i := range castlingKey {
		for j := 0; j < 4; j++ {
			if (i & (1 << uint(j))) != 0 {
				castlingKey[i] ^= castle[j]
			}
		}
	}

	for i := range castleMask {
		castleMask[i] = WhiteKingSide | WhiteQueenSide | BlackKingSide | BlackQueenSide
	}
	castleMask[SquareA1] &^= WhiteQueenSide
	castleMask[SquareE1] &^= WhiteQueenSide | WhiteKingSide
	castleMask[SquareH1] &^= WhiteKingSide
	castleMask[SquareA8] &^= BlackQueenSide
	castleMask[SquareE8] &^= BlackQueenSide | BlackKingSide
	castleMask[SquareH8] &^= BlackKingSide
}
