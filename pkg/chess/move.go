package chess

import "strings"

// Move packs from, to, moving piece, captured piece and promotion into
// an int32. MoveEmpty is the zero value.
type Move int32

const MoveEmpty Move = 0

// OrderedMove carries an ordering key alongside the move so move lists
// can be sorted without a parallel slice.
type OrderedMove struct {
	Move Move
	Key  int32
}

func NewMove(from, to, movingPiece, capturedPiece, promotion int) Move {
	return Move(from ^ (to << 6) ^ (movingPiece << 12) ^
		(capturedPiece << 15) ^ (promotion << 18))
}

func (m Move) From() int {
	return int(m & 63)
}

func (m Move) To() int {
	return int((m >> 6) & 63)
}

func (m Move) MovingPiece() int {
	return int((m >> 12) & 7)
}

func (m Move) CapturedPiece() int {
	return int((m >> 15) & 7)
}

func (m Move) Promotion() int {
	return int((m >> 18) & 7)
}

func (m Move) String() string {
	if m == MoveEmpty {
		return "0000"
	}
	var sb strings.Builder
	sb.WriteString(SquareName(m.From()))
	sb.WriteString(SquareName(m.To()))
	if m.Promotion() != Empty {
		sb.WriteByte("  nbrq"[m.Promotion()])
	}
	return sb.String()
}

// MoveToSAN renders mv in standard algebraic notation. ml must be the
// legal move list for pos; it is needed for disambiguation.
func MoveToSAN(pos *Position, ml []Move, mv Move) string {
	const pieceNames = "NBRQK"
	if mv == whiteKingSideCastle || mv == blackKingSideCastle {
		return "O-O"
	}
	if mv == whiteQueenSideCastle || mv == blackQueenSideCastle {
		return "O-O-O"
	}
	var strPiece, strCapture, strFrom, strTo, strPromotion string
	if mv.MovingPiece() != Pawn {
		strPiece = string(pieceNames[mv.MovingPiece()-Knight])
	}
	strTo = SquareName(mv.To())
	if mv.CapturedPiece() != Empty {
		strCapture = "x"
		if mv.MovingPiece() == Pawn {
			strFrom = SquareName(mv.From())[:1]
		}
	}
	if mv.Promotion() != Empty {
		strPromotion = "=" + string(pieceNames[mv.Promotion()-Knight])
	}
	var ambiguity = false
	var uniqCol = true
	var uniqRow = true
	for _, mv1 := range ml {
		if mv1.From() == mv.From() {
			continue
		}
		if mv1.To() != mv.To() {
			continue
		}
		if mv1.MovingPiece() != mv.MovingPiece() {
			continue
		}
		ambiguity = true
		if File(mv1.From()) == File(mv.From()) {
			uniqCol = false
		}
		if Rank(mv1.From()) == Rank(mv.From()) {
			uniqRow = false
		}
	}
	if ambiguity {
		if uniqCol {
			strFrom = SquareName(mv.From())[:1]
		} else if uniqRow {
			strFrom = SquareName(mv.From())[1:2]
		} else {
			strFrom = SquareName(mv.From())
		}
	}
	return strPiece + strFrom + strCapture + strTo + strPromotion
}

func ParseMoveSAN(pos *Position, san string) Move {
	var index = strings.IndexAny(san, "+#?!")
	if index >= 0 {
		san = san[:index]
	}
	var ml = pos.GenerateLegalMoves()
	for _, mv := range ml {
		if san == MoveToSAN(pos, ml, mv) {
			return mv
		}
	}
	return MoveEmpty
}

// MakeMoveLAN finds the legal move matching a long algebraic string
// such as "e2e4" or "e7e8q". Returns MoveEmpty if no such move exists.
func (p *Position) MakeMoveLAN(lan string) (Move, bool) {
	lan = strings.ToLower(lan)
	for _, mv := range p.GenerateLegalMoves() {
		if mv.String() == lan {
			return mv, true
		}
	}
	return MoveEmpty, false
}
