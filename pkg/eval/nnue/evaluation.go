package eval

import (
	. "github.com/grunsab/Titan/pkg/chess"
)

const (
	// 12 piece kinds on 64 squares; the network input is a one-hot
	// board encoding, so a move touches at most 4 features.
	InputSize = 64 * 12

	maxHeight = 128
)

const (
	Add    = 1
	Remove = -Add
)

// Weights is a quantized two-layer network. First-layer weights are
// stored feature-major so an incremental update walks one contiguous
// row per changed feature.
type Weights struct {
	HiddenSize    int
	HiddenWeights []int8  // InputSize rows of HiddenSize
	HiddenBiases  []int16 // HiddenSize
	OutputWeights []int8  // HiddenSize
	OutputBias    int16
	HiddenScale   float32
	OutputScale   float32
}

// EvaluationService keeps one first-layer accumulator per search
// height. MakeMove copies the previous accumulator and applies the
// feature deltas; UnmakeMove just drops back to the previous height.
type EvaluationService struct {
	*Weights
	updates       Updates
	hiddenOutputs [maxHeight][]int32
	currentHidden int
}

type Updates struct {
	Indices [8]int16
	Coeffs  [8]int8
	Size    int
}

func (u *Updates) Add(index int16, coeff int8) {
	u.Indices[u.Size] = index
	u.Coeffs[u.Size] = coeff
	u.Size++
}

func NewEvaluationService(weights *Weights) *EvaluationService {
	var es = &EvaluationService{}
	es.Weights = weights
	for i := range es.hiddenOutputs {
		es.hiddenOutputs[i] = make([]int32, weights.HiddenSize)
	}
	return es
}

func (e *EvaluationService) EvaluateQuick(p *Position) int {
	output := e.quickFeed()
	const MaxEval = 15_000
	output = Max(-MaxEval, Min(MaxEval, output))
	var npMaterial = 4*PopCount(p.Knights|p.Bishops) + 6*PopCount(p.Rooks) + 12*PopCount(p.Queens)
	output = output * (160 + npMaterial) / 160
	output = output * (200 - p.Rule50) / 200
	if !p.WhiteMove {
		output = -output
	}
	return output
}

func (e *EvaluationService) Evaluate(p *Position) int {
	e.Init(p)
	return e.EvaluateQuick(p)
}

// Init refreshes the height-0 accumulator from scratch.
func (e *EvaluationService) Init(p *Position) {
	e.currentHidden = 0
	var hiddenOutputs = e.hiddenOutputs[0]
	var hiddenSize = e.HiddenSize

	for i := range hiddenOutputs {
		hiddenOutputs[i] = int32(e.HiddenBiases[i])
	}

	for sq := 0; sq < 64; sq++ {
		piece, side := p.GetPieceTypeAndSide(sq)
		if piece == Empty {
			continue
		}
		var index = int(calculateNetInputIndex(side, piece, sq)) * hiddenSize
		var row = e.HiddenWeights[index : index+hiddenSize]
		for j, w := range row {
			hiddenOutputs[j] += int32(w)
		}
	}
}

func calculateNetInputIndex(whiteSide bool, pieceType, square int) int16 {
	var piece12 = pieceType - Pawn
	if !whiteSide {
		piece12 += 6
	}
	return int16(square ^ piece12<<6)
}

func (e *EvaluationService) quickFeed() int {
	var raw = int32(e.OutputBias)
	var clip = int32(e.HiddenScale)
	for i, x := range e.hiddenOutputs[e.currentHidden] {
		// clipped ReLU at 1.0 in pre-quantization units
		if x > 0 {
			if x > clip {
				x = clip
			}
			raw += x * int32(e.OutputWeights[i])
		}
	}
	return int(float32(raw) / (e.HiddenScale * e.OutputScale))
}

func (e *EvaluationService) updateHidden() {
	e.currentHidden++
	var hiddenSize = e.HiddenSize
	hiddenOutputs := e.hiddenOutputs[e.currentHidden]
	copy(hiddenOutputs, e.hiddenOutputs[e.currentHidden-1])

	for i := 0; i < e.updates.Size; i++ {
		var index = int(e.updates.Indices[i]) * hiddenSize
		var row = e.HiddenWeights[index : index+hiddenSize]
		if e.updates.Coeffs[i] == Add {
			for j, w := range row {
				hiddenOutputs[j] += int32(w)
			}
		} else {
			for j, w := range row {
				hiddenOutputs[j] -= int32(w)
			}
		}
	}
}

func (e *EvaluationService) MakeMove(p *Position, m Move) {
	e.updates.Size = 0

	// null move changes no features
	if m == MoveEmpty {
		e.updateHidden()
		return
	}

	var from, to, movingPiece, capturedPiece, epCapSq, promotionPt, isCastling = unpackMove(p, m)

	e.updates.Add(calculateNetInputIndex(p.WhiteMove, movingPiece, from), Remove)

	if capturedPiece != Empty {
		var capSq = to
		if epCapSq != SquareNone {
			capSq = epCapSq
		}
		e.updates.Add(calculateNetInputIndex(!p.WhiteMove, capturedPiece, capSq), Remove)
	}

	var pieceAfterMove = movingPiece
	if promotionPt != Empty {
		pieceAfterMove = promotionPt
	}
	e.updates.Add(calculateNetInputIndex(p.WhiteMove, pieceAfterMove, to), Add)

	if isCastling {
		var rookRemoveSq, rookAddSq int
		if p.WhiteMove {
			if to == SquareG1 {
				rookRemoveSq = SquareH1
				rookAddSq = SquareF1
			} else {
				rookRemoveSq = SquareA1
				rookAddSq = SquareD1
			}
		} else {
			if to == SquareG8 {
				rookRemoveSq = SquareH8
				rookAddSq = SquareF8
			} else {
				rookRemoveSq = SquareA8
				rookAddSq = SquareD8
			}
		}

		e.updates.Add(calculateNetInputIndex(p.WhiteMove, Rook, rookRemoveSq), Remove)
		e.updates.Add(calculateNetInputIndex(p.WhiteMove, Rook, rookAddSq), Add)
	}

	e.updateHidden()
}

func (e *EvaluationService) UnmakeMove() {
	e.currentHidden--
}

func unpackMove(p *Position, m Move) (from, to, movingPiece, capturedPiece, epCapSq, promotionPt int, isCastling bool) {
	from = m.From()
	to = m.To()
	movingPiece = m.MovingPiece()
	capturedPiece = m.CapturedPiece()
	promotionPt = m.Promotion()
	epCapSq = SquareNone
	if movingPiece == King {
		if p.WhiteMove {
			if from == SquareE1 && (to == SquareG1 || to == SquareC1) {
				isCastling = true
			}
		} else {
			if from == SquareE8 && (to == SquareG8 || to == SquareC8) {
				isCastling = true
			}
		}
	} else if movingPiece == Pawn {
		if to == p.EpSquare {
			if p.WhiteMove {
				epCapSq = to - 8
			} else {
				epCapSq = to + 8
			}
		}
	}
	return
}
