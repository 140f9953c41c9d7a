package eval

import (
	"github.com/grunsab/Titan/pkg/chess"
)

// EvaluationService counts material only. It is the fallback when no
// network weights can be found and the reference point in search tests.
type EvaluationService struct{}

func NewEvaluationService() *EvaluationService {
	return &EvaluationService{}
}

func (e *EvaluationService) Evaluate(p *chess.Position) int {
	var eval = 100*(chess.PopCount(p.Pawns&p.White)-chess.PopCount(p.Pawns&p.Black)) +
		400*(chess.PopCount(p.Knights&p.White)-chess.PopCount(p.Knights&p.Black)) +
		400*(chess.PopCount(p.Bishops&p.White)-chess.PopCount(p.Bishops&p.Black)) +
		600*(chess.PopCount(p.Rooks&p.White)-chess.PopCount(p.Rooks&p.Black)) +
		1200*(chess.PopCount(p.Queens&p.White)-chess.PopCount(p.Queens&p.Black))
	if !p.WhiteMove {
		eval = -eval
	}
	return eval
}
