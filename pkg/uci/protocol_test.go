package uci

import (
	"testing"

	"github.com/grunsab/Titan/pkg/chess"
)

func TestBestMoveToUci(t *testing.T) {
	var move = chess.NewMove(chess.SquareE2, chess.SquareE4, chess.Pawn, chess.Empty, chess.Empty)
	if got := bestMoveToUci(chess.SearchInfo{MainLine: []chess.Move{move}}); got != "bestmove e2e4" {
		t.Errorf("got %q", got)
	}
	// a mated or stalemated root leaves the main line empty
	if got := bestMoveToUci(chess.SearchInfo{}); got != "bestmove (none)" {
		t.Errorf("got %q", got)
	}
}
