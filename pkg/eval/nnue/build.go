package eval

import (
	"log"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"sync"
)

const weightsFileName = "titan.nnq"

var once sync.Once
var weights *Weights
var weightsErr error

// NewDefaultEvaluationService loads the weights file from the
// binary's directory or from ~/chess/. Weights are shared between
// evaluation services, each service only owns the accumulators.
func NewDefaultEvaluationService() (*EvaluationService, error) {
	once.Do(func() {
		for _, path := range []string{
			mapPath("./" + weightsFileName),
			mapPath("~/chess/" + weightsFileName),
		} {
			var w, err = loadFileWeights(path)
			if err == nil {
				weights = w
				log.Println("loaded nnue weights", "path", path)
				return
			}
			weightsErr = err
		}
	})
	if weights == nil {
		return nil, weightsErr
	}
	return NewEvaluationService(weights), nil
}

func loadFileWeights(path string) (*Weights, error) {
	var f, err = os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadWeights(f)
}

func mapPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		curUser, err := user.Current()
		if err != nil {
			return path
		}
		return filepath.Join(curUser.HomeDir, strings.TrimPrefix(path, "~/"))
	}
	if strings.HasPrefix(path, "./") {
		var exePath, err = os.Executable()
		if err != nil {
			return path
		}
		return filepath.Join(filepath.Dir(exePath), strings.TrimPrefix(path, "./"))
	}
	return path
}
