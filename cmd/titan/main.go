package main

import (
	"log"
	"os"
	"runtime"

	"github.com/grunsab/Titan/pkg/engine"
	material "github.com/grunsab/Titan/pkg/eval/material"
	nnue "github.com/grunsab/Titan/pkg/eval/nnue"
	"github.com/grunsab/Titan/pkg/uci"
)

const (
	name   = "Titan"
	author = "Titan authors"
)

var (
	versionName = "dev"
	buildDate   = "(null)"
	gitRevision = "(null)"
)

func main() {
	var logger = log.New(os.Stderr, "", log.LstdFlags|log.Lshortfile)

	logger.Println(name,
		"VersionName", versionName,
		"BuildDate", buildDate,
		"GitRevision", gitRevision,
		"RuntimeVersion", runtime.Version(),
		"GOARCH", runtime.GOARCH,
		"GOOS", runtime.GOOS,
		"NumCPU", runtime.NumCPU(),
	)

	var eng = engine.NewEngine(func() interface{} {
		if e, err := nnue.NewDefaultEvaluationService(); err == nil {
			return e
		} else {
			logger.Println("nnue weights not loaded, using material eval:", err)
		}
		return material.NewEvaluationService()
	})

	var protocol = uci.New(name, author, versionName, eng,
		[]uci.Option{
			&uci.IntOption{Name: "Hash", Min: 4, Max: 1 << 16, Value: &eng.Options.Hash},
			&uci.IntOption{Name: "Threads", Min: 1, Max: runtime.NumCPU(), Value: &eng.Options.Threads},
			&uci.IntOption{Name: "MoveOverhead", Min: 0, Max: 10_000, Value: &eng.Options.MoveOverhead},
		},
	)
	protocol.Run(logger)
}
