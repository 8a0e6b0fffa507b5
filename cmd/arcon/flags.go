package main

import (
	"io"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/arcon/internal/logger"
)

var (
	vocabSize  int64
	hiddenSize int64
	numClasses int64
	condVocab  int64
	modeName   string
	modelSeed  int64
	logLevel   string
	logFormat  string
	debug      bool
)

func predictorFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{
			Name:        "vocab",
			Usage:       "generation vocabulary size",
			Value:       4096,
			Destination: &vocabSize,
		},
		&cli.Int64Flag{
			Name:        "hidden",
			Usage:       "hidden dimension of the toy predictor",
			Value:       64,
			Destination: &hiddenSize,
		},
		&cli.Int64Flag{
			Name:        "num-classes",
			Usage:       "class label space for class-conditional mode",
			Value:       1000,
			Destination: &numClasses,
		},
		&cli.Int64Flag{
			Name:        "cond-vocab",
			Usage:       "conditioning vocabulary for text-conditional mode",
			Value:       256,
			Destination: &condVocab,
		},
		&cli.StringFlag{
			Name:        "mode",
			Usage:       "conditioning mode (class, text)",
			Value:       "class",
			Destination: &modeName,
		},
		&cli.Int64Flag{
			Name:        "model-seed",
			Usage:       "seed for the toy predictor weights",
			Value:       1,
			Destination: &modelSeed,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func buildLogger(w io.Writer) logger.Logger {
	level := logger.ParseLevel(logLevel)
	if debug {
		level = slog.LevelDebug
	}
	switch logFormat {
	case "json":
		return logger.JSON(w, level)
	case "text":
		return logger.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	default:
		return logger.Pretty(w, level)
	}
}
