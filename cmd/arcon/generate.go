package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/arcon/internal/decode"
	"github.com/samcharles93/arcon/internal/logger"
	"github.com/samcharles93/arcon/internal/model"
	"github.com/samcharles93/arcon/internal/toy"
)

func generateCmd() *cli.Command {
	var (
		labelSpec string
		condSpec  string
		maskSpec  string

		steps         int64
		temp          float64
		topK          int64
		topP          float64
		greedy        bool
		seed          int64
		guidanceScale float64
		cfgInterval   int64
		mappingSpec   string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "labels",
			Aliases:     []string{"l"},
			Usage:       "class labels, one per batch row, e.g. \"207 360\" (class-conditional mode)",
			Destination: &labelSpec,
		},
		&cli.StringFlag{
			Name:        "cond",
			Usage:       "conditioning token rows, e.g. \"1 2 3; 4 5 6\" (text-conditional mode)",
			Destination: &condSpec,
		},
		&cli.StringFlag{
			Name:        "mask",
			Usage:       "conditioning validity rows of 0/1, e.g. \"1 1 0; 1 1 1\"",
			Destination: &maskSpec,
		},
		&cli.Int64Flag{
			Name:        "steps",
			Aliases:     []string{"n", "num-tokens"},
			Usage:       "number of tokens to generate per row",
			Value:       16,
			Destination: &steps,
		},
		&cli.Float64Flag{
			Name:        "temp",
			Aliases:     []string{"temperature", "t"},
			Usage:       "sampling temperature",
			Value:       1.0,
			Destination: &temp,
		},
		&cli.Int64Flag{
			Name:        "top-k",
			Usage:       "keep only the k highest logits (0 disables)",
			Value:       0,
			Destination: &topK,
		},
		&cli.Float64Flag{
			Name:        "top-p",
			Usage:       "nucleus sampling threshold (1.0 disables)",
			Value:       1.0,
			Destination: &topP,
		},
		&cli.BoolFlag{
			Name:        "greedy",
			Usage:       "pick the argmax token instead of sampling",
			Destination: &greedy,
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "sampling seed",
			Value:       -1,
			Destination: &seed,
		},
		&cli.Float64Flag{
			Name:        "guidance-scale",
			Aliases:     []string{"cfg"},
			Usage:       "classifier-free guidance scale (1.0 disables)",
			Value:       1.0,
			Destination: &guidanceScale,
		},
		&cli.Int64Flag{
			Name:        "cfg-interval",
			Usage:       "disable guidance after this many decode steps (-1 keeps it on)",
			Value:       -1,
			Destination: &cfgInterval,
		},
		&cli.StringFlag{
			Name:        "index-mapping",
			Usage:       "paired token links, e.g. \"0:2,5:7\"",
			Destination: &mappingSpec,
		},
	}
	flags = append(flags, predictorFlags()...)
	flags = append(flags, loggingFlags()...)

	return &cli.Command{
		Name:  "generate",
		Usage: "Generate token sequences with the toy predictor",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg := LoadConfig()
			applyGenerateConfig(c, cfg, &temp, &topK, &topP, &guidanceScale, &cfgInterval, &steps, &seed)
			log := buildLogger(os.Stderr)
			ctx = logger.WithContext(ctx, log)

			predictor, err := buildPredictor()
			if err != nil {
				return err
			}

			cond, err := conditioning(predictor.Mode(), labelSpec, condSpec)
			if err != nil {
				return err
			}
			masks, err := parseMaskRows(maskSpec)
			if err != nil {
				return err
			}
			mapping, err := parseMapping(mappingSpec)
			if err != nil {
				return err
			}

			opts := decode.Options{
				MaxNewTokens:  int(steps),
				Temperature:   float32(temp),
				TopK:          int(topK),
				TopP:          float32(topP),
				Greedy:        greedy,
				Seed:          seed,
				GuidanceScale: float32(guidanceScale),
				CFGInterval:   int(cfgInterval),
				IndexMapping:  mapping,
			}

			gen := &decode.Generator{Model: predictor, Log: log}
			res, err := gen.Generate(ctx, cond, masks, opts)
			if err != nil {
				return err
			}

			for b, row := range res.Tokens {
				fmt.Printf("row %d tokens: %v\n", b, row)
				var sb strings.Builder
				for i, pair := range res.Confidences[b] {
					if i > 0 {
						sb.WriteByte(' ')
					}
					fmt.Fprintf(&sb, "%.3f/%.3f", pair[0], pair[1])
				}
				fmt.Printf("row %d conf:   %s\n", b, sb.String())
			}
			log.Info("generation complete",
				"tokens", res.Stats.TokensGenerated,
				"duration", res.Stats.Duration,
				"tps", fmt.Sprintf("%.1f", res.Stats.TPS),
			)
			return nil
		},
	}
}

func buildPredictor() (*toy.Predictor, error) {
	var mode model.Mode
	switch modeName {
	case "class", "c2i":
		mode = model.ModeClassConditional
	case "text", "t2i":
		mode = model.ModeTextConditional
	default:
		return nil, fmt.Errorf("unknown mode %q (want class or text)", modeName)
	}
	return toy.New(toy.Config{
		Vocab:      int(vocabSize),
		Hidden:     int(hiddenSize),
		NumClasses: int(numClasses),
		CondVocab:  int(condVocab),
		Mode:       mode,
		Seed:       modelSeed,
	})
}

// conditioning shapes the command-line conditioning for the predictor mode.
func conditioning(mode model.Mode, labelSpec, condSpec string) ([][]int, error) {
	switch mode {
	case model.ModeClassConditional:
		fields := strings.Fields(labelSpec)
		if len(fields) == 0 {
			return nil, fmt.Errorf("class-conditional mode needs --labels")
		}
		cond := make([][]int, len(fields))
		for b, f := range fields {
			label, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("invalid class label %q", f)
			}
			cond[b] = []int{label}
		}
		return cond, nil
	default:
		rows, err := parseIntRows(condSpec)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, fmt.Errorf("text-conditional mode needs --cond rows")
		}
		return rows, nil
	}
}

// parseIntRows parses "1 2 3; 4 5 6" into integer rows.
func parseIntRows(spec string) ([][]int, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, nil
	}
	var rows [][]int
	for _, rowSpec := range strings.Split(spec, ";") {
		fields := strings.Fields(rowSpec)
		if len(fields) == 0 {
			continue
		}
		row := make([]int, len(fields))
		for i, f := range fields {
			v, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("invalid token id %q", f)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseMaskRows parses "1 1 0; 1 1 1" into validity rows.
func parseMaskRows(spec string) ([][]bool, error) {
	rows, err := parseIntRows(spec)
	if err != nil || rows == nil {
		return nil, err
	}
	masks := make([][]bool, len(rows))
	for b, row := range rows {
		masks[b] = make([]bool, len(row))
		for i, v := range row {
			masks[b][i] = v != 0
		}
	}
	return masks, nil
}

// parseMapping parses "0:2,5:7" into an index mapping.
func parseMapping(spec string) (map[int]int, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, nil
	}
	mapping := make(map[int]int)
	for _, pair := range strings.Split(spec, ",") {
		kv := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid mapping pair %q", pair)
		}
		k, err := strconv.Atoi(strings.TrimSpace(kv[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid mapping key %q", kv[0])
		}
		v, err := strconv.Atoi(strings.TrimSpace(kv[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid mapping value %q", kv[1])
		}
		mapping[k] = v
	}
	return mapping, nil
}
