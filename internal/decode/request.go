package decode

// Options configures one generation run.
type Options struct {
	MaxNewTokens int

	Temperature float32
	TopK        int
	TopP        float32
	MinKeep     int
	Greedy      bool
	Seed        int64

	GuidanceScale float32
	CFGInterval   int

	// ConfidenceThreshold is carried for downstream early-stop consumers;
	// the engine records confidences but does not act on the threshold.
	ConfidenceThreshold float32

	// IndexMapping links token ids to paired alternates for the second
	// confidence channel.  Read-only for the duration of a generation.
	IndexMapping map[int]int
}

// normalized clamps out-of-range sampling parameters instead of rejecting
// them: robustness of sampling wins over strictness here.
func (o Options) normalized() Options {
	if o.TopK < 0 {
		o.TopK = 0
	}
	if o.TopP <= 0 || o.TopP > 1 {
		o.TopP = 1
	}
	if o.MinKeep < 1 {
		o.MinKeep = 1
	}
	if o.GuidanceScale < 1 {
		o.GuidanceScale = 1
	}
	return o
}

// Defaults carries model- or config-file-level sampling defaults.  All fields
// are pointers so "not set" is distinguishable from zero values.
type Defaults struct {
	Temperature   *float64
	TopK          *int
	TopP          *float64
	GuidanceScale *float64
	CFGInterval   *int
}

// Overrides carries caller-supplied option overrides; nil fields fall back to
// the defaults and then to the built-in values.
type Overrides struct {
	MaxNewTokens *int

	Temperature *float64
	TopK        *int
	TopP        *float64
	MinKeep     *int
	Greedy      *bool
	Seed        *int64

	GuidanceScale       *float64
	CFGInterval         *int
	ConfidenceThreshold *float64

	IndexMapping map[int]int
}

// Resolve layers overrides on top of defaults on top of built-in values and
// returns the concrete Options for a run.
func Resolve(ov Overrides, defaults Defaults) Options {
	opts := Options{
		MaxNewTokens:        256,
		Temperature:         1.0,
		TopK:                0,
		TopP:                1.0,
		MinKeep:             1,
		Seed:                -1,
		GuidanceScale:       1.0,
		CFGInterval:         -1,
		ConfidenceThreshold: 0.8,
	}

	if defaults.Temperature != nil && *defaults.Temperature > 0 {
		opts.Temperature = float32(*defaults.Temperature)
	}
	if defaults.TopK != nil && *defaults.TopK > 0 {
		opts.TopK = *defaults.TopK
	}
	if defaults.TopP != nil && *defaults.TopP > 0 && *defaults.TopP <= 1 {
		opts.TopP = float32(*defaults.TopP)
	}
	if defaults.GuidanceScale != nil && *defaults.GuidanceScale >= 1 {
		opts.GuidanceScale = float32(*defaults.GuidanceScale)
	}
	if defaults.CFGInterval != nil {
		opts.CFGInterval = *defaults.CFGInterval
	}

	if ov.MaxNewTokens != nil {
		opts.MaxNewTokens = *ov.MaxNewTokens
	}
	if ov.Temperature != nil {
		opts.Temperature = float32(*ov.Temperature)
	}
	if ov.TopK != nil {
		opts.TopK = *ov.TopK
	}
	if ov.TopP != nil {
		opts.TopP = float32(*ov.TopP)
	}
	if ov.MinKeep != nil {
		opts.MinKeep = *ov.MinKeep
	}
	if ov.Greedy != nil {
		opts.Greedy = *ov.Greedy
	}
	if ov.Seed != nil {
		opts.Seed = *ov.Seed
	}
	if ov.GuidanceScale != nil {
		opts.GuidanceScale = float32(*ov.GuidanceScale)
	}
	if ov.CFGInterval != nil {
		opts.CFGInterval = *ov.CFGInterval
	}
	if ov.ConfidenceThreshold != nil {
		opts.ConfidenceThreshold = float32(*ov.ConfidenceThreshold)
	}
	if ov.IndexMapping != nil {
		opts.IndexMapping = ov.IndexMapping
	}

	return opts
}
