package tune

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sartorproj/salesforecast/decompose"
	"github.com/sartorproj/salesforecast/evaluate"
	"github.com/sartorproj/salesforecast/fit"
	"github.com/sartorproj/salesforecast/forecast"
	"github.com/sartorproj/salesforecast/internal/logger"
	"github.com/sartorproj/salesforecast/preprocess"
	"github.com/sartorproj/salesforecast/timeseries"
)

// Criterion names the score minimised by the search.
type Criterion string

const (
	MAE Criterion = "mae" // Hold-out mean absolute error, original domain
	AIC Criterion = "aic"
	BIC Criterion = "bic"
)

// ParseCriterion accepts "mae", "aic" or "bic".
func ParseCriterion(s string) (Criterion, error) {
	switch c := Criterion(s); c {
	case MAE, AIC, BIC:
		return c, nil
	case "":
		return MAE, nil
	}
	return "", fmt.Errorf("unknown criterion %q", s)
}

// Config holds configuration for the hyperparameter search.
type Config struct {
	Changepoints      []int
	Regularizations   []float64
	Modes             []decompose.Mode
	SeasonalityOrders []int

	Criterion Criterion
	// Holdout is the number of trailing observations scored by MAE.
	// Zero holds out a fifth of the series (at least one observation).
	Holdout int
	// Frequency is the cadence of the series, needed to forecast the hold-out.
	Frequency timeseries.Frequency
	Stepwise  bool

	// Base supplies the remaining decomposition settings and the stepwise
	// starting point.
	Base       decompose.Config
	Fit        fit.Config
	Preprocess preprocess.Options
	Logger     *logger.Logger
}

// DefaultConfig returns the default search configuration.
func DefaultConfig() *Config {
	return &Config{
		Changepoints:      []int{0, 5, 10, 25},
		Regularizations:   []float64{0.0001, 0.001, 0.01, 0.1},
		Modes:             []decompose.Mode{decompose.Multiplicative, decompose.Additive},
		SeasonalityOrders: []int{decompose.DefaultConfig().SeasonalityOrder},
		Criterion:         MAE,
		Frequency:         timeseries.MonthStart,
		Stepwise:          true,
		Base:              decompose.DefaultConfig(),
		Fit:               fit.DefaultConfig(),
		Preprocess:        preprocess.DefaultOptions(),
	}
}

// Candidate is one evaluated configuration.
type Candidate struct {
	Config decompose.Config
	Score  float64
	Err    error
}

// Result represents the outcome of a search.
type Result struct {
	Best      decompose.Config
	Score     float64
	Criterion Criterion

	// Search information
	ModelsEvaluated int
	Failed          int
	Candidates      []Candidate
}

// Search finds the best decomposition configuration for series.
func Search(ctx context.Context, series *timeseries.Series, config *Config) (*Result, error) {
	if config == nil {
		config = DefaultConfig()
	}
	s, err := newSearcher(series, config)
	if err != nil {
		return nil, err
	}

	if config.Stepwise {
		err = s.stepwise(ctx)
	} else {
		err = s.exhaustive(ctx)
	}
	if err != nil {
		return nil, err
	}

	if math.IsInf(s.result.Score, 1) {
		return nil, fmt.Errorf("tune: none of %d candidates could be fitted: %w", s.result.ModelsEvaluated, s.lastErr)
	}
	return s.result, nil
}

// axes are the grid dimensions; a point is one index per axis.
type point [4]int

type searcher struct {
	config *Config
	log    *logger.Logger
	fitter *fit.Fitter

	full  *preprocess.Prepared // scored by information criteria
	train *preprocess.Prepared // fitted for MAE
	test  *timeseries.Series   // held out for MAE

	seen    map[point]float64
	result  *Result
	lastErr error
}

func newSearcher(series *timeseries.Series, config *Config) (*searcher, error) {
	if len(config.Changepoints) == 0 || len(config.Regularizations) == 0 ||
		len(config.Modes) == 0 || len(config.SeasonalityOrders) == 0 {
		return nil, errors.New("tune: every grid axis needs at least one value")
	}
	criterion, err := ParseCriterion(string(config.Criterion))
	if err != nil {
		return nil, fmt.Errorf("tune: %w", err)
	}

	full, err := preprocess.Prepare(series, config.Preprocess)
	if err != nil {
		return nil, err
	}

	s := &searcher{
		config: config,
		log:    config.Logger,
		fitter: fit.New(config.Fit),
		full:   full,
		seen:   make(map[point]float64),
		result: &Result{Score: math.Inf(1), Criterion: criterion},
	}
	if s.log == nil {
		s.log = logger.Nop()
	}

	if criterion == MAE {
		if !config.Frequency.Valid() {
			return nil, fmt.Errorf("tune: hold-out scoring needs a valid frequency, got %q", config.Frequency)
		}
		holdout := config.Holdout
		if holdout == 0 {
			holdout = max(1, full.Original.Len()/5)
		}
		train, test, err := evaluate.Split(full.Original, holdout)
		if err != nil {
			return nil, err
		}
		s.train, err = preprocess.Prepare(train, config.Preprocess)
		if err != nil {
			return nil, err
		}
		s.test = test
	}
	return s, nil
}

func (s *searcher) exhaustive(ctx context.Context) error {
	c := s.config
	for a := range c.Changepoints {
		for b := range c.Regularizations {
			for m := range c.Modes {
				for o := range c.SeasonalityOrders {
					if err := ctx.Err(); err != nil {
						return err
					}
					s.evaluate(point{a, b, m, o})
				}
			}
		}
	}
	return nil
}

func (s *searcher) stepwise(ctx context.Context) error {
	best := s.start()
	if err := ctx.Err(); err != nil {
		return err
	}
	bestScore := s.evaluate(best)

	// every mode is tried from the start since the axis is categorical
	for m := range s.config.Modes {
		if err := ctx.Err(); err != nil {
			return err
		}
		p := best
		p[2] = m
		if score := s.evaluate(p); score < bestScore {
			best, bestScore = p, score
		}
	}

	improved := true
	for improved {
		improved = false
		for _, p := range s.neighbors(best) {
			if err := ctx.Err(); err != nil {
				return err
			}
			if score := s.evaluate(p); score < bestScore {
				best, bestScore = p, score
				improved = true
			}
		}
	}
	return nil
}

// start is the grid point closest to the base configuration.
func (s *searcher) start() point {
	c, base := s.config, s.config.Base
	var p point
	p[0] = nearest(len(c.Changepoints), func(i int) float64 {
		return math.Abs(float64(c.Changepoints[i] - base.Changepoints))
	})
	p[1] = nearest(len(c.Regularizations), func(i int) float64 {
		return math.Abs(math.Log(c.Regularizations[i]+1e-12) - math.Log(base.Regularization+1e-12))
	})
	for i, m := range c.Modes {
		if m == base.Mode {
			p[2] = i
		}
	}
	p[3] = nearest(len(c.SeasonalityOrders), func(i int) float64 {
		return math.Abs(float64(c.SeasonalityOrders[i] - base.SeasonalityOrder))
	})
	return p
}

func nearest(n int, dist func(i int) float64) int {
	best, bestDist := 0, math.Inf(1)
	for i := 0; i < n; i++ {
		if d := dist(i); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func (s *searcher) neighbors(p point) []point {
	sizes := point{
		len(s.config.Changepoints),
		len(s.config.Regularizations),
		len(s.config.Modes),
		len(s.config.SeasonalityOrders),
	}
	var out []point
	for axis := range p {
		for _, step := range []int{-1, 1} {
			q := p
			q[axis] += step
			if q[axis] < 0 || q[axis] >= sizes[axis] {
				continue
			}
			out = append(out, q)
		}
	}
	return out
}

func (s *searcher) configAt(p point) decompose.Config {
	cfg := s.config.Base
	cfg.Changepoints = s.config.Changepoints[p[0]]
	cfg.Regularization = s.config.Regularizations[p[1]]
	cfg.Mode = s.config.Modes[p[2]]
	cfg.SeasonalityOrder = s.config.SeasonalityOrders[p[3]]
	return cfg
}

// evaluate scores the candidate at p once; failures score +Inf.
func (s *searcher) evaluate(p point) float64 {
	if score, ok := s.seen[p]; ok {
		return score
	}

	cfg := s.configAt(p)
	score, err := s.score(cfg)
	s.result.ModelsEvaluated++
	s.result.Candidates = append(s.result.Candidates, Candidate{Config: cfg, Score: score, Err: err})

	if err != nil {
		s.result.Failed++
		s.lastErr = err
		score = math.Inf(1)
		s.log.Debug("tune candidate failed",
			Fields(cfg, logger.Error(err))...)
	} else {
		s.log.Debug("tune candidate",
			Fields(cfg, logger.Float64(string(s.result.Criterion), score))...)
	}
	s.seen[p] = score

	if score < s.result.Score {
		s.result.Score = score
		s.result.Best = cfg
	}
	return score
}

func (s *searcher) score(cfg decompose.Config) (float64, error) {
	d, err := decompose.New(cfg)
	if err != nil {
		return 0, err
	}

	if s.result.Criterion != MAE {
		model, err := s.fitter.Fit(s.full, d)
		if err != nil {
			return 0, err
		}
		sum := fit.Summarize(model, s.full)
		if s.result.Criterion == BIC {
			return sum.BIC, nil
		}
		return sum.AIC, nil
	}

	model, err := s.fitter.Fit(s.train, d)
	if err != nil {
		return 0, err
	}
	fc, err := forecast.New(forecast.Config{}).Forecast(model, forecast.Horizon{
		Periods:   s.test.Len(),
		Frequency: s.config.Frequency,
	})
	if err != nil {
		return 0, err
	}
	res, err := evaluate.Holdout(fc, s.test)
	if err != nil {
		return 0, err
	}
	return res.MAE, nil
}

// Fields describes a decomposition configuration for structured logs.
func Fields(cfg decompose.Config, extra ...logger.Field) []logger.Field {
	return append([]logger.Field{
		logger.String("mode", string(cfg.Mode)),
		logger.Int("changepoints", cfg.Changepoints),
		logger.Float64("regularization", cfg.Regularization),
		logger.Int("seasonality_order", cfg.SeasonalityOrder),
	}, extra...)
}
