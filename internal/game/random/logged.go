package random

import "go.uber.org/zap"

// LoggedSource wraps a Source and logs every draw at debug level.
type LoggedSource struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedSource creates a LoggedSource that draws from src and logs to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedSource(src Source, logger *zap.Logger) *LoggedSource {
	return &LoggedSource{src: src, logger: logger}
}

func (l *LoggedSource) Intn(n int) int {
	v := l.src.Intn(n)
	l.logger.Debug("random draw",
		zap.String("kind", string(KindIntn)),
		zap.Int("n", n),
		zap.Int("value", v),
	)
	return v
}

func (l *LoggedSource) Uniform(min, max float64) float64 {
	v := l.src.Uniform(min, max)
	l.logger.Debug("random draw",
		zap.String("kind", string(KindUniform)),
		zap.Float64("min", min),
		zap.Float64("max", max),
		zap.Float64("value", v),
	)
	return v
}

func (l *LoggedSource) Bernoulli(p float64) bool {
	v := l.src.Bernoulli(p)
	l.logger.Debug("random draw",
		zap.String("kind", string(KindBernoulli)),
		zap.Float64("p", p),
		zap.Bool("value", v),
	)
	return v
}

func (l *LoggedSource) ChiSquare(df float64) float64 {
	v := l.src.ChiSquare(df)
	l.logger.Debug("random draw",
		zap.String("kind", string(KindChiSquare)),
		zap.Float64("df", df),
		zap.Float64("value", v),
	)
	return v
}
