package schema

import "go.uber.org/zap"

// Option customises a Builder or a Discoverer.
type Option func(*options)

type options struct {
	logger      *zap.Logger
	exemplars   map[string]string
	concurrency int
}

func newOptions(opts []Option) options {
	cfg := options{logger: zap.NewNop(), concurrency: 1}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	return cfg
}

// WithLogger routes degradation and discovery messages to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithExemplars sets the entity-type key to exemplar id table searched by
// Discoverer.FindExemplar.
func WithExemplars(exemplars map[string]string) Option {
	return func(o *options) {
		o.exemplars = make(map[string]string, len(exemplars))
		for k, v := range exemplars {
			o.exemplars[k] = v
		}
	}
}

// WithConcurrency bounds how many properties a Builder describes at once.
// Values below one are ignored.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}
