// Package sampler: configuration for the sampling driver.
//
// This file defines the functional options, the progress callback
// contract, and the package sentinel errors.
//
// Errors (sentinel):
//
//	ErrBadNumSamples - requested sample count below one.
//	ErrBadNumChains  - requested chain count below one.
//	ErrNoAdaptor     - warmup requested without an adaptor (or factory).
package sampler

import (
	"errors"
	"log/slog"

	"github.com/katalvlaran/hamwalk/adapt"
	"github.com/katalvlaran/hamwalk/nuts"
)

// Sentinel errors for driver configuration.
var (
	// ErrBadNumSamples indicates a requested sample count below one.
	ErrBadNumSamples = errors.New("sampler: number of samples must be at least 1")

	// ErrBadNumChains indicates a requested chain count below one.
	ErrBadNumChains = errors.New("sampler: number of chains must be at least 1")

	// ErrNoAdaptor indicates that warmup iterations were requested but no
	// adaptor (for Sample) or adaptor factory (for SampleChains) was set.
	ErrNoAdaptor = errors.New("sampler: warmup requested without an adaptor")
)

// Progress is invoked at the end of every iteration with the 1-based
// iteration index and the transition just recorded. It may inspect but
// must not mutate the transition.
type Progress func(i int, t nuts.Transition)

// Options configures a sampling run.
//
// Adaptor        - warmup adaptor driving step-size/metric updates.
// AdaptorFactory - per-chain adaptor constructor, required by SampleChains.
// NumAdapt       - number of warmup iterations (0 disables adaptation).
// DiscardAdapt   - drop the warmup draws from the returned slice.
// Progress       - per-iteration callback.
// Logger         - structured warning/verbose channel. Defaults to slog.Default().
// Verbose        - emit a debug record per iteration.
type Options struct {
	Adaptor        adapt.Adaptor
	AdaptorFactory func() adapt.Adaptor
	NumAdapt       int
	DiscardAdapt   bool
	Progress       Progress
	Logger         *slog.Logger
	Verbose        bool
}

// Option is a functional option for Sample and SampleChains.
type Option func(*Options)

// WithAdaptor runs a warmup of nAdapt iterations driven by a. Panics on a
// negative nAdapt (programmer error).
func WithAdaptor(a adapt.Adaptor, nAdapt int) Option {
	return func(o *Options) {
		if nAdapt < 0 {
			panic(adapt.ErrBadNumAdapt.Error())
		}
		o.Adaptor = a
		o.NumAdapt = nAdapt
	}
}

// WithAdaptorFactory runs a warmup of nAdapt iterations, constructing one
// adaptor per chain. Required for SampleChains since adaptors are
// stateful. Panics on a negative nAdapt (programmer error).
func WithAdaptorFactory(f func() adapt.Adaptor, nAdapt int) Option {
	return func(o *Options) {
		if nAdapt < 0 {
			panic(adapt.ErrBadNumAdapt.Error())
		}
		o.AdaptorFactory = f
		o.NumAdapt = nAdapt
	}
}

// WithDiscardAdapt drops the warmup draws from the returned slice.
func WithDiscardAdapt() Option {
	return func(o *Options) { o.DiscardAdapt = true }
}

// WithProgress installs a per-iteration callback.
func WithProgress(fn Progress) Option {
	return func(o *Options) { o.Progress = fn }
}

// WithLogger routes warnings and verbose records through l.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithVerbose emits one debug record per iteration on the logger.
func WithVerbose() Option {
	return func(o *Options) { o.Verbose = true }
}

// DefaultOptions returns the driver defaults: no adaptation, keep all
// draws, no callback, slog.Default() and quiet.
func DefaultOptions() Options {
	return Options{Logger: slog.Default()}
}
