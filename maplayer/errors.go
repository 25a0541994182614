package maplayer

import "errors"

var (
	// ErrUnknownStyle is returned for a base style outside the enumerated set.
	ErrUnknownStyle = errors.New("unknown base style")

	// ErrUnknownOverlay is returned when an id is neither tracked nor known to the engine.
	ErrUnknownOverlay = errors.New("unknown overlay")

	// ErrEngineNotReady is returned for commands issued before the engine exists.
	ErrEngineNotReady = errors.New("map engine not ready")

	// ErrReconciling is returned for overlay commands issued between a style
	// swap and the reconciliation that follows it. Such commands are dropped.
	ErrReconciling = errors.New("style swap in progress")

	ErrInvalidOverlay = errors.New("invalid overlay")
)
