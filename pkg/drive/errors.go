package drive

import "errors"

var (
	// ErrQueueFull is returned when the command queue is at capacity.
	// Producers run on request paths: they retry or drop, they never block.
	ErrQueueFull = errors.New("drive: command queue full")

	// ErrQueueClosed is returned when enqueueing after Close.
	ErrQueueClosed = errors.New("drive: command queue closed")
)
