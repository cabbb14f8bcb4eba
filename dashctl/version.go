package main

var (
	// Version is set by the release build via -ldflags.
	Version = "1.0.0-dev"
	// Gitref is set by the release build via -ldflags.
	Gitref = "unknown"
)
