//go:build !windows

package store

const lineEnding = "\n"
