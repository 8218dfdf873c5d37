//go:build tools
// +build tools

// Package tools pins code generators used by go generate (mockgen).
package tools

import (
	_ "go.uber.org/mock/mockgen"
)
