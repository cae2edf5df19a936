// README: Structured logger construction.
package infra

import "go.uber.org/zap"

// NewLogger builds the process-wide zap logger. Development mode gives
// human-readable output for the demo binary.
func NewLogger(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
