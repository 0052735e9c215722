package cli

import "avular-packages/internal/app"

// newAppService wires a fresh app.Service with its default adapters for
// each CLI invocation, exactly as a new solve.Resolve is built fresh per
// Service.Solve call.
func newAppService() app.Service {
	return app.NewService()
}
