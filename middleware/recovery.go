package middleware

import (
	"fmt"
	"log/slog"

	"github.com/sweetpotato0/convodesk/pkg/logging"
)

// Recovery converts panics from downstream handlers into errors so one
// broken turn cannot take down the caller.
type Recovery struct {
	logger *slog.Logger
}

// NewRecovery creates the panic recovery middleware.
func NewRecovery() *Recovery {
	return &Recovery{logger: logging.WithComponent("middleware")}
}

// Name returns the middleware name.
func (m *Recovery) Name() string {
	return "Recovery"
}

// Execute runs the rest of the chain and recovers any panic into an error.
func (m *Recovery) Execute(ctx *Context, next Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("turn processing panicked", "session_id", ctx.SessionID, "panic", r)
			err = fmt.Errorf("turn processing panicked: %v", r)
		}
	}()
	return next(ctx)
}
