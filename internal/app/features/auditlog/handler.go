// internal/app/features/auditlog/handler.go
package auditlog

import (
	"github.com/dalemusser/kerjasama/internal/app/store/audit"
	"go.uber.org/zap"
)

type Handler struct {
	Audit *audit.Store
	Log   *zap.Logger
}

// NewHandler constructs the audit query handler.
func NewHandler(store *audit.Store, logger *zap.Logger) *Handler {
	return &Handler{Audit: store, Log: logger}
}
