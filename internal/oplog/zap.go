// Package oplog adapts wager operation callbacks to zap.
package oplog

import (
	"context"

	"github.com/MarkoPoloResearchLab/wagering/pkg/wager"
	"go.uber.org/zap"
)

// ZapLogger writes each wager operation as a structured log line.
type ZapLogger struct {
	logger *zap.Logger
}

// NewZapLogger wraps logger; a nil logger falls back to a no-op logger.
func NewZapLogger(logger *zap.Logger) *ZapLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapLogger{logger: logger}
}

// LogOperation implements wager.OperationLogger.
func (zapLogger *ZapLogger) LogOperation(_ context.Context, entry wager.OperationLog) {
	fields := []zap.Field{
		zap.String("operation", entry.Operation),
		zap.String("status", entry.Status),
		zap.String("player_id", entry.PlayerID.String()),
	}
	if entry.PlayID.String() != "" {
		fields = append(fields, zap.String("play_id", entry.PlayID.String()))
	}
	if entry.Game != "" {
		fields = append(fields, zap.String("game", entry.Game.String()))
	}
	if !entry.Amount.IsZero() {
		fields = append(fields, zap.String("amount", entry.Amount.StringFixed(2)))
	}
	if !entry.Reference.IsZero() {
		fields = append(fields, zap.String("reference", entry.Reference.String()))
	}
	if entry.Error != nil {
		zapLogger.logger.Warn("wager operation failed", append(fields, zap.Error(entry.Error))...)
		return
	}
	zapLogger.logger.Info("wager operation", fields...)
}
