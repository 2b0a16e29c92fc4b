package logger

import (
	"time"

	"go.uber.org/zap"
)

// Standard HTTP fields.

func RequestID(v string) zap.Field { return zap.String("request_id", v) }

func Method(v string) zap.Field { return zap.String("method", v) }

func Path(v string) zap.Field { return zap.String("path", v) }

func Status(v int) zap.Field { return zap.Int("status", v) }

func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }

// Standard business fields.

func TenantID(v string) zap.Field { return zap.String("tenant_id", v) }

func UserID(v string) zap.Field { return zap.String("user_id", v) }

func EntityName(v string) zap.Field { return zap.String("entity", v) }

func Err(err error) zap.Field { return zap.Error(err) }
