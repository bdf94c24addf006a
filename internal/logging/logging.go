// Package logging provides structured logging with zap.
package logging

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/samsirama/windows-explorer-clone/pkg/models"
)

type contextKey struct{}

var (
	globalLogger *zap.Logger
	globalLevel  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Config holds logging configuration.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	OutputPath string // stdout, stderr, or file path
}

// Init builds the global logger from cfg. An unknown level means info.
func Init(cfg Config) error {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}
	globalLevel.SetLevel(level)

	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = globalLevel
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg.OutputPath != "" {
		zc.OutputPaths = []string{cfg.OutputPath}
		zc.ErrorOutputPaths = []string{cfg.OutputPath}
	}

	logger, err := zc.Build(
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		return err
	}
	globalLogger = logger
	return nil
}

// InitDefault installs a production JSON logger at info level.
func InitDefault() {
	logger, _ := zap.NewProduction(zap.AddCallerSkip(1))
	globalLogger = logger
}

// Sync flushes buffered entries.
func Sync() error {
	if globalLogger == nil {
		return nil
	}
	return globalLogger.Sync()
}

// SetLevel changes the level at runtime. Unknown levels are ignored.
func SetLevel(level string) {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err == nil {
		globalLevel.SetLevel(l)
	}
}

func logger() *zap.Logger {
	if globalLogger == nil {
		InitDefault()
	}
	return globalLogger
}

// FromContext returns the request-scoped logger stored by Middleware, or
// the global logger.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(contextKey{}).(*zap.Logger); ok {
		return l
	}
	return logger()
}

func Debug(msg string, fields ...zap.Field) { logger().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { logger().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { logger().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { logger().Error(msg, fields...) }

// Fatal logs and exits the process.
func Fatal(msg string, fields ...zap.Field) { logger().Fatal(msg, fields...) }

// statusRecorder captures what a handler wrote.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += int64(n)
	return n, err
}

// Flush keeps the event stream working through the wrapper.
func (rw *statusRecorder) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Middleware tags each request with an X-Request-ID (taken from the client
// or generated) and logs one line when it completes. The line names the
// matched route and, for /folders/{id} routes, the node. 5xx responses log
// at error level and 4xx at warn.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		reqLogger := logger().With(zap.String("request_id", requestID))
		r = r.WithContext(context.WithValue(r.Context(), contextKey{}, reqLogger))
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		// The mux fills in Pattern and path values on r as it routes.
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		fields := []zap.Field{
			zap.String("route", route),
			zap.Int("status", rec.status),
			zap.Int64("bytes", rec.bytes),
			zap.Duration("duration", time.Since(start)),
		}
		if id := r.PathValue("id"); id != "" {
			fields = append(fields, NodeID(id))
		}
		if q := r.URL.Query().Get("q"); q != "" {
			fields = append(fields, zap.String("query", q))
		}

		switch {
		case rec.status >= http.StatusInternalServerError:
			reqLogger.Error("request completed", fields...)
		case rec.status >= http.StatusBadRequest:
			reqLogger.Warn("request completed", fields...)
		default:
			reqLogger.Info("request completed", fields...)
		}
	})
}

// Field helpers.

func String(key, val string) zap.Field                 { return zap.String(key, val) }
func Int(key string, val int) zap.Field                { return zap.Int(key, val) }
func Int64(key string, val int64) zap.Field            { return zap.Int64(key, val) }
func Err(err error) zap.Field                          { return zap.Error(err) }
func Duration(key string, val time.Duration) zap.Field { return zap.Duration(key, val) }

// NodeID names the node a log line is about.
func NodeID(id string) zap.Field {
	return zap.String("node_id", id)
}

// Node logs the identifying fields of n as one "node" object.
func Node(n *models.Node) zap.Field {
	return zap.Object("node", zapcore.ObjectMarshalerFunc(func(enc zapcore.ObjectEncoder) error {
		if n == nil {
			return nil
		}
		enc.AddString("id", n.ID)
		enc.AddString("name", n.Name)
		enc.AddString("type", string(n.Type))
		if n.ParentID != nil {
			enc.AddString("parent_id", *n.ParentID)
		}
		return nil
	}))
}
