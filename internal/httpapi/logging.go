package httpapi

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// zlog is an optional structured logger. If unset, falls back to log.Printf.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = &l }

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch s {
	case "off", "":
		return LevelOff
	case "error":
		return LevelError
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

var defaultLogLevel = LevelInfo

// SetDefaultLogLevel sets the request log level used when a request carries no override.
func SetDefaultLogLevel(s string) { defaultLogLevel = parseLevel(s) }

// requestLogLevel honors ?log= and X-Log-Level before the default.
func requestLogLevel(r *http.Request) LogLevel {
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}

// logRequest writes one line per upstream call. Failures log at error level,
// successes at info.
func logRequest(r *http.Request, model string, status int, start time.Time, err error) {
	lvl := requestLogLevel(r)
	if lvl == LevelOff || (err == nil && lvl < LevelInfo) {
		return
	}
	dur := time.Since(start)
	rid := middleware.GetReqID(r.Context())
	if zlog == nil {
		log.Printf("%s %s model=%s status=%d dur=%s request_id=%s err=%v", r.Method, r.URL.Path, model, status, dur, rid, err)
		return
	}
	ev := zlog.Info()
	if err != nil {
		ev = zlog.Error().Err(err)
	}
	ev = ev.Str("method", r.Method).Str("path", r.URL.Path).Str("model", model).Int("status", status).Dur("dur", dur)
	if rid != "" {
		ev = ev.Str("request_id", rid)
	}
	ev.Msg("request")
}

func debugf(r *http.Request, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if zlog == nil {
		log.Print(msg)
		return
	}
	ev := zlog.Debug()
	if r != nil {
		if rid := middleware.GetReqID(r.Context()); rid != "" {
			ev = ev.Str("request_id", rid)
		}
	}
	ev.Msg(msg)
}
