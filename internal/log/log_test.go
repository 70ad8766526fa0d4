package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newBufferLogger(level slog.Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(Config{Level: level, Component: ComponentLedger, Output: &buf}), &buf
}

func TestLoggerAddsComponent(t *testing.T) {
	l, buf := newBufferLogger(slog.LevelInfo)
	l.Info("Expense added", FieldAmount, "12.50")

	out := buf.String()
	if !strings.Contains(out, "component=ledger") || !strings.Contains(out, "amount=12.50") {
		t.Fatalf("unexpected output %q", out)
	}

	buf.Reset()
	l.WithComponent(ComponentAuth).Warn("Login failed")
	if !strings.Contains(buf.String(), "component=auth") || strings.Contains(buf.String(), "component=ledger") {
		t.Fatalf("component not replaced: %q", buf.String())
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	l, buf := newBufferLogger(slog.LevelWarn)
	l.Info("hidden")
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
	l.Error("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatal("error should be logged")
	}
}

func TestFieldsBuilder(t *testing.T) {
	f := NewFields().
		WithUsername("alice").
		WithExpense("2024-01-05", "Food", "Lunch", "12.50").
		WithError(nil)

	if _, ok := f[FieldError]; ok {
		t.Fatal("nil error must not add a field")
	}
	if f[FieldCategory] != "Food" || f[FieldUsername] != "alice" {
		t.Fatalf("unexpected fields %v", f)
	}
	if len(f.ToSlice()) != 2*len(f) {
		t.Fatal("ToSlice must emit key/value pairs")
	}
}

func TestMiddlewareStoresLoggerWithRequestID(t *testing.T) {
	l, buf := newBufferLogger(slog.LevelInfo)

	h := Middleware(l, func(*http.Request) string { return "req-42" })(
		ComponentMiddleware(ComponentHTTP)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).InfoContext(r.Context(), "inside")
		})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	out := buf.String()
	if !strings.Contains(out, "request_id=req-42") || !strings.Contains(out, "component=http") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestLogHTTPEndLevels(t *testing.T) {
	l, buf := newBufferLogger(slog.LevelInfo)
	ctx := NewContext(context.Background(), l)
	r := httptest.NewRequest(http.MethodPost, "/expenses", nil)

	LogHTTPEnd(ctx, r, 500, 3, "127.0.0.1")
	if !strings.Contains(buf.String(), "level=ERROR") {
		t.Fatalf("5xx should log at error: %q", buf.String())
	}
	buf.Reset()
	LogHTTPEnd(ctx, r, 404, 3, "127.0.0.1")
	if !strings.Contains(buf.String(), "level=WARN") {
		t.Fatalf("4xx should log at warn: %q", buf.String())
	}
}

func TestLogError(t *testing.T) {
	l, buf := newBufferLogger(slog.LevelInfo)
	ctx := NewContext(context.Background(), l)

	LogError(ctx, "Export failed", errors.New("short write"), ComponentHTTP, OpExport, nil)
	out := buf.String()
	if !strings.Contains(out, `error="short write"`) || !strings.Contains(out, "operation=export") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestFromContextFallsBack(t *testing.T) {
	if FromContext(context.Background()).Component() != "unknown" {
		t.Fatal("expected fallback logger")
	}
}
