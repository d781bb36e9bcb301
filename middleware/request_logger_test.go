package middleware

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func newTestApp(buf *bytes.Buffer) *fiber.App {
	log := logrus.New()
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	app := fiber.New()
	app.Use(RequestLogger(log))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString(RequestID(c)) })
	app.Get("/missing", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNotFound) })
	return app
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", lines[len(lines)-1], err)
	}
	return entry
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	app := newTestApp(&buf)

	resp, err := app.Test(httptest.NewRequest("GET", "/ok", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	id := resp.Header.Get(fiber.HeaderXRequestID)
	if id == "" {
		t.Fatal("missing X-Request-ID header")
	}

	entry := lastEntry(t, &buf)
	if entry["request_id"] != id || entry["uri"] != "/ok" || entry["level"] != "info" {
		t.Fatalf("log entry = %v", entry)
	}
	if entry["status_code"].(float64) != 200 {
		t.Fatalf("status_code = %v", entry["status_code"])
	}
}

func TestRequestLogger_ClientErrorAndIncomingID(t *testing.T) {
	var buf bytes.Buffer
	app := newTestApp(&buf)

	req := httptest.NewRequest("GET", "/missing", nil)
	req.Header.Set(fiber.HeaderXRequestID, "req-1")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.Header.Get(fiber.HeaderXRequestID) != "req-1" {
		t.Fatalf("X-Request-ID = %q", resp.Header.Get(fiber.HeaderXRequestID))
	}
	entry := lastEntry(t, &buf)
	if entry["level"] != "warning" || entry["request_id"] != "req-1" {
		t.Fatalf("log entry = %v", entry)
	}
}
