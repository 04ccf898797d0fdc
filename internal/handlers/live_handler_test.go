package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	livews "github.com/saeid-a/GymDashBack/internal/websocket"
	"github.com/saeid-a/GymDashBack/pkg/utils"
)

func newLiveApp() *fiber.App {
	handler := NewLiveHandler(livews.NewHub(), testJWTSecret)
	app := fiber.New()
	app.Use("/ws", handler.WebSocketAuth)
	app.Get("/ws", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": c.Locals("user_id"), "role": c.Locals("role")})
	})
	return app
}

func upgradeRequest(path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	return req
}

func TestWebSocketAuthRequiresUpgrade(t *testing.T) {
	app := newLiveApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ws", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUpgradeRequired {
		t.Fatalf("expected 426, got %d", resp.StatusCode)
	}
}

func TestWebSocketAuthValidatesToken(t *testing.T) {
	app := newLiveApp()

	resp, err := app.Test(upgradeRequest("/ws?token=garbage"))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	token, err := utils.GenerateToken("42", "student", testJWTSecret)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	resp, err = app.Test(upgradeRequest("/ws?token=" + token))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	var payload map[string]string
	decodeBody(t, resp, &payload)
	if resp.StatusCode != http.StatusOK || payload["user_id"] != "42" || payload["role"] != "student" {
		t.Fatalf("unexpected response %d %v", resp.StatusCode, payload)
	}

	req := upgradeRequest("/ws")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected bearer token accepted, got %d", resp.StatusCode)
	}
}

func TestWebSocketAuthRejectsNonNumericSubject(t *testing.T) {
	app := newLiveApp()

	token, err := utils.GenerateToken("abc", "student", testJWTSecret)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	resp, err := app.Test(upgradeRequest("/ws?token=" + token))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}
