package validation

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testApp() *fiber.App {
	app := fiber.New()
	app.Use(Middleware(Config{}))
	app.Post("/api/v1/similar", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/api/v1/records/100", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func post(t *testing.T, app *fiber.App, body string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/v1/similar", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestValidationPassesWellFormedRequest(t *testing.T) {
	status, body := post(t, testApp(), `{
		"record_id": "100",
		"subject_boost": 1.0,
		"tag_boost": 0.2,
		"result_count": 10,
		"tags": ["css bug", "regression"]
	}`)

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", body)
}

func TestValidationRejectsBadJSON(t *testing.T) {
	status, body := post(t, testApp(), `{not json`)

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body, "Invalid JSON")
}

func TestValidationRequiresRecordID(t *testing.T) {
	for _, payload := range []string{`{}`, `{"record_id": ""}`, `{"record_id": 100}`} {
		status, body := post(t, testApp(), payload)
		assert.Equal(t, fiber.StatusBadRequest, status, payload)
		assert.Contains(t, body, "record_id", payload)
	}
}

func TestValidationRejectsMalformedID(t *testing.T) {
	for _, id := range []string{"abc", "0", "-5", "1.5", "007"} {
		status, _ := post(t, testApp(), `{"record_id": "`+id+`"}`)
		assert.Equal(t, fiber.StatusBadRequest, status, "id %q", id)
	}
}

func TestValidationRejectsNegativeBoost(t *testing.T) {
	status, body := post(t, testApp(), `{"record_id": "100", "tag_boost": -0.2}`)

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body, "tag_boost")
}

func TestValidationRejectsOutOfRangeResultCount(t *testing.T) {
	status, body := post(t, testApp(), `{"record_id": "100", "result_count": 5000}`)

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body, "result_count")
}

func TestValidationRejectsNonListTokens(t *testing.T) {
	status, body := post(t, testApp(), `{"record_id": "100", "tags": "css bug"}`)

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, body, "tags")
}

func TestValidationIgnoresOtherRoutes(t *testing.T) {
	resp, err := testApp().Test(httptest.NewRequest("GET", "/api/v1/records/100", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
