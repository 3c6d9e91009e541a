package validation

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// idPattern is the identifier shape accepted before any store call:
// issue ids are positive integers.
var idPattern = regexp.MustCompile(`^[1-9][0-9]*$`)

type Config struct {
	MaxResultCount int
	MaxTokenCount  int
	Logger         *zap.Logger
}

// Middleware rejects malformed similarity requests at the edge, so
// the engine only ever sees well-shaped identifiers and bounds.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxResultCount == 0 {
		cfg.MaxResultCount = 1000
	}
	if cfg.MaxTokenCount == 0 {
		cfg.MaxTokenCount = 200
	}

	return func(c *fiber.Ctx) error {
		if c.Method() != "POST" {
			return c.Next()
		}

		path := c.Path()
		if !strings.Contains(path, "/api/v1/similar") && !strings.Contains(path, "/api/v1/sweep") {
			return c.Next()
		}

		var req map[string]interface{}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid JSON format",
			})
		}

		recordID, ok := req["record_id"].(string)
		if !ok || recordID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "record_id is required and must be a string",
			})
		}

		if !idPattern.MatchString(strings.TrimSpace(recordID)) {
			if cfg.Logger != nil {
				cfg.Logger.Warn("Rejected malformed record id",
					zap.String("ip", c.IP()),
					zap.String("record_id", recordID),
				)
			}
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "record_id must be a positive integer",
			})
		}

		for _, name := range []string{"subject_boost", "tag_boost", "sentence_boost"} {
			if raw, present := req[name]; present && raw != nil {
				boost, ok := raw.(float64)
				if !ok || boost < 0 {
					return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
						"error": name + " must be a non-negative number",
					})
				}
			}
		}

		if raw, present := req["result_count"]; present && raw != nil {
			count, ok := raw.(float64)
			if !ok || count < 0 || int(count) > cfg.MaxResultCount {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "result_count is out of range",
				})
			}
		}

		for _, name := range []string{"tags", "sentences"} {
			if raw, present := req[name]; present && raw != nil {
				tokens, ok := raw.([]interface{})
				if !ok {
					return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
						"error": name + " must be a list of strings",
					})
				}
				if len(tokens) > cfg.MaxTokenCount {
					return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
						"error": name + " exceeds the maximum token count",
					})
				}
			}
		}

		return c.Next()
	}
}
