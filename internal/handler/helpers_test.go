package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/drl-go-api/internal/models"
)

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

func withPrincipal(principal models.Principal) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("principal", principal)
		return c.Next()
	}
}
