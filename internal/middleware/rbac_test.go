package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func authorApp(role interface{}) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if role != nil {
			c.Locals("user_role", role)
		}
		return c.Next()
	})
	app.Post("/problems", RequireRole(AuthorRoles...), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})
	return app
}

func TestRequireRoleAllowsAuthors(t *testing.T) {
	for _, role := range []string{"admin", "Teacher", " teacher "} {
		resp, err := authorApp(role).Test(httptest.NewRequest(http.MethodPost, "/problems", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode, role)
	}
}

func TestRequireRoleRejectsOtherRoles(t *testing.T) {
	for _, role := range []interface{}{"student", "", nil, 42} {
		resp, err := authorApp(role).Test(httptest.NewRequest(http.MethodPost, "/problems", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	}
}
