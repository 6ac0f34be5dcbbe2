package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORS restricts the REST surface to the extension's own origins
// (chrome-extension://<id>, moz-extension://<id>), comma-separated in
// configuration.
func CORS(allowedOrigins string) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: "GET,POST,PUT",
		AllowHeaders: "Authorization,Content-Type",
	})
}
