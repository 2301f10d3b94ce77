package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger serves the OpenAPI document and a Swagger UI page that loads it.
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>session-store API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "session-store", "version": "v1.0.0" },
  "components": {
    "securitySchemes": {
      "basic": { "type": "http", "scheme": "basic" },
      "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" }
    }
  },
  "paths": {
    "/auth/sessions": {
      "post": {
        "summary": "Issue an access/refresh token pair for a user",
        "security": [{ "basic": [] }],
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["id"],"properties":{"id":{"type":"integer"},"username":{"type":"string"},"email":{"type":"string"}}}}}},
        "responses": { "201": { "description": "tokens issued" }, "409": { "description": "token already stored" } }
      }
    },
    "/auth/refresh-token": {
      "post": {
        "summary": "Issue a new access token from a refresh token",
        "security": [{ "basic": [] }],
        "parameters": [{ "name": "X-Refresh-Token", "in": "header", "schema": {"type":"string"} }],
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"refresh_token":{"type":"string"}}}}}},
        "responses": { "200": { "description": "new access token" }, "401": { "description": "invalid, expired or revoked refresh token" } }
      }
    },
    "/auth/verify-token": {
      "get": { "summary": "Return the user behind an access token", "security": [{ "bearer": [] }], "responses": { "200": { "description": "session user" }, "401": { "description": "invalid or revoked token" } } }
    },
    "/auth/logout": {
      "post": { "summary": "Revoke a refresh session (and the bearer access session when sent)", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"refresh_token":{"type":"string"}}}}}}, "responses": { "200": { "description": "logged out" }, "401": { "description": "unknown session" } } }
    },
    "/auth/users/{id}/sessions": {
      "delete": { "summary": "Revoke every session of a user", "security": [{ "basic": [] }], "parameters": [{ "name": "id", "in": "path", "required": true, "schema": {"type":"integer"} }], "responses": { "200": { "description": "number of sessions revoked" } } }
    },
    "/admin/schema": {
      "get": { "summary": "Compare the database with the declared layout", "security": [{ "basic": [] }], "responses": { "200": { "description": "in sync" }, "409": { "description": "missing or drifted" } } },
      "post": { "summary": "Provision collections and indexes", "security": [{ "basic": [] }], "responses": { "200": { "description": "provisioned" }, "409": { "description": "index conflict" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
