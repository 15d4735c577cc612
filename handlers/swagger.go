package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the guest post service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg gin.IRouter) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(swaggerHTML))
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>guestpost - Swagger</title>
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
  "info": { "title": "guestpost", "version": "v0.1.0" },
  "paths": {
    "/guest-post/form": { "get": { "summary": "Public submission form", "responses": { "200": { "description": "HTML form" } } } },
    "/api/nonce": { "get": { "summary": "Nonce for the public form", "responses": { "200": { "description": "nonce" } } } },
    "/api/submissions": {
      "post": {
        "summary": "Submit a guest post",
        "requestBody": { "content": { "multipart/form-data": { "schema": {"type":"object","properties":{"post_title":{"type":"string"},"post_content":{"type":"string"},"author_name":{"type":"string"},"author_email":{"type":"string"},"author_bio":{"type":"string"},"featured_image":{"type":"string","format":"binary"},"website_hp":{"type":"string"},"nonce":{"type":"string"}}}}}},
        "responses": { "200": { "description": "accepted" }, "400": { "description": "validation failed" }, "403": { "description": "security check failed" }, "429": { "description": "spam or rate limit" } }
      }
    },
    "/api/posts/{id}": { "get": { "summary": "Published guest post", "responses": { "200": { "description": "post" }, "404": { "description": "not found" } } } },
    "/moderate": { "get": { "summary": "Dashboard moderation link (session)", "responses": { "302": { "description": "back to dashboard" }, "403": { "description": "denied" } } } },
    "/moderate-email": { "get": { "summary": "Email moderation link (action token)", "responses": { "302": { "description": "permalink or trash" }, "403": { "description": "invalid token" } } } },
    "/api/post/{id}/approve": { "post": { "summary": "Approve a pending guest post", "responses": { "200": { "description": "approved" }, "404": { "description": "invalid post" } } } },
    "/api/post/{id}/reject": { "post": { "summary": "Reject a pending guest post", "responses": { "200": { "description": "rejected" }, "404": { "description": "invalid post" } } } },
    "/api/pending-posts": { "get": { "summary": "Pending guest posts (newest 10)", "responses": { "200": { "description": "posts and total" } } } },
    "/api/moderation-nonce": { "get": { "summary": "Nonce for dashboard moderation links", "responses": { "200": { "description": "nonce" } } } },
    "/api/submissions/{id}/preview": { "get": { "summary": "Full record in any status", "responses": { "200": { "description": "submission" } } } },
    "/api/settings": {
      "get": { "summary": "Current settings and categories", "responses": { "200": { "description": "settings" } } },
      "post": { "summary": "Partial settings update", "responses": { "200": { "description": "saved" }, "400": { "description": "invalid settings data" } } }
    },
    "/auth/login": {
      "post": {
        "summary": "Exchange authorization code / login",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"mode":{"type":"string"},"username":{"type":"string"},"password":{"type":"string"},"code":{"type":"string"},"redirect_uri":{"type":"string"}}}}}},
        "responses": { "200": { "description": "tokens returned" } }
      }
    },
    "/auth/refresh": {
      "post": { "summary": "Rotate refresh token", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"refresh_token":{"type":"string"}}}}}}, "responses": { "200": { "description": "new tokens" }, "401": { "description": "invalid refresh" } } }
    },
    "/auth/logout": {
      "post": { "summary": "Logout and invalidate refresh token", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"refresh_token":{"type":"string"}}}}}}, "responses": { "200": { "description": "logged out" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
