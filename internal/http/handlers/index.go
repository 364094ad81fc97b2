package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type routeInfo struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Auth        bool   `json:"auth"`
	Description string `json:"description"`
}

var apiRoutes = []routeInfo{
	{http.MethodPost, "/api/register", false, "Register a new user, returns a credential"},
	{http.MethodPost, "/api/login", false, "Login as an existing user, returns a credential"},
	{http.MethodGet, "/api/check/auth", true, "Introspect the current credential and session"},
	{http.MethodPost, "/api/wish", true, "Create a wish"},
	{http.MethodPost, "/api/wish/:id", true, "Create a wish with an explicit id"},
	{http.MethodGet, "/api/wish/:id", true, "Read a wish"},
	{http.MethodPatch, "/api/wish/:id/status/progress", true, "Advance a wish one lifecycle step"},
	{http.MethodDelete, "/api/wish/:id", true, "Delete a wish"},
	{http.MethodGet, "/api/wishes", true, "List visible wishes, ?with_username=true adds owner names"},
}

// Index lists the API surface, the machine-readable cousin of a README table.
func Index(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"routes": apiRoutes})
}
