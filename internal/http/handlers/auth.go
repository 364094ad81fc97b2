package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MarlinZapp/wishes-server/internal/config"
	"github.com/MarlinZapp/wishes-server/internal/domain/user"
	"github.com/MarlinZapp/wishes-server/internal/http/middlewares"
	"github.com/MarlinZapp/wishes-server/internal/identity"
)

// IdentityService is what the auth endpoints need; kept small so tests can
// fake it easily.
type IdentityService interface {
	Register(ctx context.Context, name, pass string) (string, error)
	Login(ctx context.Context, name, pass string) (string, error)
	WhoAmI(ctx context.Context, credential string) (user.User, identity.SessionInfo, error)
}

type AuthHandler struct {
	svc IdentityService
}

func NewAuthHandler(svc IdentityService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type CredentialsRequest struct {
	Name string `json:"name" binding:"required"`
	Pass string `json:"pass" binding:"required"`
}

type CredentialResponse struct {
	Credential string `json:"credential"`
}

// InfoResponse is the check/auth payload: a status line plus the resolved
// user and a session validity descriptor when authenticated.
type InfoResponse struct {
	Info    string     `json:"info"`
	User    *user.User `json:"user,omitempty"`
	Session *string    `json:"session,omitempty"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req CredentialsRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	credential, err := h.svc.Register(cctx, req.Name, req.Pass)

	if err != nil {
		if errors.Is(err, user.ErrNameTaken) {
			RespondConflict(ctx, "name_taken", "This name is already registered.")
			return
		}

		respondOpError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, CredentialResponse{Credential: credential})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req CredentialsRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for the lookup + hash comparison
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	credential, err := h.svc.Login(cctx, req.Name, req.Pass)

	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			RespondUnAuthorized(ctx, "invalid_credentials", "Name or password is incorrect.")
			return
		}

		respondOpError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, CredentialResponse{Credential: credential})
}

func (h *AuthHandler) CheckAuth(ctx *gin.Context) {
	credential, ok := middlewares.CredentialFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing or invalid Authorization header")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, info, err := h.svc.WhoAmI(cctx, credential)

	if err != nil {
		respondOpError(ctx, err)
		return
	}

	desc := info.Describe()

	ctx.JSON(http.StatusOK, InfoResponse{
		Info:    "Success!",
		User:    &u,
		Session: &desc,
	})
}
