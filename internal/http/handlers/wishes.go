package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/MarlinZapp/wishes-server/internal/domain/wish"
	"github.com/MarlinZapp/wishes-server/internal/http/middlewares"
	"github.com/MarlinZapp/wishes-server/internal/observability"
	"github.com/MarlinZapp/wishes-server/internal/session"
)

// WishStore is the store contract as the handlers consume it. All operations
// run on the session's bound connection; nil results mean absent, not
// authorized to see it, or (for Progress) already terminal — deliberately
// indistinguishable.
type WishStore interface {
	Create(ctx context.Context, s *session.Session, id *string, content string) (wish.Wish, error)
	Get(ctx context.Context, s *session.Session, id string) (*wish.Wish, error)
	Delete(ctx context.Context, s *session.Session, id string) (*wish.Wish, error)
	Progress(ctx context.Context, s *session.Session, id string) (*wish.Wish, error)
	List(ctx context.Context, s *session.Session, withUsername bool) ([]wish.WithOwner, error)
}

type WishesHandler struct {
	guard *session.Guard
	store WishStore
	prom  *observability.Prom
}

// NewWishesHandler wires the handler; prom may be nil (tests).
func NewWishesHandler(guard *session.Guard, store WishStore, prom *observability.Prom) *WishesHandler {
	return &WishesHandler{
		guard: guard,
		store: store,
		prom:  prom,
	}
}

type WishCreateRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *WishesHandler) credential(ctx *gin.Context) (string, bool) {
	cred, ok := middlewares.CredentialFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing or invalid Authorization header")
	}

	return cred, ok
}

func (h *WishesHandler) CreateWish(ctx *gin.Context) {
	h.createWish(ctx, nil)
}

func (h *WishesHandler) CreateWishWithID(ctx *gin.Context) {
	id := ctx.Param("id")

	h.createWish(ctx, &id)
}

func (h *WishesHandler) createWish(ctx *gin.Context, id *string) {
	var req WishCreateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cred, ok := h.credential(ctx)

	if !ok {
		return
	}

	w, err := session.WithAuthValue(ctx.Request.Context(), h.guard, cred,
		func(ctx context.Context, s *session.Session) (wish.Wish, error) {
			return h.store.Create(ctx, s, id, req.Content)
		})

	if err != nil {
		respondOpError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, w)
}

func (h *WishesHandler) GetWish(ctx *gin.Context) {
	cred, ok := h.credential(ctx)

	if !ok {
		return
	}

	id := ctx.Param("id")

	w, err := session.WithAuthValue(ctx.Request.Context(), h.guard, cred,
		func(ctx context.Context, s *session.Session) (*wish.Wish, error) {
			return h.store.Get(ctx, s, id)
		})

	if err != nil {
		respondOpError(ctx, err)
		return
	}

	// w may be nil: absent and unauthorized render the same null.
	ctx.JSON(http.StatusOK, w)
}

func (h *WishesHandler) ProgressWish(ctx *gin.Context) {
	cred, ok := h.credential(ctx)

	if !ok {
		return
	}

	id := ctx.Param("id")

	w, err := session.WithAuthValue(ctx.Request.Context(), h.guard, cred,
		func(ctx context.Context, s *session.Session) (*wish.Wish, error) {
			return h.store.Progress(ctx, s, id)
		})

	if err != nil {
		respondOpError(ctx, err)
		return
	}

	if w != nil && h.prom != nil {
		h.prom.WishTransitions.WithLabelValues(string(w.Status)).Inc()
	}

	ctx.JSON(http.StatusOK, w)
}

func (h *WishesHandler) DeleteWish(ctx *gin.Context) {
	cred, ok := h.credential(ctx)

	if !ok {
		return
	}

	id := ctx.Param("id")

	w, err := session.WithAuthValue(ctx.Request.Context(), h.guard, cred,
		func(ctx context.Context, s *session.Session) (*wish.Wish, error) {
			return h.store.Delete(ctx, s, id)
		})

	if err != nil {
		respondOpError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, w)
}

func (h *WishesHandler) ListWishes(ctx *gin.Context) {
	cred, ok := h.credential(ctx)

	if !ok {
		return
	}

	withUsername := false

	if raw := ctx.Query("with_username"); raw != "" {
		v, err := strconv.ParseBool(raw)

		if err != nil {
			RespondBadRequest(ctx, "with_username must be a boolean", nil)
			return
		}

		withUsername = v
	}

	wishes, err := session.WithAuthValue(ctx.Request.Context(), h.guard, cred,
		func(ctx context.Context, s *session.Session) ([]wish.WithOwner, error) {
			return h.store.List(ctx, s, withUsername)
		})

	if err != nil {
		respondOpError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, wishes)
}
