package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cartvault/internal/domain"
	cartsvc "cartvault/internal/service/cart"
)

// Carts serialize with the domain's own JSON tags; the stored document and
// the wire document are the same shape, so responses need no mapping layer.
type cartListResponse struct {
	Count   int           `json:"count"`
	Results []domain.Cart `json:"results"`
}

func createCartHandler(svc *cartsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in cartsvc.CreateInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
			return
		}
		cart, err := svc.Create(c.Request.Context(), domain.StoreID(c.Param("storeID")), in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, cart)
	}
}

func getCartHandler(svc *cartsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		cart, err := svc.Get(c.Request.Context(), domain.CartID(c.Param("cartID")))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

func listCartsHandler(svc *cartsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, err := parseCartQuery(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		carts, err := svc.Query(c.Request.Context(), q)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, cartListResponse{Count: len(carts), Results: carts})
	}
}

func updateCartHandler(svc *cartsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in cartsvc.UpdateInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
			return
		}
		cart, err := svc.Update(c.Request.Context(), domain.CartID(c.Param("cartID")), in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

func deleteCartHandler(svc *cartsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), domain.CartID(c.Param("cartID"))); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func transferCartHandler(svc *cartsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in cartsvc.TransferInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
			return
		}
		cart, err := svc.TransferGuestCart(c.Request.Context(), domain.StoreID(c.Param("storeID")), in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

// parseCartQuery reads the list filters. An absent profileId means the guest
// scope, not "any profile". A negative limit is rejected here even though the
// storage port treats it as unlimited.
func parseCartQuery(c *gin.Context) (domain.CartQuery, error) {
	q := domain.CartQuery{
		StoreID: domain.StoreID(c.Param("storeID")),
		Sort:    domain.CartSort(c.Query("sort")),
	}
	if profile := c.Query("profileId"); profile != "" {
		id := domain.ProfileID(profile)
		q.ProfileID = &id
	}
	for _, s := range c.QueryArray("status") {
		q.Statuses = append(q.Statuses, domain.CartStatus(s))
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return domain.CartQuery{}, errors.New("limit must be a non-negative integer")
		}
		q.Limit = &n
	}
	return q, nil
}

func respondError(c *gin.Context, err error) {
	var (
		validation *domain.ValidationError
		conflict   *domain.ConflictError
		pricing    *domain.PricingError
	)
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Reason})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Reason})
	case errors.As(err, &pricing):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": pricing.Reason})
	case errors.Is(err, domain.ErrBackendUnavailable) || domain.IsStorageFailure(err):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
