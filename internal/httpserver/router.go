package httpserver

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps, corsOrigins []string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.New(corsConfig(corsOrigins)))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	stores := router.Group("/stores/:storeID")
	stores.POST("/carts", createCartHandler(deps.Carts))
	stores.GET("/carts", listCartsHandler(deps.Carts))
	stores.POST("/carts/transfer", transferCartHandler(deps.Carts))

	router.GET("/carts/:cartID", getCartHandler(deps.Carts))
	router.PUT("/carts/:cartID", updateCartHandler(deps.Carts))
	router.DELETE("/carts/:cartID", deleteCartHandler(deps.Carts))

	router.POST("/checkout-groups/validate", validateGroupHandler(deps.Checkout))

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	if len(origins) == 1 && origins[0] == "*" {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
