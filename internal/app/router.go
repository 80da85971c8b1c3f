// internal/app/router.go
package app

import (
	"net/http"
	"time"

	campaignHandler "fashionsphere-service/internal/handlers/campaign"
	productHandler "fashionsphere-service/internal/handlers/product"
	userHandler "fashionsphere-service/internal/handlers/user"
	wsHandler "fashionsphere-service/internal/handlers/websocket"
	"fashionsphere-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	UserHandler     *userHandler.UserHandler
	CampaignHandler *campaignHandler.CampaignHandler
	ProductHandler  *productHandler.ProductHandler
	WSHandler       *wsHandler.WebSocketHandler
	AuthMiddleware  *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, h *Handlers) {
	auth := h.AuthMiddleware

	// ==================== Health & Metrics ====================
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ==================== WebSocket ====================
	r.GET("/ws", auth.Identify(), h.WSHandler.HandleConnection)

	api := r.Group("/api/v1")

	// ==================== Users ====================
	users := api.Group("/users")
	{
		users.POST("/register", h.UserHandler.Register)
		users.POST("/login", h.UserHandler.Login)
		users.GET("/me", auth.Protect(), h.UserHandler.Me)
		users.POST("/sale-notification", auth.Protect(), h.UserHandler.SetSaleNotification)
	}

	// ==================== Storefront ====================
	api.GET("/sales/active", h.CampaignHandler.GetActiveSale)

	products := api.Group("/products")
	products.Use(auth.Identify())
	{
		products.GET("", h.ProductHandler.ListProducts)
		products.GET("/:id", h.ProductHandler.GetProduct)
		products.POST("/wait-list", auth.Protect(), h.ProductHandler.ToggleWaitList)
	}

	// ==================== Admin ====================
	admin := api.Group("/admin")
	admin.Use(auth.Protect(), auth.Admin())
	{
		sales := admin.Group("/sales")
		{
			sales.GET("", h.CampaignHandler.ListCampaigns)
			sales.POST("", h.CampaignHandler.CreateCampaign)
			sales.POST("/reconcile", h.CampaignHandler.Reconcile)
			sales.GET("/reconcile/last", h.CampaignHandler.LastReconciliation)
			sales.GET("/:id", h.CampaignHandler.GetCampaign)
			sales.PUT("/:id", h.CampaignHandler.UpdateCampaign)
			sales.DELETE("/:id", h.CampaignHandler.DeleteCampaign)
		}

		adminProducts := admin.Group("/products")
		{
			adminProducts.POST("", h.ProductHandler.CreateProduct)
			adminProducts.PUT("/:id", h.ProductHandler.UpdateProduct)
			adminProducts.DELETE("/:id", h.ProductHandler.DeleteProduct)
		}

		admin.GET("/ws/stats", h.WSHandler.GetStats)
	}
}
