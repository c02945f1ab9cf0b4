package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const healthMessage = "Бот работает 🟢"

// UpdateHandler consumes decoded Telegram updates.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update)
}

// NewRouter builds the webhook transport: a health check at the root and
// the update endpoint behind the shared secret path. Any other path gets
// the router's plain 404.
func NewRouter(webhookSecret string, handler UpdateHandler, log *zap.SugaredLogger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, healthMessage)
	})

	router.POST("/"+webhookSecret, func(c *gin.Context) {
		var update tgbotapi.Update
		if err := c.ShouldBindJSON(&update); err != nil {
			log.Warnw("bad webhook payload", "error", err)
			c.String(http.StatusBadRequest, "bad update")
			return
		}
		// One update per request; updates from different users never
		// share state beyond the store.
		handler.HandleUpdate(c.Request.Context(), update)
		c.String(http.StatusOK, "!")
	})

	return router
}
