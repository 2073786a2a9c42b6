package httpapi

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	tele "gopkg.in/telebot.v4"

	"github.com/arenalabs/debatebot/internal/httpapi/middleware"
)

// UpdateSink is the piece of the bot the webhook needs: accept one decoded
// Telegram update.
type UpdateSink interface {
	ProcessUpdate(u tele.Update)
}

// NewRouter builds the webhook-mode HTTP surface. Telegram signs deliveries
// with the static secret token header; anything else is rejected.
func NewRouter(sink UpdateSink, secret string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/telegram/webhook", func(c *gin.Context) {
		if secret != "" && c.GetHeader("X-Telegram-Bot-Api-Secret-Token") != secret {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "bad secret token"})
			return
		}

		var u tele.Update
		if err := c.ShouldBindJSON(&u); err != nil {
			log.Printf("webhook: invalid update payload: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid update"})
			return
		}

		sink.ProcessUpdate(u)
		// Always 200 on handled updates so Telegram does not redeliver.
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	return r
}
