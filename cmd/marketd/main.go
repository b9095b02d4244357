// Command marketd is the HTTP and WebSocket front door onto the
// simulation core: a gin router with CORS, request logging and
// panic-recovery middleware, exposing the scenario clearing/ledger/device
// operations plus a WebSocket feed of every clearing event.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"wholesale-dispatch/internal/api"
	"wholesale-dispatch/internal/api/handlers"
	"wholesale-dispatch/internal/api/middleware"
	"wholesale-dispatch/internal/bus"
)

func main() {
	port := os.Getenv("MARKETD_PORT")
	if port == "" {
		port = "8080"
	}

	if os.Getenv("MARKETD_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	b := bus.New()
	hub := bus.NewHub()
	bridge := bus.NewBridge(hub)
	bridge.Run(b, 16)

	store := api.NewScenarioStore(b)
	scenarioHandler := handlers.NewScenarioHandler(store)
	deviceHandler := handlers.NewDeviceHandler(store)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	router.GET("/ws", func(c *gin.Context) {
		if err := bus.ServeWS(hub, c.Writer, c.Request); err != nil {
			log.Printf("marketd: websocket upgrade failed: %v", err)
		}
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/scenarios/:id/clear", scenarioHandler.Clear)
		v1.GET("/scenarios/:id/ledger", scenarioHandler.Ledger)
		v1.GET("/devices", deviceHandler.ListDevices)
	}

	addr := fmt.Sprintf(":%s", port)
	log.Printf("marketd: listening on %s (%d client(s) connected)", addr, hub.ClientCount())
	if err := router.Run(addr); err != nil {
		log.Fatalf("marketd: failed to start server: %v", err)
	}
}
