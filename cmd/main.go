package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/pablofelipe01/sirius-meets/config"
	"github.com/pablofelipe01/sirius-meets/controllers"
	"github.com/pablofelipe01/sirius-meets/mail"
	"github.com/pablofelipe01/sirius-meets/routes"
	"github.com/pablofelipe01/sirius-meets/video"
)

func main() {
	config.ConnectDB()

	agora := config.Agora()
	if !agora.IsConfigured() {
		log.Println("AGORA_APP_ID not set: video sessions are disabled")
	}
	controllers.VideoManager = video.NewManager(agora.AppID)
	controllers.Mailer = mail.NewFromEnv(context.Background())

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return origin == "http://localhost:3000" || origin == config.FrontendBaseURL()
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/", func(c *gin.Context) {
		c.String(200, "Sirius Meets server is running")
	})

	if err := r.SetTrustedProxies(nil); err != nil {
		panic(err)
	}

	routes.SetupRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on port %s\n", port)
	r.Run(":" + port)
}
