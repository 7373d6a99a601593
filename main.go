package main

import (
	"log"
	"net/http"
	"time"

	"github.com/Daysof1/proyecto/config"
	"github.com/Daysof1/proyecto/database"
	"github.com/Daysof1/proyecto/handlers"
	"github.com/Daysof1/proyecto/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

func main() {
	// Load configuration
	if err := config.Load(); err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Connect to database
	db, err := database.Connect(config.AppConfig.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	// Initialize tables
	if err := db.InitializeTables(); err != nil {
		log.Fatal("Failed to initialize tables:", err)
	}

	// Optional Redis cache for the public catalog
	var cache *services.Cache
	if config.AppConfig.RedisURL != "" {
		cache, err = services.NewCache(config.AppConfig.RedisURL)
		if err != nil {
			log.Printf("Catalog cache disabled: %v", err)
			cache = nil
		}
	}

	// Optional Cloudinary uploads
	var uploads *services.Uploads
	if config.AppConfig.CloudinaryURL != "" {
		uploads, err = services.NewUploads(config.AppConfig.CloudinaryURL)
		if err != nil {
			log.Printf("Image uploads disabled: %v", err)
			uploads = nil
		}
	}

	catalog := services.NewCatalog(db, cache)
	stock := services.NewStock(db)
	cart := services.NewCart(db)
	orders := services.NewOrders(db, stock)
	users := services.NewUsers(db)

	// Set Gin mode
	if config.AppConfig.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	handler := handlers.New(catalog, stock, cart, orders, users, uploads, config.AppConfig.JWTSecret)
	handler.RegisterRoutes(router)

	// CORS middleware around the router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}).Handler(router)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.ServerPort,
		Handler:      corsHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	log.Printf("Server listening on port %s", config.AppConfig.ServerPort)
	if err := server.ListenAndServe(); err != nil {
		log.Fatal("Server failed:", err)
	}
}
