package app

import (
	"log"
	"time"

	"brainjar/internal/config"
	"brainjar/internal/middleware"
	"brainjar/internal/model"
	"brainjar/internal/repository"
	"brainjar/internal/service"
	"brainjar/internal/util"
	"brainjar/internal/websocket"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewRouter builds the HTTP engine and returns it with a cleanup func that
// stops the notification consumer and closes the broker and cache connections.
func NewRouter(cfg *config.Config) (*gin.Engine, func()) {
	// Set Gin mode
	if cfg.ServerPort == "5000" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	// CORS middleware
	r.Use(corsMiddleware(cfg.ClientURL))

	// Rate limiting middleware (if enabled)
	if cfg.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		r.Use(rateLimiter.Middleware())
		log.Printf("Rate limiting enabled: %d req/sec, burst: %d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	// Initialize database
	db, err := initDB(cfg)
	if err != nil {
		panic("Failed to connect to database: " + err.Error())
	}

	// Auto migrate
	if err := db.AutoMigrate(
		&model.User{},
		&model.Character{},
		&model.Relationship{},
		&model.ChatMessage{},
		&model.Notification{},
	); err != nil {
		panic("Failed to migrate database: " + err.Error())
	}

	// Initialize Redis with retry logic
	redisClient := initRedisWithRetry(cfg)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	characterRepo := repository.NewCharacterRepository(db)
	relationshipRepo := repository.NewRelationshipRepository(db, redisClient)
	notificationRepo := repository.NewNotificationRepository(db, redisClient)
	chatRepo := repository.NewChatRepository(db)

	// Initialize RabbitMQ with retry logic
	rabbitMQ := initRabbitMQWithRetry(cfg)

	// Initialize WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()
	log.Println("WebSocket hub started")

	// Initialize Cloudinary client
	var cloudinaryClient *util.CloudinaryClient
	if cfg.CloudinaryCloudName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		cloudinaryClient, err = util.NewCloudinaryClient(cfg)
		if err != nil {
			log.Printf("Warning: Failed to initialize Cloudinary: %v. Avatar uploads will be disabled.", err)
			cloudinaryClient = nil
		} else {
			log.Println("Cloudinary initialized successfully")
		}
	} else {
		log.Println("Cloudinary credentials not configured. Avatar uploads will be disabled.")
	}

	// Initialize services
	notificationService := service.NewNotificationService(notificationRepo, rabbitMQ)
	notificationService.SetWSHub(wsHub)
	relationshipService := service.NewRelationshipService(relationshipRepo, userRepo, notificationService)
	suggestionService := service.NewSuggestionService(userRepo, relationshipRepo, redisClient)
	chatService := service.NewChatService(chatRepo, userRepo, relationshipService)
	characterService := service.NewCharacterService(characterRepo, userRepo, cloudinaryClient)

	// Initialize notification worker if RabbitMQ is available
	var notificationWorker *service.NotificationWorker
	if rabbitMQ != nil {
		notificationWorker = service.NewNotificationWorker(rabbitMQ, wsHub)
		if err := notificationWorker.Start(); err != nil {
			log.Printf("Warning: Failed to start notification worker: %v", err)
			notificationWorker = nil
		} else {
			log.Println("Notification worker started successfully")
		}
	} else {
		log.Println("Notification worker not started - RabbitMQ unavailable. Notifications will be pushed directly via WebSocket.")
	}

	// Initialize handlers
	relationshipHandler := NewRelationshipHandler(relationshipService, suggestionService)
	chatHandler := NewChatHandler(chatService, wsHub)
	notificationHandler := NewNotificationHandler(notificationService)
	userHandler := NewUserHandler(userRepo)
	characterHandler := NewCharacterHandler(characterService)

	authRequired := middleware.Auth(cfg.JWTSecret)

	// API routes
	api := r.Group("/api/v1")
	{
		// Relationship routes
		relationships := api.Group("/relationships")
		relationships.Use(authRequired)
		{
			relationships.POST("/request", relationshipHandler.SendRequest)
			relationships.GET("/friends", relationshipHandler.ListFriends)
			relationships.GET("/pending/incoming", relationshipHandler.ListIncomingPending)
			relationships.GET("/pending/outgoing", relationshipHandler.ListOutgoingPending)
			relationships.GET("/suggestions", relationshipHandler.Suggestions)
			relationships.GET("/status/:userID", relationshipHandler.Status)
			relationships.POST("/:userID/accept", relationshipHandler.Accept)
			relationships.POST("/:userID/decline", relationshipHandler.Decline)
			relationships.DELETE("/:userID", relationshipHandler.Remove)
		}

		// Chat routes
		chat := api.Group("/chat")
		chat.Use(authRequired)
		{
			chat.POST("/messages", chatHandler.SendMessage)
			chat.GET("/messages", chatHandler.GetConversation)
			chat.PUT("/read/:senderID", chatHandler.MarkAsRead)
			chat.GET("/unread/count", chatHandler.GetUnreadCount)
		}

		// Notification routes
		notifications := api.Group("/notifications")
		notifications.Use(authRequired)
		{
			notifications.GET("", notificationHandler.GetNotifications)
			notifications.GET("/unread/count", notificationHandler.GetUnreadCount)
			notifications.PUT("/:id/read", notificationHandler.MarkAsRead)
			notifications.PUT("/read-all", notificationHandler.MarkAllAsRead)
			notifications.DELETE("/:id", notificationHandler.DeleteNotification)
		}

		// User directory routes
		users := api.Group("/users")
		users.Use(authRequired)
		{
			users.GET("/search", userHandler.SearchUsers)
			users.GET("/:id", userHandler.GetUser)
		}

		// Character routes
		characters := api.Group("/characters")
		characters.Use(authRequired)
		{
			characters.GET("/me", characterHandler.GetCharacter)
			characters.PUT("/me", characterHandler.SaveCharacter)
			characters.POST("/me/avatar", characterHandler.UploadAvatar)
		}
	}

	// WebSocket route
	r.GET("/ws", func(c *gin.Context) {
		websocket.ServeWS(wsHub, cfg.JWTSecret).ServeHTTP(c.Writer, c.Request)
	})

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	cleanup := func() {
		if notificationWorker != nil {
			notificationWorker.Stop()
		}
		if rabbitMQ != nil {
			rabbitMQ.Close()
		}
		if redisClient != nil {
			redisClient.Close()
		}
	}

	return r, cleanup
}

func initDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.DatabaseURL
	if dsn == "" {
		dsn = "host=" + cfg.PostgresHost +
			" port=" + cfg.PostgresPort +
			" user=" + cfg.PostgresUser +
			" password=" + cfg.PostgresPassword +
			" dbname=" + cfg.PostgresDB +
			" sslmode=" + cfg.PostgresSSLMode
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	return db, nil
}

// initRedisWithRetry attempts to connect to Redis with exponential backoff retry
func initRedisWithRetry(cfg *config.Config) *util.RedisClient {
	maxRetries := 10
	initialDelay := 2 * time.Second
	maxDelay := 30 * time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		redisClient, err := util.NewRedisClient(cfg)
		if err == nil {
			log.Printf("Redis connected successfully on attempt %d", attempt)
			return redisClient
		}

		if attempt < maxRetries {
			delay := initialDelay * time.Duration(1<<uint(attempt-1))
			if delay > maxDelay {
				delay = maxDelay
			}

			log.Printf("Failed to connect to Redis (attempt %d/%d): %v. Retrying in %v...", attempt, maxRetries, err, delay)
			time.Sleep(delay)
		} else {
			log.Printf("Warning: Failed to connect to Redis after %d attempts: %v. Caching will be disabled.", maxRetries, err)
		}
	}

	return nil
}

// initRabbitMQWithRetry attempts to connect to RabbitMQ with exponential backoff retry
func initRabbitMQWithRetry(cfg *config.Config) *util.RabbitMQClient {
	maxRetries := 10
	initialDelay := 2 * time.Second
	maxDelay := 30 * time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		rabbitMQ, err := util.NewRabbitMQClient(cfg)
		if err == nil {
			log.Printf("RabbitMQ connected successfully on attempt %d", attempt)
			return rabbitMQ
		}

		if attempt < maxRetries {
			delay := initialDelay * time.Duration(1<<uint(attempt-1))
			if delay > maxDelay {
				delay = maxDelay
			}

			log.Printf("Failed to connect to RabbitMQ (attempt %d/%d): %v. Retrying in %v...", attempt, maxRetries, err, delay)
			time.Sleep(delay)
		} else {
			log.Printf("Warning: Failed to connect to RabbitMQ after %d attempts: %v. Notifications will fall back to direct WebSocket delivery.", maxRetries, err)
		}
	}

	return nil
}

func corsMiddleware(clientURL string) gin.HandlerFunc {
	allowedOrigins := []string{
		clientURL,
		"http://localhost:3000",
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", clientURL)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
