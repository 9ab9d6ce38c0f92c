package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nutriQuestAPI/handlers"
	"nutriQuestAPI/internal/notification"
	"nutriQuestAPI/middleware"
	"nutriQuestAPI/services"

	_ "net/http/pprof"
)

var (
	dbPool              *pgxpool.Pool
	userService         *services.UserService
	gamificationService *services.GamificationService
	streakService       *services.StreakService
	questService        *services.QuestService
	mealService         *services.MealService
	mealPlanService     *services.MealPlanService
	notificationService *services.NotificationService
	fcmService          *notification.FCMService
	scheduler           *services.Scheduler
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	clerkSecretKey := os.Getenv("CLERK_SECRET_KEY")
	if clerkSecretKey == "" {
		log.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(clerkSecretKey)
	log.Println("Clerk initialized successfully")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		log.Fatal("Failed to parse database URL:", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal("Failed to create connection pool:", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Successfully connected to database")

	notificationService = services.NewNotificationService(dbPool)
	userService = services.NewUserService(dbPool)
	gamificationService = services.NewGamificationService(dbPool)
	streakService = services.NewStreakService(dbPool)
	questService = services.NewQuestService(dbPool)
	mealService = services.NewMealService(dbPool)
	mealPlanService = services.NewMealPlanService(dbPool)
	scheduler = services.NewScheduler(dbPool, notificationService, questService)

	fcmService, err = notification.NewFCMService("./serviceAccountKey.json")
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
	} else {
		notificationService.SetPushProvider(fcmService)
		log.Println("FCM Push Provider initialized successfully")
	}

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	userHandler := handlers.NewUserHandler(userService)
	gamificationHandler := handlers.NewGamificationHandler(gamificationService, streakService)
	questHandler := handlers.NewQuestHandler(questService, gamificationService)
	mealHandler := handlers.NewMealHandler(mealService)
	mealPlanHandler := handlers.NewMealPlanHandler(mealPlanService, streakService, gamificationService)
	notificationHandler := handlers.NewNotificationHandler(notificationService, userService)
	webhookHandler := handlers.NewWebhookHandler(userService)

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "nutriQuest-api"}`))
	}).Methods("GET")

	r.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")

	// -------------------------------------------------------------------------
	// API V1 SUBROUTER (REQUIRES AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := r.PathPrefix("/api/v1").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/user", userHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/user/update-profile", userHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/user/delete-account", userHandler.DeleteAccount).Methods("DELETE")
	protected.HandleFunc("/user/leaderboards", userHandler.GetLeaderboard).Methods("GET")

	protected.HandleFunc("/gamification/points", gamificationHandler.GetPoints).Methods("GET")
	protected.HandleFunc("/gamification/points/history", gamificationHandler.GetPointsHistory).Methods("GET")
	protected.HandleFunc("/gamification/check-in", gamificationHandler.CheckIn).Methods("POST")
	protected.HandleFunc("/gamification/streak", gamificationHandler.GetStreak).Methods("GET")
	protected.HandleFunc("/gamification/streak/calendar", gamificationHandler.GetStreakCalendar).Methods("GET")

	protected.HandleFunc("/quests", questHandler.ListQuests).Methods("GET")
	protected.HandleFunc("/quests/active", questHandler.GetActiveQuests).Methods("GET")
	protected.HandleFunc("/quests/daily", questHandler.GenerateDailyQuests).Methods("POST")
	protected.HandleFunc("/quests/{questId}/start", questHandler.StartQuest).Methods("POST")
	protected.HandleFunc("/quests/{questId}/steps", questHandler.CompleteStep).Methods("POST")

	protected.HandleFunc("/meals", mealHandler.ListMeals).Methods("GET")
	protected.HandleFunc("/meals/favorites", mealHandler.GetFavorites).Methods("GET")
	protected.HandleFunc("/meals/{mealId}", mealHandler.GetMeal).Methods("GET")
	protected.HandleFunc("/meals/{mealId}/favorite", mealHandler.AddFavorite).Methods("POST")
	protected.HandleFunc("/meals/{mealId}/favorite", mealHandler.RemoveFavorite).Methods("DELETE")

	protected.HandleFunc("/meal-plan", mealPlanHandler.UpsertEntry).Methods("PUT")
	protected.HandleFunc("/meal-plan", mealPlanHandler.RemoveEntry).Methods("DELETE")
	protected.HandleFunc("/meal-plan/eaten", mealPlanHandler.MarkEaten).Methods("POST")
	protected.HandleFunc("/meal-plan/day", mealPlanHandler.GetDayPlan).Methods("GET")
	protected.HandleFunc("/meal-plan/week", mealPlanHandler.GetWeekPlan).Methods("GET")
	protected.HandleFunc("/meal-plan/share", mealPlanHandler.CreateShareSession).Methods("POST")
	protected.HandleFunc("/meal-plan/share/import", mealPlanHandler.ImportSharedPlan).Methods("POST")

	protected.HandleFunc("/notifications", notificationHandler.GetNotifications).Methods("GET")
	protected.HandleFunc("/notifications/unread-count", notificationHandler.GetUnreadCount).Methods("GET")
	protected.HandleFunc("/notifications/read-all", notificationHandler.MarkAllAsRead).Methods("PUT")
	protected.HandleFunc("/notifications/preferences", notificationHandler.GetPreferences).Methods("GET")
	protected.HandleFunc("/notifications/preferences", notificationHandler.UpdatePreferences).Methods("PUT")
	protected.HandleFunc("/notifications/register-device", notificationHandler.RegisterDevice).Methods("POST")
	protected.HandleFunc("/notifications/{notificationId}/read", notificationHandler.MarkAsRead).Methods("PUT")
	protected.HandleFunc("/notifications/{notificationId}", notificationHandler.DeleteNotification).Methods("DELETE")

	scheduler.Start()

	// CORS configuration
	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	scheduler.Stop()
	notificationService.Stop()

	log.Println("Server shutdown complete")
}
