package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"creerlio_server/routes"
	"creerlio_server/services"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize DynamoDB client and stores
	log.Println("Initializing DynamoDB client...")
	dynamoClient := services.InitializeDynamoDBClient()
	dynamoService := &services.DynamoService{Client: dynamoClient}
	connectionStore := &services.DynamoConnectionStore{Dynamo: dynamoService}
	conversationStore := &services.DynamoConversationStore{Dynamo: dynamoService}
	log.Println("DynamoDB client initialized.")

	// Notification dispatch: Redis when configured, log-and-drop otherwise
	var dispatcher services.NotificationDispatcher = services.LogDispatcher{}
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Fatalf("Invalid REDIS_URL: %v", err)
		}
		dispatcher = &services.RedisDispatcher{Redis: redis.NewClient(opts)}
		log.Println("Redis notification dispatcher initialized.")
	}

	// Initialize Services
	connectionService := &services.ConnectionService{Store: connectionStore, Dispatcher: dispatcher}
	conversationService := &services.ConversationService{
		Connections: connectionService,
		Store:       conversationStore,
		Profiles:    &services.DynamoProfileDirectory{Dynamo: dynamoService},
	}

	// Start the expiry sweeper for declined requests past their window
	sweepInterval := time.Hour
	if raw := os.Getenv("SWEEP_INTERVAL"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatalf("Invalid SWEEP_INTERVAL: %v", err)
		}
		sweepInterval = parsed
	}
	sweeper := &services.ExpirySweeper{Store: connectionStore, Interval: sweepInterval}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweeper.Start(ctx)

	// Set up the server port
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Using server port: %s\n", port)

	// Initialize the router
	r := mux.NewRouter()

	// Register a welcome route
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "Welcome to Creerlio")
	}).Methods("GET")

	// Register a health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		response := map[string]string{"status": "healthy"}
		json.NewEncoder(w).Encode(response)
	}).Methods("GET")

	// Register routes
	routes.RegisterConnectionRoutes(r, connectionService)
	routes.RegisterConversationRoutes(r, conversationService)

	// Add CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // Adjust for specific domains if needed
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)

	// Start the HTTP server
	log.Printf("Starting server on port %s...\n", port)
	log.Fatal(http.ListenAndServe(":"+port, corsHandler))
}
