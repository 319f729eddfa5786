package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"pickYourSocksAPI/handlers"
	"pickYourSocksAPI/internal/cache"
	"pickYourSocksAPI/internal/config"
	"pickYourSocksAPI/internal/geo"
	"pickYourSocksAPI/internal/logging"
	"pickYourSocksAPI/internal/metrics"
	"pickYourSocksAPI/internal/notification"
	"pickYourSocksAPI/internal/storage/memory"
	"pickYourSocksAPI/internal/storage/postgres"
	"pickYourSocksAPI/middleware"
	"pickYourSocksAPI/services"

	_ "net/http/pprof"
)

func openStore(ctx context.Context, cfg *config.Config) (services.Store, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		logging.Log.Warn("Using in-memory store, data is lost on restart")
		return memory.NewStore(), nil
	}
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	logging.Log.Info("Successfully connected to Postgres")
	return postgres.NewStore(pool), nil
}

func newVerifier(cfg *config.Config, store services.Store) middleware.Verifier {
	if cfg.AuthProvider == config.AuthProviderClerk {
		clerk.SetKey(cfg.ClerkSecretKey)
		logging.Log.Info("Clerk initialized successfully")
		return middleware.NewClerkVerifier(store)
	}
	if cfg.SupabaseJWTSecret == "" {
		logging.Log.Warn("SUPABASE_JWT_SECRET is not set, every request will be rejected")
	}
	return middleware.NewSupabaseVerifier(cfg.SupabaseJWTSecret)
}

func newUploadService(ctx context.Context, cfg *config.Config) *services.UploadService {
	var putter services.ObjectPutter
	if cfg.UploadsEnabled() {
		client, err := services.NewR2Client(ctx, cfg.CFAccountID, cfg.CFAccessKey, cfg.CFSecretKey, cfg.R2Endpoint)
		if err != nil {
			logging.Log.WithError(err).Warn("R2: could not build client, uploads disabled")
		} else {
			putter = client
			logging.Log.WithField("bucket", cfg.CFBucketName).Info("R2 upload proxy enabled")
		}
	} else {
		logging.Log.Warn("R2 credentials missing, uploads disabled")
	}
	return services.NewUploadService(putter, cfg.CFBucketName, cfg.CFPublicURL, cfg.UploadTimeout)
}

func main() {
	cfg, foundEnv, err := config.Load()
	if err != nil {
		logging.Log.WithError(err).Fatal("Failed to load configuration")
	}
	logging.Configure(cfg.Env, cfg.LogLevel)
	if !foundEnv {
		logging.Log.Info("No .env file found")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := openStore(ctx, cfg)
	if err != nil {
		cancel()
		logging.Log.WithError(err).Fatal("Failed to open store")
	}
	uploadService := newUploadService(ctx, cfg)
	cancel()
	defer func() {
		logging.Log.Info("Closing store...")
		store.Close()
	}()

	metrics.Register()
	middleware.InitPrometheus()

	var radarCache *redis.Client
	if client := cache.NewRedisClient(cfg.RedisURL); client != nil {
		radarCache = client
		defer radarCache.Close()
	}

	hub := services.NewRealtimeHub()
	go hub.Run()

	notificationService := services.NewNotificationService(store)
	dispatcher := services.NewNotificationDispatcher(store)
	fcmService, err := notification.NewFCMService(cfg.FCMServiceAccountJSON, cfg.FCMCredentialsFile)
	if err != nil {
		logging.Log.WithError(err).Warn("Could not initialize FCM, notifications stay in-app")
	} else {
		dispatcher.SetPushProvider(fcmService)
		notificationService.SetDispatcher(dispatcher)
		logging.Log.Info("FCM Push Provider initialized successfully")
	}

	radarService := services.NewRadarService(store, radarCache, cfg.RadarCacheTTL)
	matchService := services.NewMatchService(store, store, store, notificationService, hub)
	matchService.SetLocator(geo.NewIPAPILocator(cfg.IPLookupURL))
	matchService.SetRadius(cfg.ProximityRadiusMeters)
	matchService.SetRadarInvalidator(radarService)
	resultService := services.NewResultService(store, store, notificationService, hub)
	friendService := services.NewFriendService(store, store, notificationService)
	messageService := services.NewMessageService(store, store, notificationService, hub)
	profileService := services.NewProfileService(store)
	postService := services.NewPostService(store, store, cfg.CFPublicURL)

	matchHandler := handlers.NewMatchHandler(matchService, resultService)
	friendHandler := handlers.NewFriendHandler(friendService)
	messageHandler := handlers.NewMessageHandler(messageService)
	profileHandler := handlers.NewProfileHandler(profileService, radarService)
	postHandler := handlers.NewPostHandler(postService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	uploadHandler := handlers.NewUploadHandler(uploadService, cfg.UploadMaxBytes)
	realtimeHandler := handlers.NewRealtimeHandler(hub)
	healthHandler := handlers.NewHealthHandler(store)

	auth := middleware.NewAuthenticator(newVerifier(cfg, store), store)
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	stopCleanup := make(chan struct{})
	go limiter.CleanupVisitors(stopCleanup)
	metricsAuth := middleware.BasicAuthMiddleware(cfg.MetricsUser, cfg.MetricsPass)

	r := mux.NewRouter()

	// The websocket stays outside the rate limited router; it is one long request.
	r.Handle("/api/v1/realtime", auth.QueryTokenMiddleware(http.HandlerFunc(realtimeHandler.Subscribe))).Methods("GET")

	standardRouter := r.PathPrefix("/").Subrouter()
	standardRouter.Use(limiter.Middleware)
	standardRouter.Use(middleware.MonitorMiddleware)

	standardRouter.Handle("/metrics", metricsAuth(promhttp.Handler()))
	standardRouter.PathPrefix("/debug/pprof/").Handler(metricsAuth(http.DefaultServeMux))
	standardRouter.HandleFunc("/health", healthHandler.Health).Methods("GET")

	upload := standardRouter.PathPrefix("/api/upload").Subrouter()
	upload.Use(auth.Middleware)
	upload.HandleFunc("/profile-photo", uploadHandler.ProfilePhoto).Methods("POST")
	upload.HandleFunc("/post-media", uploadHandler.PostMedia).Methods("POST")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := standardRouter.PathPrefix("/api/v1").Subrouter()
	protected.Use(auth.Middleware)

	protected.HandleFunc("/profile", profileHandler.Me).Methods("GET")
	protected.HandleFunc("/profile", profileHandler.Update).Methods("PUT")
	protected.HandleFunc("/profile/public-key", profileHandler.SetPublicKey).Methods("PUT")
	protected.HandleFunc("/profiles/{id}", profileHandler.Get).Methods("GET")
	protected.HandleFunc("/profiles/{id}/public-key", profileHandler.PublicKey).Methods("GET")
	protected.HandleFunc("/profiles/{id}/posts", postHandler.ListByUser).Methods("GET")
	protected.HandleFunc("/radar", profileHandler.Radar).Methods("GET")

	protected.HandleFunc("/matches", matchHandler.ListMine).Methods("GET")
	protected.HandleFunc("/matches/challenge", matchHandler.CreateChallenge).Methods("POST")
	protected.HandleFunc("/matches/broadcast", matchHandler.CreateBroadcast).Methods("POST")
	protected.HandleFunc("/matches/open", matchHandler.ListOpen).Methods("GET")
	protected.HandleFunc("/matches/{id}", matchHandler.Get).Methods("GET")
	protected.HandleFunc("/matches/{id}", matchHandler.Cancel).Methods("DELETE")
	protected.HandleFunc("/matches/{id}/accept", matchHandler.Accept).Methods("POST")
	protected.HandleFunc("/matches/{id}/decline", matchHandler.Decline).Methods("POST")
	protected.HandleFunc("/matches/{id}/check-in", matchHandler.CheckIn).Methods("POST")
	protected.HandleFunc("/matches/{id}/qr", matchHandler.InviteQR).Methods("GET")
	protected.HandleFunc("/matches/{id}/result", matchHandler.GetResult).Methods("GET")
	protected.HandleFunc("/matches/{id}/result", matchHandler.SubmitResult).Methods("POST")

	protected.HandleFunc("/friends", friendHandler.List).Methods("GET")
	protected.HandleFunc("/friends", friendHandler.Request).Methods("POST")
	protected.HandleFunc("/friends/requests", friendHandler.Incoming).Methods("GET")
	protected.HandleFunc("/friends/{id}/accept", friendHandler.Accept).Methods("POST")
	protected.HandleFunc("/friends/{id}", friendHandler.Remove).Methods("DELETE")

	protected.HandleFunc("/messages", messageHandler.Send).Methods("POST")
	protected.HandleFunc("/messages/{friendId}", messageHandler.Conversation).Methods("GET")

	protected.HandleFunc("/posts", postHandler.Create).Methods("POST")
	protected.HandleFunc("/posts/feed", postHandler.Feed).Methods("GET")

	protected.HandleFunc("/notifications", notificationHandler.GetNotifications).Methods("GET")
	protected.HandleFunc("/notifications/unread-count", notificationHandler.GetUnreadCount).Methods("GET")
	protected.HandleFunc("/notifications/read-all", notificationHandler.MarkAllAsRead).Methods("PUT")
	protected.HandleFunc("/notifications/{id}/read", notificationHandler.MarkAsRead).Methods("PUT")
	protected.HandleFunc("/notifications/register-device", notificationHandler.RegisterDevice).Methods("POST")

	// CORS configuration
	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins(cfg.Origins()),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := ":" + cfg.Port
	// Uploads stream to R2 inside the request, so writes get the upload budget on top.
	writeTimeout := cfg.UploadTimeout + 10*time.Second
	server := http.Server{
		Addr:         port,
		Handler:      middleware.Recovery(corsHandler(r)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logging.Log.Infof("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Log.WithError(err).Fatal("Error starting server")
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	logging.Log.WithField("signal", sig.String()).Info("Got signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Log.WithError(err).Error("Server shutdown error")
	}
	hub.Stop()
	dispatcher.Stop()
	close(stopCleanup)

	logging.Log.Info("Server shutdown complete")
}
