// Package main runs the conferencing control-plane HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	webrtc "github.com/pion/webrtc/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/meetpro/backend/config"
	"github.com/meetpro/backend/internal/admission"
	"github.com/meetpro/backend/internal/credentials"
	"github.com/meetpro/backend/internal/directory"
	"github.com/meetpro/backend/internal/middleware"
	"github.com/meetpro/backend/internal/moderation"
	"github.com/meetpro/backend/internal/realtime"
	"github.com/meetpro/backend/internal/recording"
	"github.com/meetpro/backend/internal/reservation"
	"github.com/meetpro/backend/internal/teardown"
	"github.com/meetpro/backend/pkg/redis"
	"github.com/meetpro/backend/pkg/response"
	"github.com/meetpro/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			Endpoint:             cfg.AWS.Endpoint,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			RecordingsBucket:     cfg.AWS.RecordingsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	iceServers := make([]webrtc.ICEServer, 0, len(cfg.WebRTC.ICEUrls))
	for _, u := range cfg.WebRTC.ICEUrls {
		if u != "" {
			iceServers = append(iceServers, webrtc.ICEServer{URLs: []string{u}})
		}
	}

	issuer, err := credentials.NewIssuer(
		cfg.Backend.APIKey,
		cfg.Backend.APISecret,
		cfg.Backend.WSURL,
		time.Duration(cfg.Token.TTLMinutes)*time.Minute,
		iceServers,
	)
	if err != nil {
		logger.Fatal("credential issuer", zap.Error(err))
	}

	// Room directory (conferencing backend API)
	dirClient := directory.NewClient(cfg.Backend.URL, issuer, logger)
	dirHandler := directory.NewHandler(dirClient, logger)

	// Admin reservations
	reservationStore := reservation.NewRedisStore(rdb.Client)
	reservationManager := reservation.NewManager(reservationStore, logger)
	reservationHandler := reservation.NewHandler(reservationManager, logger)

	// Recording
	egressClient := recording.NewEgressClient(cfg.Recording.EgressEndpoint, logger)
	var resolver *recording.Resolver
	if s3Client != nil {
		resolver = recording.NewResolver(s3Client, s3Client.RecordingsBucket())
	}
	recordingController := recording.NewController(egressClient, resolver, logger)
	recordingHandler := recording.NewHandler(recordingController, s3Client, logger)
	recordingWebhook := recording.NewWebhookHandler(recordingController, logger)

	// Admission
	orchestrator := admission.NewOrchestrator(dirClient, reservationManager, issuer, recordingController, logger)
	admissionHandler := admission.NewHandler(orchestrator, logger)

	// Moderation
	muteGap := time.Duration(cfg.Recording.MuteGapMillis) * time.Millisecond
	moderationController := moderation.NewController(dirClient, muteGap, logger)
	moderationHandler := moderation.NewHandler(moderationController, logger)

	// Teardown
	coordinator := teardown.NewCoordinator(reservationManager, dirClient, recordingController, logger)
	teardownHandler := teardown.NewHandler(coordinator, logger)

	// Realtime: recording status pushed to subscribed room clients
	hub := realtime.NewHub(logger)
	recordingController.SetStatusListener(func(ev recording.StatusEvent) {
		hub.Broadcast(ev.Room, "recording-status", ev)
	})

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	api := router.Group("/api")
	{
		api.GET("/rooms", dirHandler.ListRooms)
		api.POST("/rooms/create", admissionHandler.Create)
		api.POST("/rooms/join", admissionHandler.Join)
		api.GET("/rooms/:roomName/participants", dirHandler.ListParticipants)
		api.GET("/rooms/:roomName/admin", reservationHandler.Admin)
		api.POST("/rooms/:roomName/leave", teardownHandler.Leave)
		api.POST("/rooms/:roomName/kick", moderationHandler.Kick)
		api.POST("/rooms/:roomName/mute", moderationHandler.Mute)
		api.POST("/rooms/:roomName/mute-all", moderationHandler.MuteAll)

		api.POST("/recordings/:roomName/start", recordingHandler.Start)
		api.POST("/recordings/:roomName/stop", recordingHandler.Stop)
		api.GET("/recordings/:roomName/latest", recordingHandler.Latest)
		api.GET("/recordings/:roomName/download", recordingHandler.Download)
	}

	// Webhooks (egress service callback, no auth middleware)
	router.POST("/webhooks/recording-status", recordingWebhook.StatusChanged)

	// WebSocket (room name in query)
	router.GET("/ws", realtime.ServeWs(hub, logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
