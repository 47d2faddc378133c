package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/Ibrakam/Sales-Machine/internal/config"
	"github.com/Ibrakam/Sales-Machine/internal/entity"
	"github.com/Ibrakam/Sales-Machine/internal/infra/auth"
	"github.com/Ibrakam/Sales-Machine/internal/infra/database"
	"github.com/Ibrakam/Sales-Machine/internal/infra/http/handlers"
	"github.com/Ibrakam/Sales-Machine/internal/infra/http/middleware"
	"github.com/Ibrakam/Sales-Machine/internal/infra/integration/crm"
	"github.com/Ibrakam/Sales-Machine/internal/infra/mail"
	"github.com/Ibrakam/Sales-Machine/internal/infra/openai"
	"github.com/Ibrakam/Sales-Machine/internal/infra/queue"
	"github.com/Ibrakam/Sales-Machine/internal/logger"
	"github.com/Ibrakam/Sales-Machine/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load configuration")
	}
	logger.Init(cfg.Log.Debug, cfg.Log.Pretty)

	// Database
	db, err := database.NewDBConnection(cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to database")
	}
	defer db.Close()

	// Repositories
	userRepo := database.NewUserRepository(db)
	leadRepo := database.NewLeadRepository(db)
	interactionRepo := database.NewInteractionRepository(db)
	messageRepo := database.NewMessageRepository(db)
	callRepo := database.NewCallRepository(db)
	forecastRepo := database.NewForecastRepository(db)
	crmRepo := database.NewCRMRepository(db)
	instagramRepo := database.NewInstagramRepository(db)

	seedCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := database.SeedDemoUsers(seedCtx, userRepo, auth.HashPassword); err != nil {
		log.Fatal().Err(err).Msg("seed demo users")
	}
	cancel()

	// Broker and CRM sync worker
	var producer queue.SyncProducer = queue.NoopProducer{}
	var rabbit *queue.RabbitMQ
	if cfg.Queue.Disabled {
		log.Warn().Msg("queue disabled, CRM sync is a no-op")
	} else {
		rabbit, err = queue.NewRabbitMQ(cfg.Queue.User, cfg.Queue.Pass, cfg.Queue.Host, cfg.Queue.Port)
		if err != nil {
			log.Fatal().Err(err).Msg("connect to RabbitMQ")
		}
		defer rabbit.Close()

		producer = queue.NewProducer(rabbit.Conn, rabbit.Ch)
		worker := queue.NewWorker(rabbit.Ch, crm.NewClient(), crmRepo)
		go worker.Start(queue.QueueName)
	}

	// Tokens, provider, mail
	tokens := auth.NewTokenManager(cfg.Auth.Secret, cfg.Auth.AccessExpiry, cfg.Auth.RefreshExpiry)

	provider, err := openai.NewClient(cfg.OpenAI)
	if err != nil {
		log.Fatal().Err(err).Msg("configure completion provider")
	}
	chatUC := usecase.NewSalesAssistantChat(leadRepo, provider)

	mailSender := mail.NewEmailSender(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.User, cfg.Mail.Pass, cfg.Mail.From)

	// Handlers
	authHandler := handlers.NewAuthHandler(userRepo, tokens)
	userHandler := handlers.NewUserHandler(userRepo)
	leadHandler := handlers.NewLeadHandler(leadRepo, interactionRepo, crmRepo, producer)
	messageHandler := handlers.NewMessageHandler(messageRepo, leadRepo, mailSender)
	callHandler := handlers.NewCallHandler(callRepo)
	forecastHandler := handlers.NewForecastHandler(forecastRepo)
	crmHandler := handlers.NewCRMHandler(crmRepo, producer)
	instagramHandler := handlers.NewInstagramHandler(instagramRepo, leadRepo)
	aiHandler := handlers.NewAIHandler(chatUC, provider, leadRepo, cfg.OpenAI.Model)

	var rabbitConn *amqp.Connection
	if rabbit != nil {
		rabbitConn = rabbit.Conn
	}
	healthHandler := handlers.NewHealthHandler(db, rabbitConn)

	authn := middleware.NewAuthenticator(tokens, userRepo)

	// Router
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.With(authn.RequireUser).Get("/me", authHandler.Me)
			r.With(authn.RequireUser).Put("/me", authHandler.UpdateMe)
		})

		r.Group(func(r chi.Router) {
			r.Use(authn.RequireUser)

			r.Route("/users", func(r chi.Router) {
				admin := middleware.RequireRole(entity.RoleAdmin)
				r.With(admin).Get("/", userHandler.List)
				r.With(admin).Post("/", userHandler.Create)
				// Get allows self-lookup, the rest is admin-only.
				r.Get("/{userID}", userHandler.Get)
				r.With(admin).Put("/{userID}", userHandler.Update)
				r.With(admin).Delete("/{userID}", userHandler.Delete)
			})

			r.Route("/leads", func(r chi.Router) {
				r.Get("/", leadHandler.List)
				r.Post("/", leadHandler.Create)
				r.Get("/{leadID}", leadHandler.Get)
				r.Put("/{leadID}", leadHandler.Update)
				r.Delete("/{leadID}", leadHandler.Delete)
				r.Get("/{leadID}/interactions", leadHandler.ListInteractions)
				r.Post("/{leadID}/interactions", leadHandler.AppendInteraction)
			})

			r.Route("/messages", func(r chi.Router) {
				r.Get("/", messageHandler.List)
				r.Post("/", messageHandler.Create)
				r.Get("/{messageID}", messageHandler.Get)
				r.Put("/{messageID}", messageHandler.Update)
				r.Post("/{messageID}/send", messageHandler.Send)
			})

			r.Route("/calls", func(r chi.Router) {
				r.Get("/", callHandler.List)
				r.Post("/", callHandler.Create)
				r.Get("/{callID}", callHandler.Get)
				r.Put("/{callID}", callHandler.Update)
			})

			r.Route("/forecasts", func(r chi.Router) {
				analyst := middleware.RequireRole(entity.RoleAnalyst)
				r.Get("/", forecastHandler.List)
				r.With(analyst).Post("/", forecastHandler.Create)
				r.Get("/{forecastID}", forecastHandler.Get)
				r.With(analyst).Put("/{forecastID}", forecastHandler.Update)
				r.With(middleware.RequireRole(entity.RoleAdmin)).Delete("/{forecastID}", forecastHandler.Delete)
			})

			r.Route("/crm", func(r chi.Router) {
				r.Use(middleware.RequireRole(entity.RoleAdmin))
				r.Get("/connections", crmHandler.List)
				r.Post("/connections", crmHandler.Create)
				r.Get("/connections/{connectionID}", crmHandler.Get)
				r.Put("/connections/{connectionID}", crmHandler.Update)
				r.Delete("/connections/{connectionID}", crmHandler.Delete)
				r.Post("/connections/{connectionID}/sync", crmHandler.Sync)
				r.Get("/connections/{connectionID}/status", crmHandler.Status)
			})

			r.Route("/instagram", func(r chi.Router) {
				r.Use(middleware.RequireRole(entity.RoleAdmin))
				r.Get("/account", instagramHandler.GetAccount)
				r.Post("/account", instagramHandler.ConnectAccount)
				r.Put("/account", instagramHandler.UpdateAccount)
				r.Post("/sync", instagramHandler.Sync)
			})

			r.Route("/ai", func(r chi.Router) {
				r.Post("/chat", aiHandler.Chat)
				r.Get("/models", aiHandler.Models)
				r.Post("/generate-email", aiHandler.GenerateEmail)
				r.Post("/score-lead", aiHandler.ScoreLead)
				r.With(middleware.RequireRole(entity.RoleAnalyst)).Post("/generate-forecast", aiHandler.GenerateForecast)
				r.Get("/usage", aiHandler.Usage)
			})
		})
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	log.Info().Str("addr", cfg.Server.Addr).Msg("sales-machine API listening")
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
