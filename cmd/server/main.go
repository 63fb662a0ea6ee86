package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"connectrpc.com/connect"
	"github.com/castlemilk/leakfinder/backend/internal/analytics"
	"github.com/castlemilk/leakfinder/backend/internal/auth"
	"github.com/castlemilk/leakfinder/backend/internal/billing"
	"github.com/castlemilk/leakfinder/backend/internal/config"
	"github.com/castlemilk/leakfinder/backend/internal/filestore"
	"github.com/castlemilk/leakfinder/backend/internal/llm"
	"github.com/castlemilk/leakfinder/backend/internal/logger"
	"github.com/castlemilk/leakfinder/backend/internal/models"
	"github.com/castlemilk/leakfinder/backend/internal/search"
	"github.com/castlemilk/leakfinder/backend/internal/service"
	"github.com/castlemilk/leakfinder/backend/internal/store"
	"github.com/rs/cors"
	"github.com/stripe/stripe-go/v82"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

func main() {
	cfg, err := config.Load()
	log := logger.NewWithOptions(logger.Options{Format: cfg.Log.Format, Level: cfg.Log.Level})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid config")
	}

	ctx := context.Background()

	var storeImpl store.Store
	var firebaseAuth *auth.FirebaseAuth

	if cfg.IsLocal() {
		log.Info().Msg("Using in-memory store for local development")
		storeImpl = store.NewMemoryStore()

		// Memory store always runs with mock authentication
		log.Info().Msg("Using mock authentication for local development")
	} else {
		firestoreClient, err := firestore.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Firestore client")
		}
		defer firestoreClient.Close()

		if cfg.SkipAuth {
			log.Warn().Msg("SKIP_AUTH enabled - using mock authentication with Firestore (for testing only)")
		} else {
			firebaseAuth, err = auth.NewFirebaseAuth(ctx, cfg.ProjectID)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to initialize Firebase Auth")
			}
		}

		storeImpl = store.NewFirestoreStore(firestoreClient)
	}

	// Raw uploads
	var files filestore.FileStore
	if cfg.Storage.Bucket != "" {
		storageClient, err := storage.NewClient(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Cloud Storage client")
		}
		defer storageClient.Close()
		files = filestore.NewGCSStore(storageClient, cfg.Storage.Bucket)
		log.Info().Str("bucket", cfg.Storage.Bucket).Msg("Storing uploads in Cloud Storage")
	} else {
		local, err := filestore.NewLocalStore(cfg.Storage.LocalDir)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create local upload dir")
		}
		files = local
		log.Info().Str("dir", cfg.Storage.LocalDir).Msg("Storing uploads on local disk")
	}

	opts := []service.Option{
		service.WithLogger(log),
		service.WithLimits(cfg.Limits),
		service.WithStepTimeout(cfg.AI.StepTimeout),
	}

	generator, err := llm.NewFromConfig(ctx, cfg.AI)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create step generator")
	}
	if generator != nil {
		opts = append(opts, service.WithStepGenerator(generator))
		log.Info().Str("provider", cfg.AI.Provider).Msg("Generated plan steps enabled for Pro users")
	}

	if cfg.Algolia.AppID != "" && cfg.Algolia.APIKey != "" {
		algolia, err := search.NewAlgoliaClient(search.Config{
			AppID:     cfg.Algolia.AppID,
			APIKey:    cfg.Algolia.APIKey,
			IndexName: cfg.Algolia.IndexName,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Algolia client")
		}
		opts = append(opts, service.WithSearch(algolia))
		log.Info().Str("index", cfg.Algolia.IndexName).Msg("Finding search enabled")
	}

	if cfg.BigQuery.Dataset != "" && cfg.ProjectID != "" {
		bq, err := bigquery.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery client")
		}
		defer bq.Close()
		opts = append(opts, service.WithAnalytics(analytics.NewBigQuerySink(bq, cfg.BigQuery.Dataset)))
		log.Info().Str("dataset", cfg.BigQuery.Dataset).Msg("Scan run export enabled")
	}

	stripeEnabled := cfg.Stripe.SecretKey != ""
	if stripeEnabled {
		stripe.Key = cfg.Stripe.SecretKey
		opts = append(opts, service.WithPayments(
			billing.NewStripeClient(cfg.Stripe.PriceID, cfg.Stripe.SuccessURL, cfg.Stripe.CancelURL),
		))
	}

	leakService := service.NewLeakService(storeImpl, files, opts...)

	var interceptors []connect.Interceptor

	// Debug interceptor first (impersonation in dev mode)
	interceptors = append(interceptors, auth.DebugAuthInterceptor(cfg.SkipAuth))

	if firebaseAuth != nil {
		interceptors = append(interceptors, auth.AuthInterceptor(firebaseAuth))
	} else {
		interceptors = append(interceptors, auth.LocalDevInterceptor(models.TierPro))
	}

	path, handler := service.NewLeakServiceHandler(
		leakService,
		connect.WithInterceptors(interceptors...),
	)

	mux := http.NewServeMux()
	mux.Handle(path, handler)

	if stripeEnabled && cfg.Stripe.WebhookSecret != "" {
		var claims billing.ClaimsSetter
		if firebaseAuth != nil {
			claims = firebaseAuth
		}
		mux.Handle("/webhooks/stripe", billing.NewWebhookHandler(storeImpl, cfg.Stripe.WebhookSecret, claims, log))
		log.Info().Msg("Stripe webhook mounted at /webhooks/stripe")
	}

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// NOTE: Frontend runs on port 1234, not 3000
	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Connect-Protocol-Version",
			"Connect-Timeout-Ms",
			"Content-Type",
			"User-Agent",
			"X-User-Agent",
			"X-Request-ID",
			"X-Debug-Impersonate-User",
			"X-Debug-Subscription-Tier",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
		},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           h2c.NewHandler(logger.Middleware(log, c.Handler(mux)), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("Starting server")
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}
