package main

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/hanko-field/namedmenus/internal/handlers"
	"github.com/hanko-field/namedmenus/internal/menus"
	"github.com/hanko-field/namedmenus/internal/platform/auth"
	"github.com/hanko-field/namedmenus/internal/platform/config"
	pfirestore "github.com/hanko-field/namedmenus/internal/platform/firestore"
	"github.com/hanko-field/namedmenus/internal/platform/i18n"
	"github.com/hanko-field/namedmenus/internal/platform/jobs"
	"github.com/hanko-field/namedmenus/internal/platform/observability"
	"github.com/hanko-field/namedmenus/internal/repositories"
	"github.com/hanko-field/namedmenus/internal/repositories/file"
	firestoreRepo "github.com/hanko-field/namedmenus/internal/repositories/firestore"
	"github.com/hanko-field/namedmenus/internal/services"
)

type stores struct {
	pages     repositories.PageRepository
	menus     repositories.NamedMenuRepository
	readiness handlers.ReadinessCheck
	close     func()
}

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("menus")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load(ctx)
	if err != nil {
		var invalid *config.ValidationError
		if errors.As(err, &invalid) {
			logger.Fatal("invalid configuration", zap.Strings("fields", invalid.Fields()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	store, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialise store", zap.String("backend", cfg.Store.Backend), zap.Error(err))
	}
	defer store.close()

	draftPages, err := services.NewDraftPageStore(store.pages)
	if err != nil {
		logger.Fatal("failed to initialise draft page store", zap.Error(err))
	}
	converter := menus.NewLocalizedConverter(cfg.I18n.DefaultLanguage)
	pageTree, err := menus.NewPageTreeRenderer(store.pages, converter)
	if err != nil {
		logger.Fatal("failed to initialise page tree renderer", zap.Error(err))
	}
	arranger, err := menus.NewArranger(menus.ArrangerDeps{
		Pages:     draftPages,
		Converter: converter,
		Logger:    logger.Named("arranger"),
	})
	if err != nil {
		logger.Fatal("failed to initialise arranger", zap.Error(err))
	}
	gateway, err := menus.NewGateway(menus.GatewayDeps{
		Cache:  menus.NewMemoryCache(cfg.Cache.TTL, cfg.Cache.MaxEntries),
		Menus:  store.menus,
		Logger: logger.Named("cache"),
	})
	if err != nil {
		logger.Fatal("failed to initialise menu cache", zap.Error(err))
	}

	tag, err := menus.NewTag(menus.TagDeps{
		Gateway:         gateway,
		Arranger:        arranger,
		Renderers:       pageTree,
		DefaultLanguage: cfg.I18n.DefaultLanguage,
		Logger:          logger.Named("tag"),
	})
	if err != nil {
		logger.Fatal("failed to initialise show_named_menu", zap.Error(err))
	}
	funcs := template.FuncMap{}
	menus.Register(funcs, tag)
	templates, err := menus.ParseTemplates(cfg.Templates.Dir, funcs)
	if err != nil {
		logger.Fatal("failed to parse menu templates", zap.String("dir", cfg.Templates.Dir), zap.Error(err))
	}
	tag.UseTemplates(templates)

	pubsubClient, closePubSub := newPubSubClient(ctx, cfg, logger)
	defer closePubSub()
	publisher, stopPublisher := newMenuChangePublisher(pubsubClient, cfg, logger)
	defer stopPublisher()

	subscriberCtx, stopSubscriber := context.WithCancel(ctx)
	defer stopSubscriber()
	if pubsubClient != nil && cfg.PubSub.Subscription != "" {
		subscriber, err := jobs.NewMenuChangeSubscriber(jobs.MenuChangeSubscriberDeps{
			Subscription: pubsubClient.Subscription(cfg.PubSub.Subscription),
			Cache:        gateway,
			Languages:    cfg.I18n.Languages,
			Logger:       logger.Named("events"),
		})
		if err != nil {
			logger.Fatal("failed to initialise menu change subscriber", zap.Error(err))
		}
		go func() {
			if err := subscriber.Run(subscriberCtx); err != nil {
				logger.Error("menu change subscriber stopped", zap.Error(err))
			}
		}()
	}

	menuService, err := services.NewMenuService(services.MenuServiceDeps{
		Repository: store.menus,
		Cache:      gateway,
		Publisher:  publisher,
		Languages:  cfg.I18n.Languages,
		Logger:     logger.Named("admin"),
	})
	if err != nil {
		logger.Fatal("failed to initialise menu service", zap.Error(err))
	}

	authenticator := auth.NewAdminAuthenticator(cfg.Admin.TokenSecret)
	resolver := i18n.NewResolver(cfg.I18n.DefaultLanguage, cfg.I18n.Languages)
	menuHandlers := handlers.NewMenuHandlers(tag, templates)
	adminHandlers := handlers.NewAdminMenuHandlers(authenticator, menuService)

	healthOpts := []handlers.HealthOption{handlers.WithHealthStartedAt(startedAt)}
	if store.readiness != nil {
		healthOpts = append(healthOpts, handlers.WithReadinessCheck(cfg.Store.Backend, store.readiness))
	}

	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.InjectLoggerMiddleware(logger.Named("http")),
			observability.TraceMiddleware(cfg.Trace.ProjectID),
			observability.RecoveryMiddleware(logger.Named("http")),
			observability.RequestLoggerMiddleware(),
			i18n.Middleware(resolver),
		),
		handlers.WithHealthHandlers(handlers.NewHealthHandlers(healthOpts...)),
		handlers.WithPageRoutes(menuHandlers.PageRoutes),
		handlers.WithPublicRoutes(menuHandlers.APIRoutes),
		handlers.WithAdminRoutes(adminHandlers.Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("starting http server",
			zap.String("backend", cfg.Store.Backend),
			zap.Strings("languages", resolver.Supported()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (stores, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendFile:
		pages, err := file.LoadPages(cfg.File.PagesPath)
		if err != nil {
			return stores{}, err
		}
		namedMenus, err := file.LoadNamedMenus(cfg.File.MenusPath)
		if err != nil {
			return stores{}, err
		}
		return stores{pages: pages, menus: namedMenus, close: func() {}}, nil
	default:
		provider := pfirestore.NewProvider(cfg.Firestore)
		if _, err := provider.Client(ctx); err != nil {
			return stores{}, err
		}
		pages, err := firestoreRepo.NewPageRepository(provider)
		if err != nil {
			return stores{}, err
		}
		namedMenus, err := firestoreRepo.NewNamedMenuRepository(provider)
		if err != nil {
			return stores{}, err
		}
		closeFn := func() {
			if err := provider.Close(); err != nil {
				logger.Warn("firestore close error", zap.Error(err))
			}
		}
		return stores{pages: pages, menus: namedMenus, readiness: namedMenus.Ping, close: closeFn}, nil
	}
}

func newPubSubClient(ctx context.Context, cfg config.Config, logger *zap.Logger) (*pubsub.Client, func()) {
	if cfg.PubSub.Topic == "" && cfg.PubSub.Subscription == "" {
		return nil, func() {}
	}
	client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
	if err != nil {
		logger.Fatal("failed to initialise pubsub client", zap.Error(err))
	}
	return client, func() {
		if err := client.Close(); err != nil {
			logger.Warn("pubsub close error", zap.Error(err))
		}
	}
}

func newMenuChangePublisher(client *pubsub.Client, cfg config.Config, logger *zap.Logger) (services.MenuChangePublisher, func()) {
	if client == nil || cfg.PubSub.Topic == "" {
		return nil, func() {}
	}
	topic := client.Topic(cfg.PubSub.Topic)
	publisher, err := jobs.NewPubSubMenuChangePublisher(topic)
	if err != nil {
		logger.Fatal("failed to initialise menu change publisher", zap.Error(err))
	}
	return publisher, topic.Stop
}
