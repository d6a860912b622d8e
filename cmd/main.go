package main

import (
	"context"

	"github.com/gorilla/handlers"
	"github.com/pitabwire/frame"
	"github.com/pitabwire/util"

	"github.com/soundvault/service-catalog/config"
	"github.com/soundvault/service-catalog/service/business"
	catalogevents "github.com/soundvault/service-catalog/service/events"
	"github.com/soundvault/service-catalog/service/handler/routing"
	"github.com/soundvault/service-catalog/service/queue"
	"github.com/soundvault/service-catalog/service/storage"
	"github.com/soundvault/service-catalog/service/storage/provider"
	"github.com/soundvault/service-catalog/service/storage/repository"
)

func main() {

	serviceName := "service_catalog"
	ctx := context.Background()

	cfg, err := frame.ConfigFromEnv[config.CatalogConfig]()
	if err != nil {
		util.Log(ctx).With("err", err).Error("could not process configs")
		return
	}

	if err = cfg.LoadDerived(); err != nil {
		util.Log(ctx).With("err", err).Error("could not resolve derived configs")
		return
	}

	ctx, svc := frame.NewService(serviceName, frame.WithConfig(&cfg))

	log := svc.Log(ctx)

	serviceOptions := []frame.Option{frame.WithDatastore()}

	// Handle database migration if requested
	if handleDatabaseMigration(ctx, svc, cfg, log) {
		return
	}

	storageProvider, err := provider.GetStorageProvider(ctx, &cfg)
	if err != nil {
		log.WithError(err).Fatal("main -- Could not setup or access storage")
	}

	db := storage.NewDatabase(svc)
	store := storage.NewStore(storageProvider)

	streamService := business.NewMediaStreamService(db, store)
	searchService := business.NewSearchService(db, cfg.MediaBaseURL)
	catalogService := business.NewCatalogService(svc, db, store, &cfg)
	playlistService := business.NewPlaylistService(db, cfg.MediaBaseURL)
	authService := business.NewAuthService(db, playlistService, &cfg)

	router := routing.SetupCatalogRoutes(&routing.Deps{
		Service:   svc,
		Database:  db,
		Streams:   streamService,
		Search:    searchService,
		Catalog:   catalogService,
		Playlists: playlistService,
		Auth:      authService,
	})

	recoveredRouter := handlers.RecoveryHandler(
		handlers.PrintRecoveryStack(true))(router)

	defaultServer := frame.WithHTTPHandler(routing.WrapHandlerInCORS(recoveredRouter))
	serviceOptions = append(serviceOptions, defaultServer)

	events := frame.WithRegisterEvents(
		catalogevents.NewAuditSaveHandler(svc),
	)
	serviceOptions = append(serviceOptions, events)

	listenQueueHandler := queue.NewListenQueueHandler(db)
	listenRecordQueue := frame.WithRegisterSubscriber(cfg.QueueListenRecordName, cfg.QueueListenRecordURL, listenQueueHandler)
	listenRecordPublish := frame.WithRegisterPublisher(cfg.QueueListenRecordName, cfg.QueueListenRecordURL)
	serviceOptions = append(serviceOptions, listenRecordQueue, listenRecordPublish)

	thumbnailQueueHandler := queue.NewThumbnailQueueHandler(svc, db, store)
	coverThumbnailQueue := frame.WithRegisterSubscriber(cfg.QueueCoverThumbnailName, cfg.QueueCoverThumbnailURL, thumbnailQueueHandler)
	coverThumbnailPublish := frame.WithRegisterPublisher(cfg.QueueCoverThumbnailName, cfg.QueueCoverThumbnailURL)
	serviceOptions = append(serviceOptions, coverThumbnailQueue, coverThumbnailPublish)

	svc.Init(ctx, serviceOptions...)

	log.WithField("server http port", cfg.HTTPPort()).
		Info(" Initiating server operations")

	err = svc.Run(ctx, "")
	if err != nil {
		log.WithError(err).Fatal("main -- Could not run Server : %v", err)
	}

}

// handleDatabaseMigration performs database migration if configured to do so.
func handleDatabaseMigration(
	ctx context.Context,
	svc *frame.Service,
	cfg config.CatalogConfig,
	log *util.LogEntry,
) bool {
	serviceOptions := []frame.Option{frame.WithDatastore()}

	if cfg.DoDatabaseMigrate() {
		svc.Init(ctx, serviceOptions...)

		err := repository.Migrate(ctx, svc, cfg.GetDatabaseMigrationPath())
		if err != nil {
			log.WithError(err).Fatal("main -- Could not migrate successfully")
		}
		return true
	}
	return false
}
