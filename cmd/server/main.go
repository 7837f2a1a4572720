package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/roomdesk/service-booking/internal/application"
	"github.com/roomdesk/service-booking/internal/config"
	bookingDomain "github.com/roomdesk/service-booking/internal/domain/booking"
	guestDomain "github.com/roomdesk/service-booking/internal/domain/guest"
	bookingEvents "github.com/roomdesk/service-booking/internal/events"
	"github.com/roomdesk/service-booking/internal/handler"
	"github.com/roomdesk/service-booking/internal/platform/auth"
	"github.com/roomdesk/service-booking/internal/platform/database"
	"github.com/roomdesk/service-booking/internal/platform/health"
	"github.com/roomdesk/service-booking/internal/platform/kafka"
	"github.com/roomdesk/service-booking/internal/platform/lock"
	"github.com/roomdesk/service-booking/internal/platform/logger"
	"github.com/roomdesk/service-booking/internal/platform/middleware"
	"github.com/roomdesk/service-booking/internal/repository"
)

const serviceName = "service-booking"

// stores bundles the repositories of one storage backend.
type stores struct {
	db       *gorm.DB
	bookings bookingDomain.BookingRepository
	requests bookingDomain.CancellationRequestRepository
	guests   guestDomain.GuestRepository
	tx       application.Transactor
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-booking",
		zap.String("port", cfg.Port),
		zap.String("storage", cfg.Storage),
		zap.String("timezone", cfg.Timezone.String()),
	)

	// Room catalog
	rooms, err := cfg.RoomCatalog()
	if err != nil {
		log.Fatal("invalid room catalog", zap.Error(err))
	}
	catalog, err := repository.NewStaticRoomCatalog(rooms)
	if err != nil {
		log.Fatal("invalid room catalog", zap.Error(err))
	}
	log.Info("room catalog loaded", zap.Int("rooms", len(rooms)))

	// Storage
	st, err := openStores(cfg, log)
	if err != nil {
		log.Fatal("failed to open storage", zap.Error(err))
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, cfg.JWTConfig.AccessTokenTTL)

	// Event publishing
	var publisher application.Publisher = application.NopPublisher{}
	if cfg.KafkaConfig.Enabled {
		producer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
		defer func() { _ = producer.Close() }()
		publisher = producer
	} else {
		log.Info("kafka disabled, domain events are not published")
	}

	// Initialize application services
	clock := application.NewClock(time.Now, cfg.Timezone)
	bookingService := application.NewBookingService(
		st.bookings,
		st.requests,
		st.guests,
		catalog,
		st.tx,
		lock.NewKeyedMutex(),
		clock,
		publisher,
		log,
	)
	cancellationService := application.NewCancellationService(bookingService, st.requests, log)
	roomService := application.NewRoomService(catalog, st.bookings)
	guestService := application.NewGuestService(st.guests, clock, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Payment event consumer
	if cfg.KafkaConfig.Enabled {
		groupID := cfg.KafkaConfig.GroupPrefix + "booking-service"
		paymentConsumer := bookingEvents.NewPaymentEventConsumer(
			cfg.KafkaConfig.Brokers,
			groupID,
			bookingService,
			log,
		)
		defer func() { _ = paymentConsumer.Close() }()

		go func() {
			log.Info("starting payment event consumer")
			if err := paymentConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("payment event consumer error", zap.Error(err))
			}
		}()
	}

	// HTTP
	if err := handler.RegisterValidators(); err != nil {
		log.Fatal("failed to register validators", zap.Error(err))
	}

	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	health.NewHandler(st.db, serviceName).RegisterRoutes(router)

	handler.NewBookingHandler(bookingService, cancellationService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewCancellationHandler(cancellationService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewRoomHandler(roomService, bookingService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewGuestHandler(guestService, bookingService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewReportHandler(bookingService).RegisterRoutes(&router.RouterGroup, jwtManager)

	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-booking...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-booking stopped")
}

func openStores(cfg *config.ServiceConfig, log *zap.Logger) (*stores, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		log.Info("using in-memory storage, data is lost on restart")
		return &stores{
			bookings: repository.NewMemoryBookingRepository(),
			requests: repository.NewMemoryCancellationRequestRepository(),
			guests:   repository.NewMemoryGuestRepository(),
			tx:       repository.NoopTransactor{},
		}, nil

	case config.StorageSQLite:
		db, err := database.ConnectSQLite(cfg.DBConfig.SQLitePath, log)
		if err != nil {
			return nil, err
		}
		if err := autoMigrate(db); err != nil {
			return nil, err
		}
		return gormStores(db), nil

	case config.StoragePostgres:
		pg := database.PostgresConfig{
			Host:     cfg.DBConfig.Host,
			Port:     cfg.DBConfig.Port,
			User:     cfg.DBConfig.User,
			Password: cfg.DBConfig.Password,
			DBName:   cfg.DBConfig.DBName,
			SSLMode:  cfg.DBConfig.SSLMode,
		}
		db, err := database.Connect(pg, log)
		if err != nil {
			return nil, err
		}
		if cfg.AppEnv == "development" {
			if err := autoMigrate(db); err != nil {
				return nil, err
			}
			log.Info("database migration completed (dev auto-migrate)")
		} else if err := database.RunMigrations(pg.DatabaseURL(), "migrations", log); err != nil {
			return nil, err
		}
		return gormStores(db), nil

	default:
		return nil, fmt.Errorf("unsupported storage %q", cfg.Storage)
	}
}

func autoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&repository.GuestModel{},
		&repository.BookingModel{},
		&repository.CancellationRequestModel{},
	); err != nil {
		return fmt.Errorf("failed to run auto-migration: %w", err)
	}
	return nil
}

func gormStores(db *gorm.DB) *stores {
	return &stores{
		db:       db,
		bookings: repository.NewGormBookingRepository(db),
		requests: repository.NewGormCancellationRequestRepository(db),
		guests:   repository.NewGormGuestRepository(db),
		tx:       repository.NewGormTransactor(db),
	}
}
