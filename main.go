package main

import (
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tharun-raj/washtrack-api/cache"
	"github.com/tharun-raj/washtrack-api/config"
	"github.com/tharun-raj/washtrack-api/models"
	"github.com/tharun-raj/washtrack-api/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	setupLogging(cfg)
	log.Info().Str("env", cfg.GoEnv).Msg("starting WashTrack API server")

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.ConnectDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer func() {
		if err := config.CloseDatabase(db); err != nil {
			log.Warn().Err(err).Msg("failed to close database")
		}
	}()

	if err := migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}
	if err := seedItemTypes(db); err != nil {
		log.Fatal().Err(err).Msg("failed to seed item types")
	}
	log.Info().Msg("database migration completed")

	images := buildImageService(cfg)
	redisCache := buildCache(cfg)
	if redisCache != nil {
		defer redisCache.Close()
	}

	router := newRouter(cfg, db, images, redisCache)

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Msg("server listening")
	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// setupLogging configures the global zerolog logger from the config.
func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// migrate creates or updates the schema for every model.
func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Customer{},
		&models.Employee{},
		&models.ItemType{},
		&models.Order{},
		&models.OrderRecord{},
		&models.MachineAssignment{},
		&models.Invoice{},
	)
}

// seedItemTypes inserts the default garment item types. Existing names
// are left untouched so the seed is safe to run on every startup.
func seedItemTypes(db *gorm.DB) error {
	defaults := []string{"jeans", "jacket", "shirt", "shorts", "skirt"}
	for _, name := range defaults {
		item := models.ItemType{Name: name}
		err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&item).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// buildImageService returns the S3-backed image service when a bucket is
// configured and an in-memory mock otherwise.
func buildImageService(cfg *config.Config) services.ImageService {
	if cfg.AWSS3Bucket == "" {
		log.Warn().Msg("AWS_S3_BUCKET not set, damage photos stored in memory")
		return services.NewMockImageService()
	}

	s3Service, err := services.NewS3Service(services.S3Options{
		Region:          cfg.AWSRegion,
		Bucket:          cfg.AWSS3Bucket,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize S3 client")
	}
	return services.NewImageService(s3Service)
}

// buildCache returns a connected Redis cache, or a disabled one when
// Redis is turned off or unreachable.
func buildCache(cfg *config.Config) *cache.RedisCache {
	if !cfg.RedisEnabled {
		return cache.Disabled()
	}

	c, err := cache.New(cache.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Enabled:  true,
	})
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, dashboard cache disabled")
		return cache.Disabled()
	}
	return c
}
