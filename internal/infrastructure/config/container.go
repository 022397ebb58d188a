package config

import (
	"context"
	"fmt"
	"go-file-duplicates/internal/domain/repositories"
	"go-file-duplicates/internal/domain/services"
	"go-file-duplicates/internal/infrastructure/database"
	"go-file-duplicates/internal/infrastructure/repositories/sqlite"
	infraServices "go-file-duplicates/internal/infrastructure/services"
	"go-file-duplicates/internal/interfaces/controllers"
	"go-file-duplicates/internal/usecases"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Container holds all dependencies for the application
type Container struct {
	// Configuration
	Config *Config
	Logger *logrus.Logger

	// Database; nil when persistence is disabled
	DB *sqlx.DB

	// Repositories
	ScanRepo repositories.ScanRepository

	// Services
	StorageProvider services.StorageProvider
	HashService     *infraServices.HashService

	// Use Cases
	FileScanningUseCase     *usecases.FileScanningUseCase
	DuplicateFindingUseCase *usecases.DuplicateFindingUseCase
	FileCleanupUseCase      *usecases.FileCleanupUseCase

	// Controllers
	DuplicateController *controllers.DuplicateController
	CleanupController   *controllers.CleanupController
}

// NewContainer creates and initializes a new dependency injection container
func NewContainer(config *Config) (*Container, error) {
	return NewContainerWithFs(config, afero.NewOsFs())
}

// NewContainerWithFs creates a container whose storage provider works on fs
func NewContainerWithFs(config *Config, fs afero.Fs) (*Container, error) {
	logger, err := NewLogger(config.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	container := &Container{
		Config: config,
		Logger: logger,
	}

	if err := container.initializeDatabase(); err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := container.initializeServices(fs); err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	container.initializeUseCases()
	container.initializeControllers()

	return container, nil
}

func (c *Container) initializeDatabase() error {
	if !c.Config.Database.Enabled {
		c.Logger.Info("💤 Persistence disabled; scans are not stored")
		return nil
	}

	db, err := database.Open(database.Options{
		Path:         c.Config.Database.Path,
		MaxOpenConns: c.Config.Database.MaxOpenConns,
		MaxIdleConns: c.Config.Database.MaxIdleConns,
	}, c.Logger)
	if err != nil {
		return err
	}
	c.DB = db

	if err := database.NewMigrator(db, c.Logger).Run(context.Background()); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	c.ScanRepo = sqlite.NewScanRepository(db)
	return nil
}

func (c *Container) initializeServices(fs afero.Fs) error {
	c.StorageProvider = infraServices.NewLocalStorageProvider(fs, c.Logger)

	hashService, err := infraServices.NewHashService(
		c.StorageProvider,
		c.Config.Hash.PartialAlgorithm,
		c.Config.Hash.FullAlgorithm,
	)
	if err != nil {
		return err
	}
	hashService.SetWorkerCount(c.Config.Hash.WorkerCount)
	hashService.SetBufferSize(c.Config.Hash.BufferSize)
	c.HashService = hashService

	return nil
}

func (c *Container) initializeUseCases() {
	c.FileScanningUseCase = usecases.NewFileScanningUseCase(c.StorageProvider, c.Logger)

	c.DuplicateFindingUseCase = usecases.NewDuplicateFindingUseCase(
		c.FileScanningUseCase,
		c.HashService,
		c.ScanRepo,
		c.Logger,
	)

	c.FileCleanupUseCase = usecases.NewFileCleanupUseCase(
		c.StorageProvider,
		c.HashService,
		c.ScanRepo,
		c.Logger,
	)
	c.FileCleanupUseCase.SetWorkerCount(c.Config.Deletion.WorkerCount)
	c.FileCleanupUseCase.SetVerifyContent(c.Config.Deletion.VerifyContent)
}

func (c *Container) initializeControllers() {
	timeout := c.Config.Server.GetWriteTimeout()
	c.DuplicateController = controllers.NewDuplicateController(c.DuplicateFindingUseCase, c.Config.ScanOptions(), timeout, c.Logger)
	c.CleanupController = controllers.NewCleanupController(c.FileCleanupUseCase, c.Config.RetentionRule(), timeout)
}

// Close properly shuts down all resources
func (c *Container) Close() error {
	var firstErr error
	if c.DB != nil {
		firstErr = c.DB.Close()
	}
	if c.Logger != nil {
		if err := closeLogOutput(c.Logger); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Health check methods

// CheckDatabaseHealth pings the database; a disabled database is reported as an error
func (c *Container) CheckDatabaseHealth() error {
	if c.DB == nil {
		return fmt.Errorf("persistence disabled")
	}
	return c.DB.Ping()
}
