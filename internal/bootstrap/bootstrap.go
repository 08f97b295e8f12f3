package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appAuth "github.com/yigit/classhub/internal/app/auth"
	appControllers "github.com/yigit/classhub/internal/app/controllers"
	appMigrations "github.com/yigit/classhub/internal/app/migrations"
	appRepos "github.com/yigit/classhub/internal/app/repositories"
	appRoutes "github.com/yigit/classhub/internal/app/routes"
	appServices "github.com/yigit/classhub/internal/app/services"
	"github.com/yigit/classhub/internal/config"
	"github.com/yigit/classhub/internal/db"
	appMiddleware "github.com/yigit/classhub/internal/middleware"
	pkgAuth "github.com/yigit/classhub/internal/pkg/auth"
	"github.com/yigit/classhub/internal/pkg/email"
	"github.com/yigit/classhub/internal/pkg/helpers"
	"github.com/yigit/classhub/internal/pkg/logger"
	"github.com/yigit/classhub/internal/pkg/metrics"
	"github.com/yigit/classhub/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	AuthService     *appServices.AuthService
	BoardService    appServices.BoardService
	PostService     appServices.PostService
	ReactionService appServices.ReactionService
	CommentService  appServices.CommentService
	AdminService    appServices.AdminService
	Controllers     appRoutes.Controllers
	AuthMiddleware  *appMiddleware.AuthMiddleware
	Repos           *appRepos.Repositories
	JWTService      *pkgAuth.JWTService
	AuthzService    *appAuth.AuthorizationService
	EmailService    email.EmailService
	Metrics         *metrics.Metrics
	Logger          zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := config.GetEnv("CONFIG_PATH", filepath.Join("configs", "config.yaml"))
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	lgr := logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase connects, applies migrations and creates the default data.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		database.Close()
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database.Pool, lgr)
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		database.Close()
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	repos := appRepos.NewRepositories(database)
	opts := seed.Options{
		Grade:         cfg.Classroom.Grade,
		ClassNo:       cfg.Classroom.ClassNo,
		AdminEmail:    cfg.Admin.Email,
		AdminName:     cfg.Admin.Name,
		AdminPassword: cfg.Admin.Password,
	}
	if err := seed.CreateDefaultData(ctx, repos.BoardRepository, repos.ClassroomRepository, repos.UserRepository, opts, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	if n, err := repos.TokenRepository.CleanupExpiredTokens(ctx); err != nil {
		lgr.Warn().Err(err).Msg("Failed to clean up expired refresh tokens")
	} else if n > 0 {
		lgr.Info().Int64("removed", n).Msg("Expired refresh tokens removed")
	}

	return database, nil
}

// BuildDependencies initializes repositories, services and controllers.
func BuildDependencies(cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr, Metrics: metrics.New()}

	deps.Repos = appRepos.NewRepositories(database)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	deps.EmailService = email.NewEmailService(email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
		UseTLS:    cfg.SMTP.UseTLS,
		BaseURL:   cfg.SMTP.BaseURL,
	}, lgr.With().Str("component", "email").Logger())

	deps.AuthzService = appAuth.NewAuthorizationService(deps.Repos.PostRepository, deps.Repos.CommentRepository)
	classroom := appServices.ClassroomRef{Grade: cfg.Classroom.Grade, ClassNo: cfg.Classroom.ClassNo}

	deps.AuthService = appServices.NewAuthService(
		deps.Repos.UserRepository,
		deps.Repos.TokenRepository,
		deps.Repos.ClassroomRepository,
		deps.JWTService,
		classroom,
		deps.Metrics,
		lgr,
	)
	deps.BoardService = appServices.NewBoardService(deps.Repos.BoardRepository)
	deps.PostService = appServices.NewPostService(
		deps.Repos.PostRepository,
		deps.Repos.BoardRepository,
		deps.Repos.ClassroomRepository,
		deps.AuthzService,
		classroom,
		lgr,
	)
	deps.ReactionService = appServices.NewReactionService(deps.Repos.ReactionRepository, deps.Metrics, lgr)
	deps.CommentService = appServices.NewCommentService(
		deps.Repos.CommentRepository,
		deps.Repos.PostRepository,
		deps.AuthzService,
		deps.Metrics,
		lgr,
	)
	deps.AdminService = appServices.NewAdminService(
		deps.Repos.UserRepository,
		deps.Repos.PostRepository,
		deps.Repos.ReactionRepository,
		deps.EmailService,
		deps.Metrics,
		lgr,
	)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, deps.Repos.UserRepository)

	deps.Controllers = appRoutes.Controllers{
		Auth:     appControllers.NewAuthController(deps.AuthService, lgr),
		Board:    appControllers.NewBoardController(deps.BoardService, lgr),
		Post:     appControllers.NewPostController(deps.PostService, lgr),
		Reaction: appControllers.NewReactionController(deps.ReactionService, lgr),
		Comment:  appControllers.NewCommentController(deps.CommentService, lgr),
		Admin:    appControllers.NewAdminController(deps.AdminService, lgr),
		Health:   appControllers.NewHealthController(database, lgr),
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(
		appMiddleware.Recovery(lgr),
		appMiddleware.RequestLogger(lgr),
		appMiddleware.Metrics(deps.Metrics),
		cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins(),
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)

	appRoutes.SetupSwagger(router)
	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)

	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
