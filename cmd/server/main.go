package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"upbilling/config"
	"upbilling/db"
	"upbilling/db/mongo"
	"upbilling/db/postgres"
	"upbilling/forms"
	"upbilling/handlers"
	"upbilling/models"
	"upbilling/redmine"
	"upbilling/repository"
	"upbilling/routes"
	"upbilling/templates"
	"upbilling/utils"
)

type stores struct {
	quotes   repository.QuoteRepository
	invoices repository.InvoiceRepository
	issuer   repository.IssuerRepository
	users    repository.UserRepository
	close    func()
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	cfg.Level = lvl
	return cfg.Build()
}

func openStores(cfg *config.Config, log *zap.Logger) (*stores, error) {
	kind, err := db.ParseDBType(cfg.DBType)
	if err != nil {
		return nil, err
	}

	switch kind {
	case db.Postgres:
		if err := db.RunMigrations(cfg.PostgresURL, cfg.MigrationsPath, log); err != nil {
			return nil, err
		}
		pg := postgres.NewPostgresDB(cfg.PostgresURL, postgres.Pool{
			MaxOpen:     cfg.PGMaxOpenConns,
			MaxIdle:     cfg.PGMaxIdleConns,
			MaxLifetime: cfg.PGConnMaxLifetime,
		})
		if err := pg.Connect(); err != nil {
			return nil, err
		}
		return &stores{
			quotes:   repository.NewPostgresQuoteRepo(pg.Conn),
			invoices: repository.NewPostgresInvoiceRepo(pg.Conn),
			issuer:   repository.NewPostgresIssuerRepo(pg.Conn),
			users:    repository.NewPostgresUserRepo(pg.Conn),
			close:    func() { _ = pg.Disconnect() },
		}, nil

	case db.Mongo:
		mg := mongo.NewMongoDB(cfg.MongoURL, cfg.MongoDB)
		if err := mg.Connect(); err != nil {
			return nil, err
		}
		database := mg.Database()
		return &stores{
			quotes:   repository.NewMongoQuoteRepo(database),
			invoices: repository.NewMongoInvoiceRepo(database),
			issuer:   repository.NewMongoIssuerRepo(database),
			users:    repository.NewMongoUserRepo(database),
			close:    func() { _ = mg.Disconnect() },
		}, nil

	default:
		log.Warn("using in-memory store, data is lost on restart")
		mem := repository.NewMemoryStore()
		return &stores{
			quotes:   repository.NewMemoryQuoteRepo(mem),
			invoices: repository.NewMemoryInvoiceRepo(mem),
			issuer:   repository.NewMemoryIssuerRepo(mem),
			users:    repository.NewMemoryUserRepo(mem),
			close:    func() {},
		}, nil
	}
}

// bootstrapAdmin creates the first account from ADMIN_EMAIL and ADMIN_PASSWORD when no user exists.
func bootstrapAdmin(ctx context.Context, cfg *config.Config, users repository.UserRepository, log *zap.Logger) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}
	n, err := users.CountUsers(ctx)
	if err != nil || n > 0 {
		return err
	}
	admin := &models.AppUser{Name: "Administrator", Email: cfg.AdminEmail, Role: forms.RoleAdmin, Password: cfg.AdminPassword}
	if err := users.CreateUser(ctx, admin); err != nil {
		return err
	}
	log.Info("admin account created", zap.String("email", admin.Email))
	return nil
}

func main() {
	// Load config from .env or environment
	cfg := config.LoadConfig()

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(cfg, log)
	if err != nil {
		log.Fatal("open store", zap.String("db_type", cfg.DBType), zap.Error(err))
	}
	defer st.close()

	if err := bootstrapAdmin(ctx, cfg, st.users, log); err != nil {
		log.Fatal("bootstrap admin", zap.Error(err))
	}

	var directory handlers.Directory
	if client := redmine.NewClient(cfg.RedmineURL, cfg.RedmineAPIKey); client.Configured() {
		directory = client
	} else {
		log.Warn("REDMINE_URL not set, forms use identifier fields")
	}

	var archiver handlers.Archiver
	if cfg.ArchiveEnabled() {
		r2, err := utils.NewR2Archiver(ctx, utils.R2Settings{
			Bucket:          cfg.R2Bucket,
			AccountID:       cfg.R2AccountID,
			PublicURL:       cfg.R2PublicURL,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
		})
		if err != nil {
			log.Fatal("configure archive", zap.Error(err))
		}
		archiver = r2
	}

	view := handlers.View{Templates: templates.MustLoad(), Log: log}
	h := routes.Handlers{
		Quote:     &handlers.QuoteHandler{View: view, Quotes: st.quotes, Invoices: st.invoices, Directory: directory},
		Invoice:   &handlers.InvoiceHandler{View: view, Quotes: st.quotes, Invoices: st.invoices},
		Directory: &handlers.DirectoryHandler{Directory: directory, Log: log},
		Issuer:    &handlers.IssuerHandler{Repo: st.issuer, Log: log},
		User:      &handlers.UserHandler{Repo: st.users, Log: log},
		PDF: &handlers.PDFHandler{
			View:      view,
			Repo:      repository.NewPDFRepository(st.quotes, st.invoices, st.issuer),
			Directory: directory,
			Renderer:  utils.NewChromePDF(cfg.ChromePath, cfg.PDFTimeout),
			Archiver:  archiver,
		},
	}

	var auth func(http.Handler) http.Handler
	if cfg.AuthEnabled {
		auth = handlers.BasicAuth(st.users, log, "/login")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.NewRouter(h, log, auth),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	log.Info("server running", zap.String("port", cfg.Port), zap.String("db_type", cfg.DBType))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server stopped", zap.Error(err))
	}
}
