package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rahul-omni/court-scraper/internal/api"
	"github.com/rahul-omni/court-scraper/internal/blob"
	"github.com/rahul-omni/court-scraper/internal/captcha"
	"github.com/rahul-omni/court-scraper/internal/config"
	"github.com/rahul-omni/court-scraper/internal/database"
	"github.com/rahul-omni/court-scraper/internal/driver"
	"github.com/rahul-omni/court-scraper/internal/pipeline"
	"github.com/rahul-omni/court-scraper/internal/server"
	"github.com/rahul-omni/court-scraper/internal/site"
	"github.com/rahul-omni/court-scraper/internal/store"
	"github.com/rahul-omni/court-scraper/pkg/logger"
)

func main() {
	var (
		migrate     bool
		serve       bool
		siteName    string
		caseType    string
		caseNumber  string
		filingYear  string
		listingDate string
	)
	flag.BoolVar(&migrate, "migrate", false, "Run database migrations and exit")
	flag.BoolVar(&serve, "serve", false, "Start the HTTP server")
	flag.StringVar(&siteName, "site", "delhi-high-court", "Site adapter to scrape")
	flag.StringVar(&caseType, "case-type", "", "Case type to search for")
	flag.StringVar(&caseNumber, "case-number", "", "Case number to search for")
	flag.StringVar(&filingYear, "year", "", "Filing year to search for")
	flag.StringVar(&listingDate, "date", "", "Listing date (cause list / judgment day sites)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := database.Initialize(cfg.DatabasePath)
	if err != nil {
		log.Fatal("Failed to initialize database", "error", err)
	}

	if migrate {
		if err := database.Migrate(db); err != nil {
			log.Fatal("Failed to run migrations", "error", err)
		}
		log.Info("Database migrations completed successfully")
		return
	}

	gormStore := store.NewGormStore(db, cfg.CacheTTL)
	blobStore := buildBlobStore(cfg, log)
	oracle := buildOracle(cfg)

	pl := pipeline.New(gormStore, blobStore, oracle, cfg, log)

	registry := site.NewRegistry(
		site.NewDelhiHighCourt(cfg.CourtBaseURL),
		site.NewDistrictCauseList(cfg.DistrictBaseURL, cfg.DistrictName, cfg.EstablishmentCode),
		site.NewSupremeCourtJudgments(cfg.SupremeBaseURL),
	)

	newBrowser := func(selectors driver.Selectors) (driver.Browser, error) {
		return driver.Launch(cfg, selectors, log)
	}

	if serve {
		srv := server.New(cfg, gormStore, registry, pl, newBrowser, log)
		log.Info("Starting court scraper",
			"host", cfg.Host,
			"port", cfg.Port,
			"sites", registry.Names(),
		)
		if err := srv.Run(); err != nil {
			log.Fatal("Server failed", "error", err)
		}
		return
	}

	runOnce(cfg, registry, pl, newBrowser, log, siteName, site.SearchParams{
		CaseType:    caseType,
		CaseNumber:  caseNumber,
		FilingYear:  filingYear,
		ListingDate: listingDate,
	})
}

func runOnce(cfg *config.Config, registry *site.Registry, pl *pipeline.Pipeline, newBrowser api.BrowserFactory, log *logger.Logger, siteName string, params site.SearchParams) {
	adapter, err := registry.Get(siteName)
	if err != nil {
		log.Fatal("Unknown site", "site", siteName, "available", registry.Names())
	}

	browser, err := newBrowser(adapter.Selectors())
	if err != nil {
		log.Fatal("Failed to open browser", "error", err)
	}
	defer browser.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ScraperTimeout)
	defer cancel()

	summary := pl.Run(ctx, adapter, browser, params)

	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))

	if summary.Status != pipeline.StatusCompleted && summary.Status != pipeline.StatusNoRecordsFound {
		os.Exit(1)
	}
}

func buildBlobStore(cfg *config.Config, log *logger.Logger) blob.Store {
	if cfg.BlobBackend == "minio" {
		minioStore, err := blob.NewMinioStore(
			cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey,
			cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatal("Failed to create minio store", "error", err)
		}
		if err := minioStore.EnsureBucket(context.Background()); err != nil {
			log.Fatal("Failed to ensure minio bucket", "error", err)
		}
		return minioStore
	}
	return blob.NewLocalStore(cfg.DocumentDir)
}

func buildOracle(cfg *config.Config) captcha.Oracle {
	var oracles []captcha.Oracle
	if cfg.TwoCaptchaKey != "" {
		oracles = append(oracles, captcha.NewTwoCaptchaClient(cfg.TwoCaptchaKey, cfg.OraclePollBudget))
	}
	if cfg.AntiCaptchaKey != "" {
		oracles = append(oracles, captcha.NewAntiCaptchaClient(cfg.AntiCaptchaKey, cfg.OraclePollBudget))
	}
	return captcha.NewFallbackOracle(oracles...)
}
