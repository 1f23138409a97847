// Command gnssfuse fuses position logs from multiple GNSS rovers mounted
// on a common platform into a single corrected trajectory.
//
// The normal flow is: load the run configuration, parse every rover's
// .pos log, run the per-epoch fusion pipeline, then write the fused .pos
// table and (optionally) persist the run to sqlite and serve it over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gnss-data/gnssfuse/internal/api"
	"github.com/gnss-data/gnssfuse/internal/config"
	"github.com/gnss-data/gnssfuse/internal/db"
	"github.com/gnss-data/gnssfuse/internal/engine"
	"github.com/gnss-data/gnssfuse/internal/fusion"
	"github.com/gnss-data/gnssfuse/internal/igs"
	"github.com/gnss-data/gnssfuse/internal/monitor"
	"github.com/gnss-data/gnssfuse/internal/pos"
)

var (
	configPath  = flag.String("config", "gnssfuse.json", "Run configuration file")
	output      = flag.String("out", "", "Fused .pos output path (overrides config)")
	dbPath      = flag.String("db", "", "Sqlite database path (overrides config; empty disables persistence)")
	listen      = flag.String("listen", "", "Listen address for -serve (overrides config)")
	serve       = flag.Bool("serve", false, "Serve stored runs over HTTP after fusing")
	plotsDir    = flag.String("plots", "", "Write trajectory PNGs into this directory")
	fetchDate   = flag.String("fetch-products", "", "Fetch IGS correction products for this date (YYYY-MM-DD) and exit")
	productsDir = flag.String("products-dir", "products", "Destination directory for fetched products")
	migrateOp   = flag.String("migrate", "", "Run database migrations (up|down|version) against -db and exit")
	migrations  = flag.String("migrations", "internal/db/migrations", "Migrations directory for -migrate")
)

func main() {
	flag.Parse()

	if *fetchDate != "" {
		if err := fetchProducts(*fetchDate, *productsDir); err != nil {
			log.Fatalf("failed to fetch products: %v", err)
		}
		return
	}

	if *migrateOp != "" {
		if err := runMigration(*migrateOp, *dbPath, *migrations); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if *output != "" {
		cfg.Output = *output
	}
	if *dbPath != "" {
		cfg.Database = *dbPath
	}
	if *listen != "" {
		cfg.Listen = *listen
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	series, err := loadRoverSeries(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	result, err := fusion.Run(series, cfg.PairThresholds())
	if err != nil {
		log.Fatalf("fusion run failed: %v", err)
	}
	log.Printf("fused %d epochs (%s - %s), repaired %d",
		result.Stats.Epochs,
		result.Stats.TMin.Format(time.RFC3339),
		result.Stats.TMax.Format(time.RFC3339),
		result.Stats.RepairedEpochs)
	for rover, n := range result.Stats.RepairsByRover {
		log.Printf("  %s: %d repaired epoch(s)", rover, n)
	}

	if cfg.Output != "" {
		if err := writeFused(cfg.Output, result); err != nil {
			log.Fatalf("failed to write fused output: %v", err)
		}
		log.Printf("wrote fused series to %s", cfg.Output)
	}

	if *plotsDir != "" {
		rovers := make(map[string][]pos.PositionRecord, len(result.Rovers))
		for _, s := range result.Rovers {
			rovers[s.Name] = s.Records()
		}
		fused := make([]pos.PositionRecord, len(result.Fused))
		for i, rec := range result.Fused {
			fused[i] = rec.PositionRecord
		}
		if err := monitor.SaveTrajectoryPlots(*plotsDir, rovers, fused); err != nil {
			log.Fatalf("failed to write plots: %v", err)
		}
		log.Printf("wrote trajectory plots to %s", *plotsDir)
	}

	if cfg.Database == "" {
		if *serve {
			log.Fatal("-serve requires a database path")
		}
		return
	}

	database, err := db.NewDB(cfg.Database)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	runID, err := database.SaveRun(result)
	if err != nil {
		log.Fatalf("failed to persist run: %v", err)
	}
	log.Printf("stored run %s", runID)

	if !*serve {
		return
	}
	if cfg.Listen == "" {
		cfg.Listen = ":8080"
	}
	serveHTTP(ctx, cfg.Listen, database)
}

// loadRoverSeries parses each rover's .pos log, invoking the external
// positioning engine first for rovers that only provide an observation
// file.
func loadRoverSeries(ctx context.Context, cfg *config.Config) ([]*pos.RoverSeries, error) {
	runner := engine.NewRunner(os.Getenv("RNX2RTKP_PATH"), os.Getenv("RNX2RTKP_CONF"))

	series := make([]*pos.RoverSeries, 0, len(cfg.Rovers))
	for _, rc := range cfg.Rovers {
		if _, err := os.Stat(rc.PosFile); os.IsNotExist(err) && rc.ObsFile != "" {
			if cfg.Base == nil || cfg.Base.ObsFile == "" {
				return nil, fmt.Errorf("rover %s needs the positioning engine but no base observation file is configured", rc.Name)
			}
			log.Printf("running positioning engine for %s...", rc.Name)
			if err := runner.Run(ctx, rc.ObsFile, cfg.Base.ObsFile, rc.PosFile, nil); err != nil {
				return nil, err
			}
		}

		log.Printf("parsing %s...", rc.Name)
		s, err := pos.ParseFile(rc.Name, rc.PosFile)
		if err != nil {
			return nil, err
		}
		if s.Len() == 0 {
			return nil, fmt.Errorf("rover %s: log %s contains no records", rc.Name, rc.PosFile)
		}
		series = append(series, s)
	}
	return series, nil
}

func writeFused(path string, result *fusion.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := result.WritePos(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func runMigration(op, dbPath, migrationsDir string) error {
	if dbPath == "" {
		return fmt.Errorf("-migrate requires -db")
	}
	database, err := db.NewDB(dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	switch op {
	case "up":
		return database.MigrateUp(migrationsDir)
	case "down":
		return database.MigrateDown(migrationsDir)
	case "version":
		version, dirty, err := database.MigrateVersion(migrationsDir)
		if err != nil {
			return err
		}
		log.Printf("migration version %d (dirty=%v)", version, dirty)
		return nil
	default:
		return fmt.Errorf("unknown migration operation %q (want up, down or version)", op)
	}
}

func fetchProducts(date, destDir string) error {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return fmt.Errorf("bad -fetch-products date %q: %w", date, err)
	}
	if day.After(time.Now()) {
		return fmt.Errorf("product date %s is in the future", date)
	}

	user, pass := os.Getenv("NASA_USER"), os.Getenv("NASA_PWD")
	if user == "" || pass == "" {
		return fmt.Errorf("NASA_USER and NASA_PWD environment variables must be set")
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return err
	}

	files, err := igs.NewDownloader(user, pass).FetchProducts(context.Background(), igs.NewGPSDate(day), destDir)
	if err != nil {
		return err
	}
	for kind, file := range files {
		log.Printf("fetched %s: %s", kind, file)
	}
	return nil
}

// serveHTTP mounts the API and monitor routes and serves until the
// context is cancelled.
func serveHTTP(ctx context.Context, addr string, database *db.DB) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()
		apiMux := api.NewServer(database).ServeMux()
		mux.Handle("/api/", http.StripPrefix("/api", apiMux))
		monitorMux := monitor.NewWebServer(database).ServeMux()
		mux.Handle("/monitor/", http.StripPrefix("/monitor", monitorMux))

		server := &http.Server{
			Addr:    addr,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			log.Printf("serving on %s", addr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
	}()
	wg.Wait()
	log.Printf("graceful shutdown complete")
}
