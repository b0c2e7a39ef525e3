package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"planwise/internal/config"
	"planwise/internal/database"
	"planwise/internal/progress"
	"planwise/internal/repository"
	"planwise/internal/service"
)

func main() {
	// Define subcommands
	rebuildCmd := flag.NewFlagSet("rebuild", flag.ExitOnError)
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)

	// Rebuild flags
	rebuildUser := rebuildCmd.Int64("user", 0, "User ID to rebuild (default: all users)")

	// Export flags
	exportUser := exportCmd.Int64("user", 0, "User ID to export (required)")
	exportOutput := exportCmd.String("output", "", "Output file path (default: stats_<user>_YYYYMMDD_HHMMSS.json)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx := context.Background()

	// Initialize database
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations to ensure schema is up to date
	if err := db.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	users := repository.NewUserRepository(db)
	plannings := repository.NewPlanningRepository(db)
	tasks := repository.NewTaskRepository(db)
	stats := repository.NewStatsRepository(db)
	points := repository.NewPointsRepository(db)
	achievements := repository.NewAchievementRepository(db)

	switch os.Args[1] {
	case "rebuild":
		rebuildCmd.Parse(os.Args[2:])
		engine := progress.NewEngine(progress.Stores{
			Plannings:    plannings,
			Tasks:        tasks,
			Stats:        stats,
			Ledger:       points,
			Achievements: achievements,
		}, progress.DefaultCatalog(), progress.RealClock{})
		handleRebuild(ctx, engine, users, *rebuildUser)

	case "export":
		exportCmd.Parse(os.Args[2:])
		if *exportUser == 0 {
			fmt.Println("Error: -user flag is required")
			exportCmd.PrintDefaults()
			os.Exit(1)
		}
		statsService := service.NewStatsService(stats, tasks, plannings, points, achievements, users, progress.RealClock{})
		handleExport(ctx, statsService, *exportUser, *exportOutput)

	default:
		printUsage()
		os.Exit(1)
	}
}

func handleRebuild(ctx context.Context, engine *progress.Engine, users *repository.UserRepository, userID int64) {
	ids := []int64{userID}
	if userID == 0 {
		var err error
		if ids, err = users.ListIDs(ctx); err != nil {
			log.Fatalf("Failed to list users: %v", err)
		}
	}

	log.Printf("Rebuilding progress for %d user(s)", len(ids))
	failed := 0
	for _, id := range ids {
		report, err := engine.Rebuild(ctx, id)
		if err != nil {
			log.Printf("User %d: rebuild failed: %v", id, err)
			failed++
			continue
		}
		log.Printf("User %d: %d dates, streak %d, longest run %d, %d new badge(s)",
			id, report.Dates, report.FinalStreak, report.LongestRun, len(report.Unlocked))
	}

	if failed > 0 {
		log.Fatalf("%d rebuild(s) failed", failed)
	}
	log.Println("Rebuild complete!")
}

func handleExport(ctx context.Context, statsService *service.StatsService, userID int64, outputPath string) {
	// Generate default filename if not provided
	if outputPath == "" {
		timestamp := time.Now().Format("20060102_150405")
		outputPath = fmt.Sprintf("stats_%d_%s.json", userID, timestamp)
	}

	// Ensure directory exists
	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create output directory: %v", err)
		}
	}

	export, err := statsService.Export(ctx, userID)
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode export: %v", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		log.Fatalf("Failed to write export: %v", err)
	}

	log.Printf("Export complete! %s: %d points (level %d), %d daily stats, %d achievements -> %s",
		export.User.Username, export.Ledger.TotalPoints, export.Ledger.Level,
		len(export.Stats), len(export.Achievements), outputPath)
}

func printUsage() {
	fmt.Println("Planwise Stats Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  statsctl rebuild [-user ID]")
	fmt.Println("  statsctl export -user ID [-output FILE]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  rebuild   Recompute daily stats, streaks and badges from tasks")
	fmt.Println("  export    Write a user's derived progress state to JSON")
}
