// Seed tool: fills the calculations table with randomly generated pricing
// inputs for local development and load testing.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/internal/pricing/infrastructure/persistence/mysql"
	"github.com/wyfcoding/optionpricing/pkg/config"
	"github.com/wyfcoding/optionpricing/pkg/db"
	"github.com/wyfcoding/optionpricing/pkg/logger"
	"github.com/wyfcoding/optionpricing/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/pricing/config.toml", "path to the service config file")
	count := flag.Int("count", 100, "number of calculations to generate")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{Level: cfg.Logger.Level, Format: "text", Output: "stdout"}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize database", "error", err)
	}
	defer database.Close()

	if err := database.DB.AutoMigrate(&mysql.CalculationModel{}); err != nil {
		logger.Fatal(ctx, "Failed to migrate database schema", "error", err)
	}

	repo := mysql.NewCalculationRepository(database.DB)

	inputs := make([]domain.CalculationInput, *count)
	for i := range inputs {
		inputs[i] = domain.CalculationInput{
			S0: utils.RandFloat(50, 200),
			X:  utils.RandFloat(50, 200),
			T:  utils.RandFloat(0.1, 3),
			R:  utils.RandFloat(0.01, 0.1),
			D:  utils.RandFloat(0, 0.05),
			V:  utils.RandFloat(0.1, 0.5),
		}
	}

	batch := domain.PriceBatch(inputs)
	calcs := make([]*domain.Calculation, 0, len(batch.Results))
	for _, result := range batch.Results {
		calc, err := domain.NewCalculation(result)
		if err != nil {
			continue
		}
		// Spread rows over the last 30 days so list pages look realistic.
		calc.CreatedAt = time.Now().Add(-time.Duration(utils.RandInt(0, 30*24)) * time.Hour)
		calcs = append(calcs, calc)
	}

	if err := repo.SaveBatch(ctx, calcs); err != nil {
		logger.Fatal(ctx, "Failed to save calculations", "error", err)
	}

	logger.Info(ctx, "Seeding complete", "count", len(calcs))
}
