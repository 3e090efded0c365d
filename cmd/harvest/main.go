package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bobmcallan/harvest/internal/clients/yahoo"
	"github.com/bobmcallan/harvest/internal/common"
	"github.com/bobmcallan/harvest/internal/models"
	"github.com/bobmcallan/harvest/internal/services/harvest"
	"github.com/bobmcallan/harvest/internal/storage/harvestfs"
)

// defaultSymbols is used when neither config nor flags name a portfolio.
var defaultSymbols = []string{
	"AAPL", "GOOGL", "MSFT", "AMZN", "META",
	"TSLA", "NVDA", "JPM", "V", "WMT",
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "harvest: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	godotenv.Load()

	var (
		configPath = flag.String("config", os.Getenv("HARVEST_CONFIG"), "path to TOML config file")
		symbolsArg = flag.String("symbols", "", "comma-separated symbols (overrides config)")
		fromArg    = flag.String("from", "", "start date YYYY-MM-DD (overrides config)")
		toArg      = flag.String("to", "", "end date YYYY-MM-DD (overrides config)")
		workersArg = flag.Int("workers", 0, "max concurrent fetches (overrides config)")
		dataArg    = flag.String("data", "", "data directory (overrides config)")
	)
	flag.Parse()

	config, err := common.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *symbolsArg != "" {
		config.Harvest.Symbols = common.SplitSymbols(*symbolsArg)
	}
	if *fromArg != "" {
		config.Harvest.StartDate = *fromArg
	}
	if *toArg != "" {
		config.Harvest.EndDate = *toArg
	}
	if *workersArg > 0 {
		config.Harvest.MaxWorkers = *workersArg
	}
	if *dataArg != "" {
		config.Storage.Path = *dataArg
	}

	logger := common.NewLogger(config.Logging.Level)
	logger.Info().
		Str("version", common.GetVersion()).
		Str("build", common.GetBuild()).
		Msg("Harvest starting")

	symbols := config.Harvest.Symbols
	if len(symbols) == 0 {
		symbols = defaultSymbols
	}

	from, to, err := config.Harvest.DateRange()
	if err != nil {
		return err
	}

	store, err := harvestfs.NewStore(logger, config.Storage.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	client := yahoo.NewClient(
		yahoo.WithBaseURL(config.Clients.Yahoo.BaseURL),
		yahoo.WithRateLimit(config.Clients.Yahoo.RateLimit),
		yahoo.WithTimeout(config.Clients.Yahoo.GetTimeout()),
		yahoo.WithLogger(logger),
	)

	service := harvest.NewService(client, store, logger, config.Harvest)

	requests := make([]models.Request, len(symbols))
	for i, sym := range symbols {
		requests[i] = models.NewRequest(sym, from, to)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := service.Run(ctx, requests)
	if err != nil {
		return err
	}

	printSummary(report)

	if len(requests) > 0 && report.SuccessfulCount == 0 {
		return fmt.Errorf("all %d symbols failed", report.FailedCount)
	}
	return nil
}

// printSummary writes the per-symbol metrics and errors to stdout in a
// stable order.
func printSummary(report *models.Report) {
	fmt.Printf("\nSummary Metrics (%s .. %s):\n", report.StartDate, report.EndDate)
	fmt.Println("--------------------------------------------------")

	symbols := make([]string, 0, len(report.MetricsBySymbol))
	for sym := range report.MetricsBySymbol {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	for _, sym := range symbols {
		m := report.MetricsBySymbol[sym]
		fmt.Printf("\n%s:\n", sym)
		fmt.Printf("  avg_volume: %.2f\n", m.AvgVolume)
		fmt.Printf("  avg_price: %.2f\n", m.AvgPrice)
		fmt.Printf("  annualized_volatility: %.4f\n", m.AnnualizedVolatility)
		fmt.Printf("  max_price: %.2f\n", m.MaxPrice)
		fmt.Printf("  min_price: %.2f\n", m.MinPrice)
		fmt.Printf("  price_range: %.2f\n", m.PriceRange)
		fmt.Printf("  trading_days: %d\n", m.TradingDays)
	}

	if len(report.Errors) > 0 {
		fmt.Println("\nErrors:")
		fmt.Println("--------------------------------------------------")
		failed := make([]string, 0, len(report.Errors))
		for sym := range report.Errors {
			failed = append(failed, sym)
		}
		sort.Strings(failed)
		for _, sym := range failed {
			fmt.Printf("%s: %s\n", sym, report.Errors[sym])
		}
	}

	fmt.Printf("\nCompleted in %s: %d successful, %d failed\n",
		(time.Duration(report.DurationMS) * time.Millisecond).Round(time.Millisecond),
		report.SuccessfulCount, report.FailedCount)
}
