// Command budgetctl runs the budget pipeline jobs from a shell or cron:
// closing periods, generating alerts and suggesting budgets.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"budgetpace/internal/config"
	"budgetpace/internal/database"
	"budgetpace/internal/logger"
	"budgetpace/internal/notify"
	"budgetpace/internal/period"
	"budgetpace/internal/repository"
	"budgetpace/internal/services"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:               "budgetctl",
		Short:             "Run budget pipeline jobs",
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./budgetctl.toml)")
	rootCmd.PersistentFlags().String("date", "", "as-of date YYYY-MM-DD (default: today, UTC)")
	rootCmd.PersistentFlags().Bool("compact", false, "print JSON on a single line")

	_ = viper.BindPFlag("date", rootCmd.PersistentFlags().Lookup("date"))
	_ = viper.BindPFlag("compact", rootCmd.PersistentFlags().Lookup("compact"))

	rootCmd.AddCommand(closePeriodCmd())
	rootCmd.AddCommand(closeDueCmd())
	rootCmd.AddCommand(generateAlertsCmd())
	rootCmd.AddCommand(suggestCmd())
}

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("budgetctl")
		viper.SetConfigType("toml")
	}

	viper.SetEnvPrefix("BUDGETCTL")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

// asOf returns the --date value as a UTC calendar day.
func asOf() (time.Time, error) {
	raw := viper.GetString("date")
	if raw == "" {
		return period.Date(time.Now().UTC()), nil
	}
	return parseDay(raw)
}

func parseDay(raw string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return t, nil
}

// app holds the services a job needs, bound to one database connection.
type app struct {
	tracking services.TrackingServicer
	periods  services.PeriodServicer
	alerts   services.AlertServicer
	close    func()
}

func openApp() (*app, error) {
	log := logger.Get()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}

	var publisher notify.Publisher = notify.Nop{}
	if cfg.AMQPURL != "" {
		pub, err := notify.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			_ = dbManager.Close()
			return nil, fmt.Errorf("failed to connect alert publisher: %w", err)
		}
		publisher = pub
	}

	store := repository.NewStore(dbManager.DB())
	return &app{
		tracking: services.NewTrackingService(store, cfg.Engine),
		periods:  services.NewPeriodService(store, cfg.Engine),
		alerts:   services.NewAlertService(store, publisher, cfg.Engine),
		close: func() {
			if err := publisher.Close(); err != nil {
				log.Warnw("failed to close alert publisher", "error", err)
			}
			if err := dbManager.Close(); err != nil {
				log.Warnw("failed to close database", "error", err)
			}
		},
	}, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	if !viper.GetBool("compact") {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
