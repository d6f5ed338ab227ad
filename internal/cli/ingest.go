package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/huyaboo/saved-objects-ddb-ingestor/internal/config"
	"github.com/huyaboo/saved-objects-ddb-ingestor/internal/fakedata"
	"github.com/huyaboo/saved-objects-ddb-ingestor/internal/files/loader"
	"github.com/huyaboo/saved-objects-ddb-ingestor/internal/logging"
	"github.com/huyaboo/saved-objects-ddb-ingestor/internal/services"
	"github.com/huyaboo/saved-objects-ddb-ingestor/internal/transform"
	"github.com/huyaboo/saved-objects-ddb-ingestor/internal/tui"
	"github.com/huyaboo/saved-objects-ddb-ingestor/pkg/ingestor"
)

const (
	envTable    = "INGESTOR_TABLE"
	envRegion   = "AWS_REGION"
	envEndpoint = "INGESTOR_DYNAMODB_ENDPOINT"
)

// connectDynamoDB is replaced in tests.
var connectDynamoDB services.Connector = services.ConnectDynamoDB

func runIngest(cmd *cobra.Command, flags *rootFlags, args []string) error {
	if len(args) > maxPositionalArgs {
		fmt.Fprintln(cmd.OutOrStdout(), usageLine)
		return nil
	}

	pos, err := parsePositionalArgs(args)
	if err != nil {
		return err
	}

	_ = godotenv.Load()

	projectCfg, err := loadProjectConfig(flags.configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}

	cfg, err := resolveIngestConfig(cmd, flags, pos, projectCfg)
	if err != nil {
		return err
	}

	interactive := tui.IsInteractive()
	var logger *logging.ConsoleLogger
	if interactive {
		logger = logging.NewConsoleLogger(cfg.Verbose)
	} else {
		logger = logging.NewWriterLogger(cmd.ErrOrStderr(), cfg.Verbose)
	}
	logConfigVerbose(logger, cfg)

	ctx, cancel := newRunContext(cmd.Context(), cfg.Timeout)
	defer cancel()

	// Handle interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			logger.Error("Received interrupt signal, cancelling ingestion...")
			cancel()
		case <-ctx.Done():
		}
	}()

	svc := services.NewIngestionService(
		services.NewDynamoWriterFactory(connectDynamoDB, logger),
		loader.NewLoader(),
		transform.New(fakedata.New()),
		logger,
	)

	var display *tui.ProgressDisplay
	if interactive {
		display = tui.StartProgress(cmd.ErrOrStderr(), "Writing saved objects to "+cfg.TableName, 0)
		logger.SetOutput(display)
		svc = svc.WithProgress(display)
	} else {
		svc = svc.WithProgress(ingestor.ProgressFunc(func(written, total int) {
			logger.Verbose("Wrote %d/%d records", written, total)
		}))
	}

	result, err := svc.Ingest(ctx, cfg)
	if display != nil {
		display.Finish(fmt.Sprintf("Wrote %d records to %s", result.Written, cfg.TableName), err)
	}
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Finished inserting %d records.\n", result.Written)
	return nil
}

func newRunContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	if timeout > 0 {
		return context.WithTimeout(parent, timeout)
	}
	return context.WithCancel(parent)
}

// loadProjectConfig returns nil when the config file does not exist, unless
// the path was given explicitly.
func loadProjectConfig(path string, explicit bool) (*config.ProjectConfig, error) {
	projectCfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) && !explicit {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to load %s: %w", ingestor.ErrInvalidConfig, path, err)
	}
	return projectCfg, nil
}

// resolveIngestConfig merges positional arguments, flags, environment and
// the project config. Precedence: flag > environment > config file > default.
func resolveIngestConfig(
	cmd *cobra.Command,
	flags *rootFlags,
	pos positionalArgs,
	projectCfg *config.ProjectConfig,
) (ingestor.IngestConfig, error) {
	if projectCfg == nil {
		projectCfg = &config.ProjectConfig{}
	}
	changed := cmd.Flags().Changed

	cfg := ingestor.IngestConfig{
		NumRecords:       pos.numRecords,
		TemplatePath:     pos.templatePath,
		ReplaceTimestamp: pos.replaceTimestamp,
		ReplaceTitle:     pos.replaceTitle,
		TableName:        resolveString(changed("table"), flags.table, envTable, projectCfg.Table),
		Region:           resolveString(changed("region"), flags.region, envRegion, projectCfg.Region),
		Endpoint:         resolveString(changed("endpoint"), flags.endpoint, envEndpoint, projectCfg.Endpoint),
		CreateTable:      flags.createTable,
		MaxRetries:       flags.maxRetries,
		Timeout:          flags.timeout,
		Verbose:          flags.verbose,
	}

	if !changed("create-table") && projectCfg.CreateTable != nil {
		cfg.CreateTable = *projectCfg.CreateTable
	}
	if !changed("max-retries") && projectCfg.MaxRetries != nil {
		cfg.MaxRetries = *projectCfg.MaxRetries
	}
	if !changed("timeout") && projectCfg.Timeout != "" {
		timeout, err := projectCfg.TimeoutDuration()
		if err != nil {
			return cfg, fmt.Errorf("%w: %s: %w", ingestor.ErrInvalidConfig, config.ConfigFileName, err)
		}
		cfg.Timeout = timeout
	}

	return cfg, nil
}

// resolveString picks the flag value when it was set explicitly, then the
// environment variable, then the config file value, then the flag default.
func resolveString(flagSet bool, flagValue, envKey, fileValue string) string {
	if flagSet {
		return flagValue
	}
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		return v
	}
	if fileValue != "" {
		return fileValue
	}
	return flagValue
}

func logConfigVerbose(logger ingestor.Logger, cfg ingestor.IngestConfig) {
	logger.Verbose("Configuration resolved:")
	logger.Verbose("  Records per template: %d", cfg.NumRecords)
	logger.Verbose("  Saved objects file: %s", cfg.TemplatePath)
	logger.Verbose("  Replace timestamp: %t", cfg.ReplaceTimestamp)
	logger.Verbose("  Replace title: %t", cfg.ReplaceTitle)
	logger.Verbose("  Table: %s", cfg.TableName)
	logger.Verbose("  Region: %s", valueOr(cfg.Region, "(AWS default)"))
	logger.Verbose("  Endpoint: %s", valueOr(cfg.Endpoint, "(AWS default)"))
	logger.Verbose("  Create table: %t", cfg.CreateTable)
	logger.Verbose("  Max retries: %d", cfg.MaxRetries)
	logger.Verbose("  Timeout: %v", cfg.Timeout)
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
