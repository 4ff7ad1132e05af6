package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/stratumdb/stratum/cfg"
	"github.com/stratumdb/stratum/mutation"
	"github.com/stratumdb/stratum/mutlog"
	"github.com/stratumdb/stratum/sqlparser"
	"github.com/stratumdb/stratum/telemetry"
	"github.com/stratumdb/stratum/types"
)

var (
	parseFlag  = flag.String("parse", "", "Classify an alter-command list and print the mutation commands")
	appendFlag = flag.String("append", "", "Classify an alter-command list and append it to the mutation log")
	listFlag   = flag.Bool("list", false, "List mutation log entries")
	tableFlag  = flag.String("table", "*", "Table name (glob pattern for -list)")
	dbFlag     = flag.String("db", "default", "Database name for -append")
)

func main() {
	flag.Parse()

	if err := cfg.Load(*cfg.ConfigPathFlag); err != nil {
		panic(err)
	}
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("Invalid configuration: %v", err))
	}

	// Setup logging
	var writer io.Writer = zerolog.NewConsoleWriter()
	if cfg.Config.Logging.Format == "json" {
		writer = os.Stdout
	}
	gLog := zerolog.New(writer).With().Timestamp().Logger()
	if cfg.Config.Logging.Verbose {
		log.Logger = gLog.Level(zerolog.DebugLevel)
	} else {
		log.Logger = gLog.Level(zerolog.InfoLevel)
	}

	telemetry.InitializeTelemetry()
	telemetry.RegisterMetrics()
	if handler := telemetry.GetMetricsHandler(); handler != nil {
		addr := fmt.Sprintf("%s:%d", cfg.Config.Prometheus.Address, cfg.Config.Prometheus.Port)
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", handler)
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Error().Err(err).Msg("Metrics server stopped")
			}
		}()
	}

	resolver := buildResolver()

	switch {
	case *parseFlag != "":
		if err := runParse(*parseFlag, resolver); err != nil {
			log.Fatal().Err(err).Msg("Failed to classify commands")
		}
	case *appendFlag != "":
		if err := runAppend(*appendFlag, resolver); err != nil {
			log.Fatal().Err(err).Msg("Failed to append mutation")
		}
	case *listFlag:
		if err := runList(*tableFlag, resolver); err != nil {
			log.Fatal().Err(err).Msg("Failed to list mutations")
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

// buildResolver extends the default type registry with configured aliases.
func buildResolver() types.Resolver {
	registry := types.Default()
	for alias, canonical := range cfg.Config.Types.Aliases {
		registry.RegisterAlias(alias, canonical)
	}
	return registry
}

func classify(text string, resolver types.Resolver) (mutation.MutationCommands, error) {
	list, err := sqlparser.ParseAlterCommandList(text)
	if err != nil {
		return nil, err
	}
	return mutation.FromAlterCommandList(list, resolver)
}

func runParse(text string, resolver types.Resolver) error {
	cmds, err := classify(text, resolver)
	if err != nil {
		return err
	}
	for i, cmd := range cmds {
		fmt.Printf("%3d  %-24s %s\n", i, cmd.Type, cmd.AST)
	}
	fmt.Printf("rewrites data: %v, contains barrier: %v\n",
		cmds.HasNonEmptyMutationCommands(), cmds.ContainsBarrierCommand())
	return nil
}

func runAppend(text string, resolver types.Resolver) error {
	cmds, err := classify(text, resolver)
	if err != nil {
		return err
	}
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.Append(mutlog.NewEntry(*dbFlag, *tableFlag, cmds))
	if err != nil {
		return err
	}
	log.Info().Uint64("id", id).Str("commands", cmds.String()).Msg("Mutation appended")
	return nil
}

func runList(pattern string, resolver types.Resolver) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(pattern)
	if err != nil {
		return err
	}
	for _, e := range entries {
		cmds, err := e.DecodeCommands(resolver)
		if err != nil {
			log.Warn().Err(err).Uint64("id", e.ID).Msg("Entry does not decode")
			continue
		}
		fmt.Printf("%6d  %s.%s  %s\n", e.ID, e.Database, e.Table, cmds)
	}
	return nil
}

func openStore() (mutlog.Store, error) {
	return mutlog.NewPebbleStore(
		cfg.Config.MutationLog.Path,
		cfg.Config.MutationLog.CompressThresholdBytes,
	)
}
