package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/abogus/internal/bogus"
	"github.com/nao1215/abogus/internal/config"
	"github.com/nao1215/abogus/internal/database"
	"github.com/nao1215/abogus/internal/log"
	"github.com/nao1215/abogus/internal/model"
	"github.com/nao1215/abogus/internal/pipeline"
	"github.com/nao1215/abogus/internal/report"
)

// NewSignCmd creates the sign command.
func NewSignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign [url...]",
		Short: "Compute the a_bogus signature for request URLs",
		Long: `Sign computes the a_bogus signature of each URL by passing the URL's
query string and a user agent to the signing script.

The signature is bound to the user agent, so the signed request must be
sent with the same User-Agent header. The query string is passed exactly as
given: parameters are not reordered or re-encoded.

Examples:
  # Sign a single URL with the default user agent
  abogus sign 'https://www.douyin.com/aweme/v1/web/aweme/detail/?aweme_id=7345492945006595379'

  # Print only the URL with a_bogus appended
  abogus sign -a -q 'https://www.douyin.com/aweme/v1/web/aweme/detail/?aweme_id=1'

  # Sign every URL in a file, four at a time, with two engines
  abogus sign --list urls.txt --batch 4 --pool 2

  # Pull the link out of pasted share text
  abogus sign -x '7.43 复制打开抖音，看看 https://v.douyin.com/iRNBho6u/ 。'

  # Use a specific script, user agent and the ES5 engine
  abogus sign -s ./sign.js -u 'Mozilla/5.0 ...' --engine otto URL

  # Output a JSON report including a fresh ms_token
  abogus sign --json --ms-token URL`,
		Args: cobra.ArbitraryArgs,
		RunE: runSignCmd,
	}

	// Script flags
	cmd.Flags().StringP("script", "s", config.DefaultScriptPath,
		"Path of the signing script (default: a_bogus.js in the current directory, then ~/.config/abogus)")
	cmd.Flags().String("function", config.DefaultFunction,
		"Global function exported by the script")
	cmd.Flags().String("engine", config.DefaultEngine,
		"JavaScript engine: goja or otto")
	cmd.Flags().DurationP("timeout", "t", config.DefaultCallTimeout,
		"Upper bound for one call into the script")
	cmd.Flags().Int("pool", config.DefaultPoolSize,
		"Number of engines loaded with the script")

	// Signing flags
	cmd.Flags().StringP("user-agent", "u", "",
		"User agent the signature is bound to (default: Chrome 123 on Windows)")
	cmd.Flags().BoolP("append", "a", false,
		"Also output the URL with the a_bogus parameter appended")
	cmd.Flags().Bool("ms-token", false,
		"Also generate an ms_token for every URL")
	cmd.Flags().BoolP("extract", "x", false,
		"Treat arguments as pasted share text and extract the first URL")

	// Batch flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of URLs signed concurrently")
	cmd.Flags().StringP("list", "l", "",
		"File with one URL per line (\"-\" reads standard input)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .abogus in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().BoolP("quiet", "q", false,
		"Print only the signature, or the signed URL with --append")

	// History flags
	cmd.Flags().Bool("no-history", false,
		"Do not record signed URLs in the history database")
	cmd.Flags().String("data-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// runSignCmd executes the sign command.
func runSignCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runSign(ctx, cfg, logger, cmd.OutOrStdout())
}

// buildConfig creates a Config from defaults, the configuration file and
// cobra command flags, in increasing order of precedence.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}
	if err := applyConfigFile(cfg); err != nil {
		return nil, err
	}

	if flags.Changed("script") {
		if cfg.ScriptPath, err = flags.GetString("script"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("function") {
		if cfg.FunctionName, err = flags.GetString("function"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("engine") {
		if cfg.Engine, err = flags.GetString("engine"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.CallTimeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("pool") {
		if cfg.PoolSize, err = flags.GetInt("pool"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("user-agent") {
		if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("no-history") {
		noHistory, err := flags.GetBool("no-history")
		if err != nil {
			return nil, err
		}
		cfg.SaveToDB = !noHistory
	}

	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.AppendSignature, err = flags.GetBool("append"); err != nil {
		return nil, err
	}
	if cfg.IncludeMsToken, err = flags.GetBool("ms-token"); err != nil {
		return nil, err
	}
	if cfg.ExtractFromText, err = flags.GetBool("extract"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.Quiet, err = flags.GetBool("quiet"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.DBDir, err = flags.GetString("data-dir"); err != nil {
		return nil, err
	}
	if cfg.ListFile, err = flags.GetString("list"); err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	cfg.ScriptPath = config.FindScript(cfg.ScriptPath)

	cfg.Targets = append(cfg.Targets, args...)
	if cfg.ListFile != "" {
		listed, err := readTargetList(cfg.ListFile, cmd.InOrStdin())
		if err != nil {
			return nil, err
		}
		cfg.Targets = append(cfg.Targets, listed...)
	}

	return cfg, nil
}

// applyConfigFile loads the configuration file, if any, onto cfg.
// A file given with --config must exist; the default locations are optional.
func applyConfigFile(cfg *config.Config) error {
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath == "" {
		if explicitConfigPath {
			return fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
		}
		return nil
	}

	file, err := config.LoadConfigFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}
	file.Apply(cfg)
	return nil
}

// readTargetList reads one target per line from path, or from stdin when
// path is "-". Blank lines and lines starting with # are skipped.
func readTargetList(path string, stdin io.Reader) ([]string, error) {
	var r io.Reader
	if path == "-" {
		r = stdin
	} else {
		f, err := os.Open(path) //nolint:gosec // user-provided list file
		if err != nil {
			return nil, fmt.Errorf("failed to open URL list: %w", err)
		}
		defer f.Close()
		r = f
	}

	var targets []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URL list: %w", err)
	}
	return targets, nil
}

// runSign signs all targets and writes the report to out.
func runSign(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	// More engines than targets would only cost load time.
	poolSize := min(cfg.PoolSize, len(cfg.Targets))

	signer, err := bogus.NewSigner(
		bogus.WithScriptPath(cfg.ScriptPath),
		bogus.WithFunction(cfg.FunctionName),
		bogus.WithEngine(cfg.EngineKind()),
		bogus.WithUserAgent(cfg.UserAgent),
		bogus.WithCallTimeout(cfg.CallTimeout),
		bogus.WithPoolSize(poolSize),
		bogus.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	logger.Info("starting sign run",
		"targets", len(cfg.Targets),
		"engine", signer.Engine(),
		"pool_size", signer.PoolSize(),
		"batch_size", cfg.BatchSize,
	)

	bs := pipeline.NewBatchSigner(
		func() *pipeline.Pipeline { return createPipeline(cfg, signer, logger) },
		pipeline.WithConcurrency(min(cfg.BatchSize, signer.PoolSize())),
		pipeline.WithBatchEngine(string(signer.Engine())),
		pipeline.WithBatchLogger(logger),
	)

	results, batchErr := bs.SignBatch(ctx, cfg.Targets)

	if err := saveHistory(ctx, cfg, results, logger); err != nil {
		logger.Warn("failed to record history", "error", err)
	}

	if err := outputReport(cfg, results, out); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if batchErr != nil {
		return batchErr
	}
	if summary := model.Summarize(results); summary.Failed > 0 {
		if summary.Total == 1 {
			return errors.New(results[0].Error)
		}
		return fmt.Errorf("%d of %d URLs could not be signed", summary.Failed, summary.Total)
	}
	return nil
}

// createPipeline builds the per-URL step sequence for cfg.
func createPipeline(cfg *config.Config, signer pipeline.QuerySigner, logger *slog.Logger) *pipeline.Pipeline {
	p := pipeline.New(pipeline.WithLogger(logger))

	if cfg.ExtractFromText {
		p.AddStep(pipeline.NewExtractStep())
	}
	p.AddStep(pipeline.NewSignStep(signer))
	if cfg.AppendSignature {
		p.AddStep(pipeline.NewAppendStep())
	}
	if cfg.IncludeMsToken {
		p.AddStep(pipeline.NewTokenStep(nil, cfg.TokenLength))
	}

	return p
}

// newReportWriter returns the writer selected by cfg.
func newReportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output,
			report.WithQuiet(cfg.Quiet),
			report.WithVerbose(cfg.Verbose),
		)
	}
}

// outputReport writes results to cfg.ReportFile or to out.
func outputReport(cfg *config.Config, results []*model.SignResult, out io.Writer) error {
	output := out
	if cfg.ReportFile != "" {
		f, err := createReportFile(cfg.ReportFile)
		if err != nil {
			return err
		}
		defer f.Close()
		output = f
	}

	_, err := newReportWriter(cfg, output).Write(results)
	return err
}

// createReportFile creates path and its parent directories. Reports contain
// signatures and tokens, so the file is only readable by the owner.
func createReportFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // user-provided output path
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// saveHistory records results in the history database if enabled.
func saveHistory(ctx context.Context, cfg *config.Config, results []*model.SignResult, logger *slog.Logger) error {
	if !cfg.SaveToDB || len(results) == 0 {
		return nil
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// The run may have been interrupted; record what was done regardless.
	ctx = context.WithoutCancel(ctx)
	for _, r := range results {
		if _, err := db.RecordResult(ctx, r); err != nil {
			return err
		}
	}

	logger.Debug("history recorded", "entries", len(results), "path", db.Path())
	return nil
}
