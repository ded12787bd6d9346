// =============================================================================
// Transaction Aggregator - Pipeline Module
// =============================================================================
//
// This module orchestrates a processing run, from input discovery to report
// emission, for one or more transaction files.
//
// PROCESSING PIPELINE (per file):
//   1. Read the input file into raw records
//   2. Validate the records, dropping malformed ones
//   3. Aggregate the accepted transactions
//   4. Write the requested reports
//   5. Archive the processed input
//
// RUN LEVEL:
//   - Files are processed one after another, each with a fresh engine, so
//     one file's aggregates never leak into another's reports.
//   - A failure in one file is recorded and the run moves on to the next.
//   - Every run has a UUID that appears in logs, file names and the
//     run summary log.
//
// =============================================================================

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ginjaninja78/transaction-aggregator/internal/aggregator"
	"github.com/ginjaninja78/transaction-aggregator/internal/config"
	"github.com/ginjaninja78/transaction-aggregator/internal/logger"
	"github.com/ginjaninja78/transaction-aggregator/internal/reader"
	"github.com/ginjaninja78/transaction-aggregator/internal/report"
	"github.com/ginjaninja78/transaction-aggregator/internal/types"
	"github.com/ginjaninja78/transaction-aggregator/internal/validation"
	"github.com/ginjaninja78/transaction-aggregator/pkg/utils"
)

var (
	// ErrNoInputFiles is returned by Run when there is nothing to process.
	ErrNoInputFiles = errors.New("no input files to process")

	// ErrOutputConflict fails a file whose report paths were all taken by
	// earlier files of the same run.
	ErrOutputConflict = errors.New("report paths already written in this run")
)

// =============================================================================
// RESULT STRUCTURES
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the input file that was processed.
	FilePath string

	// OutputFiles lists the reports written for this file. Empty on a dry run.
	OutputFiles []string

	// ArchivePath is where the input was moved, if archiving is enabled.
	ArchivePath string

	// Success indicates whether the processing was successful.
	Success bool

	// Error contains the error if processing failed.
	Error error

	// Aggregates holds the derived views. Nil if processing failed before
	// aggregation.
	Aggregates *types.Aggregates

	// Rejections lists the records dropped by validation.
	Rejections []validation.Rejection

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing of one file.
type ProcessingStats struct {
	RecordsRead    int
	Accepted       int
	Rejected       int
	Accounts       int
	Suspicious     int
	ProcessingTime time.Duration
}

// Summary is the outcome of a whole run.
type Summary struct {
	// RunID identifies the run.
	RunID string

	// Results holds one entry per input file, in processing order.
	Results []Result

	// SummaryLog is the path of the run summary log. Empty on a dry run.
	SummaryLog string

	// RejectionLog is the path of the rejection log, if any record was rejected.
	RejectionLog string

	// Totals aggregates the per-file statistics.
	Totals utils.RunSummary
}

// Failed returns the number of files that could not be processed.
func (s *Summary) Failed() int {
	return s.Totals.FailedFiles
}

// =============================================================================
// RUNNER
// =============================================================================

// Runner executes processing runs with a fixed configuration.
type Runner struct {
	cfg    *config.Config
	files  *utils.FileManager
	runID  string
	dryRun bool
	now    func() time.Time

	// claimed maps each report path written in the current run to the
	// input it was written for.
	claimed map[string]string
}

// Option configures a Runner.
type Option func(*Runner)

// WithDryRun processes and logs everything but writes no files and archives
// nothing.
func WithDryRun(dryRun bool) Option {
	return func(r *Runner) {
		r.dryRun = dryRun
	}
}

// WithRunID overrides the generated run id.
func WithRunID(id string) Option {
	return func(r *Runner) {
		r.runID = id
	}
}

// NewRunner creates a Runner for cfg with a fresh run id.
func NewRunner(cfg *config.Config, opts ...Option) *Runner {
	files := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir)
	files.ArchiveOnSuccess = cfg.ArchiveInputs
	files.UseTimestampSubdirs = cfg.ArchiveDateSubdirs

	r := &Runner{
		cfg:   cfg,
		files: files,
		runID: uuid.NewString(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunID returns the identifier of this runner's run.
func (r *Runner) RunID() string {
	return r.runID
}

// =============================================================================
// RUN
// =============================================================================

// Run processes each path in order. With no paths, every csv and json file in
// the configured input directory is processed.
//
// RETURNS:
//   - The run summary. Per-file failures are reported in it, not as an error.
//   - An error if there is nothing to process, the directories cannot be
//     prepared, the context is cancelled, or the run logs cannot be written.
func (r *Runner) Run(ctx context.Context, paths []string) (*Summary, error) {
	log := r.Logger(ctx)
	ctx = logger.WithContext(ctx, log)
	r.claimed = make(map[string]string)

	summary := &Summary{
		RunID: r.runID,
		Totals: utils.RunSummary{
			RunID:     r.runID,
			StartTime: r.now(),
			DryRun:    r.dryRun,
		},
	}

	// =========================================================================
	// STEP 1: DISCOVER INPUT FILES
	// =========================================================================

	if len(paths) == 0 {
		discovered, err := r.files.DiscoverInputFiles()
		if err != nil {
			return nil, fmt.Errorf("failed to discover input files: %w", err)
		}
		paths = discovered
	}

	if len(paths) == 0 {
		return nil, ErrNoInputFiles
	}

	log.Info().Int("files", len(paths)).Bool("dry_run", r.dryRun).Msg("starting run")

	if !r.dryRun {
		if err := r.files.EnsureDirectories(); err != nil {
			return nil, err
		}
	}

	// =========================================================================
	// STEP 2: PROCESS FILES SEQUENTIALLY
	// =========================================================================

	var rejectionEntries []utils.RejectionLogEntry

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("run interrupted: %w", err)
		}

		result := r.ProcessFile(ctx, path)
		summary.Results = append(summary.Results, result)
		r.tally(&summary.Totals, result)

		for _, rej := range result.Rejections {
			rejectionEntries = append(rejectionEntries, utils.RejectionLogEntry{
				FileName:      filepath.Base(path),
				RowNumber:     rej.Row,
				TransactionID: rej.TransactionID,
				Rule:          string(rej.Rule),
				FieldName:     rej.Field,
				FieldValue:    rej.Value,
				Message:       rej.Message,
			})
		}
	}

	summary.Totals.EndTime = r.now()

	// =========================================================================
	// STEP 3: WRITE RUN LOGS
	// =========================================================================

	log.Info().
		Int("successful", summary.Totals.SuccessfulFiles).
		Int("failed", summary.Totals.FailedFiles).
		Int("accepted", summary.Totals.Accepted).
		Int("rejected", summary.Totals.Rejected).
		Int("suspicious", summary.Totals.Suspicious).
		Msg("run complete")

	if r.dryRun {
		return summary, nil
	}

	rejectionLog, err := utils.WriteRejectionLog(rejectionEntries, r.cfg.OutputDir, r.runID)
	if err != nil {
		return summary, err
	}
	summary.RejectionLog = rejectionLog

	summaryLog, err := utils.WriteSummaryLog(summary.Totals, r.cfg.OutputDir)
	if err != nil {
		return summary, err
	}
	summary.SummaryLog = summaryLog

	return summary, nil
}

// tally folds one file's result into the run totals.
func (r *Runner) tally(totals *utils.RunSummary, result Result) {
	totals.TotalFiles++
	totals.TotalRecords += result.Stats.RecordsRead
	totals.Accepted += result.Stats.Accepted
	totals.Rejected += result.Stats.Rejected
	totals.Suspicious += result.Stats.Suspicious

	if !result.Success {
		totals.FailedFiles++
		totals.FailedFilesList = append(totals.FailedFilesList, utils.FailedFileInfo{
			InputFile:    result.FilePath,
			ErrorMessage: result.Error.Error(),
		})
		return
	}

	totals.SuccessfulFiles++
	totals.ProcessedFiles = append(totals.ProcessedFiles, utils.ProcessedFileInfo{
		InputFile:   result.FilePath,
		OutputFiles: result.OutputFiles,
		ArchivePath: result.ArchivePath,
		Records:     result.Stats.RecordsRead,
		Accepted:    result.Stats.Accepted,
		Rejected:    result.Stats.Rejected,
		Accounts:    result.Stats.Accounts,
		Suspicious:  result.Stats.Suspicious,
		ProcessTime: result.Stats.ProcessingTime,
	})
}

// =============================================================================
// SINGLE FILE PROCESSING
// =============================================================================

// ProcessFile runs the pipeline for a single input file.
func (r *Runner) ProcessFile(ctx context.Context, path string) Result {
	startTime := r.now()
	log := logger.FromContext(ctx).With().Str("file", path).Logger()

	result := Result{FilePath: path}

	// =========================================================================
	// STEP 1: READ INPUT
	// =========================================================================

	if !reader.IsSupported(path) {
		log.Warn().Msg("unsupported input extension, file yields no records")
	}

	records, err := reader.Read(path)
	if err != nil {
		result.Error = err
		log.Error().Err(err).Msg("failed to read input")
		return result
	}
	result.Stats.RecordsRead = len(records)

	// =========================================================================
	// STEP 2: VALIDATE RECORDS
	// =========================================================================

	validated := validation.ValidateDetailed(records)
	result.Rejections = validated.Rejections
	result.Stats.Accepted = len(validated.Accepted)
	result.Stats.Rejected = len(validated.Rejections)

	for _, rej := range validated.Rejections {
		log.Debug().
			Int("row", rej.Row).
			Str("transaction_id", rej.TransactionID).
			Str("rule", string(rej.Rule)).
			Str("value", rej.Value).
			Msg("rejected record")
	}

	log.Info().
		Int("records", result.Stats.RecordsRead).
		Int("accepted", result.Stats.Accepted).
		Int("rejected", result.Stats.Rejected).
		Msg("validated input")

	// =========================================================================
	// STEP 3: AGGREGATE
	// =========================================================================

	engine := aggregator.New(aggregator.WithLogger(log))
	aggregates, err := engine.Process(validated.Accepted)
	if err != nil {
		result.Error = fmt.Errorf("failed to aggregate: %w", err)
		log.Error().Err(err).Msg("aggregation failed")
		return result
	}

	result.Aggregates = aggregates
	result.Stats.Accounts = len(aggregates.AccountSummaries)
	result.Stats.Suspicious = len(aggregates.SuspiciousTransactions)

	log.Info().
		Int("accounts", result.Stats.Accounts).
		Int("suspicious", result.Stats.Suspicious).
		Int("types", len(aggregates.TransactionStatistics)).
		Msg("aggregated transactions")

	// =========================================================================
	// STEP 4: WRITE REPORTS
	// =========================================================================

	if r.dryRun {
		log.Info().Msg("dry run, skipping report output")
	} else {
		outputs, err := r.writeReports(path, aggregates)
		result.OutputFiles = outputs
		if err != nil {
			result.Error = err
			log.Error().Err(err).Msg("failed to write reports")
			return result
		}
		for _, out := range outputs {
			log.Info().Str("output", out).Msg("wrote report")
		}
	}

	// =========================================================================
	// STEP 5: ARCHIVE INPUT
	// =========================================================================

	if !r.dryRun {
		archivePath, err := r.files.ArchiveInputFile(path)
		if err != nil {
			// Reports are already written; the input simply stays in place.
			log.Warn().Err(err).Msg("failed to archive input")
		} else {
			result.ArchivePath = archivePath
		}
	}

	result.Success = true
	result.Stats.ProcessingTime = r.now().Sub(startTime)
	return result
}

// =============================================================================
// REPORT OUTPUT
// =============================================================================

// workbookReportName fills {report} in the workbook's file name.
const workbookReportName = "aggregates"

// SelectedKinds returns the reports enabled in selection, in canonical order.
func SelectedKinds(selection config.ReportSelection) []report.Kind {
	var kinds []report.Kind
	if selection.AccountSummaries {
		kinds = append(kinds, report.AccountSummaries)
	}
	if selection.SuspiciousTransactions {
		kinds = append(kinds, report.SuspiciousTransactions)
	}
	if selection.TransactionStatistics {
		kinds = append(kinds, report.TransactionStatistics)
	}
	return kinds
}

// plannedOutput is one report file an input will produce.
type plannedOutput struct {
	kind     report.Kind
	workbook bool
	path     string
}

// writeReports writes the selected reports in the configured formats and
// returns the paths written so far, even on error.
func (r *Runner) writeReports(inputPath string, aggregates *types.Aggregates) ([]string, error) {
	kinds := SelectedKinds(r.cfg.Reports)
	if len(kinds) == 0 {
		return nil, nil
	}

	planned, err := r.claimOutputs(inputPath, kinds)
	if err != nil {
		return nil, err
	}

	var written []string
	for _, out := range planned {
		if out.workbook {
			if err := report.WriteWorkbook(out.path, aggregates, kinds...); err != nil {
				return written, fmt.Errorf("failed to write workbook: %w", err)
			}
		} else if err := writeCSVReport(out.path, out.kind, aggregates); err != nil {
			return written, fmt.Errorf("failed to write %s report: %w", out.kind, err)
		}
		written = append(written, out.path)
	}

	return written, nil
}

// claimOutputs picks the {source} value for inputPath and reserves the
// resulting report paths for it.
//
// The file stem is tried first. When an earlier file of the run already
// wrote one of those paths, the lower-cased extension is appended
// (march.json -> march_json), then a counter (march_json_2, ...).
//
// RETURNS:
//   - The report files to write, in writing order.
//   - ErrOutputConflict if every candidate collides, which happens when
//     output_name_format does not use {source}.
func (r *Runner) claimOutputs(inputPath string, kinds []report.Kind) ([]plannedOutput, error) {
	if r.claimed == nil {
		r.claimed = make(map[string]string)
	}

	for _, source := range sourceCandidates(inputPath) {
		planned := r.planOutputs(source, kinds)
		if r.anyClaimed(planned) {
			continue
		}
		for _, out := range planned {
			r.claimed[out.path] = inputPath
		}
		return planned, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrOutputConflict, filepath.Base(inputPath))
}

// maxSourceCandidates bounds the disambiguation counter.
const maxSourceCandidates = 100

func sourceCandidates(inputPath string) []string {
	stem := utils.BaseName(inputPath)
	candidates := []string{stem}

	if ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(inputPath), ".")); ext != "" {
		stem += "_" + ext
		candidates = append(candidates, stem)
	}
	for n := 2; len(candidates) < maxSourceCandidates; n++ {
		candidates = append(candidates, fmt.Sprintf("%s_%d", stem, n))
	}
	return candidates
}

func (r *Runner) planOutputs(source string, kinds []report.Kind) []plannedOutput {
	var planned []plannedOutput
	if r.cfg.WantsCSV() {
		for _, kind := range kinds {
			planned = append(planned, plannedOutput{kind: kind, path: r.outputPath(source, string(kind), ".csv")})
		}
	}
	if r.cfg.WantsXLSX() {
		planned = append(planned, plannedOutput{workbook: true, path: r.outputPath(source, workbookReportName, ".xlsx")})
	}
	return planned
}

func (r *Runner) anyClaimed(planned []plannedOutput) bool {
	for _, out := range planned {
		if _, taken := r.claimed[out.path]; taken {
			return true
		}
	}
	return false
}

func writeCSVReport(path string, kind report.Kind, aggregates *types.Aggregates) error {
	switch kind {
	case report.AccountSummaries:
		return report.WriteAccountSummaries(path, aggregates.AccountSummaries)
	case report.SuspiciousTransactions:
		return report.WriteSuspiciousTransactions(path, aggregates.SuspiciousTransactions)
	case report.TransactionStatistics:
		return report.WriteTransactionStatistics(path, aggregates.TransactionStatistics)
	default:
		return fmt.Errorf("unknown report kind: %q", kind)
	}
}

func (r *Runner) outputPath(source, reportName, ext string) string {
	name := utils.GenerateOutputFileName(r.cfg.OutputNameFormat, map[string]string{
		"source": source,
		"report": reportName,
		"run_id": r.runID,
	}, ext)
	return filepath.Join(r.cfg.OutputDir, name)
}

// Logger returns the logger carried by ctx, tagged with this run's id.
func (r *Runner) Logger(ctx context.Context) zerolog.Logger {
	return logger.FromContext(ctx).With().Str("run_id", r.runID).Logger()
}
