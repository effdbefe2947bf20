package cmd

import (
	"context"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/taxongrid/arraygen/internal/config"
	"github.com/taxongrid/arraygen/internal/observability"
	"github.com/taxongrid/arraygen/pkg/jobregistry"
	"github.com/taxongrid/arraygen/pkg/manifest"
	"github.com/taxongrid/arraygen/pkg/notify"
	"github.com/taxongrid/arraygen/pkg/output"
	"github.com/taxongrid/arraygen/pkg/refdb"
	"github.com/taxongrid/arraygen/pkg/upload"
	"github.com/taxongrid/arraygen/pkg/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate batch outputs after the scheduler run",
	Long: `Check that every expected output of a finished batch exists, normalize
result tables, and report the produced artifacts. When the manifest
configures them, the report is also posted to the notify endpoint and
the artifacts uploaded to object storage.

Example:
  arraygen validate --job batch.yaml
  arraygen validate --job batch.yaml --run 4f1c73e2-...`,
	RunE: runValidate,
}

var (
	validateJobPath string
	validateRunID   string
	validateOutput  string
	validateNoPush  bool
)

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateJobPath, "job", "j", "", "Path to job manifest (required)")
	validateCmd.Flags().StringVar(&validateRunID, "run", "", "Registered run ID to update")
	validateCmd.Flags().StringVarP(&validateOutput, "output", "o", "", "Override output destination")
	validateCmd.Flags().BoolVar(&validateNoPush, "no-push", false, "Skip notification and upload even when configured")

	_ = validateCmd.MarkFlagRequired("job")
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	start := time.Now()

	m, err := manifest.Load(validateJobPath)
	if err != nil {
		observability.CLILogger.Error("Failed to load manifest",
			zap.String("path", validateJobPath),
			zap.Error(err))
		return exitError(foundry.ExitInvalidArgument, "Invalid manifest", err)
	}

	if validateOutput != "" {
		m.Output.Destination = validateOutput
	}

	db, err := refdb.Discover(m.Database.IndexPrefix)
	if err != nil {
		observability.CLILogger.Error("Failed to resolve reference database",
			zap.String("index_prefix", m.Database.IndexPrefix),
			zap.Error(err))
		return exitError(foundry.ExitInvalidArgument, "Reference database not usable", err)
	}

	writer, cleanup, err := createWriter(m.Output.Destination, validateRunID, "validate")
	if err != nil {
		observability.CLILogger.Error("Failed to create writer", zap.Error(err))
		return exitError(foundry.ExitFileWriteError, "Failed to create output", err)
	}
	defer cleanup()

	report, err := validate.Run(validate.Config{
		OutputDir:      m.Run.OutputDir,
		PartitionKeys:  m.Partitions.Keys,
		HasSecondary:   db.HasGeneCoordinates(),
		SupportContact: m.Run.Contact,
	})
	if err != nil {
		observability.CLILogger.Error("Validation failed", zap.Error(err))
		return exitError(foundry.ExitFileWriteError, "Validation failed", err)
	}

	for _, a := range report.Artifacts {
		files := make([]output.ArtifactFileRecord, 0, len(a.Files))
		for _, f := range a.Files {
			files = append(files, output.ArtifactFileRecord{Path: f.Path, Type: f.Type})
		}
		if err := writer.WriteArtifact(ctx, &output.ArtifactRecord{
			Label: a.Label,
			Kind:  a.Kind,
			Files: files,
		}); err != nil {
			observability.CLILogger.Warn("Failed to write artifact record", zap.Error(err))
		}
	}
	for _, msg := range report.Errors {
		if err := writer.WriteError(ctx, &output.ErrorRecord{
			Code:    output.ErrCodeMissingArtifact,
			Message: msg,
		}); err != nil {
			observability.CLILogger.Warn("Failed to write error record", zap.Error(err))
		}
	}

	if validateRunID != "" {
		registry := jobregistry.NewRegistry(config.GetConfig().Registry.Dir)
		if _, err := registry.MarkValidated(validateRunID, report.Success, len(report.Artifacts), len(report.Errors)); err != nil {
			observability.CLILogger.Warn("Failed to update run registry",
				zap.String("run_id", validateRunID),
				zap.Error(err))
		}
	}

	if !validateNoPush {
		if err := pushReport(ctx, m, report); err != nil {
			return err
		}
	}

	elapsed := time.Since(start)
	if err := writer.WriteSummary(ctx, &output.SummaryRecord{
		Success:       report.Success,
		Artifacts:     len(report.Artifacts),
		Errors:        len(report.Errors),
		Duration:      elapsed,
		DurationHuman: elapsed.Round(time.Millisecond).String(),
	}); err != nil {
		observability.CLILogger.Warn("Failed to write summary record", zap.Error(err))
	}

	observability.CLILogger.Info("Validation completed",
		zap.String("name", m.Run.Name),
		zap.Bool("success", report.Success),
		zap.Int("artifacts", len(report.Artifacts)),
		zap.Int("errors", len(report.Errors)))

	if !report.Success {
		return exitError(foundry.ExitInvalidArgument, "Batch outputs incomplete", nil)
	}
	return nil
}

// pushReport sends the validation report to the configured notify endpoint
// and uploads the artifact files to configured object storage.
func pushReport(ctx context.Context, m *manifest.Manifest, report *validate.Report) error {
	if m.Notify != nil {
		client, err := notify.NewClient(m.Notify.URL, time.Duration(m.Notify.TimeoutSeconds)*time.Second)
		if err != nil {
			return exitError(foundry.ExitInvalidArgument, "Invalid notify configuration", err)
		}

		artifacts := make([]notify.Artifact, 0, len(report.Artifacts))
		for _, a := range report.Artifacts {
			paths := make([]string, 0, len(a.Files))
			for _, f := range a.Files {
				paths = append(paths, f.Path)
			}
			artifacts = append(artifacts, notify.Artifact{Label: a.Label, Kind: a.Kind, Paths: paths})
		}
		if err := client.Send(ctx, &notify.Report{
			RunID:     validateRunID,
			Name:      m.Run.Name,
			Success:   report.Success,
			Artifacts: artifacts,
			Errors:    report.ErrorText(),
		}); err != nil {
			observability.CLILogger.Error("Failed to post report", zap.Error(err))
			return exitError(foundry.ExitExternalServiceUnavailable, "Report notification failed", err)
		}
	}

	if m.Upload != nil {
		uploader, err := upload.New(ctx, upload.Config{
			Bucket:    m.Upload.Bucket,
			Prefix:    m.Upload.Prefix,
			Region:    m.Upload.Region,
			Endpoint:  m.Upload.Endpoint,
			Profile:   m.Upload.Profile,
			RateLimit: m.Upload.RateLimit,
			// S3-compatible endpoints require path-style URLs.
			ForcePathStyle: m.Upload.Endpoint != "",
		})
		if err != nil {
			observability.CLILogger.Error("Failed to create uploader", zap.Error(err))
			return exitError(foundry.ExitExternalServiceUnavailable, "Failed to connect to object storage", err)
		}

		var paths []string
		for _, a := range report.Artifacts {
			for _, f := range a.Files {
				paths = append(paths, f.Path)
			}
		}
		if err := uploader.PutFiles(ctx, paths); err != nil {
			observability.CLILogger.Error("Upload failed", zap.Error(err))
			return exitError(foundry.ExitExternalServiceUnavailable, "Artifact upload failed", err)
		}
		observability.CLILogger.Info("Artifacts uploaded",
			zap.String("bucket", m.Upload.Bucket),
			zap.Int("files", len(paths)))
	}

	return nil
}
