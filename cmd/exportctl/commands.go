package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"videothingy/config"
	"videothingy/internal/apiclient"
	"videothingy/internal/captions"
	"videothingy/internal/db"
	"videothingy/internal/encode"
	"videothingy/internal/export"
	"videothingy/internal/poll"
	"videothingy/models"
)

const defaultServer = "http://localhost:8080"

// cli carries the settings shared by every subcommand.
type cli struct {
	server   string
	interval time.Duration
	attempts int
	verbose  bool

	log *logrus.Logger
}

func (c *cli) client() *apiclient.Client {
	return apiclient.New(c.server, &http.Client{Timeout: time.Minute})
}

func (c *cli) watchOptions(exportID string) poll.WatchOptions {
	return poll.WatchOptions{
		Interval:    c.interval,
		MaxAttempts: c.attempts,
		ExportID:    exportID,
		Progress: func(percent float64) {
			c.log.Debugf("Progress: %.0f%%", percent)
		},
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	server := os.Getenv("EXPORTCTL_SERVER")
	if server == "" {
		server = defaultServer
	}

	rootCmd := &cobra.Command{
		Use:   "exportctl",
		Short: "Submit video exports and fetch their results",
		Long: `exportctl talks to a running processor. It queues exports, waits for the
result to appear on the project and downloads the rendered video and captions.

Examples:
  # Export a project at 720p and download the result into ./out
  exportctl export 5f1c... -q 720p -o ./out

  # Write a project's captions as SRT
  exportctl srt 5f1c... > captions.srt`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := "info"
			if c.verbose {
				level = "debug"
			}
			c.log = config.NewLogger(level, "text")
			c.log.SetOutput(cmd.ErrOrStderr())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&c.server, "server", server, "Processor base URL (env EXPORTCTL_SERVER)")
	flags.DurationVar(&c.interval, "interval", poll.ExportInterval, "Polling interval")
	flags.IntVar(&c.attempts, "attempts", poll.ExportMaxAttempts, "Maximum polling attempts")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(
		newExportCmd(c),
		newWatchCmd(c),
		newSRTCmd(c),
		newCaptionsCmd(c),
		newStatusCmd(c),
		newSeedCmd(c),
		newFormatsCmd(),
	)
	return rootCmd
}

func newExportCmd(c *cli) *cobra.Command {
	var (
		req          models.ExportRequest
		trimEnd      float64
		overlaysPath string
		outDir       string
		noWait       bool
	)

	cmd := &cobra.Command{
		Use:   "export <projectId>",
		Short: "Queue an export and download the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.ProjectID = args[0]
			if cmd.Flags().Changed("trim-end") {
				req.TrimEnd = &trimEnd
			}
			if overlaysPath != "" {
				overlays, err := readOverlays(overlaysPath)
				if err != nil {
					return err
				}
				req.TextOverlays = overlays
			}

			client := c.client()
			ack, err := client.SubmitExport(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queued export %s\n", ack.ExportID)
			if noWait {
				return nil
			}

			quality := req.Quality
			if quality == "" {
				quality = models.Quality1080p
			}
			return c.waitAndDownload(cmd.Context(), cmd.OutOrStdout(), client, req.ProjectID, ack.ExportID, quality, outDir)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&req.Quality, "quality", "q", "", fmt.Sprintf("Quality tier (%s)", strings.Join(encode.SupportedQualities(), ", ")))
	f.StringVarP(&req.Format, "format", "f", "", fmt.Sprintf("Container format (%s)", strings.Join(encode.SupportedFormats(), ", ")))
	f.BoolVar(&req.IncludeCaptions, "captions", false, "Attach the project's captions as SRT")
	f.BoolVar(&req.BurnCaptions, "burn-captions", false, "Render the project's captions into the video")
	f.Float64Var(&req.TrimStart, "trim-start", 0, "Trim start in seconds")
	f.Float64Var(&trimEnd, "trim-end", 0, "Trim end in seconds (default: end of the source)")
	f.StringVar(&overlaysPath, "overlays", "", "JSON file with an array of text overlays")
	f.StringVarP(&outDir, "output", "o", ".", "Directory for downloaded files")
	f.BoolVar(&noWait, "no-wait", false, "Return after queueing")
	return cmd
}

func newWatchCmd(c *cli) *cobra.Command {
	var exportID, quality, outDir string

	cmd := &cobra.Command{
		Use:   "watch <projectId>",
		Short: "Wait for a fresh export result and download it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.waitAndDownload(cmd.Context(), cmd.OutOrStdout(), c.client(), args[0], exportID, quality, outDir)
		},
	}
	cmd.Flags().StringVar(&exportID, "export-id", "", "Only accept the result of this export")
	cmd.Flags().StringVarP(&quality, "quality", "q", models.Quality1080p, "Quality used to name the downloaded file")
	cmd.Flags().StringVarP(&outDir, "output", "o", ".", "Directory for downloaded files")
	return cmd
}

func (c *cli) waitAndDownload(ctx context.Context, out io.Writer, client *apiclient.Client, projectID, exportID, quality, outDir string) error {
	c.log.WithFields(logrus.Fields{"project_id": projectID, "export_id": exportID}).Info("Waiting for export")

	data, err := poll.WatchExport(ctx, client, projectID, c.watchOptions(exportID))
	if errors.Is(err, poll.ErrTimeout) {
		return errors.Wrap(err, "export timed out")
	}
	if err != nil {
		return err
	}

	project, err := client.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}

	format := strings.TrimPrefix(path.Ext(data.VideoFileID), ".")
	if format == "" {
		format = models.FormatMP4
	}
	videoPath := filepath.Join(outDir, export.DownloadName(project.Title, quality, format))
	if err := client.DownloadFile(ctx, data.DownloadURL, videoPath); err != nil {
		return err
	}
	fmt.Fprintf(out, "video: %s\n", videoPath)

	if data.SRTContent != nil {
		srtPath := filepath.Join(outDir, export.CaptionsName(project.Title))
		if err := os.WriteFile(srtPath, []byte(*data.SRTContent), 0o644); err != nil {
			return errors.Wrap(err, "failed to write captions")
		}
		fmt.Fprintf(out, "captions: %s\n", srtPath)
	}
	return nil
}

func newSRTCmd(c *cli) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "srt <projectId>",
		Short: "Print a project's captions as SRT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := c.client().GetProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			caps, err := project.DecodeCaptions()
			if err != nil {
				return err
			}
			srt := captions.ToSRT(caps)
			if outPath == "" {
				_, err := io.WriteString(cmd.OutOrStdout(), srt)
				return err
			}
			return errors.Wrap(os.WriteFile(outPath, []byte(srt), 0o644), "failed to write captions")
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}

func newCaptionsCmd(c *cli) *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "captions <projectId>",
		Short: "Generate captions for a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := c.client()
			jobID, err := client.GenerateCaptions(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queued caption job %s\n", jobID)
			if !wait {
				return nil
			}

			job, err := poll.Retry(cmd.Context(), poll.Options{Interval: c.interval, MaxAttempts: c.attempts},
				func(ctx context.Context) (*models.ProcessingJob, error) { return client.Job(ctx, jobID) },
				func(j *models.ProcessingJob) bool {
					return j.Status == models.JobStatusCompleted || j.Status == models.JobStatusFailed
				})
			if err != nil {
				return err
			}
			if job.Status == models.JobStatusFailed {
				msg := "unknown error"
				if job.ErrorMessage != nil {
					msg = *job.ErrorMessage
				}
				return errors.Errorf("caption job %s failed: %s", jobID, msg)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "captions generated for %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the job to finish")
	return cmd
}

func newStatusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status <jobId>",
		Short: "Show a job's state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := c.client().Job(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(job)
		},
	}
}

func newSeedCmd(c *cli) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "seed <project.json>",
		Short: "Insert or replace a project in a local SQLite store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrap(err, "failed to read project file")
			}
			var project models.Project
			if err := json.Unmarshal(b, &project); err != nil {
				return errors.Wrap(err, "failed to decode project file")
			}
			if project.ID == "" {
				return errors.New("project id is required")
			}

			store, err := db.OpenSQLite(dbPath, c.log)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.SaveProject(cmd.Context(), &project); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded project %s\n", project.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", config.DefaultSQLitePath, "SQLite database path")
	return cmd
}

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List quality tiers and container formats",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			for _, q := range encode.SupportedQualities() {
				p := encode.ForQuality(q)
				fmt.Fprintf(out, "%-6s %dx%d %s %dfps\n", q, p.Width, p.Height, p.Bitrate(), p.FrameRate)
			}
			fmt.Fprintf(out, "formats: %s\n", strings.Join(encode.SupportedFormats(), ", "))
		},
	}
}

func readOverlays(p string) ([]models.TextOverlay, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read overlays file")
	}
	var overlays []models.TextOverlay
	if err := json.Unmarshal(b, &overlays); err != nil {
		return nil, errors.Wrap(err, "failed to decode overlays file")
	}
	return overlays, nil
}
