package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"secureflag-tools/internal/config"
	"secureflag-tools/internal/export"
	"secureflag-tools/internal/logging"
	"secureflag-tools/internal/report"
	"secureflag-tools/internal/secureflag"
	"secureflag-tools/internal/sftpclient"
)

const defaultOut = "user_assignments.csv"

const missingCredentialsMsg = "Missing ORG_ID/TOKEN. Set env vars or pass --org-id/--token."

var errMissingCredentials = errors.New("missing org id or token")

type options struct {
	out       string
	format    string
	startPage int
	upload    bool
	verbose   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:          "assignments-report",
		Short:        "Export every organization user with their assigned activities",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.String("org-id", "", "organization id (env ORG_ID)")
	f.String("token", "", "API token (env TOKEN)")
	f.String("base-url", "", "management API base URL (env SECUREFLAG_BASE_URL)")
	f.StringVar(&opts.out, "out", defaultOut, "output file")
	f.StringVar(&opts.format, "format", string(export.FormatCSV), "output format: csv or xlsx")
	f.IntVar(&opts.startPage, "start-page", 0, "first users page index to fetch")
	f.BoolVar(&opts.upload, "sftp", false, "upload the report via SFTP (env SFTP_*)")
	f.BoolVar(&opts.verbose, "verbose", false, "enable debug logging")

	return cmd
}

func run(cmd *cobra.Command, opts options) error {
	ctx := cmd.Context()

	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.OrgID == "" || cfg.Token == "" {
		fmt.Fprintln(cmd.ErrOrStderr(), missingCredentialsMsg)
		return errMissingCredentials
	}

	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	logger, err := logging.New(opts.verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	client := secureflag.New(cfg.BaseURL, cfg.Token)
	builder := report.NewBuilder(client, logger)
	builder.StartPage = opts.startPage

	rows := builder.Build(ctx, cfg.OrgID)

	written, err := export.WriteReportFile(opts.out, format, rows)
	if err != nil {
		return err
	}
	if !written {
		logger.Info("No data to write.")
		return nil
	}
	logger.Info("wrote report",
		zap.String("path", opts.out),
		zap.String("format", string(format)),
		zap.Int("rows", len(rows)),
	)

	if !opts.upload {
		return nil
	}

	sftpCfg := sftpclient.Config{
		Host:                  cfg.SFTPHost,
		Port:                  cfg.SFTPPort,
		User:                  cfg.SFTPUser,
		Pass:                  cfg.SFTPPass,
		RemoteDir:             cfg.SFTPDir,
		InsecureIgnoreHostKey: cfg.SFTPInsecureIgnoreHostKey,
		KnownHostsPath:        cfg.SFTPKnownHosts,
	}
	remote := filepath.Base(opts.out)
	if err := sftpclient.UploadFile(ctx, sftpCfg, opts.out, remote); err != nil {
		return fmt.Errorf("upload report: %w", err)
	}
	logger.Info("uploaded report", zap.String("host", cfg.SFTPHost), zap.String("remote_dir", sftpCfg.RemoteDir), zap.String("file", remote))
	return nil
}
