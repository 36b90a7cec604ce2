package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"stealthcompany.com/clinic/internal/dal"
	"stealthcompany.com/clinic/internal/export"
)

func exportCmd() *cobra.Command {
	var doctorID, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a doctor's patients and risk scores to CSV or XLSX",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap("clinic-export")
			if err != nil {
				return err
			}

			format, err := export.ParseFormat(strings.TrimPrefix(filepath.Ext(out), "."))
			if err != nil {
				return err
			}
			if out == "" {
				out = format.FileName(doctorID)
			}

			ctx := context.Background()
			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore(store)

			rows, err := export.NewExporter(dal.NewModels(store, cfg.OrdinalLockWait)).Rows(ctx, doctorID)
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := export.Write(f, format, rows); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", out, err)
			}

			log.Info().
				Str("doctorId", doctorID).
				Str("file", out).
				Int("rows", len(rows)).
				Msg("Export written")
			return nil
		},
	}

	cmd.Flags().StringVar(&doctorID, "doctor", "", "doctor id, e.g. drSmith")
	cmd.Flags().StringVar(&out, "out", "", "output file; .xlsx selects the workbook format")
	_ = cmd.MarkFlagRequired("doctor")
	return cmd
}
