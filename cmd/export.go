package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/training-records/internal"
	"github.com/frahmantamala/training-records/internal/auth"
	"github.com/frahmantamala/training-records/internal/report"
	"github.com/frahmantamala/training-records/pkg/logger"
)

var (
	exportYear int
	exportOut  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the monitoring statistics workbook to a file",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().IntVarP(&exportYear, "year", "y", 0, "reference year (defaults to the current year)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (defaults to the generated file name)")
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	initLogger(cfg.Observability.Logging)

	if cfg.Database.Driver == internal.DriverMemory {
		return fmt.Errorf("export needs a persistent database driver")
	}

	st, err := openStores(cfg.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	svc := report.NewService(st.Users, st.Trainings, report.NewXLSXFormatter(), cfg.Report.Location(), logger.LoggerWrapper())

	var year *int
	if exportYear != 0 {
		year = &exportYear
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	// the operator running the command acts with admin rights
	export, err := svc.ExportStatistics(ctx, auth.Identity{Role: auth.RoleAdmin}, year)
	if err != nil {
		return err
	}

	out := exportOut
	if out == "" {
		out = export.Filename
	}
	if err := os.WriteFile(out, export.Data.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	fmt.Printf("Wrote %s (%d bytes)\n", out, export.Data.Len())
	return nil
}
