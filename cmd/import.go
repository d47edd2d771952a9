package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/risk-api/internal/importer"
	"github.com/sells-group/risk-api/internal/model"
	"github.com/sells-group/risk-api/internal/store"
)

var (
	importFilePath string
	importUserID   string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import companies from a CSV or XLSX file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if _, err := st.GetUser(ctx, importUserID); err != nil {
			return eris.Wrapf(err, "look up user %s", importUserID)
		}

		var companies []model.Company
		switch strings.ToLower(filepath.Ext(importFilePath)) {
		case ".csv":
			f, err := os.Open(importFilePath)
			if err != nil {
				return eris.Wrap(err, "open csv")
			}
			defer f.Close()
			companies, err = importer.ParseCSV(f)
			if err != nil {
				return err
			}
		case ".xlsx":
			companies, err = importer.ParseXLSX(importFilePath)
			if err != nil {
				return err
			}
		default:
			return eris.Errorf("unsupported file type: %s", importFilePath)
		}

		// Postgres gets the COPY-based bulk path; SQLite inserts row by row.
		var imported int64
		if ps, ok := st.(*store.PostgresStore); ok {
			imported, err = importer.BulkImport(ctx, ps.Pool(), importUserID, companies)
		} else {
			var n int
			n, err = importer.Import(ctx, st, importUserID, companies)
			imported = int64(n)
		}
		if err != nil {
			return err
		}

		zap.L().Info("import complete",
			zap.Int64("imported", imported),
			zap.String("file", importFilePath),
			zap.String("user_id", importUserID),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFilePath, "file", "", "path to CSV or XLSX file (required)")
	importCmd.Flags().StringVar(&importUserID, "user-id", "", "owner of the imported companies (required)")
	_ = importCmd.MarkFlagRequired("file")
	_ = importCmd.MarkFlagRequired("user-id")
	rootCmd.AddCommand(importCmd)
}
