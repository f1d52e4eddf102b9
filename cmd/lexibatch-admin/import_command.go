package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/lexibatch/internal/excel"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	importCfg := excel.DefaultImportConfig()
	var name string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import an analyzed vocabulary list from an Excel or CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			importCfg.FilePath = args[0]
			if strings.TrimSpace(name) == "" {
				name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}

			senses, result, err := excel.ReadWordSenses(importCfg)
			if err != nil {
				return err
			}
			if len(senses) == 0 {
				return fmt.Errorf("no word senses found in %s", args[0])
			}

			svc, err := ctx.ensureService(cmd.Context())
			if err != nil {
				return err
			}
			db, err := svc.ImportVocabulary(cmd.Context(), ctx.userID(), name, senses)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %d of %d rows into database %d (%s)\n", result.Imported, result.TotalProcessed, db.ID, db.Name)
			if result.Skipped > 0 {
				fmt.Fprintf(out, "Skipped %d rows:\n", result.Skipped)
				for _, msg := range result.Errors {
					fmt.Fprintf(out, "  %s\n", msg)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Database name (defaults to the file name)")
	cmd.Flags().StringVar(&importCfg.SheetName, "sheet", "", "Sheet to read (defaults to the first sheet)")
	cmd.Flags().StringVar(&importCfg.WordColumn, "word-col", importCfg.WordColumn, "Column holding the word")
	cmd.Flags().StringVar(&importCfg.PartOfSpeechColumn, "pos-col", importCfg.PartOfSpeechColumn, "Column holding the part of speech")
	cmd.Flags().StringVar(&importCfg.TranslationColumn, "translation-col", importCfg.TranslationColumn, "Column holding the translation")
	cmd.Flags().StringVar(&importCfg.PositionColumn, "position-col", importCfg.PositionColumn, "Column holding the first-occurrence position (empty for row order)")
	cmd.Flags().IntVar(&importCfg.StartRow, "start-row", importCfg.StartRow, "First data row (1-based)")
	return cmd
}
