package main

import (
	"fmt"

	"github.com/go-extras/cobraflags"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const templateFlag = "template"

var recomputeFlags = map[string]cobraflags.Flag{
	templateFlag: &cobraflags.StringFlag{
		Name:  templateFlag,
		Value: "",
		Usage: "Template ID to restrict to (default: every template)",
	},
	sqliteFlag: sqliteDSNFlag(),
}

func newRecomputeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recompute-codes",
		Short: "Re-derive variant codes from the current prefix configuration",
		Long: `Run after changing RAW_PRODUCT_PREFIX, MAIN_PRODUCT_PREFIX or
PREFIX_SUFIX_SEPARATOR. Only codes that differ are written; running it twice is
a no-op.`,
		RunE: runRecompute,
	}
	cobraflags.RegisterMap(cmd, recomputeFlags)
	return cmd
}

func runRecompute(cmd *cobra.Command, _ []string) error {
	var templateID *uuid.UUID
	if s := recomputeFlags[templateFlag].GetString(); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return fmt.Errorf("--%s: %w", templateFlag, err)
		}
		templateID = &id
	}

	dsn, _ := cmd.Flags().GetString(sqliteFlag)
	svc, db, err := openService(dsn)
	if err != nil {
		return err
	}
	defer closeDB(db)

	n, err := svc.RecomputeCodes(cmd.Context(), templateID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d code(s) rewritten\n", n)
	return nil
}
