package main

import (
	"errors"
	"fmt"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
)

// errFindings makes the process exit non-zero when the audit found anything.
var errFindings = errors.New("pairing audit found violations")

var auditFlags = map[string]cobraflags.Flag{
	sqliteFlag: sqliteDSNFlag(),
}

func newAuditCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List variants that break a pairing rule",
		Long: `Scans every template and variant for role/flag contradictions, unpaired
variants of raw-enabled templates and pairs spanning two templates.
Exits with a non-zero status when anything is found.`,
		RunE: runAudit,
	}
	cobraflags.RegisterMap(cmd, auditFlags)
	return cmd
}

func runAudit(cmd *cobra.Command, _ []string) error {
	dsn, _ := cmd.Flags().GetString(sqliteFlag)
	svc, db, err := openService(dsn)
	if err != nil {
		return err
	}
	defer closeDB(db)

	findings, err := svc.Audit(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, f := range findings {
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", f.Invariant, f.ProductID, f.Code, f.Detail)
	}
	fmt.Fprintf(out, "%d finding(s)\n", len(findings))

	if len(findings) > 0 {
		return errFindings
	}
	return nil
}
