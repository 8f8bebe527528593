package cmd

import (
	"context"
	"fmt"
	"os"

	"options-trading/internal/repository"

	"github.com/spf13/cobra"
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Check every play record and structurally repair corrupted ones",
	Run:   Repair,
}

// Repair runs one check-and-fix pass over the record store. Nothing to fix
// is a success; only an unrecoverable I/O error exits non-zero.
func Repair(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	appDep, err := NewAppDependency(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer appDep.Close()

	store, err := repository.NewPlayStoreRepository(appDep.cfg.Store.BaseDir, appDep.log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open record store: %v\n", err)
		os.Exit(1)
	}

	fixed, err := store.CheckAndFixAllPlays(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "repair failed: %v\n", err)
		os.Exit(1)
	}

	if fixed == 0 {
		fmt.Println("All play records are intact, nothing to fix.")
		return
	}
	fmt.Printf("Repaired %d play record(s); review records flagged integrity=false.\n", fixed)
}
