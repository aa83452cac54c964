package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"skillpulse/internal/engine"
	"skillpulse/internal/errors"
	"skillpulse/internal/store"

	"github.com/spf13/cobra"
)

var nextCmd = &cobra.Command{
	Use:   "next [employee-id]",
	Short: "Show the next catalog question for an employee",
	Long: `Run the deterministic question selector against the configured store and
print the question it picks. This is the same fallback path the server uses
when AI assistance is unavailable, so it needs no API key and makes no
network calls. A pending generated question, if one exists, takes priority
over the catalog.`,
	Args: cobra.ExactArgs(1),
	RunE: runNext,
}

var nextAsJSON bool

func init() {
	nextCmd.Flags().BoolVar(&nextAsJSON, "json", false, "Print the question as JSON")
}

func runNext(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)
	employeeID := args[0]

	st, err := store.New(&cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.LogError(err, "Failed to close store")
		}
	}()

	if _, err := st.GetEmployee(ctx, employeeID); err != nil {
		return err
	}

	// A pending generated question takes priority, same as the server path
	question, err := st.GetPendingQuestion(ctx, employeeID)
	if err != nil {
		if !errors.IsNotFound(err) {
			return err
		}

		catalog, err := st.GetCatalog(ctx)
		if err != nil {
			return err
		}
		history, err := st.GetHistory(ctx, employeeID)
		if err != nil {
			return err
		}

		question = engine.Select(catalog, history)
		if question == nil {
			return fmt.Errorf("no questions available for employee %s", employeeID)
		}
	}

	if nextAsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(question)
	}

	fmt.Printf("Question %d [%s]\n", question.ID, question.Type)
	fmt.Println(question.Text)
	for i, option := range question.Options {
		fmt.Printf("  %d. %s\n", i+1, option)
	}
	return nil
}
