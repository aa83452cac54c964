package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"skillpulse/internal/store"
	"skillpulse/internal/types"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a question catalog and employee roster into the store",
	Long: `Populate the configured store with a question catalog and employee
profiles. Without flags a small built-in sample set is written, which is
enough to exercise the API end to end. Use --catalog and --employees to load
your own JSON files instead.`,
	RunE: runSeed,
}

var (
	seedCatalogFile   string
	seedEmployeesFile string
)

func init() {
	seedCmd.Flags().StringVar(&seedCatalogFile, "catalog", "", "JSON file with the question catalog")
	seedCmd.Flags().StringVar(&seedEmployeesFile, "employees", "", "JSON file with employee profiles")
}

// seedEmployee is the on-disk employee shape for the seed command
type seedEmployee struct {
	types.Employee
	Skills []string `json:"skills,omitempty"`
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	st, err := store.New(&cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.LogError(err, "Failed to close store")
		}
	}()

	catalog, err := loadCatalog()
	if err != nil {
		return err
	}
	employees, err := loadEmployees()
	if err != nil {
		return err
	}

	if err := st.PutCatalog(ctx, catalog); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	for _, emp := range employees {
		if err := st.PutEmployee(ctx, emp.Employee, emp.Skills); err != nil {
			return fmt.Errorf("failed to write employee %s: %w", emp.ID, err)
		}
	}

	logger.Info("Store seeded",
		"backend", cfg.Store.Backend,
		"questions", len(catalog),
		"employees", len(employees))
	fmt.Printf("Seeded %d questions and %d employees\n", len(catalog), len(employees))
	return nil
}

func loadCatalog() ([]types.Question, error) {
	if seedCatalogFile == "" {
		return sampleCatalog(), nil
	}

	data, err := os.ReadFile(seedCatalogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	var catalog []types.Question
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}
	return catalog, nil
}

func loadEmployees() ([]seedEmployee, error) {
	if seedEmployeesFile == "" {
		return sampleEmployees(), nil
	}

	data, err := os.ReadFile(seedEmployeesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read employees file: %w", err)
	}
	var employees []seedEmployee
	if err := json.Unmarshal(data, &employees); err != nil {
		return nil, fmt.Errorf("failed to parse employees file: %w", err)
	}
	return employees, nil
}

func sampleCatalog() []types.Question {
	return []types.Question{
		{
			ID:      1,
			Type:    types.QuestionTechnical,
			Text:    "What does TCP stand for?",
			Options: []string{"Transmission Control Protocol", "Transfer Control Process", "Technical Connection Protocol", "Timed Connection Procedure"},
			Answer:  "Transmission Control Protocol",
		},
		{
			ID:   2,
			Type: types.QuestionGeneral,
			Text: "A teammate repeatedly misses agreed deadlines. How do you raise it?",
		},
		{
			ID:      3,
			Type:    types.QuestionTechnical,
			Text:    "Which data structure gives O(1) average lookup by key?",
			Options: []string{"Hash map", "Linked list", "Binary heap", "Sorted array"},
			Answer:  "Hash map",
		},
		{
			ID:   4,
			Type: types.QuestionGeneral,
			Text: "Describe a time you changed your approach after feedback.",
		},
		{
			ID:      5,
			Type:    types.QuestionTechnical,
			Text:    "What is the purpose of an index in a relational database?",
			Options: []string{"Speed up lookups", "Enforce encryption", "Compress rows", "Schedule backups"},
			Answer:  "Speed up lookups",
		},
	}
}

func sampleEmployees() []seedEmployee {
	return []seedEmployee{
		{
			Employee: types.Employee{ID: "emp-1", Name: "Ada Lovelace", Role: "Backend Engineer", Seniority: "Senior", Team: "Platform"},
			Skills:   []string{"Go", "PostgreSQL", "Kubernetes"},
		},
		{
			Employee: types.Employee{ID: "emp-2", Name: "Grace Hopper", Role: "Site Reliability Engineer", Seniority: "Staff", Team: "Infrastructure"},
			Skills:   []string{"Linux", "Terraform", "Networking"},
		},
	}
}
