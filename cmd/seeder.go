package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/issue-tracker/internal/storage"
	"github.com/frahmantamala/issue-tracker/internal/store"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace the stored issues with sample data",
	Long: `Replace the stored issue collection with the built in demonstration issues,
or with the issues listed in a YAML fixture file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configDir)
		if err != nil {
			return err
		}
		lg := initLogger(cfg)

		s, kv, err := openStore(cmd.Context(), cfg, lg)
		if err != nil {
			return err
		}
		defer func() { _ = storage.Close(kv) }()

		if seedFile == "" {
			if err := s.Reseed(cmd.Context()); err != nil {
				return fmt.Errorf("failed to seed issues: %w", err)
			}
			fmt.Println("Seeded demonstration issues:", len(s.Issues()))
			return nil
		}

		f, err := os.Open(seedFile)
		if err != nil {
			return fmt.Errorf("failed to open fixture file: %w", err)
		}
		defer f.Close()

		issues, err := store.LoadFixtures(f)
		if err != nil {
			return err
		}
		if err := s.ReplaceIssues(cmd.Context(), issues); err != nil {
			return fmt.Errorf("failed to seed issues: %w", err)
		}
		fmt.Printf("Seeded %d issues from %s\n", len(issues), seedFile)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML fixture file with a top level issues list")
}
