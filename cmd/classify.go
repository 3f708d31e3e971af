package cmd

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/issue-tracker/internal"
	"github.com/frahmantamala/issue-tracker/internal/classifier"
)

var (
	classifyTitle       string
	classifyDescription string
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Run the configured classifier on a single report",
	RunE: func(cmd *cobra.Command, args []string) error {
		if classifyTitle == "" || classifyDescription == "" {
			return errors.New("both --title and --description are required")
		}

		cfg, err := loadConfig(configDir)
		if err != nil {
			return err
		}
		lg := initLogger(cfg)

		clf, err := classifier.New(cfg.Classifier, nil, lg)
		if err != nil {
			return err
		}

		ctx, cancel := internal.WithTimeout(cmd.Context(), cfg.Classifier.Timeout)
		defer cancel()
		result := clf.Classify(ctx, classifyTitle, classifyDescription)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(classifier.ClassifyResponse{
			Result:     result,
			AIAnalysis: classifier.FormatAnalysis(result),
		})
	},
}

func init() {
	classifyCmd.Flags().StringVar(&classifyTitle, "title", "", "issue title")
	classifyCmd.Flags().StringVar(&classifyDescription, "description", "", "issue description")
}
