package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history [asset_id]",
	Short: "점수 이력 조회",
	Long: `자산의 점수 이력을 조회합니다.

Example:
  go run ./cmd/scorer history bitcoin
  go run ./cmd/scorer history bitcoin --hours 24`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

var historyHours int

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyHours, "hours", 168, "조회 기간 (시간)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	assetID := args[0]

	a, err := initApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	to := time.Now().UTC()
	from := to.Add(-time.Duration(historyHours) * time.Hour)

	scores, err := a.store.GetHistory(cmd.Context(), assetID, from, to)
	if err != nil {
		return fmt.Errorf("get history: %w", err)
	}

	if len(scores) == 0 {
		fmt.Printf("No scores for %s in the last %dh\n", assetID, historyHours)
		return nil
	}

	fmt.Printf("Score history for %s (last %dh):\n\n", assetID, historyHours)
	fmt.Printf("%-25s %8s %8s  %s\n", "SCORED AT", "SCORE", "/100", "COMPLETE")
	for _, score := range scores {
		complete := "yes"
		if !score.Complete {
			complete = "partial"
		}
		fmt.Printf("%-25s %8.3f %8.1f  %s\n",
			score.ScoredAt.UTC().Format(time.RFC3339), score.Value, score.Display(), complete)
	}

	return nil
}
