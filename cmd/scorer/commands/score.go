package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/wonny/cryptoscore/internal/contracts"
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score [asset_id...]",
	Short: "스코어링 파이프라인 실행",
	Long: `설정된 자산(또는 지정한 자산)의 종합 점수를 계산하고 저장합니다.

이 명령어는:
- 5개 차원(market, sentiment, community, developer, energy) 데이터 수집
- 기준 범위로 정규화 후 가중 합산
- PostgreSQL에 점수 저장 (--dry-run 시 저장 안 함)

Example:
  go run ./cmd/scorer score
  go run ./cmd/scorer score bitcoin
  go run ./cmd/scorer score bitcoin ethereum --dry-run`,
	RunE: runScore,
}

var scoreDryRun bool

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().BoolVar(&scoreDryRun, "dry-run", false, "점수를 저장하지 않고 출력만")
}

func runScore(cmd *cobra.Command, args []string) error {
	fmt.Println("=== cryptoscore pipeline ===")

	a, err := initApp(scoreDryRun)
	if err != nil {
		return err
	}
	defer a.close()

	assets := a.assets(args)
	if len(assets) == 0 {
		return fmt.Errorf("no matching assets in configured universe")
	}

	runs := a.orchestrator.RunAll(cmd.Context(), assets)

	fmt.Println()
	failed := 0
	for _, run := range runs {
		printRun(run)
		if run.State != contracts.RunComplete {
			failed++
		}
	}

	fmt.Printf("\n%d scored, %d failed\n", len(runs)-failed, failed)

	if failed == len(runs) {
		return fmt.Errorf("all scoring runs failed")
	}
	return nil
}

func printRun(run *contracts.PipelineRun) {
	if run.State != contracts.RunComplete {
		fmt.Printf("❌ %-14s FAILED at %s: %s\n", run.Asset.ID, run.Failure.Stage, run.Failure.Cause)
		return
	}

	score := run.Score
	marker := "✅"
	if !score.Complete {
		marker = "⚠️ "
	}

	fmt.Printf("%s %-14s %.3f (%.1f/100)", marker, score.AssetID, score.Value, score.Display())
	if !score.Complete {
		fmt.Print("  partial")
	}
	fmt.Println()

	dims := make([]contracts.Dimension, 0, len(score.Dimensions))
	for dim := range score.Dimensions {
		dims = append(dims, dim)
	}
	sort.Slice(dims, func(i, j int) bool { return dims[i] < dims[j] })

	for _, dim := range dims {
		ds := score.Dimensions[dim]
		if ds.Missing {
			fmt.Printf("     %-12s missing (%s)\n", dim, ds.Reason)
			continue
		}
		fmt.Printf("     %-12s %.3f  w=%.3f  [%s]\n", dim, ds.Value, score.EffectiveWeights[dim], ds.Source)
	}
}
