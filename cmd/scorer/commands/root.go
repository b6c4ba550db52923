package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scorer",
	Short: "cryptoscore - 크립토 자산 종합 점수 파이프라인",
	Long: `cryptoscore CLI

시장, 심리, 커뮤니티, 개발 활동, 에너지 5개 차원을 수집해
가중 합산 점수를 계산하고 저장합니다.

Usage:
  go run ./cmd/scorer [command]

Examples:
  go run ./cmd/scorer score
  go run ./cmd/scorer score bitcoin --dry-run
  go run ./cmd/scorer api
  go run ./cmd/scorer scheduler start
  go run ./cmd/scorer history bitcoin --hours 24`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
