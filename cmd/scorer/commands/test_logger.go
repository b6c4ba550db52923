package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wonny/cryptoscore/pkg/config"
	"github.com/wonny/cryptoscore/pkg/logger"
)

// testLoggerCmd represents the test-logger command
var testLoggerCmd = &cobra.Command{
	Use:   "test-logger",
	Short: "Logger 기능 테스트",
	Long: `구조화된 로깅 기능을 테스트합니다.

이 명령어는:
- JSON/Console 포맷 테스트
- 구조화된 필드 로깅
- 에러 컨텍스트 로깅

Example:
  go run ./cmd/scorer test-logger`,
	RunE: runTestLogger,
}

func init() {
	rootCmd.AddCommand(testLoggerCmd)
}

func runTestLogger(cmd *cobra.Command, args []string) error {
	fmt.Println("=== cryptoscore Logger Test ===")

	fmt.Println("1. JSON Format (Production)")
	fmt.Println("--------------------------------")
	jsonLog := logger.New(&config.Config{
		Env:       "production",
		LogLevel:  "info",
		LogFormat: "json",
	})
	jsonLog.Info("Scoring run completed")
	jsonLog.WithField("asset_id", "bitcoin").Info("Score persisted")
	fmt.Println()

	fmt.Println("2. Console Format (Development)")
	fmt.Println("--------------------------------")
	consoleLog := logger.New(&config.Config{
		Env:       "development",
		LogLevel:  "debug",
		LogFormat: "console",
	})
	consoleLog.Debug("Collecting dimensions")
	consoleLog.Info("Run started")
	fmt.Println()

	fmt.Println("3. Structured Logging with Fields")
	fmt.Println("--------------------------------")
	consoleLog.WithFields(map[string]interface{}{
		"asset_id": "ethereum",
		"score":    0.715,
		"complete": true,
	}).Info("Composite score computed")
	fmt.Println()

	fmt.Println("4. Error Logging")
	fmt.Println("--------------------------------")
	consoleLog.WithError(errors.New("connection refused")).
		WithField("dimension", "market").
		Warn("Dimension collection failed")
	fmt.Println()

	fmt.Println("✅ All logger tests completed!")
	return nil
}
