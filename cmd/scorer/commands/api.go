package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/cryptoscore/internal/api"
	"github.com/wonny/cryptoscore/internal/api/handlers"
	"github.com/wonny/cryptoscore/internal/api/ws"
	"github.com/wonny/cryptoscore/internal/scheduler"
	"github.com/wonny/cryptoscore/internal/scheduler/jobs"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 점수 조회/트리거 엔드포인트 제공
- 웹소켓 점수 스트림 제공
- (--with-scheduler) 주기적 스코어링 스케줄러 실행

Endpoints:
  GET  /health                        - Health check
  GET  /api/assets                    - 설정된 자산 목록
  GET  /api/scores/{asset}/latest     - 최신 점수
  GET  /api/scores/{asset}/history    - 점수 이력
  POST /api/scores/run                - 스코어링 트리거
  GET  /api/jobs                      - 스케줄러 작업 통계
  GET  /ws/scores                     - 실시간 점수 스트림

Example:
  go run ./cmd/scorer api
  go run ./cmd/scorer api --port 8089 --with-scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort          string
	apiWithScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT 환경변수)")
	apiCmd.Flags().BoolVar(&apiWithScheduler, "with-scheduler", false, "스케줄러 함께 실행")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== cryptoscore API Server ===")

	a, err := initApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	// Live score stream, fed by completed runs
	hub := ws.NewHub(a.log)
	a.orchestrator.SetNotifier(hub.Broadcast)

	var sched *scheduler.Scheduler
	if apiWithScheduler {
		sched = scheduler.New(a.log)
		if err := sched.AddJob(jobs.NewScoringJob(a.orchestrator, a.cfg, a.log)); err != nil {
			return fmt.Errorf("register scoring job: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	scoreHandler := handlers.NewScoreHandler(a.store, a.orchestrator, sched, a.cfg, a.log)
	router := api.NewRouter(scoreHandler, hub, a.log)
	server := api.New(a.cfg, a.log, router)

	go func() {
		if err := server.Start(); err != nil {
			a.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	a.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
