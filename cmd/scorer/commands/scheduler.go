package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/cryptoscore/internal/scheduler"
	"github.com/wonny/cryptoscore/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/scorer scheduler start
  go run ./cmd/scorer scheduler run asset_scoring`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- asset_scoring: 매시간 (설정된 모든 자산 스코어링)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJobNow,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func initScheduler() (*scheduler.Scheduler, *app, error) {
	a, err := initApp(false)
	if err != nil {
		return nil, nil, err
	}

	sched := scheduler.New(a.log)
	if err := sched.AddJob(jobs.NewScoringJob(a.orchestrator, a.cfg, a.log)); err != nil {
		a.close()
		return nil, nil, fmt.Errorf("register scoring job: %w", err)
	}

	return sched, a, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== cryptoscore Scheduler ===")

	sched, a, err := initScheduler()
	if err != nil {
		return err
	}
	defer a.close()

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	sched, a, err := initScheduler()
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Println("Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}

	return nil
}

func runJobNow(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	sched, a, err := initScheduler()
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Printf("Running job: %s\n", jobName)

	history, err := runJobAndWait(sched, jobName)
	if err != nil {
		return err
	}

	if len(history.Results) > 0 {
		last := history.Results[len(history.Results)-1]
		if last.Success {
			fmt.Printf("✅ %s finished in %s\n", jobName, last.Duration)
		} else {
			fmt.Printf("❌ %s failed: %s\n", jobName, last.Error)
		}
	}

	return nil
}

// runJobAndWait triggers a job and polls until a result lands
func runJobAndWait(sched *scheduler.Scheduler, jobName string) (*scheduler.JobHistory, error) {
	before, err := sched.GetJobHistory(jobName)
	if err != nil {
		return nil, err
	}
	baseline := len(before.Results)

	if err := sched.RunJob(jobName); err != nil {
		return nil, fmt.Errorf("run job: %w", err)
	}

	for {
		history, err := sched.GetJobHistory(jobName)
		if err != nil {
			return nil, err
		}
		if len(history.Results) > baseline {
			return history, nil
		}
		time.Sleep(200 * time.Millisecond)
	}
}
