package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"IndexSync/internal/notifier"
	"IndexSync/internal/recorder"
	"IndexSync/internal/series"
	"IndexSync/internal/updater"
)

// Scheduler runs the updater once or on a cron schedule, and reports each run.
type Scheduler struct {
	Cron     *cron.Cron
	Runner   *updater.Runner
	Recorder recorder.Recorder
	Notifier *notifier.TelegramNotifier // nil disables push notifications
	Symbol   string
	TailRows int
	Ctx      context.Context

	mu sync.Mutex // one run at a time touches the series file
}

// NewScheduler creates a new Scheduler. Cron specs are evaluated in loc.
func NewScheduler(ctx context.Context, runner *updater.Runner, rec recorder.Recorder, tn *notifier.TelegramNotifier, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		Runner:   runner,
		Recorder: rec,
		Notifier: tn,
		TailRows: 5,
		Ctx:      ctx,
	}
}

// Register schedules the update task. Runs never overlap.
func (s *Scheduler) Register(spec string) error {
	job := cron.NewChain(cron.SkipIfStillRunning(cron.DefaultLogger)).Then(cron.FuncJob(s.RunTask))
	if _, err := s.Cron.AddJob(spec, job); err != nil {
		return fmt.Errorf("register update task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running update to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes one update immediately, records it and prints the tail.
func (s *Scheduler) RunNow() (*updater.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	res, err := s.Runner.Run(s.Ctx)
	s.record(started, res, err)
	if err != nil {
		return nil, err
	}

	switch res.Outcome {
	case updater.OutcomeUpdated:
		tail := series.Tail(res.Series, s.TailRows)
		fmt.Printf("\nlast %d rows:\n%s\n", len(tail), notifier.FormatTail(tail))
		s.trySend(notifier.FormatRunSummary(s.Symbol, res, tail))
	case updater.OutcomeNoData:
		fmt.Println("nothing to update")
		s.trySend(notifier.FormatRunSummary(s.Symbol, res, nil))
	case updater.OutcomeUpToDate:
		fmt.Println("already up to date")
	}
	return res, nil
}

// RunTask runs one update for background callers: a failure is logged and
// pushed as a notification instead of being returned.
func (s *Scheduler) RunTask() {
	log.Println("[INFO] running update task")
	if _, err := s.RunNow(); err != nil {
		log.Printf("[ERROR] update task: %v", err)
		s.trySend(fmt.Sprintf("❌ 資料更新失敗: %v", err))
	}
}

func (s *Scheduler) record(started time.Time, res *updater.Result, runErr error) {
	evt := &recorder.RunEvent{StartedAt: started, Duration: time.Since(started)}
	if runErr != nil {
		evt.Outcome = "FAILED"
		evt.Error = runErr.Error()
	} else {
		evt.Outcome = string(res.Outcome)
		evt.LastBefore = res.LastBefore.String()
		evt.LastAfter = res.LastAfter.String()
		evt.SourceADays = res.SourceADays
		evt.SourceBBars = res.SourceBBars
		evt.BatchSize = len(res.Batch)
		evt.Incomplete = len(res.Incomplete)
		evt.SeriesSize = len(res.Series)
	}
	if err := s.Recorder.RecordRun(evt); err != nil {
		log.Printf("[ERROR] record run: %v", err)
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
