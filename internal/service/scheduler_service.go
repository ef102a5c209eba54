package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// SchedulerService runs the planner's periodic jobs on a cron.
// A panicking job is logged and recovered; a job still running when it fires again is skipped.
type SchedulerService struct {
	cron *cron.Cron
	ctx  context.Context
}

func NewSchedulerService(ctx context.Context, loc *time.Location) *SchedulerService {
	logger := cron.PrintfLogger(log.New(os.Stdout, "[cron] ", log.LstdFlags))
	return &SchedulerService{
		ctx: ctx,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
}

// ScheduleDaily registers job at the given HH:MM wall-clock time.
func (s *SchedulerService) ScheduleDaily(name, at string, job func(context.Context) error) (cron.EntryID, error) {
	spec, err := DailySpec(at)
	if err != nil {
		return 0, err
	}
	return s.add(name, spec, job)
}

// ScheduleInterval registers job every interval, rounded down to whole seconds.
func (s *SchedulerService) ScheduleInterval(name string, interval time.Duration, job func(context.Context) error) (cron.EntryID, error) {
	if interval < time.Second {
		return 0, fmt.Errorf("schedule %s: interval %s is shorter than a second", name, interval)
	}
	return s.add(name, fmt.Sprintf("@every %ds", int(interval.Seconds())), job)
}

// Next reports when the entry runs next. Zero before Start.
func (s *SchedulerService) Next(id cron.EntryID) time.Time {
	return s.cron.Entry(id).Next
}

func (s *SchedulerService) Len() int {
	return len(s.cron.Entries())
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish.
func (s *SchedulerService) Stop() {
	<-s.cron.Stop().Done()
}

func (s *SchedulerService) add(name, spec string, job func(context.Context) error) (cron.EntryID, error) {
	id, err := s.cron.AddFunc(spec, func() {
		if err := job(s.ctx); err != nil {
			log.Printf("[warn] job %s: %v", name, err)
		}
	})
	if err != nil {
		return 0, fmt.Errorf("schedule %s: %w", name, err)
	}
	log.Printf("[info] scheduled %s (%s)", name, spec)
	return id, nil
}

// DailySpec turns HH:MM into a seconds-enabled cron spec.
func DailySpec(at string) (string, error) {
	parts := strings.Split(strings.TrimSpace(at), ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", at)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", at)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in %q", at)
	}
	// second minute hour dom month dow
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}
