package service

import (
	"log"
	"sync"

	"github.com/robfig/cron/v3"
)

// ScheduledJob is one periodic trigger. Overlapping runs of the same job are
// skipped, not queued, the guard is process local.
type ScheduledJob struct {
	Name string
	Spec string
	Run  func()

	lock sync.Mutex
}

type Scheduler struct {
	Cron *cron.Cron
	Jobs []*ScheduledJob
}

func NewScheduler(jobs []*ScheduledJob) *Scheduler {
	return &Scheduler{
		Cron: cron.New(),
		Jobs: jobs,
	}
}

func (s *Scheduler) Start() error {
	for _, job := range s.Jobs {
		scheduled := job
		_, err := s.Cron.AddFunc(job.Spec, func() {
			scheduled.Invoke()
		})

		if err != nil {
			return err
		}

		log.Printf("[%s] Job scheduled: %s", job.Name, job.Spec)
	}

	s.Cron.Start()

	return nil
}

func (s *Scheduler) Stop() {
	s.Cron.Stop()
}

func (j *ScheduledJob) Invoke() {
	if !j.lock.TryLock() {
		log.Printf("[%s] Previous run is still in progress, tick skipped", j.Name)
		return
	}

	defer j.lock.Unlock()

	j.Run()
}
