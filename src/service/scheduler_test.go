package service

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScheduledJobSkipsOverlappingRuns(t *testing.T) {
	assertion := assert.New(t)

	var runs int32
	blockFirst := make(chan struct{})
	firstStarted := make(chan struct{})

	job := &ScheduledJob{
		Name: "buy-tick",
		Spec: "* * * * *",
		Run: func() {
			if atomic.AddInt32(&runs, 1) == 1 {
				close(firstStarted)
				<-blockFirst
			}
		},
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		job.Invoke()
	}()

	<-firstStarted

	// the first run holds the job, the second tick is dropped
	job.Invoke()
	assertion.Equal(int32(1), atomic.LoadInt32(&runs))

	close(blockFirst)
	wg.Wait()

	// the job is available again once the previous run finished
	job.Invoke()
	assertion.Equal(int32(2), atomic.LoadInt32(&runs))
}

func TestSchedulerRejectsInvalidSpec(t *testing.T) {
	assertion := assert.New(t)

	scheduler := NewScheduler([]*ScheduledJob{
		{Name: "broken", Spec: "not-a-cron", Run: func() {}},
	})

	assertion.Error(scheduler.Start())
}
