package task

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/warp-contracts/vault/src/utils/config"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestTaskTestSuite(t *testing.T) {
	suite.Run(t, new(TaskTestSuite))
}

type TaskTestSuite struct {
	suite.Suite
	config *config.Config
}

func (s *TaskTestSuite) SetupSuite() {
	s.config = config.Default()
	s.config.StopTimeout = 5 * time.Second
}

func (s *TaskTestSuite) waitDone(task *Task) {
	select {
	case <-task.CtxRunning.Done():
	case <-time.After(5 * time.Second):
		s.FailNow("task didn't finish")
	}
}

func (s *TaskTestSuite) TestLifecycle() {
	var (
		mtx   sync.Mutex
		calls []string
	)
	record := func(name string) {
		mtx.Lock()
		defer mtx.Unlock()
		calls = append(calls, name)
	}

	child := NewTask(s.config, "child").
		WithSubtaskFunc(func() error {
			record("child-run")
			return nil
		}).
		WithOnStop(func() { record("child-stop") })

	parent := NewTask(s.config, "parent").
		WithSubtask(child).
		WithConditionalSubtask(false, NewTask(s.config, "disabled").WithOnBeforeStart(func() error {
			record("disabled")
			return nil
		})).
		WithOnBeforeStart(func() error {
			record("before-start")
			return nil
		}).
		WithOnAfterStop(func() { record("after-stop") })

	s.Require().Nil(parent.Start())
	parent.StopWait()
	s.waitDone(parent)

	mtx.Lock()
	defer mtx.Unlock()
	s.Require().Equal("before-start", calls[0])
	s.Require().Contains(calls, "child-run")
	s.Require().Contains(calls, "child-stop")
	s.Require().NotContains(calls, "disabled")
	s.Require().Equal("after-stop", calls[len(calls)-1])
	s.Require().True(parent.IsStopping.Load())
}

func (s *TaskTestSuite) TestFailedStart() {
	task := NewTask(s.config, "failing").
		WithOnBeforeStart(func() error { return errors.New("no") })
	s.Require().Error(task.Start())
}

func (s *TaskTestSuite) TestPeriodic() {
	var (
		mtx   sync.Mutex
		count int
	)
	task := NewTask(s.config, "periodic").
		WithPeriodicSubtaskFunc(10*time.Millisecond, func() error {
			mtx.Lock()
			defer mtx.Unlock()
			count++
			return nil
		})

	s.Require().Nil(task.Start())
	s.Require().Eventually(func() bool {
		mtx.Lock()
		defer mtx.Unlock()
		return count >= 3
	}, 5*time.Second, 5*time.Millisecond)

	task.StopWait()
	s.waitDone(task)
}

func (s *TaskTestSuite) TestWorkerPool() {
	var (
		wg    sync.WaitGroup
		mtx   sync.Mutex
		count int
		task  *Task
	)

	wg.Add(10)
	task = NewTask(s.config, "workers").
		WithWorkerPool(2, 1).
		WithSubtaskFunc(func() error {
			for i := 0; i < 10; i++ {
				task.SubmitToWorker(func() {
					defer wg.Done()
					mtx.Lock()
					defer mtx.Unlock()
					count++
				})
			}
			return nil
		})

	s.Require().Nil(task.Start())
	wg.Wait()
	task.StopWait()

	s.Require().Equal(10, count)
}

func (s *TaskTestSuite) TestProcessor() {
	var (
		mtx     sync.Mutex
		batches [][]int
	)

	input := make(chan int)
	processor := NewProcessor[int, int](s.config, "processor").
		WithBatchSize(3).
		WithInputChannel(input).
		WithOnProcess(func(in int) ([]int, error) {
			if in < 0 {
				return nil, errors.New("negative")
			}
			return []int{in * 10}, nil
		}).
		WithOnFlush(time.Minute, func(data []int) error {
			mtx.Lock()
			defer mtx.Unlock()
			batches = append(batches, data)
			return nil
		})

	s.Require().Nil(processor.Start())

	for _, v := range []int{1, 2, -1, 3, 4, 5, 6, 7} {
		input <- v
	}
	close(input)
	s.waitDone(processor.Task)

	mtx.Lock()
	defer mtx.Unlock()
	s.Require().Equal([][]int{{10, 20, 30}, {40, 50, 60}, {70}}, batches)
}

func (s *TaskTestSuite) TestProcessorRetriesFlush() {
	var (
		mtx      sync.Mutex
		attempts int
		flushed  []int
	)

	input := make(chan int)
	processor := NewProcessor[int, int](s.config, "retrying").
		WithInputChannel(input).
		WithBackoff(0, 10*time.Millisecond).
		WithOnProcess(func(in int) ([]int, error) { return []int{in}, nil }).
		WithOnFlush(time.Minute, func(data []int) error {
			mtx.Lock()
			defer mtx.Unlock()
			attempts++
			if attempts < 3 {
				return errors.New("db down")
			}
			flushed = append(flushed, data...)
			return nil
		})

	s.Require().Nil(processor.Start())
	input <- 42
	close(input)
	s.waitDone(processor.Task)

	mtx.Lock()
	defer mtx.Unlock()
	s.Require().Equal(3, attempts)
	s.Require().Equal([]int{42}, flushed)
}

func TestRetry(t *testing.T) {
	attempts := 0
	err := NewRetry().
		WithMaxInterval(time.Millisecond).
		WithMaxElapsedTime(5 * time.Second).
		Run(func() error {
			attempts++
			if attempts < 3 {
				return errors.New("again")
			}
			return nil
		})
	require.Nil(t, err)
	require.Equal(t, 3, attempts)

	attempts = 0
	stop := errors.New("stop")
	err = NewRetry().
		WithOnError(func(err error, isDurationAcceptable bool) error {
			return backoff.Permanent(err)
		}).
		Run(func() error {
			attempts++
			return stop
		})
	require.ErrorIs(t, err, stop)
	require.Equal(t, 1, attempts)
}
