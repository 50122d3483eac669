package taskrunner

import (
	"fmt"
	"sync"

	logger "github.com/sirupsen/logrus"
)

// Progress is emitted once per completed item. Completed increases strictly
// from one report to the next; Item names whichever item finished last.
type Progress struct {
	Label     string
	Completed int
	Total     int
	Item      string
}

// Reporter receives progress updates from a single goroutine.
type Reporter interface {
	Report(progress Progress)
}

// ReporterFunc adapts a plain function to Reporter.
type ReporterFunc func(progress Progress)

// Report calls f.
func (f ReporterFunc) Report(progress Progress) { f(progress) }

// Options configures a Run.
type Options[T any] struct {
	Concurrency int
	Label       string
	Name        func(item T) string // defaults to fmt.Sprint
	Reporter    Reporter            // defaults to a logrus reporter
}

// Run drains items with a fixed pool of workers and blocks until every item
// has been processed. The queue is filled before any worker starts and
// nothing can be added afterwards. Errors are the worker's business: the
// runner neither recovers nor retries.
func Run[T any](items []T, worker func(item T), opts Options[T]) {
	if len(items) == 0 {
		return
	}

	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > len(items) {
		concurrency = len(items)
	}
	name := opts.Name
	if name == nil {
		name = func(item T) string { return fmt.Sprint(item) }
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = LogReporter()
	}

	queue := make(chan T, len(items))
	for _, item := range items {
		queue <- item
	}
	close(queue)

	done := make(chan string, concurrency)
	reported := make(chan struct{})
	go func() {
		defer close(reported)
		completed := 0
		for itemName := range done {
			completed++
			reporter.Report(Progress{
				Label:     opts.Label,
				Completed: completed,
				Total:     len(items),
				Item:      itemName,
			})
		}
	}()

	var wg sync.WaitGroup
	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range queue {
				worker(item)
				done <- name(item)
			}
		}()
	}

	wg.Wait()
	close(done)
	<-reported
}

// LogReporter logs every completion at info level.
func LogReporter() Reporter {
	return ReporterFunc(func(progress Progress) {
		logger.WithFields(logger.Fields{
			"completed": progress.Completed,
			"total":     progress.Total,
		}).Infof("%s: %s", progress.Label, progress.Item)
	})
}
