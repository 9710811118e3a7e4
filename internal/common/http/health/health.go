package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"mockinterview/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	StatusUp   = "up"
	StatusDown = "down"

	runningMessage = "Backend is running!"
	defaultTimeout = 2 * time.Second
)

// Pinger is any dependency that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler pings every dependency concurrently. Any failing dependency turns the
// response into a 503 while keeping the same body shape.
func Handler(deps map[string]Pinger, timeout time.Duration) gin.HandlerFunc {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	names := make([]string, 0, len(deps))
	for name, dep := range deps {
		if dep != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		checks := make(map[string]string, len(names))
		var (
			mu sync.Mutex
			wg sync.WaitGroup
		)
		for _, name := range names {
			wg.Add(1)
			go func(name string, dep Pinger) {
				defer wg.Done()
				status := StatusUp
				if err := dep.Ping(ctx); err != nil {
					logger.Warn(ctx, "health check failed", zap.String("dependency", name), zap.Error(err))
					status = StatusDown
				}
				mu.Lock()
				checks[name] = status
				mu.Unlock()
			}(name, deps[name])
		}
		wg.Wait()

		code := http.StatusOK
		for _, status := range checks {
			if status != StatusUp {
				code = http.StatusServiceUnavailable
				break
			}
		}
		c.JSON(code, Response{Status: runningMessage, Checks: checks})
	}
}
