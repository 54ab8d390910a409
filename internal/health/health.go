package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Status представляет статус компонента или сервиса целиком.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

const checkTimeout = 2 * time.Second

// Checker проверяет доступность одной зависимости (база, кэш, брокер).
type Checker interface {
	Check(ctx context.Context) error
}

// CheckerFunc адаптирует функцию к интерфейсу Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Check(ctx context.Context) error {
	return f(ctx)
}

// Check — результат одной проверки в ответе health endpoint.
type Check struct {
	Name       string `json:"name"`
	Status     Status `json:"status"`
	Message    string `json:"message,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// Response — полный ответ health endpoint.
type Response struct {
	Status        Status    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	Checks        []Check   `json:"checks,omitempty"`
	Version       string    `json:"version,omitempty"`
	UptimeSeconds int64     `json:"uptime_seconds"`
}

// Handler выполняет зарегистрированные проверки и отдаёт их по HTTP.
type Handler struct {
	mu        sync.RWMutex
	checkers  map[string]Checker
	version   string
	startTime time.Time
}

func NewHandler(version string) *Handler {
	return &Handler{
		checkers:  make(map[string]Checker),
		version:   version,
		startTime: time.Now(),
	}
}

// RegisterChecker добавляет проверку зависимости под заданным именем.
func (h *Handler) RegisterChecker(name string, checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[name] = checker
}

func (h *Handler) snapshot() map[string]Checker {
	h.mu.RLock()
	defer h.mu.RUnlock()
	checkers := make(map[string]Checker, len(h.checkers))
	for name, checker := range h.checkers {
		checkers[name] = checker
	}
	return checkers
}

func (h *Handler) runChecks(ctx context.Context) ([]Check, Status) {
	checkers := h.snapshot()

	names := make([]string, 0, len(checkers))
	for name := range checkers {
		names = append(names, name)
	}
	sort.Strings(names)

	overall := StatusHealthy
	checks := make([]Check, 0, len(names))
	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		start := time.Now()
		err := checkers[name].Check(checkCtx)
		cancel()

		check := Check{
			Name:       name,
			Status:     StatusHealthy,
			DurationMs: time.Since(start).Milliseconds(),
		}
		if err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
			overall = StatusUnhealthy
		}
		checks = append(checks, check)
	}

	return checks, overall
}

// ServeHTTP выполняет все проверки и возвращает развернутый отчёт.
// При отказе любой зависимости ответ имеет код 503.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks, overall := h.runChecks(r.Context())

	response := Response{
		Status:        overall,
		Timestamp:     time.Now(),
		Checks:        checks,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	}

	statusCode := http.StatusOK
	if overall == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

// LivenessHandler — liveness probe, всегда отвечает 200.
func LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// ReadinessHandler отвечает 200, только когда все зависимости доступны.
func (h *Handler) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	_, overall := h.runChecks(r.Context())
	if overall != StatusHealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
