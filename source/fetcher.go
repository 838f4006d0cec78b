package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/aouyang1/go-pcrforecast/timedataset"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

var (
	ErrUnexpectedStatus = errors.New("unexpected http status")
	ErrNoFilename       = errors.New("source has no cache filename")
)

// FetcherOptions configures downloads and the local cache
type FetcherOptions struct {
	CacheDir string `json:"cache_dir"`

	// Refresh downloads even when a cached file exists
	Refresh bool `json:"refresh"`

	Timeout    time.Duration `json:"timeout"`
	MaxRetries int           `json:"max_retries"`
	BaseDelay  time.Duration `json:"base_delay"`

	RequestsPerSecond float64 `json:"requests_per_second"`
	Burst             int     `json:"burst"`

	// BreakerFailures consecutive failed downloads open the breaker for BreakerTimeout
	BreakerFailures uint32        `json:"breaker_failures"`
	BreakerTimeout  time.Duration `json:"breaker_timeout"`

	UserAgent string `json:"user_agent"`
}

func NewDefaultFetcherOptions() *FetcherOptions {
	return &FetcherOptions{
		CacheDir:          ".",
		Timeout:           30 * time.Second,
		MaxRetries:        3,
		BaseDelay:         500 * time.Millisecond,
		RequestsPerSecond: 1,
		Burst:             1,
		BreakerFailures:   3,
		BreakerTimeout:    60 * time.Second,
		UserAgent:         "go-pcrforecast",
	}
}

// Fetcher downloads sources into the cache directory
type Fetcher struct {
	opt     *FetcherOptions
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	logger  zerolog.Logger
}

func NewFetcher(opt *FetcherOptions) *Fetcher {
	if opt == nil {
		opt = NewDefaultFetcherOptions()
	}

	f := &Fetcher{
		opt:     opt,
		client:  &http.Client{Timeout: opt.Timeout},
		limiter: rate.NewLimiter(rate.Limit(opt.RequestsPerSecond), max(opt.Burst, 1)),
		logger:  zerolog.Nop(),
	}

	st := gobreaker.Settings{
		Name:    "mhlw",
		Timeout: opt.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= max(opt.BreakerFailures, 1)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			f.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	}
	f.breaker = gobreaker.NewCircuitBreaker(st)
	return f
}

func (f *Fetcher) SetLogger(logger zerolog.Logger) {
	f.logger = logger
}

// Path returns where the source is cached
func (f *Fetcher) Path(src Source) string {
	return filepath.Join(f.opt.CacheDir, src.Filename)
}

// Fetch returns the path of the cached source, downloading it first if it is missing or a
// refresh is requested
func (f *Fetcher) Fetch(ctx context.Context, src Source) (string, error) {
	if src.Filename == "" {
		return "", fmt.Errorf("source %s, %w", src.Name, ErrNoFilename)
	}
	path := f.Path(src)

	if !f.opt.Refresh {
		if _, err := os.Stat(path); err == nil {
			f.logger.Debug().Str("source", src.Name).Str("path", path).Msg("using cached csv")
			return path, nil
		}
	}

	body, err := f.download(ctx, src)
	if err != nil {
		return "", fmt.Errorf("unable to download %s, %w", src.Name, err)
	}
	if err := writeAtomic(path, body); err != nil {
		return "", fmt.Errorf("unable to cache %s, %w", src.Name, err)
	}
	f.logger.Info().
		Str("source", src.Name).
		Str("path", path).
		Int("bytes", len(body)).
		Msg("downloaded csv")
	return path, nil
}

// Load fetches the source and parses its daily counts
func (f *Fetcher) Load(ctx context.Context, src Source) ([]timedataset.DatedCount, error) {
	path, err := f.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s, %w", path, err)
	}
	defer file.Close()

	counts, err := ParseCSV(file)
	if err != nil {
		return nil, fmt.Errorf("unable to parse %s, %w", path, err)
	}
	return counts, nil
}

func (f *Fetcher) download(ctx context.Context, src Source) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= f.opt.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := f.opt.BaseDelay * time.Duration(1<<(attempt-1))
			f.logger.Warn().
				Err(lastErr).
				Str("source", src.Name).
				Int("attempt", attempt).
				Dur("delay", delay).
				Msg("retrying download")

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		res, err := f.breaker.Execute(func() (interface{}, error) {
			return f.get(ctx, src.URL)
		})
		if err == nil {
			return res.([]byte), nil
		}
		if !retryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("after %d attempts, %w", f.opt.MaxRetries+1, lastErr)
}

// StatusError is returned for a non 2xx response
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %d", ErrUnexpectedStatus.Error(), e.Code)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

func retryable(err error) bool {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= http.StatusInternalServerError || se.Code == http.StatusTooManyRequests
	}
	return true
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if f.opt.UserAgent != "" {
		req.Header.Set("User-Agent", f.opt.UserAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
