package excel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/in-nis/smartschedule-back/internal/models"
)

// MaxWorkbookBytes caps uploaded and downloaded workbooks.
const MaxWorkbookBytes = 10 << 20

var ErrTooLarge = errors.New("workbook is too large")

var downloadClient = &http.Client{Timeout: 30 * time.Second}

// FetchCourses downloads a workbook, e.g. a Google Sheets export link, and
// parses its courses.
func FetchCourses(ctx context.Context, rawURL string) ([]models.Course, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid workbook url %q", rawURL)
	}
	slog.Info("downloading workbook", "host", u.Host)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := downloadClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch excel: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}
	return ParseCourses(LimitReader(resp.Body))
}

// LimitReader fails with ErrTooLarge once more than MaxWorkbookBytes are read.
func LimitReader(r io.Reader) io.Reader {
	return &limitedReader{r: io.LimitReader(r, MaxWorkbookBytes+1)}
}

type limitedReader struct {
	r io.Reader
	n int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.n += int64(n)
	if l.n > MaxWorkbookBytes {
		return n, ErrTooLarge
	}
	return n, err
}
