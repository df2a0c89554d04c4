package checkout

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/providers"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/infrastructure/observability"
	"golang.org/x/sync/singleflight"
)

const (
	defaultScriptTimeout = 10 * time.Second
	maxScriptBytes       = 2 << 20
)

// HTTPScriptLoader downloads the checkout script once and keeps it for the
// life of the process. A failed download is not cached.
type HTTPScriptLoader struct {
	url        string
	httpClient *http.Client
	group      singleflight.Group

	mu     sync.RWMutex
	script []byte
}

var _ providers.ScriptLoader = (*HTTPScriptLoader)(nil)

// NewHTTPScriptLoader creates a loader for the script at url
func NewHTTPScriptLoader(url string, httpClient *http.Client) *HTTPScriptLoader {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultScriptTimeout}
	}
	return &HTTPScriptLoader{url: url, httpClient: httpClient}
}

// Load returns the script, fetching it on first use. Concurrent first calls
// share one download.
func (l *HTTPScriptLoader) Load(ctx context.Context) ([]byte, error) {
	if script := l.cached(); script != nil {
		return script, nil
	}

	v, err, shared := l.group.Do(l.url, func() (interface{}, error) {
		if script := l.cached(); script != nil {
			return script, nil
		}
		// one caller giving up must not fail the others sharing this fetch
		script, err := l.fetch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.script = script
		l.mu.Unlock()
		return script, nil
	})
	if err != nil {
		return nil, err
	}

	observability.LoggerFromContext(ctx).Debug().
		Str("url", l.url).
		Bool("shared", shared).
		Msg("checkout script loaded")
	return v.([]byte), nil
}

func (l *HTTPScriptLoader) cached() []byte {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.script
}

func (l *HTTPScriptLoader) fetch(ctx context.Context) ([]byte, error) {
	ctx, span := observability.StartSpan(ctx, "HTTPScriptLoader.fetch")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid checkout script url: %w", err)
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("failed to download checkout script: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("checkout script returned status %d", resp.StatusCode)
		observability.RecordError(span, err)
		return nil, err
	}
	script, err := io.ReadAll(io.LimitReader(resp.Body, maxScriptBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read checkout script: %w", err)
	}
	if len(script) == 0 {
		return nil, fmt.Errorf("checkout script is empty")
	}
	return script, nil
}
