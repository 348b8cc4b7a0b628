package bogus

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nao1215/abogus/internal/jsvm"
)

const (
	// DefaultScriptPath is where the signing script is looked up when no
	// path is configured.
	DefaultScriptPath = "a_bogus.js"

	// DefaultFunction is the global function the script must export.
	DefaultFunction = "generate_a_bogus"

	// DefaultUserAgent is used when a call does not supply a user agent. The
	// signature is bound to the user agent, so requests must be sent with
	// the same value.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

	// DefaultCallTimeout bounds a single call into the script.
	DefaultCallTimeout = 10 * time.Second
)

// Signer produces a_bogus signatures with an external script.
// It is safe for concurrent use; concurrency is limited by the pool size.
type Signer struct {
	scriptPath  string
	scriptName  string
	source      string
	function    string
	kind        jsvm.Kind
	userAgent   string
	callTimeout time.Duration
	poolSize    int
	logger      *slog.Logger

	pool *Pool
}

// Option configures a Signer.
type Option func(*Signer)

// WithScriptPath sets the path of the signing script.
func WithScriptPath(path string) Option {
	return func(s *Signer) {
		if path != "" {
			s.scriptPath = path
		}
	}
}

// WithScriptSource supplies the script text directly instead of reading a
// file. name is used in script error messages.
func WithScriptSource(name, source string) Option {
	return func(s *Signer) {
		s.scriptName = name
		s.source = source
	}
}

// WithFunction sets the exported function to call.
func WithFunction(name string) Option {
	return func(s *Signer) {
		if name != "" {
			s.function = name
		}
	}
}

// WithEngine selects the JavaScript engine.
func WithEngine(kind jsvm.Kind) Option {
	return func(s *Signer) {
		if kind != "" {
			s.kind = kind
		}
	}
}

// WithUserAgent sets the user agent used when a call passes an empty one.
func WithUserAgent(ua string) Option {
	return func(s *Signer) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithCallTimeout bounds each call into the script. Zero disables the bound.
func WithCallTimeout(d time.Duration) Option {
	return func(s *Signer) {
		if d >= 0 {
			s.callTimeout = d
		}
	}
}

// WithPoolSize sets how many engines are loaded. Each engine serves one
// call at a time.
func WithPoolSize(n int) Option {
	return func(s *Signer) {
		if n > 0 {
			s.poolSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Signer) {
		s.logger = logger
	}
}

// NewSigner reads the signing script, loads it into the engine pool and
// checks that the exported function exists. A missing script file is
// reported as ErrScriptNotFound.
func NewSigner(opts ...Option) (*Signer, error) {
	s := &Signer{
		scriptPath:  DefaultScriptPath,
		function:    DefaultFunction,
		kind:        jsvm.DefaultKind,
		userAgent:   DefaultUserAgent,
		callTimeout: DefaultCallTimeout,
		poolSize:    1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	if s.source == "" {
		if err := s.readScript(); err != nil {
			return nil, err
		}
	} else if s.scriptName == "" {
		s.scriptName = "inline.js"
	}
	if strings.TrimSpace(s.source) == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyScript, s.scriptName)
	}

	start := time.Now()
	pool, err := NewPool(s.poolSize, s.newEngine)
	if err != nil {
		return nil, err
	}
	s.pool = pool

	s.logger.Debug("signing script loaded",
		"script", s.scriptName,
		"engine", s.kind,
		"function", s.function,
		"pool_size", s.poolSize,
		"elapsed", time.Since(start),
	)
	return s, nil
}

// readScript loads the script file into s.source.
func (s *Signer) readScript() error {
	data, err := os.ReadFile(s.scriptPath) //nolint:gosec // script path is user configuration
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrScriptNotFound, s.scriptPath)
		}
		return fmt.Errorf("failed to read signing script: %w", err)
	}
	s.source = string(data)
	s.scriptName = filepath.Base(s.scriptPath)
	return nil
}

// newEngine creates an engine with the script loaded and the function verified.
func (s *Signer) newEngine() (jsvm.Engine, error) {
	e, err := jsvm.New(s.kind)
	if err != nil {
		return nil, err
	}
	if err := e.Load(s.scriptName, s.source); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", s.scriptName, err)
	}
	if !e.HasFunction(s.function) {
		return nil, fmt.Errorf("%w: %s in %s", jsvm.ErrFunctionNotFound, s.function, s.scriptName)
	}
	return e, nil
}

// Engine returns the configured engine kind.
func (s *Signer) Engine() jsvm.Kind {
	return s.kind
}

// UserAgent returns the default user agent.
func (s *Signer) UserAgent() string {
	return s.userAgent
}

// PoolSize returns the number of loaded engines.
func (s *Signer) PoolSize() int {
	return s.pool.Size()
}

// Sign returns the signature for rawURL's query component and userAgent.
// An empty userAgent selects the signer's default. URL parse errors are
// returned unchanged.
func (s *Signer) Sign(ctx context.Context, rawURL, userAgent string) (string, error) {
	query, err := QueryOf(rawURL)
	if err != nil {
		return "", err
	}
	return s.SignQuery(ctx, query, userAgent)
}

// SignQuery returns the signature for an already extracted query string.
func (s *Signer) SignQuery(ctx context.Context, query, userAgent string) (string, error) {
	if userAgent == "" {
		userAgent = s.userAgent
	}

	if s.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.callTimeout)
		defer cancel()
	}

	e, err := s.pool.Acquire(ctx)
	if err != nil {
		return "", fmt.Errorf("no signing engine available: %w", err)
	}

	sig, err := e.Call(ctx, s.function, query, userAgent)
	if errors.Is(err, jsvm.ErrInterrupted) {
		if rerr := s.pool.Replace(e); rerr != nil {
			s.logger.Warn("failed to reload engine after interrupt", "error", rerr)
		}
	} else {
		s.pool.Release(e)
	}
	if err != nil {
		return "", fmt.Errorf("%s failed: %w", s.function, err)
	}

	s.logger.Debug("request signed",
		"query_length", len(query),
		"a_bogus", sig,
	)
	return sig, nil
}

// SignURL signs rawURL and returns it with the a_bogus parameter appended,
// together with the bare signature.
func (s *Signer) SignURL(ctx context.Context, rawURL, userAgent string) (signedURL, sig string, err error) {
	sig, err = s.Sign(ctx, rawURL, userAgent)
	if err != nil {
		return "", "", err
	}
	signedURL, err = AppendSignature(rawURL, sig)
	if err != nil {
		return "", "", err
	}
	return signedURL, sig, nil
}
