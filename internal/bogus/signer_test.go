package bogus

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/abogus/internal/jsvm"
)

// testScript stands in for a_bogus.js. It is deterministic so results can
// be compared across engines.
const testScript = `
function generate_a_bogus(query, ua) {
	var h = 0;
	var s = query + "\n" + ua;
	for (var i = 0; i < s.length; i++) {
		h = (h * 31 + s.charCodeAt(i)) % 1000000007;
	}
	return "AB" + h.toString(36) + "/" + query.length;
}
function slow_sign(query, ua) {
	var i = 0;
	while (true) { i++; }
}
`

// writeScript writes content to a temp file and returns its path.
func writeScript(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "a_bogus.js")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}

func TestNewSigner(t *testing.T) {
	t.Parallel()

	t.Run("loads script from file with defaults", func(t *testing.T) {
		t.Parallel()

		s, err := NewSigner(WithScriptPath(writeScript(t, testScript)))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.Engine() != jsvm.KindGoja {
			t.Errorf("expected default engine goja, got %q", s.Engine())
		}
		if s.UserAgent() != DefaultUserAgent {
			t.Errorf("expected default user agent, got %q", s.UserAgent())
		}
		if s.PoolSize() != 1 {
			t.Errorf("expected pool size 1, got %d", s.PoolSize())
		}
	})

	t.Run("missing script returns ErrScriptNotFound", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nope.js")
		_, err := NewSigner(WithScriptPath(path))
		if !errors.Is(err, ErrScriptNotFound) {
			t.Errorf("expected ErrScriptNotFound, got %v", err)
		}
	})

	t.Run("empty script returns ErrEmptyScript", func(t *testing.T) {
		t.Parallel()

		_, err := NewSigner(WithScriptPath(writeScript(t, "  \n")))
		if !errors.Is(err, ErrEmptyScript) {
			t.Errorf("expected ErrEmptyScript, got %v", err)
		}
	})

	t.Run("missing function is rejected at startup", func(t *testing.T) {
		t.Parallel()

		_, err := NewSigner(
			WithScriptSource("fixture.js", testScript),
			WithFunction("sign_v2"),
		)
		if !errors.Is(err, jsvm.ErrFunctionNotFound) {
			t.Errorf("expected ErrFunctionNotFound, got %v", err)
		}
	})

	t.Run("script syntax error is a ScriptError", func(t *testing.T) {
		t.Parallel()

		_, err := NewSigner(WithScriptSource("broken.js", "function generate_a_bogus( {"))
		if !jsvm.IsScriptError(err) {
			t.Errorf("expected ScriptError, got %v", err)
		}
	})

	t.Run("unknown engine", func(t *testing.T) {
		t.Parallel()

		_, err := NewSigner(
			WithScriptSource("fixture.js", testScript),
			WithEngine(jsvm.Kind("rhino")),
		)
		if !errors.Is(err, jsvm.ErrUnknownEngine) {
			t.Errorf("expected ErrUnknownEngine, got %v", err)
		}
	})

	t.Run("applies pool size", func(t *testing.T) {
		t.Parallel()

		s, err := NewSigner(WithScriptSource("fixture.js", testScript), WithPoolSize(3))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.PoolSize() != 3 {
			t.Errorf("expected pool size 3, got %d", s.PoolSize())
		}
	})
}

func TestSigner_Sign(t *testing.T) {
	t.Parallel()

	const apiURL = "https://www.douyin.com/aweme/v1/web/aweme/detail/?device_platform=webapp&aid=6383&aweme_id=7345492945006595379"

	results := make(map[jsvm.Kind]string)
	var mu sync.Mutex

	for _, kind := range jsvm.Kinds() {
		t.Run(kind.String(), func(t *testing.T) {
			s, err := NewSigner(WithScriptSource("fixture.js", testScript), WithEngine(kind))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			sig, err := s.Sign(context.Background(), apiURL, "")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if sig == "" {
				t.Fatal("expected non-empty signature")
			}

			again, err := s.Sign(context.Background(), apiURL, DefaultUserAgent)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if sig != again {
				t.Errorf("empty user agent should select the default: %q != %q", sig, again)
			}

			other, err := s.Sign(context.Background(), apiURL, "curl/8.0")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if other == sig {
				t.Error("expected signature to depend on the user agent")
			}

			mu.Lock()
			results[kind] = sig
			mu.Unlock()
		})
	}

	if results[jsvm.KindGoja] != results[jsvm.KindOtto] {
		t.Errorf("engines disagree: goja=%q otto=%q", results[jsvm.KindGoja], results[jsvm.KindOtto])
	}
}

func TestSigner_SignQueryMatchesSign(t *testing.T) {
	t.Parallel()

	s, err := NewSigner(WithScriptSource("fixture.js", testScript))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fromURL, err := s.Sign(context.Background(), "https://example.com/x?a=1&b=2#frag", "ua")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fromQuery, err := s.SignQuery(context.Background(), "a=1&b=2", "ua")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fromURL != fromQuery {
		t.Errorf("expected %q, got %q", fromQuery, fromURL)
	}
}

func TestSigner_MalformedURL(t *testing.T) {
	t.Parallel()

	s, err := NewSigner(WithScriptSource("fixture.js", testScript))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := s.Sign(context.Background(), "http://[::1", "ua"); err == nil {
		t.Error("expected URL parse error")
	}
}

func TestSigner_SignURL(t *testing.T) {
	t.Parallel()

	s, err := NewSigner(WithScriptSource("fixture.js", testScript))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	signed, sig, err := s.SignURL(context.Background(), "https://example.com/api/?a=1", "ua")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want, err := AppendSignature("https://example.com/api/?a=1", sig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if signed != want {
		t.Errorf("expected %q, got %q", want, signed)
	}
}

func TestSigner_CallTimeout(t *testing.T) {
	t.Parallel()

	s, err := NewSigner(
		WithScriptSource("fixture.js", testScript),
		WithFunction("slow_sign"),
		WithCallTimeout(50*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = s.SignQuery(context.Background(), "a=1", "ua")
	if !errors.Is(err, jsvm.ErrInterrupted) {
		t.Fatalf("expected ErrInterrupted, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}

	// The interrupted engine is replaced, so the pool is still usable.
	_, err = s.SignQuery(context.Background(), "a=1", "ua")
	if !errors.Is(err, jsvm.ErrInterrupted) {
		t.Errorf("expected second call to run and time out again, got %v", err)
	}
}

func TestSigner_Concurrent(t *testing.T) {
	t.Parallel()

	s, err := NewSigner(WithScriptSource("fixture.js", testScript), WithPoolSize(4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want, err := s.SignQuery(context.Background(), "id=0", "ua")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := s.SignQuery(context.Background(), "id=0", "ua")
			if err != nil {
				errs <- err
				return
			}
			if got != want {
				errs <- fmt.Errorf("expected %q, got %q", want, got)
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestPool(t *testing.T) {
	t.Parallel()

	factory := func() (jsvm.Engine, error) {
		e, err := jsvm.New(jsvm.KindGoja)
		if err != nil {
			return nil, err
		}
		return e, e.Load("fixture.js", testScript)
	}

	t.Run("rejects non-positive size", func(t *testing.T) {
		t.Parallel()
		if _, err := NewPool(0, factory); !errors.Is(err, ErrInvalidPoolSize) {
			t.Errorf("expected ErrInvalidPoolSize, got %v", err)
		}
	})

	t.Run("acquire honors context when exhausted", func(t *testing.T) {
		t.Parallel()

		p, err := NewPool(1, factory)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		e, err := p.Acquire(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer p.Release(e)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if _, err := p.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected DeadlineExceeded, got %v", err)
		}
	})

	t.Run("factory error is returned", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		_, err := NewPool(2, func() (jsvm.Engine, error) { return nil, boom })
		if !errors.Is(err, boom) {
			t.Errorf("expected factory error, got %v", err)
		}
	})

	t.Run("replace keeps the pool size when factory fails", func(t *testing.T) {
		t.Parallel()

		calls := 0
		p, err := NewPool(1, func() (jsvm.Engine, error) {
			calls++
			if calls > 1 {
				return nil, errors.New("no more engines")
			}
			return factory()
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		e, err := p.Acquire(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := p.Replace(e); err == nil {
			t.Error("expected replace error")
		}
		if _, err := p.Acquire(context.Background()); err != nil {
			t.Errorf("expected engine back in pool, got %v", err)
		}
	})
}
