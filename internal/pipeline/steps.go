package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nao1215/abogus/internal/bogus"
	"github.com/nao1215/abogus/internal/model"
	"github.com/nao1215/abogus/internal/mstoken"
)

// ErrNoURL is returned by ExtractStep when the input contains no URL.
var ErrNoURL = errors.New("no URL found in input")

// ExtractStep replaces free-form share text in result.URL with the first
// link it contains.
type ExtractStep struct{}

// NewExtractStep creates a share-text extraction step.
func NewExtractStep() *ExtractStep {
	return &ExtractStep{}
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return "extract"
}

// Do executes the extraction step.
func (s *ExtractStep) Do(_ context.Context, result *model.SignResult) error {
	u := bogus.ExtractURL(result.URL)
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return fmt.Errorf("%w: %q", ErrNoURL, result.URL)
	}
	result.URL = u
	return nil
}

// QuerySigner is the part of bogus.Signer used by SignStep.
type QuerySigner interface {
	SignQuery(ctx context.Context, query, userAgent string) (string, error)
	UserAgent() string
}

// SignStep computes the a_bogus signature for result.URL.
type SignStep struct {
	signer QuerySigner
}

// NewSignStep creates a signing step backed by signer.
func NewSignStep(signer QuerySigner) *SignStep {
	return &SignStep{signer: signer}
}

// Name returns the step name.
func (s *SignStep) Name() string {
	return "sign"
}

// Do executes the signing step. An empty result.UserAgent is replaced by
// the signer's default so the result shows which agent the signature is
// bound to.
func (s *SignStep) Do(ctx context.Context, result *model.SignResult) error {
	query, err := bogus.QueryOf(result.URL)
	if err != nil {
		return err
	}
	result.Query = query

	if result.UserAgent == "" {
		result.UserAgent = s.signer.UserAgent()
	}

	start := time.Now()
	sig, err := s.signer.SignQuery(ctx, query, result.UserAgent)
	result.Elapsed = time.Since(start)
	if err != nil {
		return err
	}
	result.ABogus = sig
	return nil
}

// AppendStep stores result.URL with the signature appended in
// result.SignedURL. It does nothing when no signature was produced.
type AppendStep struct{}

// NewAppendStep creates a URL rewriting step.
func NewAppendStep() *AppendStep {
	return &AppendStep{}
}

// Name returns the step name.
func (s *AppendStep) Name() string {
	return "append"
}

// Do executes the append step.
func (s *AppendStep) Do(_ context.Context, result *model.SignResult) error {
	if result.ABogus == "" {
		return nil
	}
	signed, err := bogus.AppendSignature(result.URL, result.ABogus)
	if err != nil {
		return err
	}
	result.SignedURL = signed
	return nil
}

// TokenStep attaches a fresh ms_token to the result.
type TokenStep struct {
	generator *mstoken.Generator
	length    int
}

// NewTokenStep creates a token step. A nil generator uses crypto/rand.
func NewTokenStep(generator *mstoken.Generator, length int) *TokenStep {
	if generator == nil {
		generator = mstoken.New(nil)
	}
	return &TokenStep{
		generator: generator,
		length:    length,
	}
}

// Name returns the step name.
func (s *TokenStep) Name() string {
	return "ms_token"
}

// Do executes the token step.
func (s *TokenStep) Do(_ context.Context, result *model.SignResult) error {
	token, err := s.generator.Generate(s.length)
	if err != nil {
		return err
	}
	result.MsToken = token
	return nil
}
