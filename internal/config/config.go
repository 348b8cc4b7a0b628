package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/abogus/internal/bogus"
	"github.com/nao1215/abogus/internal/jsvm"
	"github.com/nao1215/abogus/internal/mstoken"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "abogus"

	// DefaultScriptPath is the signing script looked up in the current
	// directory and then in the XDG config directory.
	DefaultScriptPath = bogus.DefaultScriptPath

	// DefaultFunction is the function the script must export.
	DefaultFunction = bogus.DefaultFunction

	// DefaultEngine is the JavaScript engine name.
	DefaultEngine = string(jsvm.DefaultKind)

	// DefaultUserAgent is the user agent the signature is bound to when none
	// is given.
	DefaultUserAgent = bogus.DefaultUserAgent

	// DefaultTokenLength is the ms_token length.
	DefaultTokenLength = mstoken.DefaultLength

	// DefaultCallTimeout bounds one call into the script. Real a_bogus
	// scripts finish in a few milliseconds; a call that runs for seconds is
	// stuck.
	DefaultCallTimeout = bogus.DefaultCallTimeout

	// DefaultPoolSize is the number of loaded engines.
	DefaultPoolSize = 1

	// DefaultBatchSize is the number of URLs signed concurrently.
	DefaultBatchSize = 4

	// DefaultHistoryLimit is how many entries `history` shows.
	DefaultHistoryLimit = 20
)

// Config holds all options of a sign run. It is populated from defaults,
// then the config file, then CLI flags.
type Config struct {
	// ScriptPath is the path of the signing script.
	ScriptPath string

	// FunctionName is the global function called in the script.
	FunctionName string

	// Engine is the JavaScript engine name ("goja" or "otto").
	Engine string

	// UserAgent is passed to the script and must match the one used to send
	// the request.
	UserAgent string

	// TokenLength is the ms_token length.
	TokenLength int

	// CallTimeout bounds a single script call.
	CallTimeout time.Duration

	// PoolSize is the number of engines loaded with the script.
	PoolSize int

	// BatchSize is the number of URLs signed concurrently.
	BatchSize int

	// IncludeMsToken adds a fresh ms_token to every result.
	IncludeMsToken bool

	// AppendSignature adds the signed URL to every result.
	AppendSignature bool

	// ExtractFromText treats each target as pasted share text and pulls the
	// first URL out of it.
	ExtractFromText bool

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// Quiet prints only the signature, or the signed URL, per line.
	Quiet bool

	// ReportFile writes output to a file instead of stdout.
	ReportFile string

	// SaveToDB records each result in the history database.
	SaveToDB bool

	// DBDir is the directory holding the history database.
	DBDir string

	// ListFile is a file with one URL per line ("-" reads stdin).
	ListFile string

	// Targets are the URLs to sign.
	Targets []string

	// ConfigFilePath is the configuration file given with --config.
	ConfigFilePath string

	// Verbose enables debug logging.
	Verbose bool
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		ScriptPath:   DefaultScriptPath,
		FunctionName: DefaultFunction,
		Engine:       DefaultEngine,
		UserAgent:    DefaultUserAgent,
		TokenLength:  DefaultTokenLength,
		CallTimeout:  DefaultCallTimeout,
		PoolSize:     DefaultPoolSize,
		BatchSize:    DefaultBatchSize,
		SaveToDB:     true,
		DBDir:        XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for abogus.
// On Linux: ~/.local/share/abogus
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for abogus.
// On Linux: ~/.config/abogus
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration of a sign run and returns the first
// problem found.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	if c.ScriptPath == "" {
		return ErrNoScript
	}
	if c.FunctionName == "" {
		return ErrNoFunction
	}
	if _, err := jsvm.ParseKind(c.Engine); err != nil {
		return ErrInvalidEngine
	}
	if c.CallTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.PoolSize <= 0 {
		return ErrInvalidPoolSize
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.TokenLength < 0 {
		return ErrInvalidTokenLength
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}

// EngineKind returns the parsed engine kind. Call Validate first.
func (c *Config) EngineKind() jsvm.Kind {
	kind, err := jsvm.ParseKind(c.Engine)
	if err != nil {
		return jsvm.DefaultKind
	}
	return kind
}
