package shell

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/adsysio/adsys/internal/log"
	"github.com/adsysio/adsys/internal/model"
)

// SessionConfig is the configuration for a session.
type SessionConfig struct {
	// Dir is the initial working directory. Defaults to the process working
	// directory.
	Dir string
	// Env is the initial environment overlay.
	Env map[string]string
	// Runner executes the session's commands. Defaults to a new Executor.
	Runner Runner
	Logger log.Logger
}

func (c *SessionConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "shell.Session"})

	if c.Runner == nil {
		executor, err := NewExecutor(ExecutorConfig{Logger: c.Logger})
		if err != nil {
			return fmt.Errorf("could not create executor: %w", err)
		}
		c.Runner = executor
	}

	if c.Dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("could not get working directory: %w", err)
		}
		c.Dir = wd
	}

	absDir, err := filepath.Abs(c.Dir)
	if err != nil {
		return fmt.Errorf("could not resolve directory %q: %w", c.Dir, err)
	}
	info, err := os.Stat(absDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("directory %s: %w", absDir, model.ErrNotFound)
	}
	c.Dir = absDir

	return nil
}

// Session retains a working directory and an environment overlay across
// repeated executions. It is mutated only by explicit Cd/SetVar calls, never
// implicitly.
type Session struct {
	runner Runner
	logger log.Logger

	mu  sync.Mutex
	dir string
	env map[string]string
}

// NewSession creates a new session.
func NewSession(cfg SessionConfig) (*Session, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	env := map[string]string{}
	for k, v := range cfg.Env {
		env[k] = v
	}

	return &Session{
		runner: cfg.Runner,
		logger: cfg.Logger,
		dir:    cfg.Dir,
		env:    env,
	}, nil
}

// Run executes a request with the session's current directory and environment
// supplied. Request-level values take precedence. It never mutates the
// session.
func (s *Session) Run(ctx context.Context, req Request) (*model.ExecResult, error) {
	s.mu.Lock()
	if req.Dir == "" {
		req.Dir = s.dir
	}
	env := make(map[string]string, len(s.env)+len(req.Env))
	for k, v := range s.env {
		env[k] = v
	}
	for k, v := range req.Env {
		env[k] = v
	}
	req.Env = env
	s.mu.Unlock()

	return s.runner.Run(ctx, req)
}

// Cd changes the session's working directory. Relative paths resolve against
// the session's current directory, not the process working directory. The
// session is left unchanged when the resolved path is not an existing
// directory.
func (s *Session) Cd(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !filepath.IsAbs(path) {
		path = filepath.Join(s.dir, path)
	}
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("directory %s: %w", path, model.ErrNotFound)
	}

	s.dir = path
	s.logger.Debugf("Session working directory changed to: %s", s.dir)
	return nil
}

// Dir returns the session's current working directory.
func (s *Session) Dir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dir
}

// SetVar sets an environment variable on the session.
func (s *Session) SetVar(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.env[key] = value
}

// GetVar returns a session environment variable, falling back to the ambient
// environment and then to the provided default.
func (s *Session) GetVar(key, fallback string) string {
	s.mu.Lock()
	v, ok := s.env[key]
	s.mu.Unlock()
	if ok {
		return v
	}
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
