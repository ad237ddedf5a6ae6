// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package gdb

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/Satone7/mcp-server-gdb/internal/mi"
	"github.com/Satone7/mcp-server-gdb/pkg/process"
)

const (
	defaultCommandTimeout = 10 * time.Second
	defaultStopTimeout    = 30 * time.Second
	defaultCloseGrace     = 5 * time.Second
)

// Options configure manager-wide defaults for the sessions it creates.
type Options struct {
	// GDBPath is the debugger binary used when a launch configuration does
	// not name one. Empty means "gdb" from PATH.
	GDBPath string

	// CommandTimeout bounds the wait for a single MI command result.
	CommandTimeout time.Duration

	// StopTimeout bounds the wait for the next *stopped event after an
	// execution command.
	StopTimeout time.Duration

	// CloseGrace is how long CloseSession waits for the debugger to exit
	// on its own before killing it.
	CloseGrace time.Duration
}

func (o *Options) applyDefaults() {
	if o.CommandTimeout <= 0 {
		o.CommandTimeout = defaultCommandTimeout
	}
	if o.StopTimeout <= 0 {
		o.StopTimeout = defaultStopTimeout
	}
	if o.CloseGrace <= 0 {
		o.CloseGrace = defaultCloseGrace
	}
}

// Manager owns the set of live debugging sessions. All methods are safe
// for concurrent use.
type Manager struct {
	opts     Options
	executor process.Executor
	log      logr.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager. A nil executor gets the default
// OS-backed one.
func NewManager(opts Options, executor process.Executor, log logr.Logger) *Manager {
	opts.applyDefaults()
	if executor == nil {
		executor = process.NewOSExecutor(log)
	}
	return &Manager{
		opts:     opts,
		executor: executor,
		log:      log.WithName("gdb-manager"),
		sessions: make(map[string]*Session),
	}
}

// CreateSession launches a debugger subprocess per the configuration and
// registers a new session around it.
func (m *Manager) CreateSession(ctx context.Context, cfg LaunchConfig) (SessionInfo, error) {
	if err := cfg.Validate(); err != nil {
		return SessionInfo{}, err
	}

	sess := &Session{
		id:          uuid.NewString(),
		cfg:         cfg,
		createdAt:   time.Now(),
		cmdTimeout:  m.opts.CommandTimeout,
		stopTimeout: m.opts.StopTimeout,
		breakpoints: make(map[int]Breakpoint),
	}
	sess.log = m.log.WithName("session").WithValues("sessionID", sess.id)

	exitHandler := process.ProcessExitHandlerFunc(func(pid int32, exitCode int32, err error) {
		sess.onProcessExit(exitCode, err)
	})

	transport, pid, err := spawn(ctx, cfg, m.opts.GDBPath, m.executor, exitHandler, sess.log)
	if err != nil {
		return SessionInfo{}, err
	}
	sess.pid = pid
	sess.engine = mi.NewEngine(transport, sess, sess.log)
	sess.engine.Start()

	m.mu.Lock()
	m.sessions[sess.id] = sess
	m.mu.Unlock()

	m.log.Info("Created session", "sessionID", sess.id, "pid", pid, "program", cfg.Program)
	return sess.Info(), nil
}

// GetSession returns a snapshot of one session's state.
func (m *Manager) GetSession(sessionID string) (SessionInfo, error) {
	sess, err := m.session(sessionID)
	if err != nil {
		return SessionInfo{}, err
	}
	return sess.Info(), nil
}

// ListSessions returns snapshots of every live session, ordered by
// creation time.
func (m *Manager) ListSessions() []SessionInfo {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.mu.Unlock()

	infos := make([]SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		infos = append(infos, sess.Info())
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// CloseSession ends a session: it asks the debugger to exit, escalating to
// a kill after the grace period, and unregisters the session. Closing an
// unknown or already-closed session reports ErrSessionNotFound.
func (m *Manager) CloseSession(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	sess, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("session %q: %w", sessionID, ErrSessionNotFound)
	}

	m.closeSession(ctx, sess)
	m.log.Info("Closed session", "sessionID", sessionID)
	return nil
}

func (m *Manager) closeSession(ctx context.Context, sess *Session) {
	sess.mu.Lock()
	sess.closing = true
	exited := sess.exited
	sess.mu.Unlock()

	if !exited {
		// Best effort; the debugger may exit before acknowledging.
		exitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		_, _ = sess.engine.Execute(exitCtx, "-gdb-exit")
		cancel()

		if err := m.executor.StopProcess(sess.pid, m.opts.CloseGrace); err != nil {
			sess.log.Error(err, "Failed to stop debugger process", "pid", sess.pid)
		}
	}

	_ = sess.engine.Close()
}

// Shutdown closes every live session.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, sess := range sessions {
		wg.Add(1)
		go func(sess *Session) {
			defer wg.Done()
			m.closeSession(ctx, sess)
		}(sess)
	}
	wg.Wait()
}

func (m *Manager) session(sessionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %q: %w", sessionID, ErrSessionNotFound)
	}
	return sess, nil
}
