// gojlink
// Copyright (c) 2024 The gojlink Authors.
// SPDX-License-Identifier: MIT

package gojlink

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// ProbeLock is a PID-style lockfile for a single physical debug probe.
//
// Nothing in the probe firmware or in this module prevents two processes
// from opening the same probe; interleaved transactions corrupt the bit
// framing on the wire. Processes that share a probe should acquire its
// ProbeLock before opening a transport and hold it until the transport is
// closed. The lockfile stores the owning PID so that a lock left behind by
// a crashed process can be taken over.
type ProbeLock struct {
	// Path is the full path of the lockfile.
	Path string

	fd       int
	acquired bool
}

// NewProbeLock returns the lock for the probe with the given serial
// number. The lockfile lives in the system temporary directory.
func NewProbeLock(serial uint32) *ProbeLock {
	name := fmt.Sprintf(".gojlink-usb-%d.lck", serial)
	return &ProbeLock{Path: filepath.Join(os.TempDir(), name), fd: -1}
}

// Acquire attempts to take the lock. If the lockfile exists but its PID no
// longer corresponds to a live process, the stale file is removed first.
// Returns false if another live process holds the lock.
func (l *ProbeLock) Acquire() (bool, error) {
	if l.acquired {
		return true, nil
	}
	l.removeIfStale()

	fd, err := unix.Open(l.Path, unix.O_CREAT|unix.O_EXCL|unix.O_RDWR, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("creating lockfile %s: %w", l.Path, err)
	}

	// The owning PID is recorded so a later process can detect a lock
	// orphaned by a crash.
	if _, err := unix.Write(fd, []byte(strconv.Itoa(os.Getpid())+"\n")); err != nil {
		unix.Close(fd)
		os.Remove(l.Path)
		return false, fmt.Errorf("writing lockfile %s: %w", l.Path, err)
	}

	l.fd = fd
	l.acquired = true
	logger.Debugf("acquired probe lock %s", l.Path)
	return true, nil
}

// Acquired reports whether this instance currently holds the lock.
func (l *ProbeLock) Acquired() bool {
	return l.acquired
}

// Release drops the lock if it was acquired. Returns false if the lock was
// not held.
func (l *ProbeLock) Release() bool {
	if !l.acquired {
		return false
	}
	unix.Close(l.fd)
	os.Remove(l.Path)
	l.fd = -1
	l.acquired = false
	logger.Debugf("released probe lock %s", l.Path)
	return true
}

// removeIfStale deletes the lockfile when it is unreadable, malformed, or
// owned by a PID that is no longer running.
func (l *ProbeLock) removeIfStale() {
	raw, err := os.ReadFile(l.Path)
	if err != nil {
		return
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		os.Remove(l.Path)
		return
	}
	// Signal 0 probes for process existence without delivering anything.
	if err := unix.Kill(pid, 0); err == unix.ESRCH {
		logger.Debugf("removing stale probe lock %s (pid %d is gone)", l.Path, pid)
		os.Remove(l.Path)
	}
}
