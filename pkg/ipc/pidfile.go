package ipc

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

var ErrAlreadyRunning = errors.New("daemon already running")

// claimAttempts bounds retries when the pidfile is replaced under us.
const claimAttempts = 3

// PidFile is a claimed pidfile. It holds an exclusive flock until Release,
// so a second claimer fails even if it races the first one.
type PidFile struct {
	path string
	f    *os.File
}

// ClaimPidFile locks path and writes the current pid into it. A locked
// pidfile, or one naming another live process, fails with
// ErrAlreadyRunning; a stale one is overwritten.
func ClaimPidFile(path string) (*PidFile, error) {
	for attempt := 0; attempt < claimAttempts; attempt++ {
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open pidfile: %w", err)
		}
		if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
			_ = f.Close()
			if errors.Is(err, unix.EWOULDBLOCK) {
				pid, _ := readPid(path)
				return nil, fmt.Errorf("%w with pid %d", ErrAlreadyRunning, pid)
			}
			return nil, fmt.Errorf("failed to lock pidfile: %w", err)
		}
		// The previous owner unlinks the file before unlocking it.
		if !sameFile(f, path) {
			_ = f.Close()
			continue
		}
		pf := &PidFile{path: path, f: f}
		if err := pf.write(); err != nil {
			_ = f.Close()
			return nil, err
		}
		return pf, nil
	}
	return nil, fmt.Errorf("failed to claim pidfile %s: replaced while locking", path)
}

func (p *PidFile) write() error {
	data, err := io.ReadAll(p.f)
	if err != nil {
		return fmt.Errorf("failed to read pidfile: %w", err)
	}
	if pid, ok := parsePid(data); ok && pid != os.Getpid() && processAlive(pid) {
		return fmt.Errorf("%w with pid %d", ErrAlreadyRunning, pid)
	}
	if err := p.f.Truncate(0); err != nil {
		return fmt.Errorf("failed to truncate pidfile: %w", err)
	}
	if _, err := p.f.WriteAt([]byte(strconv.Itoa(os.Getpid())), 0); err != nil {
		return fmt.Errorf("failed to write pidfile: %w", err)
	}
	return nil
}

// Release removes the pidfile and drops the lock. It is safe to call on
// a nil PidFile.
func (p *PidFile) Release() {
	if p == nil || p.f == nil {
		return
	}
	_ = os.Remove(p.path)
	_ = p.f.Close()
	p.f = nil
}

func (p *PidFile) Path() string { return p.path }

func sameFile(f *os.File, path string) bool {
	var held, named unix.Stat_t
	if unix.Fstat(int(f.Fd()), &held) != nil || unix.Stat(path, &named) != nil {
		return false
	}
	return held.Dev == named.Dev && held.Ino == named.Ino
}

// RunningPid returns the pid recorded at path if that process is alive.
func RunningPid(path string) (int, bool) {
	pid, ok := readPid(path)
	if !ok || !processAlive(pid) {
		return 0, false
	}
	return pid, true
}

func readPid(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	return parsePid(data)
}

func parsePid(data []byte) (int, bool) {
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// processAlive checks pid with signal 0. EPERM means the process exists
// but belongs to someone else.
func processAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
