// Package pid guards against a second running instance with a PID file.
package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"codeberg.org/mutker/batterypanel/internal/errors"
)

// DefaultName is the PID file name under the temp directory.
const DefaultName = "batterypanel.pid"

// File is a PID file on disk.
type File struct {
	path string
}

// New returns the PID file name in dir. An empty dir means the system
// temp directory.
func New(dir, name string) *File {
	if dir == "" {
		dir = os.TempDir()
	}
	if name == "" {
		name = DefaultName
	}

	return &File{path: filepath.Join(dir, name)}
}

// Path returns the file location.
func (f *File) Path() string {
	return f.path
}

// Write records the current process ID. It fails with
// errors.ErrAlreadyRunning when the file names another live process.
// A file with unreadable contents or a dead owner is replaced.
func (f *File) Write() error {
	errFactory := errors.New()

	if owner, ok := f.owner(); ok && owner != os.Getpid() && alive(owner) {
		return errFactory.WithData(errors.ErrAlreadyRunning, map[string]int{"pid": owner})
	}

	if err := os.WriteFile(f.path, []byte(strconv.Itoa(os.Getpid())), 0o600); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// Remove deletes the PID file. A missing file is not an error.
func (f *File) Remove() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return errors.New().Wrap(errors.ErrInternal, err)
	}

	return nil
}

func (f *File) owner() (int, bool) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return 0, false
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}

	return pid, true
}

func alive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	err = process.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
