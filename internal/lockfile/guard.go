package lockfile

import "os"

// Guard holds an acquired lock on a side-car ".lock" file next to the
// resource it protects, released by Close.
type Guard struct {
	f *os.File
}

// Acquire opens (creating if absent) path and takes an exclusive,
// non-blocking lock on it.
func Acquire(path string) (*Guard, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	if err := AcquireExclusiveNonBlocking(f); err != nil {
		f.Close()
		return nil, err
	}
	return &Guard{f: f}, nil
}

// Close releases the lock and closes the underlying file.
func (g *Guard) Close() error {
	if g == nil || g.f == nil {
		return nil
	}
	err := Release(g.f)
	cerr := g.f.Close()
	if err != nil {
		return err
	}
	return cerr
}
