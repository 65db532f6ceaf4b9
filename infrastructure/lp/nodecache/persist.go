package nodecache

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"kurupira/domain"
)

// LoadFile reads one "host:port" address per line from path and adds each
// to the cache, skipping blank lines and lines starting with '#'. It is
// used for both the static seed file and the "recent peers" file persisted
// across restarts (spec §3, §6 "node cache").
func (c *Cache) LoadFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	added := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || line[0] == '#' {
			continue
		}
		addr, err := domain.ParseNetworkAddress(line)
		if err != nil {
			continue
		}
		if c.Add(addr) {
			added++
		}
	}
	return added, scanner.Err()
}

// Flush writes every known address to path, one per line, via a temp file
// plus rename so a crash mid-write never corrupts the existing file.
func (c *Cache) Flush(path string) error {
	addrs := c.All()

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	for _, a := range addrs {
		if _, err := fmt.Fprintln(w, a.String()); err != nil {
			f.Close()
			os.Remove(tmp)
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, filepath.Clean(path))
}
