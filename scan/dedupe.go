package scan

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// fileMeta pairs a directory entry with its content fingerprint grouping.
type fileMeta struct {
	name string
	// dupOf is the index of the first listed file with identical bytes. It is
	// -1 for unique files and for files whose fingerprint could not be
	// computed.
	dupOf int
	err   error
}

// fingerprintFiles hashes every file once, in listing order, so later stages
// can count duplicate contents and optionally reuse the first recognition.
// Unreadable files are recorded as per-file failures rather than aborting the
// batch.
func fingerprintFiles(dir string, names []string) []fileMeta {
	metas := make([]fileMeta, len(names))
	seen := make(map[string]int, len(names))
	for i, name := range names {
		metas[i] = fileMeta{name: name, dupOf: -1}
		digest, err := fingerprint(filepath.Join(dir, name))
		if err != nil {
			metas[i].err = fmt.Errorf("fingerprint image: %w", err)
			continue
		}
		if first, ok := seen[digest]; ok {
			metas[i].dupOf = first
			continue
		}
		seen[digest] = i
	}
	return metas
}

// fingerprint returns the hex-encoded SHA-256 digest of the file's contents.
func fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
