package httpc

import (
	"os"
	"path/filepath"
)

// Config is the top level engine configuration.
type Config struct {
	// DerCA holds extra root certificates in DER format.
	DerCA [][]byte
	// PemCA holds extra root certificates in PEM format.
	PemCA [][]byte
	// CacheBuffers caps how many 8K buffers are kept cached for
	// subsequent requests. Every request requires 2. Default: 8.
	CacheBuffers int
	// MaxRedirects bounds recv-to-send phase switches per exchange
	// (redirects plus the digest-auth retry). Default: 5.
	MaxRedirects int
}

// NewConfig returns a Config with defaults.
func NewConfig() Config {
	return Config{
		CacheBuffers: 8,
		MaxRedirects: 5,
	}
}

// certExts are the file extensions picked up by CertsFromPath.
var certExts = []string{".crt", ".pem"}

// maxCertFileSize is the per-file ceiling for directory scans.
const maxCertFileSize = 8 * 1024

// CertsFromPath reads PEM files (.crt or .pem) from path into a new
// Config. Path may name a single file or a directory; directories are
// scanned non-recursively, files of 8 KiB or more and unreadable
// entries are skipped. The certificate bytes are not validated here.
func CertsFromPath(path string) (Config, error) {
	cfg := NewConfig()
	fi, err := os.Stat(path)
	if err != nil {
		return cfg, err
	}
	if !fi.IsDir() {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		cfg.PemCA = append(cfg.PemCA, b)
		return cfg, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return cfg, err
	}
	for _, de := range entries {
		if de.IsDir() || !hasCertExt(de.Name()) {
			continue
		}
		info, err := de.Info()
		if err != nil || info.Size() >= maxCertFileSize {
			continue
		}
		b, err := os.ReadFile(filepath.Join(path, de.Name()))
		if err != nil {
			continue
		}
		cfg.PemCA = append(cfg.PemCA, b)
	}
	return cfg, nil
}

func hasCertExt(name string) bool {
	ext := filepath.Ext(name)
	for _, e := range certExts {
		if ext == e {
			return true
		}
	}
	return false
}
