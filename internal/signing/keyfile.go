package signing

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/consensource/consensource-cli/pkg/errors"
)

// LoadKeyFile reads a hex-encoded private key from path and returns a
// signer for it. Keys are stored one hex string per file, the same layout
// the validator's own key tooling writes.
func LoadKeyFile(path string) (*Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.E(errors.ErrInvalidKeyFormat, "signing", "LoadKeyFile",
			fmt.Sprintf("failed to read key file %s: %v", path, err))
	}
	return FromHex(strings.TrimSpace(string(data)))
}

// WriteKeyFile writes the signer's private key to path as hex, creating
// parent directories as needed. The file is readable by the owner only.
func (s *Signer) WriteKeyFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(s.PrivateKeyHex()+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}
	return nil
}
