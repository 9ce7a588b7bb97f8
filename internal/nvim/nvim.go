package nvim

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/neovim/go-client/nvim"
)

// Manager handles the connection to a running Neovim instance.
type Manager struct {
	nvim *nvim.Nvim
}

// socketAddr returns the address of a running Neovim instance, if any.
func socketAddr() string {
	if addr := os.Getenv("NVIM"); addr != "" {
		return addr
	}
	return os.Getenv("NVIM_LISTEN_ADDRESS")
}

// Available reports whether a running Neovim instance is reachable.
func Available() bool {
	return socketAddr() != ""
}

// New connects to the Neovim instance named by $NVIM or $NVIM_LISTEN_ADDRESS.
func New() (*Manager, error) {
	addr := socketAddr()
	if addr == "" {
		return nil, fmt.Errorf("no running Neovim instance found")
	}
	v, err := nvim.Dial(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Neovim at %s: %w", addr, err)
	}
	return &Manager{nvim: v}, nil
}

// ReloadFiles asks Neovim to re-read the buffers editing the given files so
// they pick up the new on-disk contents.
func (m *Manager) ReloadFiles(paths []string) error {
	b := m.nvim.NewBatch()
	for _, path := range paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			continue
		}
		b.Command(fmt.Sprintf("silent! checktime %s", absPath))
	}
	if err := b.Execute(); err != nil {
		return fmt.Errorf("failed to reload buffers: %w", err)
	}
	return nil
}

// Close disconnects from Neovim.
func (m *Manager) Close() {
	if m.nvim != nil {
		m.nvim.Close()
	}
}
