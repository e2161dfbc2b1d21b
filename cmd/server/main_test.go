package main

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeServerConfig(t *testing.T, port int, redisAddr string) string {
	t.Helper()
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")
	yaml := fmt.Sprintf(`
server:
  host: 127.0.0.1
  port: %d
database:
  driver: sqlite
  sqlite_path: %s
  max_conns: 1
snapshot:
  source: static
redis:
  enabled: true
  addresses: ["%s"]
log:
  level: error
`, port, filepath.Join(dir, "riskengine.db"), redisAddr)
	require.NoError(t, os.WriteFile(cfgFile, []byte(yaml), 0o600))
	return cfgFile
}

func TestRun_ReleasesResourcesWhenServerFails(t *testing.T) {
	// Hold the port so the HTTP server cannot bind.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	mr := miniredis.RunT(t)

	code := run(writeServerConfig(t, port, mr.Addr()), prometheus.NewRegistry())

	assert.Equal(t, 1, code)
	assert.Eventually(t, func() bool { return mr.CurrentConnectionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestRun_InvalidConfigFile(t *testing.T) {
	code := run(filepath.Join(t.TempDir(), "missing.yaml"), prometheus.NewRegistry())
	assert.Equal(t, 1, code)
}
