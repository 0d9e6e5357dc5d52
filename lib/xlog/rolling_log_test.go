package xlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseFileSize(t *testing.T) {
	testcases := []struct {
		size        string
		expected    uint64
		expectedErr bool
	}{
		{"abcMB", 0, true},
		{"_GB", 0, true},
		{"TB", 0, true},
		{"Y", 0, true},
		{"2048MB", 0, true},
		{"1048577KB", 0, true},
		{"18014398509481985MB", 0, true},
		{"18446744073709551616B", 0, true},
		{"1024MB", 1024 * uint64(MB), false},
		{"100B", 100 * uint64(B), false},
		{"100KB", 100 * uint64(KB), false},
		{"100MB", 100 * uint64(MB), false},
		{"100b", 100 * uint64(B), false},
		{"100kB", 100 * uint64(KB), false},
		{"100Mb", 100 * uint64(MB), false},
	}
	for _, tc := range testcases {
		t.Run(tc.size, func(tt *testing.T) {
			actual, err := parseFileSize(tc.size)
			if tc.expectedErr {
				require.Error(tt, err)
				return
			}
			require.NoError(tt, err)
			require.Equal(tt, tc.expected, actual)
		})
	}
}

func TestRollingLog_BackupAndPrune(t *testing.T) {
	dir := t.TempDir()
	log := &RollingLog{
		FilePath:       dir,
		Filename:       "xcoll.log",
		FileMaxSize:    "1KB",
		FileMaxBackups: 2,
	}
	require.NoError(t, log.initialize())

	line := []byte(strings.Repeat("x", 511) + "\n")
	for i := 0; i < 12; i++ {
		n, err := log.Write(line)
		require.NoError(t, err)
		require.Equal(t, len(line), n)
		// The backups are named by timestamps.
		time.Sleep(time.Millisecond)
	}
	require.Eventually(t, func() bool {
		return len(log.backups()) <= 2
	}, 2*time.Second, 20*time.Millisecond)
	require.NoError(t, log.Sync())
	require.NoError(t, log.Close())
	require.NoError(t, log.Close())

	n, err := log.Write(line)
	require.NoError(t, err)
	require.Equal(t, len(line), n)
	require.NoError(t, log.Close())
	info, err := os.Stat(filepath.Join(dir, "xcoll.log"))
	require.NoError(t, err)
	require.Equal(t, int64(len(line)), info.Size())
}

func TestRollingLog_ReopenExisting(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "xcoll.log"), []byte("previous\n"), 0o644))
	log := &RollingLog{FilePath: dir, Filename: "xcoll.log"}
	require.NoError(t, log.initialize())
	require.Equal(t, uint64(len("previous\n")), log.wroteSize)
	require.NoError(t, log.Close())

	require.NoError(t, os.Mkdir(filepath.Join(dir, "dir.log"), 0o755))
	log = &RollingLog{FilePath: dir, Filename: "dir.log"}
	require.Error(t, log.initialize())
}

func TestXLogger_FileCore(t *testing.T) {
	dir := t.TempDir()
	logger := NewXLogger(
		WithXLoggerFileCore(&FileCoreConfig{
			FilePath:    dir,
			Filename:    "cli.log",
			FileMaxSize: "1MB",
		}),
		WithXLoggerLevel(LogLevelInfo),
	)
	logger.Named("stress").Info("written to file", zap.Int("workers", 4))
	require.NoError(t, logger.Close())

	content, err := os.ReadFile(filepath.Join(dir, "cli.log"))
	require.NoError(t, err)
	require.Contains(t, string(content), "written to file")
	require.Contains(t, string(content), `"component":"stress"`)
}
