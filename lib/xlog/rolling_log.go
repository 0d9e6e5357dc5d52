package xlog

import (
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/benz9527/xcoll/lib/infra"
)

var _ io.WriteCloser = (*RollingLog)(nil)

type fileSizeUnit uint64

const (
	B  fileSizeUnit = 1
	KB fileSizeUnit = 1 << (10 * iota)
	MB
	_maxSize = 1024 * MB
)

const backupDateTimeFormat = "2006_01_02T15_04_05.000000000"

var fileSizeRegexp = regexp.MustCompile(`^(\d+)(([kK]|[mM])?[bB])$`)

func parseFileSize(size string) (uint64, error) {
	res := fileSizeRegexp.FindAllStringSubmatch(size, -1)
	if len(res) <= 0 || len(res[0]) < 3 || res[0][0] != size {
		return 0, infra.NewErrorStack("invalid file size unit")
	}
	var unit fileSizeUnit
	switch strings.ToUpper(res[0][2]) {
	case "B":
		unit = B
	case "KB":
		unit = KB
	case "MB":
		unit = MB
	}
	_size, err := strconv.ParseUint(res[0][1], 10, 64)
	if err != nil {
		return 0, infra.WrapErrorStackWithMessage(err, "unknown file size")
	}
	if _size > uint64(_maxSize)/uint64(unit) {
		return 0, infra.NewErrorStack("file size too large")
	}
	return _size * uint64(unit), nil
}

// RollingLog renames the current log file to a timestamped backup once it
// exceeds the max size. The backups beyond FileMaxBackups are pruned, oldest
// first, whenever a file is created in the log directory.
type RollingLog struct {
	FilePath       string
	Filename       string
	FileMaxSize    string
	FileMaxBackups int
	maxSize        uint64
	wroteSize      uint64
	lock           sync.Mutex
	currentFile    *os.File
	fileWatcher    *fsnotify.Watcher
	watchDone      chan struct{}
}

func (log *RollingLog) initialize() error {
	if log.Filename == "" {
		log.Filename = filepath.Base(os.Args[0]) + "_xlog.log"
	}
	if log.FilePath == "" {
		log.FilePath = os.TempDir()
	}
	if log.FileMaxSize == "" {
		log.FileMaxSize = "64MB"
	}
	size, err := parseFileSize(log.FileMaxSize)
	if err != nil {
		return err
	}
	log.maxSize = size
	if err = os.MkdirAll(log.FilePath, 0o755); err != nil {
		return infra.WrapErrorStack(err)
	}
	if err = log.openOrCreate(); err != nil {
		return err
	}
	if log.FileMaxBackups <= 0 {
		return nil
	}

	if log.fileWatcher, err = fsnotify.NewWatcher(); err != nil {
		return infra.WrapErrorStackWithMessage(err, "unable to watch the log dir")
	}
	if err = log.fileWatcher.Add(log.FilePath); err != nil {
		_ = log.fileWatcher.Close()
		return infra.WrapErrorStackWithMessage(err, "unable to watch the log dir: "+log.FilePath)
	}
	log.watchDone = make(chan struct{})
	go log.watchAndPrune()
	return nil
}

func (log *RollingLog) Write(p []byte) (n int, err error) {
	log.lock.Lock()
	defer log.lock.Unlock()

	if log.currentFile == nil {
		// Late writes after Close reopen the log.
		if err = log.openOrCreate(); err != nil {
			return 0, err
		}
	}
	n, err = log.currentFile.Write(p)
	log.wroteSize += uint64(n)
	if err != nil {
		return n, infra.WrapErrorStack(err)
	}
	if log.wroteSize >= log.maxSize {
		err = log.backupThenCreate()
	}
	return n, err
}

func (log *RollingLog) Sync() error {
	log.lock.Lock()
	defer log.lock.Unlock()
	if log.currentFile == nil {
		return nil
	}
	return log.currentFile.Sync()
}

func (log *RollingLog) Close() error {
	log.lock.Lock()
	defer log.lock.Unlock()

	var err error
	if log.fileWatcher != nil {
		err = log.fileWatcher.Close()
		<-log.watchDone
		log.fileWatcher = nil
	}
	if log.currentFile != nil {
		if _err := log.currentFile.Close(); _err != nil && err == nil {
			err = _err
		}
		log.currentFile = nil
	}
	return err
}

func (log *RollingLog) backup() error {
	ext := filepath.Ext(log.Filename)
	logNamePrefix := strings.TrimSuffix(log.Filename, ext)
	ts := time.Now().UTC().Format(backupDateTimeFormat)
	pathToBackup := filepath.Join(log.FilePath, logNamePrefix+"_"+ts+ext)
	if err := log.currentFile.Close(); err != nil {
		return infra.WrapErrorStackWithMessage(err, "failed to backup current log: "+filepath.Join(log.FilePath, log.Filename))
	}
	log.currentFile = nil
	return os.Rename(filepath.Join(log.FilePath, log.Filename), pathToBackup)
}

func (log *RollingLog) create() error {
	pathToLog := filepath.Join(log.FilePath, log.Filename)
	f, err := os.OpenFile(pathToLog, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return infra.WrapErrorStackWithMessage(err, "unable to create new log file: "+pathToLog)
	}
	log.currentFile, log.wroteSize = f, 0
	return nil
}

func (log *RollingLog) backupThenCreate() error {
	if err := log.backup(); err != nil {
		return err
	}
	return log.create()
}

func (log *RollingLog) openOrCreate() error {
	pathToLog := filepath.Join(log.FilePath, log.Filename)
	info, err := os.Stat(pathToLog)
	switch {
	case os.IsNotExist(err):
		return log.create()
	case err != nil:
		return infra.WrapErrorStack(err)
	case info.IsDir():
		return infra.NewErrorStack("log file: " + pathToLog + " is a dir")
	default:
	}
	f, err := os.OpenFile(pathToLog, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return infra.WrapErrorStackWithMessage(err, "failed to open an exists log file")
	}
	log.currentFile, log.wroteSize = f, uint64(info.Size())
	return nil
}

// backups returns the backup files of the log, oldest first.
func (log *RollingLog) backups() []os.FileInfo {
	ext := filepath.Ext(log.Filename)
	logName := strings.TrimSuffix(log.Filename, ext)
	entries, err := os.ReadDir(log.FilePath)
	if err != nil {
		return nil
	}
	infos := make([]os.FileInfo, 0, 16)
	for _, entry := range entries {
		filename := entry.Name()
		if entry.IsDir() || filename == log.Filename ||
			!strings.HasPrefix(filename, logName+"_") || !strings.HasSuffix(filename, ext) {
			continue
		}
		if info, err := entry.Info(); err == nil && info != nil {
			infos = append(infos, info)
		}
	}
	sort.Slice(infos, func(i, j int) bool {
		// The backup names are ordered by their UTC timestamps.
		return infos[i].Name() < infos[j].Name()
	})
	return infos
}

func (log *RollingLog) prune() {
	infos := log.backups()
	for i := 0; i < len(infos)-log.FileMaxBackups; i++ {
		_ = os.Remove(filepath.Join(log.FilePath, infos[i].Name()))
	}
}

func (log *RollingLog) watchAndPrune() {
	defer close(log.watchDone)
	watcher := log.fileWatcher
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				log.prune()
			}
		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
			// The errors of the watcher are dropped, the next event retries.
		}
	}
}
