package common

import (
	"os"
	"runtime"
	"runtime/debug"

	"github.com/rs/zerolog/log"
)

// Treasury traffic is light; the defaults only bound memory on small hosts.
const (
	DefaultGOGC     = 200
	DefaultMemLimit = 1 * 1024 * 1024 * 1024 // 1GB
)

// InitRuntime applies GC defaults unless GOGC / GOMEMLIMIT are already set
// in the environment, then logs the effective runtime settings.
func InitRuntime() {
	if os.Getenv("GOGC") == "" {
		debug.SetGCPercent(DefaultGOGC)
		log.Info().Int("GOGC", DefaultGOGC).Msg("[runtime] Set GOGC")
	}
	if os.Getenv("GOMEMLIMIT") == "" {
		debug.SetMemoryLimit(DefaultMemLimit)
		log.Info().
			Int64("GOMEMLIMIT_bytes", DefaultMemLimit).
			Msg("[runtime] Set memory limit")
	}
	logRuntimeSettings()
}

func logRuntimeSettings() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	log.Info().
		Int("num_cpu", runtime.NumCPU()).
		Int("gomaxprocs", runtime.GOMAXPROCS(0)).
		Uint64("heap_alloc_mb", memStats.HeapAlloc/1024/1024).
		Str("go_version", runtime.Version()).
		Msg("[runtime] Current runtime settings")
}
