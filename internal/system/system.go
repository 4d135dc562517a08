package system

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

func InitResourceLimits(logger zerolog.Logger) {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		logger.Warn().Err(err).Msg("[!] Не удалось получить лимит файлов")
		return
	}

	if rLimit.Cur >= 2048 {
		return
	}
	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		logger.Warn().Err(err).Msg("[!] Не удалось установить лимит файлов")
	} else {
		logger.Debug().Uint64("nofile", uint64(rLimit.Cur)).Msg("[*] Системный лимит открытых файлов увеличен")
	}
}

// hwEncoders в порядке приоритета:
// 1. MacOS (VideoToolbox)
// 2. NVIDIA (NVENC)
var hwEncoders = []string{"h264_videotoolbox", "h264_nvenc"}

// GetBestH264Encoder asks ffmpeg for its encoder list once and returns the
// first hardware H.264 encoder found, or libx264.
func GetBestH264Encoder(ctx context.Context, ffmpegPath string) string {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	out, err := exec.CommandContext(ctx, ffmpegPath, "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}
	return PickEncoder(string(out))
}

// PickEncoder selects an encoder from the output of "ffmpeg -encoders".
func PickEncoder(encoders string) string {
	for _, name := range hwEncoders {
		if strings.Contains(encoders, name) {
			return name
		}
	}
	return "libx264"
}

// Stats is a point-in-time view of the resources used by the process.
type Stats struct {
	Time       time.Time
	CPUs       int
	RSS        uint64  // bytes
	SysUsedPct float64 // system memory in use
	HeapAlloc  uint64
	NumGC      uint32
}

// Snapshot collects Stats. Fields gopsutil cannot read on this platform are
// left zero.
func Snapshot() Stats {
	s := Stats{Time: time.Now(), CPUs: runtime.NumCPU()}

	if n, err := cpu.Counts(true); err == nil && n > 0 {
		s.CPUs = n
	}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mi, err := p.MemoryInfo(); err == nil {
			s.RSS = mi.RSS
		}
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		s.SysUsedPct = vm.UsedPercent
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	s.HeapAlloc = ms.HeapAlloc
	s.NumGC = ms.NumGC
	return s
}

func (s Stats) String() string {
	return fmt.Sprintf("CPUs: %d | RSS: %.1f MiB | Heap: %.1f MiB | GC: %d | System memory: %.1f%%",
		s.CPUs, float64(s.RSS)/(1<<20), float64(s.HeapAlloc)/(1<<20), s.NumGC, s.SysUsedPct)
}
