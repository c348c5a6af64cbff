//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/cam_mon/internal/daemon"
	"github.com/eliteGoblin/focusd/cam_mon/internal/domain"
	"github.com/eliteGoblin/focusd/cam_mon/internal/infra"
	"github.com/eliteGoblin/focusd/cam_mon/internal/usecase"
	"github.com/eliteGoblin/focusd/cam_mon/test/fixtures"
)

// recordingPlayer stands in for the OBS scene controller.
type recordingPlayer struct {
	mu    sync.Mutex
	clips []string
}

func (p *recordingPlayer) Play(_ context.Context, hostPath string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clips = append(p.clips, hostPath)
	return nil
}

func (p *recordingPlayer) played() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.clips...)
}

func writeClip(path string) {
	f, err := os.Create(path)
	Expect(err).NotTo(HaveOccurred())
	_, err = f.Write([]byte("motion"))
	Expect(err).NotTo(HaveOccurred())
	Expect(f.Close()).To(Succeed())
}

var _ = Describe("Clip pipeline", func() {
	var (
		tmpDir string
		player *recordingPlayer
		ctx    context.Context
		cancel context.CancelFunc
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "cammon-integration-*")
		Expect(err).NotTo(HaveOccurred())
		player = &recordingPlayer{}
		ctx, cancel = context.WithCancel(context.Background())
	})

	AfterEach(func() {
		cancel()
		os.RemoveAll(tmpDir)
	})

	serve := func(source domain.EventSource, debouncer *usecase.Debouncer) <-chan error {
		stream, err := source.Attach(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		done := make(chan error, 1)
		go func() { done <- stream.Serve(ctx, debouncer.HandleEvent) }()
		return done
	}

	sources := map[string]func() domain.EventSource{
		"fsnotify": func() domain.EventSource {
			return infra.NewNotifySource(200*time.Millisecond, zap.NewNop())
		},
	}
	if runtime.GOOS == "linux" {
		sources["inotify"] = func() domain.EventSource { return infra.NewInotifySource(zap.NewNop()) }
	}

	for name, newSource := range sources {
		newSource := newSource // per-iteration copy; go.mod targets go 1.21 loop semantics
		Context("with the "+name+" backend", func() {
			It("should play a finished clip once and drop the burst behind it", func() {
				debouncer := usecase.NewDebouncer(time.Minute, ".mp4", nil, player, zap.NewNop())
				done := serve(newSource(), debouncer)

				first := filepath.Join(tmpDir, "motion_0001.mp4")
				writeClip(first)
				writeClip(filepath.Join(tmpDir, "motion_0002.mp4"))
				writeClip(filepath.Join(tmpDir, "snapshot.jpg"))

				Eventually(player.played, 5*time.Second, 50*time.Millisecond).Should(HaveLen(1))
				Consistently(player.played, time.Second, 100*time.Millisecond).Should(HaveLen(1))
				Expect(player.played()[0]).To(HavePrefix(tmpDir))

				cancel()
				Eventually(done, 5*time.Second).Should(Receive(BeNil()))
			})

			It("should ignore directories and other extensions", func() {
				debouncer := usecase.NewDebouncer(0, ".mp4", nil, player, zap.NewNop())
				done := serve(newSource(), debouncer)

				Expect(os.Mkdir(filepath.Join(tmpDir, "sub.mp4"), 0755)).To(Succeed())
				writeClip(filepath.Join(tmpDir, "clip.mkv"))

				Consistently(player.played, time.Second, 100*time.Millisecond).Should(BeEmpty())

				cancel()
				Eventually(done, 5*time.Second).Should(Receive(BeNil()))
			})
		})
	}
})

var _ = Describe("Monitor cycle", func() {
	var (
		tmpDir string
		tree   *fixtures.CameraTree
		player *recordingPlayer
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "cammon-integration-*")
		Expect(err).NotTo(HaveOccurred())
		tree = fixtures.NewCameraTree(tmpDir, time.Now())
		player = &recordingPlayer{}
	})

	AfterEach(func() {
		Expect(tree.Cleanup()).To(Succeed())
	})

	It("should sweep, watch today's directory and play new clips until stopped", func() {
		expired, err := tree.AddClip(30, "motion_old.mp4", []byte("old"))
		Expect(err).NotTo(HaveOccurred())
		today, err := tree.AddDay(0)
		Expect(err).NotTo(HaveOccurred())

		fsm := infra.NewFileSystemManager()
		logger := zap.NewNop()
		cfg := daemon.MonitorConfig{
			BasePath:            tmpDir,
			RetentionDays:       7,
			MainLoopSleep:       100 * time.Millisecond,
			HealthCheckInterval: time.Hour,
			DirectoryPoll:       100 * time.Millisecond,
		}
		debouncer := usecase.NewDebouncer(0, ".mp4", nil, player, logger)
		monitor := daemon.NewMonitor(cfg, infra.NewNotifySource(200*time.Millisecond, logger), fsm,
			usecase.NewSweeper(fsm, logger), nil, debouncer, nil, logger)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		done := make(chan error, 1)
		go func() { done <- monitor.Run(ctx) }()

		Eventually(func() bool { return tree.Exists(expired) }, 5*time.Second).Should(BeFalse())

		// A fresh clip lands on every poll until the watcher has attached and seen one.
		n := 0
		Eventually(func() []string {
			n++
			writeClip(filepath.Join(today, fmt.Sprintf("motion_%04d.mp4", n)))
			return player.played()
		}, 10*time.Second, 250*time.Millisecond).ShouldNot(BeEmpty())
		Expect(filepath.Dir(player.played()[0])).To(Equal(today))

		cancel()
		Eventually(done, 5*time.Second).Should(Receive(BeNil()))
	})
})
