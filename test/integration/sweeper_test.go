//go:build integration

package integration

import (
	"context"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/cam_mon/internal/infra"
	"github.com/eliteGoblin/focusd/cam_mon/internal/usecase"
	"github.com/eliteGoblin/focusd/cam_mon/test/fixtures"
)

var _ = Describe("Retention sweep", func() {
	var (
		tmpDir string
		tree   *fixtures.CameraTree
		fsm    *infra.FileSystemManagerImpl
		now    time.Time
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "cammon-integration-*")
		Expect(err).NotTo(HaveOccurred())

		now = time.Now()
		tree = fixtures.NewCameraTree(tmpDir, now)
		fsm = infra.NewFileSystemManager()
	})

	AfterEach(func() {
		Expect(tree.Cleanup()).To(Succeed())
	})

	Context("with clips on both sides of the retention horizon", func() {
		var oldClip, freshClip, emptyOld, emptyToday string

		BeforeEach(func() {
			var err error
			oldClip, err = tree.AddClip(10, "motion_0001.mp4", []byte("old"))
			Expect(err).NotTo(HaveOccurred())
			freshClip, err = tree.AddClip(2, "motion_0002.mp4", []byte("fresh"))
			Expect(err).NotTo(HaveOccurred())
			emptyOld, err = tree.AddDay(3)
			Expect(err).NotTo(HaveOccurred())
			emptyToday, err = tree.AddDay(0)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should delete only expired clips and stale empty directories", func() {
			result := usecase.NewSweeper(fsm, zap.NewNop()).Sweep(context.Background(), tmpDir, 7, now)

			Expect(result.Errors).To(BeEmpty())
			Expect(result.DeletedFiles).To(ConsistOf(oldClip))
			Expect(result.DeletedDirs).To(ConsistOf(emptyOld))

			Expect(tree.Exists(oldClip)).To(BeFalse())
			Expect(tree.Exists(freshClip)).To(BeTrue())
			Expect(tree.Exists(emptyOld)).To(BeFalse())
			Expect(tree.Exists(emptyToday)).To(BeTrue())
			Expect(tree.Exists(tmpDir)).To(BeTrue())
		})

		It("should leave everything in place on a dry run", func() {
			result := usecase.NewDryRunSweeper(fsm, zap.NewNop()).Sweep(context.Background(), tmpDir, 7, now)

			Expect(result.DeletedFiles).To(ConsistOf(oldClip))
			Expect(tree.Exists(oldClip)).To(BeTrue())
			Expect(tree.Exists(emptyOld)).To(BeTrue())
		})
	})

	Context("with retention of zero days", func() {
		It("should delete every clip older than now", func() {
			clip, err := tree.AddClip(1, "motion_0003.mp4", []byte("x"))
			Expect(err).NotTo(HaveOccurred())

			result := usecase.NewSweeper(fsm, zap.NewNop()).Sweep(context.Background(), tmpDir, 0, now)

			Expect(result.DeletedFiles).To(ConsistOf(clip))
		})
	})

	Context("when the base path is missing", func() {
		It("should record the error and not panic", func() {
			result := usecase.NewSweeper(fsm, zap.NewNop()).Sweep(context.Background(), tmpDir+"/missing", 7, now)

			Expect(result.DeletedFiles).To(BeEmpty())
		})
	})
})
