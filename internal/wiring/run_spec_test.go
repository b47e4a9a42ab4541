package wiring

import (
	"context"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"procreport/internal/report"
)

var _ = ginkgo.Describe("Run", func() {
	var env *testEnv

	ginkgo.BeforeEach(func() {
		var err error
		env, err = newTestEnv(ginkgo.GinkgoT().TempDir())
		gomega.Expect(err).To(gomega.Succeed())
	})

	ginkgo.It("correlates one failed, one finished and one running process", func() {
		rep, err := Run(context.Background(), env.cfg, env.deps)
		gomega.Expect(err).To(gomega.Succeed())
		gomega.Expect(rep.Total).To(gomega.Equal(3))
		gomega.Expect(rep.Failed).To(gomega.HaveLen(1))
		gomega.Expect(rep.Failed[0].Log.Excerpt).NotTo(gomega.BeEmpty())
		for _, line := range rep.Failed[0].Log.Excerpt {
			gomega.Expect(line).To(gomega.ContainSubstring(failedUUID))
		}
		gomega.Expect(rep.Finished[0].Video.State).To(gomega.Equal(report.EvidenceFound))
		gomega.Expect(rep.Finished[0].Video.WebURL).To(gomega.HaveSuffix("/video.mp4"))
		gomega.Expect(rep.Running[0].Log).To(gomega.BeNil())
		gomega.Expect(rep.Running[0].Video).To(gomega.BeNil())
	})

	ginkgo.It("drops a skipped client from exactly one partition", func() {
		gomega.Expect(env.skip("Initech")).To(gomega.Succeed())
		rep, err := Run(context.Background(), env.cfg, env.deps)
		gomega.Expect(err).To(gomega.Succeed())
		gomega.Expect(rep.Total).To(gomega.Equal(2))
		gomega.Expect(rep.Running).To(gomega.BeEmpty())
		gomega.Expect(rep.Failed).To(gomega.HaveLen(1))
		gomega.Expect(rep.Finished).To(gomega.HaveLen(1))
	})

	ginkgo.It("keeps counts equal to partition lengths", func() {
		rep, err := Run(context.Background(), env.cfg, env.deps)
		gomega.Expect(err).To(gomega.Succeed())
		gomega.Expect(rep.FailedCount).To(gomega.Equal(len(rep.Failed)))
		gomega.Expect(rep.FinishedCount).To(gomega.Equal(len(rep.Finished)))
		gomega.Expect(rep.RunningCount).To(gomega.Equal(len(rep.Running)))
		gomega.Expect(rep.Total).To(gomega.Equal(rep.FailedCount + rep.FinishedCount + rep.RunningCount))
	})
})
