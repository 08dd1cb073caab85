package sampler_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/egdaemon/soccf/internal/coverage"
	"github.com/egdaemon/soccf/internal/coverage/snapshot"
	"github.com/egdaemon/soccf/internal/errorsx"
	"github.com/egdaemon/soccf/sampler"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type static struct {
	statements int
	branches   int
}

func (t static) CoveredStatements() int { return t.statements }
func (t static) CoveredBranches() int   { return t.branches }

type broken struct {
	static
}

func (t broken) Refresh() error {
	return errorsx.String("refresh failed")
}

func lines(path string) []string {
	raw, err := os.ReadFile(path)
	Expect(err).To(Succeed())
	return strings.Fields(string(raw))
}

var _ = Describe("Sampler", func() {
	var (
		dir string
		s   *sampler.Sampler
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		s = sampler.New(10 * time.Millisecond)
		DeferCleanup(s.Close)
	})

	It("should default a non positive period", func() {
		GinkgoT().Setenv("SOCCF_SAMPLE_PERIOD", "3s")
		Expect(sampler.New(0).Period()).To(Equal(3 * time.Second))
	})

	It("should append one line per sample", func() {
		prefix := filepath.Join(dir, "unit")
		Expect(s.Add(static{statements: 12, branches: 3}, prefix)).To(Succeed())

		Expect(s.Sample()).To(Succeed())
		Expect(s.Sample()).To(Succeed())

		Expect(lines(prefix + ".stmt")).To(Equal([]string{"12", "12"}))
		Expect(lines(prefix + ".br")).To(Equal([]string{"3", "3"}))
	})

	It("should append to existing logs", func() {
		prefix := filepath.Join(dir, "unit")
		Expect(os.WriteFile(prefix+".stmt", []byte("1\n"), 0600)).To(Succeed())
		Expect(s.Add(static{statements: 2}, prefix)).To(Succeed())
		Expect(s.Sample()).To(Succeed())
		Expect(lines(prefix + ".stmt")).To(Equal([]string{"1", "2"}))
	})

	It("should return errors opening logs", func() {
		Expect(s.Add(static{}, filepath.Join(dir, "missing", "unit"))).ToNot(Succeed())
	})

	It("should sample remaining reporters when one fails", func() {
		healthy := filepath.Join(dir, "healthy")
		Expect(s.Add(broken{}, filepath.Join(dir, "broken"))).To(Succeed())
		Expect(s.Add(static{statements: 5, branches: 1}, healthy)).To(Succeed())

		Expect(s.Sample()).To(MatchError(ContainSubstring("refresh failed")))
		Expect(lines(healthy + ".stmt")).To(Equal([]string{"5"}))
		Expect(lines(filepath.Join(dir, "broken.stmt"))).To(BeEmpty())
	})

	It("should sample until the context is cancelled", func(ctx context.Context) {
		prefix := filepath.Join(dir, "unit")
		Expect(s.Add(static{statements: 1, branches: 1}, prefix)).To(Succeed())

		cctx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() {
			done <- s.Run(cctx)
		}()

		Eventually(func() []string { return lines(prefix + ".stmt") }).Should(HaveLen(3))
		cancel()
		Eventually(done).Should(Receive(BeNil()))
	})
})

var _ = Describe("File", func() {
	It("should report the counts of the snapshot", func() {
		path := filepath.Join(GinkgoT().TempDir(), "soccf.cov.gz")
		r := sampler.File(path, true)

		Expect(r.Refresh()).To(Succeed())
		Expect(r.CoveredStatements()).To(Equal(0))
		Expect(r.CoveredBranches()).To(Equal(0))

		c := coverage.New()
		c.RecordStatement(1)
		c.RecordStatement(2)
		c.RecordBranch(3, true)
		c.RecordBranch(3, false)
		c.RecordBranch(4, true)
		Expect(snapshot.WriteFile(path, true, c.Snapshot())).To(Succeed())

		Expect(r.Refresh()).To(Succeed())
		Expect(r.CoveredStatements()).To(Equal(2))
		Expect(r.CoveredBranches()).To(Equal(1))
	})

	It("should keep the previous counts when the snapshot is corrupt", func() {
		path := filepath.Join(GinkgoT().TempDir(), "soccf.cov")
		c := coverage.New()
		c.RecordStatement(1)
		Expect(snapshot.WriteFile(path, false, c.Snapshot())).To(Succeed())

		r := sampler.File(path, false)
		Expect(r.Refresh()).To(Succeed())
		Expect(os.WriteFile(path, []byte("garbage\n"), 0600)).To(Succeed())
		Expect(r.Refresh()).To(MatchError(snapshot.ErrFormat))
		Expect(r.CoveredStatements()).To(Equal(1))
	})
})
