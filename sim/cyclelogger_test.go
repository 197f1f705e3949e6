package sim

import (
	"bytes"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("CycleLogger", func() {
	var (
		buf    *bytes.Buffer
		logger *CycleLogger
	)

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		logger = NewCycleLogger(log.New(buf, "", 0))
	})

	It("should log completed cycles", func() {
		logger.Func(HookCtx{
			Pos: HookPosAfterCycle,
			Item: CycleInfo{
				Cycle:       3,
				Elapsed:     0.5,
				ScaledDelta: 1.0,
				Advanced:    true,
				Runtime:     2.0,
				Uptime:      1.5,
				State:       StateRunning,
			},
		})

		Expect(buf.String()).To(ContainSubstring("cycle 3"))
		Expect(buf.String()).To(ContainSubstring("running"))
	})

	It("should ignore other hook positions", func() {
		logger.Func(HookCtx{Pos: HookPosEngineStart})

		Expect(buf.String()).To(BeEmpty())
	})
})
