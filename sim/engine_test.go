package sim

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"
)

var _ = Describe("CycleEngine", func() {
	var (
		mockCtrl *gomock.Controller
		device   *MockDevice
		adapter  *MockAdapter
		waiter   *MockIdleWaiter
		clock    *MockClock
		engine   *CycleEngine

		t0 time.Time
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		device = NewMockDevice(mockCtrl)
		adapter = NewMockAdapter(mockCtrl)
		waiter = NewMockIdleWaiter(mockCtrl)
		clock = NewMockClock(mockCtrl)

		engine = NewCycleEngine(device, adapter).
			WithClock(clock).
			WithIdleWaiter(waiter)

		t0 = time.Unix(1000, 0)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	// cycleAt runs one cycle with the clock reading t0 plus the offset.
	cycleAt := func(offset time.Duration, prev time.Time) float64 {
		clock.EXPECT().Now().Return(t0.Add(offset))
		elapsed, _ := engine.processCycle(prev)
		return elapsed
	}

	It("should return the elapsed time of a cycle", func() {
		clock.EXPECT().Now().Return(t0.Add(500 * time.Millisecond))
		adapter.EXPECT().Handle(0.1)

		elapsed, now := engine.processCycle(t0)

		Expect(elapsed).To(Equal(0.5))
		Expect(now).To(Equal(t0.Add(500 * time.Millisecond)))
	})

	It("should not advance the device before the engine is started", func() {
		adapter.EXPECT().Handle(0.1)

		cycleAt(500*time.Millisecond, t0)

		Expect(engine.Cycles()).To(Equal(uint64(0)))
		Expect(engine.Runtime()).To(Equal(0.0))
		Expect(engine.Uptime()).To(Equal(0.0))
	})

	It("should advance the device and the accounting while running", func() {
		engine.state = StateRunning

		device.EXPECT().Process(0.5)
		adapter.EXPECT().Handle(0.1)

		elapsed := cycleAt(500*time.Millisecond, t0)

		Expect(elapsed).To(Equal(0.5))
		Expect(engine.Cycles()).To(Equal(uint64(1)))
		Expect(engine.Runtime()).To(Equal(0.5))
		Expect(engine.Uptime()).To(Equal(0.5))
	})

	It("should apply the speed factor to the device delta", func() {
		engine.state = StateRunning
		Expect(engine.SetSpeed(2.0)).To(Succeed())

		device.EXPECT().Process(1.0)
		adapter.EXPECT().Handle(0.1)

		cycleAt(500*time.Millisecond, t0)

		Expect(engine.Cycles()).To(Equal(uint64(1)))
		Expect(engine.Runtime()).To(Equal(1.0))
		Expect(engine.Uptime()).To(Equal(0.5))
	})

	It("should freeze simulated time at speed zero", func() {
		engine.state = StateRunning
		Expect(engine.SetSpeed(0.0)).To(Succeed())

		device.EXPECT().Process(0.0)
		adapter.EXPECT().Handle(0.1)

		cycleAt(500*time.Millisecond, t0)

		Expect(engine.Cycles()).To(Equal(uint64(1)))
		Expect(engine.Runtime()).To(Equal(0.0))
		Expect(engine.Uptime()).To(Equal(0.5))
	})

	It("should only allow pausing a running engine", func() {
		Expect(engine.Pause()).To(MatchError(ErrInvalidOperation))

		engine.state = StateRunning

		Expect(engine.Pause()).To(Succeed())
		Expect(engine.IsStarted()).To(BeTrue())
		Expect(engine.IsPaused()).To(BeTrue())

		Expect(engine.Pause()).To(MatchError(ErrInvalidOperation))

		engine.state = StateStopped
		Expect(engine.Pause()).To(MatchError(ErrInvalidOperation))
	})

	It("should only allow resuming a paused engine", func() {
		Expect(engine.Resume()).To(MatchError(ErrInvalidOperation))

		engine.state = StateRunning
		Expect(engine.Pause()).To(Succeed())

		Expect(engine.Resume()).To(Succeed())
		Expect(engine.IsRunning()).To(BeTrue())

		Expect(engine.Resume()).To(MatchError(ErrInvalidOperation))
	})

	It("should keep pacing but not advance the device while paused", func() {
		engine.state = StateRunning
		Expect(engine.Pause()).To(Succeed())

		adapter.EXPECT().Handle(0.1)

		cycleAt(500*time.Millisecond, t0)

		Expect(engine.Cycles()).To(Equal(uint64(0)))
		Expect(engine.Runtime()).To(Equal(0.0))
		Expect(engine.Uptime()).To(Equal(0.5))
	})

	It("should resume device advancement after a pause", func() {
		engine.state = StateRunning
		Expect(engine.Pause()).To(Succeed())

		adapter.EXPECT().Handle(0.1)
		cycleAt(500*time.Millisecond, t0)

		Expect(engine.Resume()).To(Succeed())

		device.EXPECT().Process(0.5)
		adapter.EXPECT().Handle(0.1)
		cycleAt(time.Second, t0.Add(500*time.Millisecond))

		Expect(engine.Cycles()).To(Equal(uint64(1)))
		Expect(engine.Runtime()).To(Equal(0.5))
		Expect(engine.Uptime()).To(Equal(1.0))
	})

	It("should accept any non-negative speed", func() {
		Expect(engine.SetSpeed(3.0)).To(Succeed())
		Expect(engine.Speed()).To(Equal(3.0))

		Expect(engine.SetSpeed(0.1)).To(Succeed())
		Expect(engine.Speed()).To(Equal(0.1))

		Expect(engine.SetSpeed(0.0)).To(Succeed())
		Expect(engine.Speed()).To(Equal(0.0))
	})

	It("should reject a negative speed and keep the previous value", func() {
		Expect(engine.SetSpeed(3.0)).To(Succeed())

		Expect(engine.SetSpeed(-0.5)).To(MatchError(ErrInvalidConfig))
		Expect(engine.Speed()).To(Equal(3.0))
	})

	It("should accept any non-negative cycle delay", func() {
		Expect(engine.SetCycleDelay(0.2)).To(Succeed())
		Expect(engine.CycleDelay()).To(Equal(0.2))

		Expect(engine.SetCycleDelay(2.0)).To(Succeed())
		Expect(engine.CycleDelay()).To(Equal(2.0))

		Expect(engine.SetCycleDelay(0.0)).To(Succeed())
		Expect(engine.CycleDelay()).To(Equal(0.0))
	})

	It("should reject a negative cycle delay and keep the previous value",
		func() {
			Expect(engine.SetCycleDelay(0.2)).To(Succeed())

			Expect(engine.SetCycleDelay(-4.0)).To(MatchError(ErrInvalidConfig))
			Expect(engine.CycleDelay()).To(Equal(0.2))
		})

	It("should pass the cycle delay to the adapter", func() {
		Expect(engine.SetCycleDelay(0.25)).To(Succeed())

		adapter.EXPECT().Handle(0.25)

		cycleAt(500*time.Millisecond, t0)
	})

	It("should pace through the idle waiter while disconnected", func() {
		engine.state = StateRunning

		device.EXPECT().Process(0.5).Times(3)

		adapter.EXPECT().Handle(0.1)
		cycleAt(500*time.Millisecond, t0)

		Expect(engine.DisconnectDevice()).To(Succeed())
		Expect(engine.DeviceConnected()).To(BeFalse())

		waiter.EXPECT().Wait(0.1)
		cycleAt(time.Second, t0.Add(500*time.Millisecond))

		Expect(engine.ConnectDevice()).To(Succeed())
		Expect(engine.DeviceConnected()).To(BeTrue())

		adapter.EXPECT().Handle(0.1)
		cycleAt(1500*time.Millisecond, t0.Add(time.Second))
	})

	It("should reject double disconnect and double connect", func() {
		Expect(engine.DeviceConnected()).To(BeTrue())

		Expect(engine.DisconnectDevice()).To(Succeed())
		Expect(engine.DisconnectDevice()).To(MatchError(ErrInvalidOperation))

		Expect(engine.ConnectDevice()).To(Succeed())
		Expect(engine.ConnectDevice()).To(MatchError(ErrInvalidOperation))
	})

	It("should allow any control channel assignment before running", func() {
		control := NewMockControlChannel(mockCtrl)

		Expect(engine.SetControlChannel(control)).To(Succeed())
		Expect(engine.ControlChannel()).To(BeIdenticalTo(control))

		Expect(engine.SetControlChannel(nil)).To(Succeed())
		Expect(engine.ControlChannel()).To(BeNil())

		Expect(engine.SetControlChannel(control)).To(Succeed())
		Expect(engine.SetControlChannel(NewMockControlChannel(mockCtrl))).
			To(Succeed())
	})

	It("should allow attaching, but not replacing, a control channel "+
		"while running", func() {
		engine.state = StateRunning

		Expect(engine.SetControlChannel(NewMockControlChannel(mockCtrl))).
			To(Succeed())

		Expect(engine.SetControlChannel(NewMockControlChannel(mockCtrl))).
			To(MatchError(ErrInvalidOperation))
		Expect(engine.SetControlChannel(nil)).
			To(MatchError(ErrInvalidOperation))
	})

	It("should service the control channel once per cycle, after pacing",
		func() {
			control := NewMockControlChannel(mockCtrl)
			Expect(engine.SetControlChannel(control)).To(Succeed())

			engine.state = StateRunning

			device.EXPECT().Process(0.5)
			pacing := adapter.EXPECT().Handle(0.1)
			control.EXPECT().Process().After(pacing)

			cycleAt(500*time.Millisecond, t0)
		})

	It("should run until stopped", func() {
		clock.EXPECT().Now().Return(t0).AnyTimes()
		adapter.EXPECT().Handle(0.1)
		device.EXPECT().Process(0.0).Do(func(_ float64) {
			engine.Stop()
		})

		Expect(engine.Run()).To(Succeed())

		Expect(engine.Cycles()).To(Equal(uint64(1)))
		Expect(engine.State()).To(Equal(StateStopped))
		Expect(engine.IsStarted()).To(BeTrue())
	})

	It("should refuse to run a stopped engine again", func() {
		clock.EXPECT().Now().Return(t0).AnyTimes()
		adapter.EXPECT().Handle(0.1)
		device.EXPECT().Process(0.0).Do(func(_ float64) {
			engine.Stop()
		})

		Expect(engine.Run()).To(Succeed())
		Expect(engine.Run()).To(MatchError(ErrInvalidOperation))
	})

	It("should exit the loop when stopped while paused", func() {
		clock.EXPECT().Now().Return(t0).AnyTimes()

		stopControl := NewMockControlChannel(mockCtrl)
		Expect(engine.SetControlChannel(stopControl)).To(Succeed())

		device.EXPECT().Process(0.0).Do(func(_ float64) {
			Expect(engine.Pause()).To(Succeed())
		})
		adapter.EXPECT().Handle(0.1).Times(2)
		first := stopControl.EXPECT().Process()
		stopControl.EXPECT().Process().After(first).Do(func() {
			engine.Stop()
		})

		Expect(engine.Run()).To(Succeed())

		Expect(engine.Cycles()).To(Equal(uint64(1)))
		Expect(engine.State()).To(Equal(StateStopped))
	})

	It("should treat stopping a non-live engine as a no-op", func() {
		engine.Stop()
		Expect(engine.State()).To(Equal(StateIdle))
	})
})
