package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/devsimlab/devsim/adapters/loopback"
	"github.com/devsimlab/devsim/devices/motor"
	"github.com/devsimlab/devsim/simulation"
)

var runFlags struct {
	speed       float64
	cycleDelay  float64
	target      float64
	monitorPort int
	noMonitor   bool
	dashboard   bool
	noRecording bool
	output      string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the demo motor simulation",
	Long: `Run the demo motor simulation: a linear motor device behind a ` +
		`loopback adapter, driven by the cycle engine until stopped through ` +
		`the monitoring API or interrupted.`,
	Run: func(cmd *cobra.Command, _ []string) {
		applyEnvDefaults(cmd)

		device := motor.New()
		device.Target = runFlags.target

		builder := simulation.MakeBuilder().
			WithDevice(device).
			WithAdapter(loopback.New(device)).
			WithSpeed(runFlags.speed).
			WithCycleDelay(runFlags.cycleDelay)

		if runFlags.noMonitor {
			builder = builder.WithoutMonitoring()
		} else {
			if runFlags.monitorPort > 0 {
				builder = builder.WithMonitorPort(runFlags.monitorPort)
			}
			if runFlags.dashboard {
				builder = builder.WithDashboard()
			}
		}

		if runFlags.noRecording {
			builder = builder.WithoutRecording()
		} else if runFlags.output != "" {
			builder = builder.WithOutputFileName(runFlags.output)
		}

		s := builder.Build()

		stopOnSignal()

		if err := s.Run(); err != nil {
			log.Fatalf("Error running simulation: %v", err)
		}

		s.Terminate()
		fmt.Fprintf(os.Stderr,
			"Simulation %s finished after %d cycles, "+
				"runtime %.3fs, uptime %.3fs\n",
			s.ID(), s.Engine().Cycles(),
			s.Engine().Runtime(), s.Engine().Uptime())

		atexit.Exit(0)
	},
}

// applyEnvDefaults fills flags the user did not set from a .env file or the
// process environment.
func applyEnvDefaults(cmd *cobra.Command) {
	// A missing .env file is fine.
	_ = godotenv.Load()

	envFloat(cmd, "speed", "DEVSIM_SPEED", &runFlags.speed)
	envFloat(cmd, "cycle-delay", "DEVSIM_CYCLE_DELAY", &runFlags.cycleDelay)
	envInt(cmd, "monitor-port", "DEVSIM_MONITOR_PORT", &runFlags.monitorPort)
}

func envFloat(cmd *cobra.Command, flag, env string, dst *float64) {
	if cmd.Flags().Changed(flag) {
		return
	}

	value, ok := os.LookupEnv(env)
	if !ok {
		return
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Fatalf("Error: %s must be a number, got %q", env, value)
	}

	*dst = parsed
}

func envInt(cmd *cobra.Command, flag, env string, dst *int) {
	if cmd.Flags().Changed(flag) {
		return
	}

	value, ok := os.LookupEnv(env)
	if !ok {
		return
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Fatalf("Error: %s must be an integer, got %q", env, value)
	}

	*dst = parsed
}

// stopOnSignal flushes the recorded data and exits when the process is
// interrupted. Orderly shutdown goes through the monitoring API instead.
func stopOnSignal() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-signals
		fmt.Fprintln(os.Stderr, "Interrupted.")
		atexit.Exit(1)
	}()
}

func init() {
	runCmd.Flags().Float64Var(&runFlags.speed, "speed", 1.0,
		"factor scaling wall time into simulated time")
	runCmd.Flags().Float64Var(&runFlags.cycleDelay, "cycle-delay", 0.1,
		"upper bound of the per-cycle pacing wait, in seconds")
	runCmd.Flags().Float64Var(&runFlags.target, "target", 10.0,
		"target position of the demo motor")
	runCmd.Flags().IntVar(&runFlags.monitorPort, "monitor-port", 0,
		"port of the monitoring server (0 picks a random port)")
	runCmd.Flags().BoolVar(&runFlags.noMonitor, "no-monitor", false,
		"disable the monitoring server")
	runCmd.Flags().BoolVar(&runFlags.dashboard, "dashboard", false,
		"open the monitoring URL in the local browser")
	runCmd.Flags().BoolVar(&runFlags.noRecording, "no-recording", false,
		"disable cycle data recording")
	runCmd.Flags().StringVar(&runFlags.output, "output", "",
		"output file name for the cycle recording")

	rootCmd.AddCommand(runCmd)
}
