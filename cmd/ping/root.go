package ping

import (
	"fmt"
	"time"

	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mklatt/chatwire/cmd/util"
	"github.com/mklatt/chatwire/session/common"
	"github.com/mklatt/chatwire/session/conn"
)

var (
	sessionSocket *conn.Socket

	// PingCmd measures session round-trip latency
	PingCmd = &cobra.Command{
		Use:   "ping",
		Short: "Measure session round-trip latency",
		Long: `Opens a session to the configured server and sends admin test
probes, reporting round-trip latency statistics.`,
		PersistentPreRunE: setupSession,
		RunE:              runPing,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common session flags to the ping command
	util.SetupSessionClientFlags(PingCmd)

	key := "count"
	PingCmd.Flags().Int(key, 10, util.WrapString("Number of probes to send"))
	key = "interval"
	PingCmd.Flags().Int(key, 1000, util.WrapString("Delay between probes in milliseconds"))
}

// setupSession assembles and opens the session socket
func setupSession(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	s, err := util.NewSessionSocket()
	if err != nil {
		return err
	}

	sessionSocket = s
	return sessionSocket.Connect()
}

func runPing(_ *cobra.Command, _ []string) error {
	defer sessionSocket.End(common.ReasonConnectionClosed)

	count := viper.GetInt("count")
	interval := time.Duration(viper.GetInt("interval")) * time.Millisecond
	timeout := time.Duration(viper.GetInt("query-timeout")) * time.Second

	latency := gometrics.NewTimer()
	failures := 0

	for i := 0; i < count; i++ {
		start := time.Now()
		if _, err := sessionSocket.AdminTest(timeout); err != nil {
			failures++
			fmt.Printf("probe %d/%d failed: %v\n", i+1, count, err)
		} else {
			rtt := time.Since(start)
			latency.Update(rtt)
			fmt.Printf("probe %d/%d: %v\n", i+1, count, rtt)
		}

		if i < count-1 {
			time.Sleep(interval)
		}
	}

	if latency.Count() == 0 {
		return fmt.Errorf("all %d probes failed", count)
	}

	ps := latency.Percentiles([]float64{0.5, 0.95, 0.99})

	fmt.Printf("\n%d probes, %d failed\n", count, failures)
	fmt.Printf("  min  : %v\n", time.Duration(latency.Min()))
	fmt.Printf("  mean : %v\n", time.Duration(int64(latency.Mean())))
	fmt.Printf("  p50  : %v\n", time.Duration(int64(ps[0])))
	fmt.Printf("  p95  : %v\n", time.Duration(int64(ps[1])))
	fmt.Printf("  p99  : %v\n", time.Duration(int64(ps[2])))
	fmt.Printf("  max  : %v\n", time.Duration(latency.Max()))

	return nil
}
