package watch

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/VictoriaMetrics/metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mklatt/chatwire/cmd/util"
	"github.com/mklatt/chatwire/session/common"
	"github.com/mklatt/chatwire/session/conn"
)

var (
	sessionSocket *conn.Socket

	// WatchCmd streams unsolicited server events to stdout
	WatchCmd = &cobra.Command{
		Use:   "watch [routing-key...]",
		Short: "Stream unsolicited server events",
		Long: `Opens a session and subscribes to the given routing keys, printing
every matching event to stdout until the session ends or the process is
interrupted.

Routing keys address events by their message header, optionally narrowed
down by an attribute or a child node:

  Chat                  every event with header Chat
  Chat,type             every Chat event carrying a type attribute
  Chat,type:new         every Chat event with type=new
  Chat,,item            every Chat event with an item child`,
		Args:              cobra.MinimumNArgs(1),
		PersistentPreRunE: setupSession,
		RunE:              runWatch,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common session flags to the watch command
	util.SetupSessionClientFlags(WatchCmd)

	key := "metrics-addr"
	WatchCmd.Flags().String(key, "", util.WrapString("Optional listen address serving connection metrics in Prometheus format (e.g. :9090)"))
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

func runWatch(_ *cobra.Command, args []string) error {
	defer sessionSocket.End(common.ReasonConnectionClosed)

	if addr := viper.GetString("metrics-addr"); addr != "" {
		go serveMetrics(addr)
	}

	for _, k := range args {
		key := k
		sessionSocket.Router().Subscribe(key, func(payload any) {
			out, err := json.Marshal(payload)
			if err != nil {
				fmt.Printf("%s: %v\n", key, payload)
				return
			}
			fmt.Printf("%s: %s\n", key, out)
		})
	}

	// Run until the session ends or the user interrupts
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sessionSocket.Done():
		return sessionSocket.CloseReason()
	case <-interrupt:
		return nil
	}
}

// serveMetrics exposes the connection counters in Prometheus text format
func serveMetrics(addr string) {
	http.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		metrics.WritePrometheus(w, true)
	})
	_ = http.ListenAndServe(addr, nil)
}
