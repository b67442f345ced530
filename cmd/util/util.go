package util

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mklatt/chatwire/session/codec"
	"github.com/mklatt/chatwire/session/common"
	"github.com/mklatt/chatwire/session/conn"
	"github.com/mklatt/chatwire/session/crypto"
	"github.com/mklatt/chatwire/session/transport/ws"
	"github.com/mklatt/chatwire/session/wire"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupSessionClientFlags adds common session connection flags to a command
func SetupSessionClientFlags(cmd *cobra.Command) {
	key := "endpoint"
	cmd.PersistentFlags().String(key, "wss://localhost:8443/ws", WrapString("The websocket URL of the messaging server"))

	key = "origin"
	cmd.PersistentFlags().String(key, "https://localhost", WrapString("The HTTP origin header sent during the websocket upgrade"))

	key = "proxy"
	cmd.PersistentFlags().String(key, "", WrapString("Optional proxy URL for the outbound connection"))

	key = "connect-timeout"
	cmd.PersistentFlags().Int(key, 20, WrapString("The connect timeout in seconds"))

	key = "query-timeout"
	cmd.PersistentFlags().Int(key, 30, WrapString("The default query timeout in seconds"))

	key = "keepalive-interval"
	cmd.PersistentFlags().Int(key, 20000, WrapString("The keep-alive probe interval in milliseconds"))

	key = "liveness-probe-interval"
	cmd.PersistentFlags().Int(key, 15000, WrapString("The remote liveness probe interval in milliseconds"))

	key = "reachable-grace"
	cmd.PersistentFlags().Int(key, 7500, WrapString("How long to wait in milliseconds after the peer is confirmed reachable before a still-pending query is cancelled"))
}

// InitClientConfig initializes configuration from environment variables
func InitClientConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("chatwire")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetClientConfig reads client configuration from viper
func GetClientConfig() *common.ClientConfig {
	return &common.ClientConfig{
		Endpoint:             viper.GetString("endpoint"),
		Origin:               viper.GetString("origin"),
		ProxyURL:             viper.GetString("proxy"),
		ConnectTimeoutSecond: viper.GetInt("connect-timeout"),
		QueryTimeoutSecond:   viper.GetInt("query-timeout"),
		KeepAliveMs:          viper.GetInt("keepalive-interval"),
		LivenessProbeMs:      viper.GetInt("liveness-probe-interval"),
		ReachableGraceMs:     viper.GetInt("reachable-grace"),
		LogLevel:             viper.GetString("log-level"),
	}
}

// GetCodec creates a message tree codec based on configuration
func GetCodec() (codec.ICodec, error) {
	switch viper.GetString("codec") {
	case "json":
		return codec.NewJSONCodec(), nil
	case "binary":
		return codec.NewBinaryCodec(), nil
	default:
		return nil, fmt.Errorf("invalid codec %s", viper.GetString("codec"))
	}
}

// NewSessionSocket assembles a socket from the configured components. The
// caller still has to call Connect on it.
func NewSessionSocket() (*conn.Socket, error) {
	config := GetClientConfig()
	if err := common.InitLoggers(config.LogLevel); err != nil {
		return nil, err
	}

	c, err := GetCodec()
	if err != nil {
		return nil, err
	}

	frames := wire.NewFrameCodec(c, crypto.NewSuite())
	return conn.New(*config, ws.NewWSTransport(), frames), nil
}

// BindCommandFlags binds a command's flags (including inherited persistent
// flags) to viper
func BindCommandFlags(cmd *cobra.Command) error {
	if err := viper.BindPFlags(cmd.InheritedFlags()); err != nil {
		return err
	}
	return viper.BindPFlags(cmd.Flags())
}
