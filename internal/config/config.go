package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Mode selects the role of the process.
type Mode string

const (
	ModeServer Mode = "server"
	ModeClient Mode = "client"
)

// Transport names.
const (
	TransportUDP    = "udp"
	TransportWebRTC = "webrtc"
)

// Capture sources.
const (
	SourceScreen    = "screen"
	SourceSynthetic = "synthetic"
)

// DefaultRefreshRate is assumed when the display refresh rate cannot be
// detected.
const DefaultRefreshRate = 60

// ErrUsage indicates bad command line arguments. The usage text has already
// been written when it is returned.
var ErrUsage = errors.New("usage")

// Config holds all runtime configuration.
type Config struct {
	Mode Mode
	Host string
	Port int

	Transport string
	Listen    string
	Room      string

	FPS          int
	Quality      int
	Source       string
	DisplayIndex int
	Width        int
	Height       int

	MaxDatagram       int
	ReassemblyTimeout time.Duration
	MaxPending        int
	DecodeResetAfter  int

	Log LogConfig
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string
	// Format: text or json
	Format string
	// Output: stderr, stdout or a file path
	Output string

	// Rotation applies to file outputs only.
	Rotate     bool
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Addr returns host:port from the positional arguments.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// SignalingURL is the relay address used by the webrtc transport.
func (c *Config) SignalingURL() string {
	return "ws://" + c.Addr() + "/ws"
}

// RefreshRate returns the cadence in frames per second: the configured value,
// or the detected display rate.
func (c *Config) RefreshRate() int {
	if c.FPS > 0 {
		return c.FPS
	}
	return DetectRefreshRate()
}

// DetectRefreshRate reports the local display refresh rate. No portable
// query exists, so it returns DefaultRefreshRate.
func DetectRefreshRate() int {
	return DefaultRefreshRate
}

func defaultSource() string {
	if runtime.GOOS == "darwin" {
		return SourceScreen
	}
	return SourceSynthetic
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("transport", TransportUDP)
	v.SetDefault("listen", ":0")
	v.SetDefault("room", "")
	v.SetDefault("fps", 0)
	v.SetDefault("quality", 70)
	v.SetDefault("source", defaultSource())
	v.SetDefault("display", 0)
	v.SetDefault("width", 1280)
	v.SetDefault("height", 720)
	v.SetDefault("max_datagram", 1400)
	v.SetDefault("reassembly_timeout", 500*time.Millisecond)
	v.SetDefault("max_pending", 64)
	v.SetDefault("decode_reset_after", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "stderr")
	v.SetDefault("log.rotate", false)
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", true)
}

// load builds the viper instance that seeds flag defaults. Environment
// variables use the prefix AIRSTREAM with `.` and `-` replaced by `_`,
// e.g. AIRSTREAM_LOG_LEVEL=debug.
func load(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("AIRSTREAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path == "" {
		path = os.Getenv("AIRSTREAM_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return v, nil
}

// configPath finds -config in args before the flag set is built, since the
// file supplies the flag defaults.
func configPath(args []string) string {
	for i, a := range args {
		name, value, hasValue := strings.Cut(strings.TrimLeft(a, "-"), "=")
		if !strings.HasPrefix(a, "-") || name != "config" {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// Parse parses the command line (without the program name):
//
//	airstream [flags] server|client <host> <port>
//
// Flag defaults come from AIRSTREAM_* environment variables and the optional
// YAML file named by -config. Usage errors are reported on stderr.
func Parse(args []string, stderr io.Writer) (*Config, error) {
	v, err := load(configPath(args))
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	fs := flag.NewFlagSet("airstream", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: airstream [flags] server|client <host> <port>")
		fs.PrintDefaults()
	}

	fs.String("config", "", "YAML config file (also AIRSTREAM_CONFIG)")
	fs.StringVar(&cfg.Transport, "transport", v.GetString("transport"), "Transport: udp or webrtc")
	fs.StringVar(&cfg.Listen, "listen", v.GetString("listen"), "Server local bind address (udp)")
	fs.StringVar(&cfg.Room, "room", v.GetString("room"), "Host ID on the signaling relay (webrtc; generated for a server if empty)")
	fs.IntVar(&cfg.FPS, "fps", v.GetInt("fps"), "Target frames per second (0 = display refresh rate)")
	fs.IntVar(&cfg.Quality, "quality", v.GetInt("quality"), "JPEG quality (1-100)")
	fs.StringVar(&cfg.Source, "source", v.GetString("source"), "Capture source: screen or synthetic")
	fs.IntVar(&cfg.DisplayIndex, "display", v.GetInt("display"), "Display index to capture (0 = primary)")
	fs.IntVar(&cfg.Width, "width", v.GetInt("width"), "Synthetic source width")
	fs.IntVar(&cfg.Height, "height", v.GetInt("height"), "Synthetic source height")
	fs.IntVar(&cfg.MaxDatagram, "max-datagram", v.GetInt("max_datagram"), "Maximum datagram size in bytes, header included")
	fs.DurationVar(&cfg.ReassemblyTimeout, "reassembly-timeout", v.GetDuration("reassembly_timeout"), "Evict incomplete frames idle for this long")
	fs.IntVar(&cfg.MaxPending, "max-pending", v.GetInt("max_pending"), "Maximum frames reassembling at once")
	fs.IntVar(&cfg.DecodeResetAfter, "decode-reset-after", v.GetInt("decode_reset_after"), "Reset the decoder after this many consecutive failures")
	fs.StringVar(&cfg.Log.Level, "log-level", v.GetString("log.level"), "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.Log.Format, "log-format", v.GetString("log.format"), "Log format: text or json")
	fs.StringVar(&cfg.Log.Output, "log-output", v.GetString("log.output"), "Log output: stderr, stdout or a file path")
	fs.BoolVar(&cfg.Log.Rotate, "log-rotate", v.GetBool("log.rotate"), "Rotate file log output")
	cfg.Log.MaxSizeMB = v.GetInt("log.max_size_mb")
	cfg.Log.MaxBackups = v.GetInt("log.max_backups")
	cfg.Log.MaxAgeDays = v.GetInt("log.max_age_days")
	cfg.Log.Compress = v.GetBool("log.compress")

	if err := fs.Parse(args); err != nil {
		return nil, ErrUsage
	}

	usage := func(format string, a ...any) error {
		fmt.Fprintf(stderr, format+"\n", a...)
		fs.Usage()
		return ErrUsage
	}

	if fs.NArg() != 3 {
		return nil, usage("expected 3 arguments, got %d", fs.NArg())
	}
	switch m := Mode(fs.Arg(0)); m {
	case ModeServer, ModeClient:
		cfg.Mode = m
	default:
		return nil, usage("invalid mode %q. Use 'server' or 'client'.", fs.Arg(0))
	}
	cfg.Host = fs.Arg(1)
	port, err := strconv.Atoi(fs.Arg(2))
	if err != nil || port < 1 || port > 65535 {
		return nil, usage("invalid port %q", fs.Arg(2))
	}
	cfg.Port = port

	if cfg.Room == "" && cfg.Transport == TransportWebRTC {
		if cfg.Mode == ModeClient {
			return nil, usage("-room is required for a webrtc client")
		}
		cfg.Room = fmt.Sprintf("host-%s", randomID())
	}

	if err := cfg.Validate(); err != nil {
		return nil, usage("%v", err)
	}
	return cfg, nil
}

// Validate checks option ranges.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportUDP, TransportWebRTC:
	default:
		return fmt.Errorf("transport must be udp or webrtc, got %q", c.Transport)
	}
	switch c.Source {
	case SourceScreen, SourceSynthetic:
	default:
		return fmt.Errorf("source must be screen or synthetic, got %q", c.Source)
	}
	if c.FPS < 0 || c.FPS > 240 {
		return fmt.Errorf("fps must be 0-240, got %d", c.FPS)
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("quality must be 1-100, got %d", c.Quality)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("width and height must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.MaxDatagram < 64 || c.MaxDatagram > 65507 {
		return fmt.Errorf("max-datagram must be 64-65507, got %d", c.MaxDatagram)
	}
	if c.ReassemblyTimeout <= 0 {
		return fmt.Errorf("reassembly-timeout must be positive, got %s", c.ReassemblyTimeout)
	}
	if c.MaxPending < 1 {
		return fmt.Errorf("max-pending must be at least 1, got %d", c.MaxPending)
	}
	if c.DecodeResetAfter < 1 {
		return fmt.Errorf("decode-reset-after must be at least 1, got %d", c.DecodeResetAfter)
	}
	return nil
}

func randomID() string {
	b := make([]byte, 4)
	rand.Read(b)
	return hex.EncodeToString(b)
}
