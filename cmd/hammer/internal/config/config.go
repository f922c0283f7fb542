package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// RuntimeEnvironment represents the execution environment
type RuntimeEnvironment string

const (
	RuntimeKubernetes RuntimeEnvironment = "kubernetes"
	RuntimeContainer  RuntimeEnvironment = "container"
	RuntimeVM         RuntimeEnvironment = "vm"
)

// DiscoveryMode represents how the target address is found
type DiscoveryMode string

const (
	DiscoveryKubernetes DiscoveryMode = "kubernetes"
	DiscoveryStatic     DiscoveryMode = "static"
)

// TLSMode represents where client TLS material comes from
type TLSMode string

const (
	TLSModeFile       TLSMode = "file"
	TLSModeKubernetes TLSMode = "kubernetes"
	TLSModeInsecure   TLSMode = "insecure"
)

// Config holds all application configuration
type Config struct {
	// Core
	Debug bool

	// Target
	Host   string
	Port   int
	Phrase string

	// Load shape
	Connections     int
	MaxPendingDials int
	DialRate        float64 // dials per second, 0 = unlimited
	ReadBufferSize  int
	ReportInterval  time.Duration
	RaiseFDLimit    bool

	// Runtime
	Runtime   RuntimeEnvironment
	Namespace string

	// Server
	HealthServerPort string

	// Target Discovery
	DiscoveryMode   DiscoveryMode
	TargetService   string
	TargetNamespace string
	TargetPortName  string
	KubeConfigPath  string
	KubeContext     string

	// TLS Configuration
	TLSEnabled    bool
	TLSMode       TLSMode
	TLSCertFile   string
	TLSKeyFile    string
	TLSCAFile     string
	TLSSecretName string
	TLSServerName string
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() (*Config, error) {
	return Load(nil)
}

// Load reads the environment, then applies command-line flags from args
// (without the program name) on top of it.
func Load(args []string) (*Config, error) {
	cfg := &Config{
		// Core
		Debug: getEnvBool("DEBUG", false),

		// Target
		Host:   getEnv("HAMMER_HOST", "localhost"),
		Port:   getEnvInt("HAMMER_PORT", 7000),
		Phrase: getEnv("HAMMER_PHRASE", "hello world"),

		// Load shape
		Connections:     getEnvInt("HAMMER_CONNECTIONS", 1000),
		MaxPendingDials: getEnvInt("HAMMER_MAX_PENDING_DIALS", 100),
		DialRate:        getEnvFloat("HAMMER_DIAL_RATE", 0),
		ReadBufferSize:  getEnvInt("HAMMER_READ_BUFFER_SIZE", 64*1024),
		ReportInterval:  getEnvDuration("HAMMER_REPORT_INTERVAL", 10*time.Second),
		RaiseFDLimit:    getEnvBool("RAISE_FD_LIMIT", true),

		// Runtime - Auto-detect or explicit
		Runtime:   determineRuntime(),
		Namespace: determineNamespace(),

		// Server
		HealthServerPort: getEnv("HEALTH_SERVER_PORT", ""),

		// Target Discovery
		DiscoveryMode:  determineDiscoveryMode(),
		TargetService:  getEnv("TARGET_SERVICE", ""),
		TargetPortName: getEnv("TARGET_PORT_NAME", ""),
		KubeConfigPath: getEnv("KUBECONFIG", ""),
		KubeContext:    getEnv("KUBE_CONTEXT", ""),

		// TLS
		TLSEnabled:    getEnvBool("TLS_ENABLED", false),
		TLSMode:       determineTLSMode(),
		TLSCertFile:   getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:    getEnv("TLS_KEY_FILE", ""),
		TLSCAFile:     getEnv("TLS_CA_FILE", ""),
		TLSSecretName: getEnv("TLS_SECRET_NAME", ""),
		TLSServerName: getEnv("TLS_SERVER_NAME", ""),
	}
	cfg.TargetNamespace = getEnv("TARGET_NAMESPACE", cfg.Namespace)

	if err := cfg.applyFlags(args); err != nil {
		return nil, err
	}

	// Validation
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyFlags overrides environment values with explicitly given flags.
func (c *Config) applyFlags(args []string) error {
	fs := pflag.NewFlagSet("hammer", pflag.ContinueOnError)
	fs.StringVar(&c.Host, "host", c.Host, "target server host")
	fs.IntVar(&c.Port, "port", c.Port, "target server TCP port")
	fs.IntVarP(&c.Connections, "count", "c", c.Connections, "number of parallel sessions")
	fs.StringVar(&c.Phrase, "phrase", c.Phrase, "payload sent and expected as reply prefix")
	fs.IntVar(&c.MaxPendingDials, "max-pending-dials", c.MaxPendingDials, "maximum dials in flight")
	fs.Float64Var(&c.DialRate, "dial-rate", c.DialRate, "dials started per second (0 = unlimited)")
	fs.IntVar(&c.ReadBufferSize, "read-buffer", c.ReadBufferSize, "per-session read buffer size in bytes")
	fs.DurationVar(&c.ReportInterval, "report-interval", c.ReportInterval, "stats log interval (0 disables)")
	fs.StringVar(&c.HealthServerPort, "health-port", c.HealthServerPort, "health/stats HTTP port (empty disables)")
	fs.BoolVar(&c.Debug, "debug", c.Debug, "enable debug logging")
	discovery := fs.String("discovery", string(c.DiscoveryMode), "target discovery mode: static or kubernetes")
	fs.StringVar(&c.TargetService, "service", c.TargetService, "kubernetes service to target")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	if fs.Changed("discovery") {
		mode, err := parseDiscoveryMode(*discovery)
		if err != nil {
			return err
		}
		c.DiscoveryMode = mode
	} else if fs.Changed("service") && c.TargetService != "" {
		c.DiscoveryMode = DiscoveryKubernetes
	}
	return nil
}

// validate ensures configuration is coherent
func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d (must be 1-65535)", c.Port)
	}
	if c.Connections < 0 {
		return fmt.Errorf("connection count must not be negative, got %d", c.Connections)
	}
	if c.Phrase == "" {
		return fmt.Errorf("phrase must not be empty")
	}
	if c.MaxPendingDials < 1 {
		return fmt.Errorf("max pending dials must be at least 1, got %d", c.MaxPendingDials)
	}
	if c.DialRate < 0 {
		return fmt.Errorf("dial rate must not be negative, got %v", c.DialRate)
	}
	if c.ReadBufferSize < 1 {
		return fmt.Errorf("read buffer size must be at least 1, got %d", c.ReadBufferSize)
	}
	if c.ReportInterval < 0 {
		return fmt.Errorf("report interval must not be negative, got %s", c.ReportInterval)
	}

	if c.DiscoveryMode == DiscoveryKubernetes && c.TargetService == "" {
		return fmt.Errorf("TARGET_SERVICE must be set when using kubernetes discovery")
	}

	// TLS validation only if TLS is enabled
	if c.TLSEnabled {
		if c.TLSMode == TLSModeFile && (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
			return fmt.Errorf("TLS_CERT_FILE and TLS_KEY_FILE must be set together")
		}

		if c.TLSMode == TLSModeKubernetes {
			if c.TLSSecretName == "" {
				return fmt.Errorf("TLS_SECRET_NAME must be set when using kubernetes TLS mode")
			}
			if c.DiscoveryMode == DiscoveryStatic {
				return fmt.Errorf("kubernetes TLS mode requires kubernetes discovery (set TARGET_SERVICE)")
			}
		}
	}

	return nil
}

// Addr returns the static target address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return floatValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func determineRuntime() RuntimeEnvironment {
	// Explicit runtime setting
	if runtime := os.Getenv("RUNTIME"); runtime != "" {
		switch strings.ToLower(runtime) {
		case "kubernetes", "k8s":
			return RuntimeKubernetes
		case "container", "docker":
			return RuntimeContainer
		case "vm", "virtual-machine", "bare-metal":
			return RuntimeVM
		}
	}

	// Auto-detect: Check if running in Kubernetes
	if _, err := os.Stat("/var/run/secrets/kubernetes.io/serviceaccount"); err == nil {
		return RuntimeKubernetes
	}

	// Auto-detect: Check if running in container
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return RuntimeContainer
	}

	return RuntimeVM
}

func determineNamespace() string {
	if ns := os.Getenv("NAMESPACE"); ns != "" {
		return ns
	}

	// Kubernetes downward API
	if ns := os.Getenv("POD_NAMESPACE"); ns != "" {
		return ns
	}

	// Read from service account (in-cluster)
	if data, err := os.ReadFile("/var/run/secrets/kubernetes.io/serviceaccount/namespace"); err == nil {
		return strings.TrimSpace(string(data))
	}

	return "default"
}

func determineDiscoveryMode() DiscoveryMode {
	if mode := os.Getenv("DISCOVERY_MODE"); mode != "" {
		if m, err := parseDiscoveryMode(mode); err == nil {
			return m
		}
	}

	// Auto-detect: Kubernetes if a target service is named
	if os.Getenv("TARGET_SERVICE") != "" {
		return DiscoveryKubernetes
	}

	return DiscoveryStatic
}

func parseDiscoveryMode(mode string) (DiscoveryMode, error) {
	switch strings.ToLower(mode) {
	case "static":
		return DiscoveryStatic, nil
	case "kubernetes", "k8s":
		return DiscoveryKubernetes, nil
	}
	return "", fmt.Errorf("unknown discovery mode: %s (supported: static, kubernetes)", mode)
}

func determineTLSMode() TLSMode {
	if mode := os.Getenv("TLS_MODE"); mode != "" {
		switch strings.ToLower(mode) {
		case "file", "filesystem":
			return TLSModeFile
		case "kubernetes", "k8s", "secret":
			return TLSModeKubernetes
		case "insecure", "skip-verify":
			return TLSModeInsecure
		}
	}

	// Auto-detect based on configuration
	if os.Getenv("TLS_SECRET_NAME") != "" {
		return TLSModeKubernetes
	}

	return TLSModeFile
}
