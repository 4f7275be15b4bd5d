// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/AXErunners/axesync/chaincfg"
	"github.com/AXErunners/axesync/internal/version"
	"github.com/AXErunners/axesync/netmgr"
	"github.com/AXErunners/axesync/sampleconfig"
	flags "github.com/jessevdk/go-flags"

	"github.com/decred/go-socks/socks"
)

const (
	defaultConfigFilename = "axesyncd.conf"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "axesyncd.log"
	defaultLogLevel       = "info"
	defaultTargetPeers    = 4
)

var (
	defaultHomeDir    = appDataDir("axesync")
	defaultConfigFile = filepath.Join(defaultHomeDir, defaultConfigFilename)
	defaultDataDir    = defaultHomeDir
	defaultLogDir     = filepath.Join(defaultHomeDir, defaultLogDirname)
)

// appDataDir returns an operating system specific directory to store
// application data in.  It falls back to the current directory when the user
// home directory can not be determined.
func appDataDir(appName string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "."+appName)
}

// config defines the configuration options for axesyncd.
//
// See loadConfig for details on the configuration load process.
type config struct {
	ConfigFile    string   `short:"C" long:"configfile" description:"Path to configuration file"`
	ShowVersion   bool     `short:"V" long:"version" description:"Display version information and exit"`
	HomeDir       string   `short:"A" long:"appdata" description:"Path to application home directory"`
	DataDir       string   `short:"b" long:"datadir" description:"Directory to store data"`
	LogDir        string   `long:"logdir" description:"Directory to log output"`
	NoFileLogging bool     `long:"nofilelogging" description:"Disable file logging"`
	DebugLevel    string   `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	TestNet       bool     `long:"testnet" description:"Use the test network"`
	Connect       []string `long:"connect" description:"Connect only to the specified peers at startup and disable peer discovery"`
	MaxPeers      int      `long:"maxpeers" description:"Target number of peer connections (clamped to the protocol bounds)"`
	NoDiscovery   bool     `long:"nodiscovery" description:"Disable addr-based discovery of additional peers beyond the DNS seeds"`
	Proxy         string   `long:"proxy" description:"Connect via SOCKS5 proxy (eg. 127.0.0.1:9050)"`
	ProxyUser     string   `long:"proxyuser" description:"Username for proxy server"`
	ProxyPass     string   `long:"proxypass" default-mask:"-" description:"Password for proxy server"`
	Profile       string   `long:"profile" description:"Enable HTTP profiling on given [addr:]port -- NOTE port must be between 1024 and 65535"`

	// params is the active network parameters chosen from the network flags.
	params *chaincfg.Params

	// dial establishes outbound connections, routed through the configured
	// proxy when one is set.
	dial func(ctx context.Context, network, addr string) (net.Conn, error)
}

// errSuppressUsage signifies that an error that happened while parsing the
// configuration should not include the usage message in its output.
type errSuppressUsage string

// Error implements the error interface.
func (e errSuppressUsage) Error() string {
	return string(e)
}

// createDefaultConfigFile copies the sample config to the given destination
// path so a fresh install starts from a commented example.
func createDefaultConfigFile(destPath string) error {
	// Create the destination directory if it does not exist.
	err := os.MkdirAll(filepath.Dir(destPath), 0700)
	if err != nil {
		return err
	}

	return os.WriteFile(destPath, []byte(sampleconfig.Axesyncd()), 0644)
}

// cleanAndExpandPath expands environment variables and leading ~ in the passed
// path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(defaultHomeDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%, but
	// the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

// validLogLevel returns whether or not logLevel is a valid debug log level.
func validLogLevel(logLevel string) bool {
	switch logLevel {
	case "trace", "debug", "info", "warn", "error", "critical":
		return true
	}
	return false
}

// supportedSubsystems returns a sorted slice of the supported subsystems for
// logging purposes.
func supportedSubsystems() []string {
	subsystems := make([]string, 0, len(subsystemLoggers))
	for subsysID := range subsystemLoggers {
		subsystems = append(subsystems, subsysID)
	}
	sort.Strings(subsystems)
	return subsystems
}

// parseAndSetDebugLevels attempts to parse the specified debug level and set
// the levels accordingly.  An appropriate error is returned if anything is
// invalid.
func parseAndSetDebugLevels(debugLevel string) error {
	// When the specified string doesn't have any delimiters, treat it as the
	// log level for all subsystems.
	if !strings.Contains(debugLevel, ",") && !strings.Contains(debugLevel, "=") {
		// Validate debug log level.
		if !validLogLevel(debugLevel) {
			return fmt.Errorf("the specified debug level [%v] is invalid",
				debugLevel)
		}

		// Change the logging level for all subsystems.
		setLogLevels(debugLevel)

		return nil
	}

	// Split the specified string into subsystem/level pairs while detecting
	// issues and update the log levels accordingly.
	for _, logLevelPair := range strings.Split(debugLevel, ",") {
		if !strings.Contains(logLevelPair, "=") {
			str := "the specified debug level contains an invalid " +
				"subsystem/level pair [%v]"
			return fmt.Errorf(str, logLevelPair)
		}

		// Extract the specified subsystem and log level.
		fields := strings.Split(logLevelPair, "=")
		subsysID, logLevel := fields[0], fields[1]

		// Validate subsystem.
		if _, exists := subsystemLoggers[subsysID]; !exists {
			str := "the specified subsystem [%v] is invalid -- " +
				"supported subsystems %v"
			return fmt.Errorf(str, subsysID, supportedSubsystems())
		}

		// Validate log level.
		if !validLogLevel(logLevel) {
			return fmt.Errorf("the specified debug level [%v] is invalid",
				logLevel)
		}

		setLogLevel(subsysID, logLevel)
	}

	return nil
}

// normalizeAddresses adds a default port to all addresses which are missing
// one and removes duplicate addresses.
func normalizeAddresses(addrs []string, defaultPort string) []string {
	result := make([]string, 0, len(addrs))
	seen := make(map[string]struct{}, len(addrs))
	for _, addr := range addrs {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			addr = net.JoinHostPort(addr, defaultPort)
		}
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		result = append(result, addr)
	}
	return result
}

// loadConfig initializes and parses the config using a config file and command
// line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
//
// The above results in the daemon functioning properly without any config
// settings while still allowing the user to override settings with config
// files and command line options.  Command line options always take
// precedence.
func loadConfig(appName string) (*config, []string, error) {
	// Default config.
	cfg := config{
		ConfigFile: defaultConfigFile,
		HomeDir:    defaultHomeDir,
		DataDir:    defaultDataDir,
		LogDir:     defaultLogDir,
		DebugLevel: defaultLogLevel,
		MaxPeers:   defaultTargetPeers,
	}

	// Pre-parse the command line options to see if an alternative config file
	// or the version flag was specified.  Any errors aside from the help
	// message error can be ignored here since they will be caught by the final
	// parse below.
	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.HelpFlag)
	_, err := preParser.Parse()
	if err != nil {
		var e *flags.Error
		if errors.As(err, &e) && e.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, err)
			os.Exit(0)
		}
	}

	// Show the version and exit if the version flag was specified.
	if preCfg.ShowVersion {
		fmt.Printf("%s version %s (Go version %s %s/%s)\n", appName,
			version.String(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
		os.Exit(0)
	}

	// Update the home directory if specified.  Since the home directory is
	// updated, other variables need to be updated to reflect the new location.
	defaultConfigPath := defaultConfigFile
	if preCfg.HomeDir != "" && preCfg.HomeDir != defaultHomeDir {
		homeDir := cleanAndExpandPath(preCfg.HomeDir)
		cfg.HomeDir = homeDir
		if preCfg.ConfigFile == defaultConfigFile {
			defaultConfigPath = filepath.Join(homeDir, defaultConfigFilename)
			preCfg.ConfigFile = defaultConfigPath
			cfg.ConfigFile = defaultConfigPath
		}
		if preCfg.DataDir == defaultDataDir {
			cfg.DataDir = homeDir
			preCfg.DataDir = cfg.DataDir
		}
		if preCfg.LogDir == defaultLogDir {
			cfg.LogDir = filepath.Join(homeDir, defaultLogDirname)
			preCfg.LogDir = cfg.LogDir
		}
	}

	// Create a default config file when one does not exist and the user did
	// not specify an override.
	cfg.ConfigFile = cleanAndExpandPath(preCfg.ConfigFile)
	if preCfg.ConfigFile == defaultConfigPath {
		if _, err := os.Stat(cfg.ConfigFile); os.IsNotExist(err) {
			err := createDefaultConfigFile(cfg.ConfigFile)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error creating a default "+
					"config file: %v\n", err)
			}
		}
	}

	// Load additional config from file.
	parser := flags.NewParser(&cfg, flags.Default)
	var configFileError error
	err = flags.NewIniParser(parser).ParseFile(cfg.ConfigFile)
	if err != nil {
		var e *os.PathError
		if !errors.As(err, &e) {
			fmt.Fprintln(os.Stderr, err)
			parser.WriteHelp(os.Stderr)
			return nil, nil, err
		}
		configFileError = err
	}

	// Parse command line options again to ensure they take precedence.
	remainingArgs, err := parser.Parse()
	if err != nil {
		var e *flags.Error
		if !errors.As(err, &e) || e.Type != flags.ErrHelp {
			parser.WriteHelp(os.Stderr)
		}
		return nil, nil, err
	}

	// Choose the active network params based on the selected network.
	cfg.params = &chaincfg.MainNetParams
	if cfg.TestNet {
		cfg.params = &chaincfg.TestNetParams
	}

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", supportedSubsystems())
		os.Exit(0)
	}

	// Expand environment variables and leading ~ for filepaths and append the
	// network name so the data and logs are "namespaced" per network.
	cfg.DataDir = cleanAndExpandPath(cfg.DataDir)
	cfg.DataDir = filepath.Join(cfg.DataDir, "data", cfg.params.Name)
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)
	cfg.LogDir = filepath.Join(cfg.LogDir, cfg.params.Name)

	// Create the home directory and data directory if they don't already
	// exist.
	funcName := "loadConfig"
	err = os.MkdirAll(cfg.DataDir, 0700)
	if err != nil {
		str := "%s: failed to create data directory: %v"
		err := fmt.Errorf(str, funcName, err)
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, err
	}

	// Initialize log rotation.  After log rotation has been initialized, the
	// logger variables may be used.
	if !cfg.NoFileLogging {
		initLogRotator(filepath.Join(cfg.LogDir, defaultLogFilename))
	}

	// Parse, validate, and set debug log level(s).
	if err := parseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		err := fmt.Errorf("%s: %v", funcName, err)
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, nil, err
	}

	// Warn about missing config file only after all other configuration is
	// done.  This prevents the warning on help messages and invalid options.
	if configFileError != nil {
		axedLog.Warnf("%v", configFileError)
	}

	// Validate the target peer count against the protocol bounds.
	if cfg.MaxPeers < netmgr.MinPeersLimit || cfg.MaxPeers > netmgr.MaxPeersLimit {
		str := "%s: the maxpeers option must be between %d and %d -- parsed [%d]"
		err := fmt.Errorf(str, funcName, netmgr.MinPeersLimit,
			netmgr.MaxPeersLimit, cfg.MaxPeers)
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, nil, err
	}

	// Add the default network port to any static peer addresses which are
	// missing one.
	cfg.Connect = normalizeAddresses(cfg.Connect, cfg.params.DefaultPort)

	// Setup dial function depending on the specified options.  The default is
	// to use the standard net.Dialer.  When a proxy is specified, the dial
	// function is set to the proxy specific dial function.
	var dialer net.Dialer
	cfg.dial = dialer.DialContext
	if cfg.Proxy != "" {
		_, _, err := net.SplitHostPort(cfg.Proxy)
		if err != nil {
			str := "%s: proxy address '%s' is invalid: %v"
			err := fmt.Errorf(str, funcName, cfg.Proxy, err)
			fmt.Fprintln(os.Stderr, err)
			parser.WriteHelp(os.Stderr)
			return nil, nil, err
		}

		proxy := &socks.Proxy{
			Addr:     cfg.Proxy,
			Username: cfg.ProxyUser,
			Password: cfg.ProxyPass,
		}
		cfg.dial = proxy.DialContext
	}

	return &cfg, remainingArgs, nil
}
