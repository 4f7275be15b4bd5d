// Copyright (c) 2024-2026 The AXErunners developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
axesyncd is a masternode list sync daemon for the AXE network.

It maintains a pool of peer connections, tracks network sporks, and keeps a
verified copy of the deterministic masternode list and its active LLMQ quorums
current with the chain tip by requesting and verifying incremental list diffs.

The default options are sane for most users.  This means axesyncd will work
'out of the box' for most users.  However, there are also a wide variety of
flags that can be used to control it.

The following section provides a usage overview which enumerates the flags.  An
interesting point to note is that the long form of all of these options
(except -C) can be specified in a configuration file that is automatically
parsed when axesyncd starts up.  By default, the configuration file is located
at ~/.axesync/axesyncd.conf.  The -C (--configfile) flag can be used to
override this location.

Usage:

	axesyncd [OPTIONS]

Application Options:

	-V, --version                Display version information and exit
	-A, --appdata=               Path to application home directory
	-C, --configfile=            Path to configuration file
	-b, --datadir=               Directory to store data
	    --logdir=                Directory to log output
	    --nofilelogging          Disable file logging
	    --profile=               Enable HTTP profiling on given [addr:]port --
	                             NOTE: port must be between 1024 and 65535
	    --testnet                Use the test network
	-d, --debuglevel=            Logging level for all subsystems {trace, debug,
	                             info, warn, error, critical} -- You may also
	                             specify
	                             <subsystem>=<level>,<subsystem2>=<level>,... to
	                             set the log level for individual subsystems --
	                             Use show to list available subsystems (info)
	    --connect=               Connect only to the specified peers at startup
	                             and disable peer discovery
	    --maxpeers=              Target number of peer connections (clamped to
	                             the protocol bounds)
	    --nodiscovery            Disable addr-based discovery of additional
	                             peers beyond the DNS seeds
	    --proxy=                 Connect via SOCKS5 proxy (eg. 127.0.0.1:9050)
	    --proxyuser=             Username for proxy server
	    --proxypass=             Password for proxy server

Help Options:

	-h, --help                   Show this help message
*/
package main
