package config

import "flag"

func newFlagSet(fv *flagValues) *flag.FlagSet {
	fs := flag.NewFlagSet("chartstash", flag.ContinueOnError)

	fs.StringVar(&fv.env, "env", "", "Environment (development, staging, production)")
	fs.StringVar(&fv.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&fv.logFormat, "log-format", "", "Log format (json, pretty)")
	fs.StringVar(&fv.dataPath, "data-path", "", "Base path for server-managed storage")
	fs.StringVar(&fv.chartsPath, "library-path", "", "Path to the chart library")
	fs.StringVar(&fv.watch, "watch", "", "Watch the library for changes (default: true)")
	fs.StringVar(&fv.scanWorkers, "scan-workers", "", "Concurrent hash workers during scans (0 = NumCPU)")
	fs.StringVar(&fv.serverName, "server-name", "", "Name for the server")
	fs.StringVar(&fv.port, "port", "", "Server port (default: 8080)")
	fs.StringVar(&fv.readTimeout, "read-timeout", "", "HTTP read timeout (default: 15s)")
	fs.StringVar(&fv.writeTimeout, "write-timeout", "", "HTTP write timeout (default: 15s)")
	fs.StringVar(&fv.idleTimeout, "idle-timeout", "", "HTTP idle timeout (default: 60s)")
	fs.StringVar(&fv.advertiseMDNS, "advertise-mdns", "", "Advertise via mDNS/Zeroconf (default: true)")
	fs.StringVar(&fv.chartHubURL, "charthub-url", "", "ChartHub API base URL (empty disables online lookups)")
	fs.StringVar(&fv.chartHubRPS, "charthub-rps", "", "ChartHub requests per second (default: 2)")
	fs.StringVar(&fv.chartHubBurst, "charthub-burst", "", "ChartHub request burst (default: 4)")
	fs.StringVar(&fv.envFile, "env-file", ".env", "Path to .env file")

	return fs
}
