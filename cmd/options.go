package cmd

import (
	"fmt"
	u "net/url"
	"time"

	"github.com/spf13/pflag"
	"github.com/tanq16/futload/internal/utils"
)

type options struct {
	dest          string
	threads       int
	verbose       bool
	status        bool
	chunkSize     int
	barSize       int
	forceSingle   bool
	userAgent     string
	threshold     int64
	headers       []string
	proxyURL      string
	proxyUsername string
	proxyPassword string
	timeout       time.Duration
	kaTimeout     time.Duration
	workers       int
	debug         bool
}

func (o *options) bind(flags *pflag.FlagSet) {
	flags.StringVarP(&o.dest, "dest", "d", ".", "Directory to save the file(s) in")
	flags.IntVarP(&o.threads, "threads", "t", 0, "Segments to fetch in parallel when the server accepts ranges (0 downloads as one stream)")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "Verbose mode (also prints the source URL)")
	flags.BoolVarP(&o.status, "status", "s", false, "Show download status and progress")
	flags.IntVarP(&o.chunkSize, "chunk-size", "c", utils.DefaultChunkSize, "Bytes read per chunk")
	flags.IntVarP(&o.barSize, "bar-size", "b", utils.DefaultBarSize, "Progress bar width excluding brackets (-1 fits the terminal)")
	flags.BoolVarP(&o.forceSingle, "force-single", "f", false, "Download as one stream even when ranges are supported")
	flags.StringVar(&o.userAgent, "user-agent", utils.DefaultUserAgent, "User agent ('randomize' picks one)")
	flags.Int64Var(&o.threshold, "threshold", utils.DefaultThreshold, "Minimum size in bytes before a download is segmented")
	flags.StringArrayVarP(&o.headers, "header", "H", []string{}, "Custom headers (like 'Authorization: Basic dXNlcjpwYXNz'); can be specified multiple times")
	flags.StringVarP(&o.proxyURL, "proxy", "p", "", "HTTP/HTTPS proxy URL (e.g., proxy.example.com:8080)")
	flags.StringVar(&o.proxyUsername, "proxy-username", "", "Proxy username (if not provided in proxy URL)")
	flags.StringVar(&o.proxyPassword, "proxy-password", "", "Proxy password (if not provided in proxy URL)")
	flags.DurationVar(&o.timeout, "timeout", 0, "Overall request timeout, 0 disables (eg. 5s, 10m)")
	flags.DurationVar(&o.kaTimeout, "keep-alive-timeout", 90*time.Second, "Keep-alive timeout for client (eg. 10s, 1m, 80s)")
	flags.IntVarP(&o.workers, "workers", "w", 1, "Number of URLs to download in parallel")
	flags.BoolVar(&o.debug, "debug", false, "Enable debug logging")
}

// validate rejects values the downloader cannot work with. It runs before any
// network activity.
func (o *options) validate() error {
	if o.threads < 0 {
		return &utils.ConfigError{Field: "threads", Msg: "must be 0 or more"}
	}
	if o.chunkSize < 1 {
		return &utils.ConfigError{Field: "chunk-size", Msg: "minimum chunk size is 1"}
	}
	if o.barSize < 1 && o.barSize != utils.FitBarSize {
		return &utils.ConfigError{Field: "bar-size", Msg: "minimum bar size is 1 (or -1 to fit the terminal)"}
	}
	if o.threshold < 0 {
		return &utils.ConfigError{Field: "threshold", Msg: "must be 0 or more"}
	}
	if o.workers < 1 {
		return &utils.ConfigError{Field: "workers", Msg: "minimum is 1"}
	}
	if o.proxyURL != "" {
		if _, err := u.Parse(o.proxyURL); err != nil {
			return &utils.ConfigError{Field: "proxy", Msg: err.Error()}
		}
	}
	return nil
}

func (o *options) httpConfig() utils.HTTPClientConfig {
	proxyURL, proxyUsername, proxyPassword := o.proxyURL, o.proxyUsername, o.proxyPassword
	// credentials embedded in the proxy URL are passed separately
	parsedProxy, err := u.Parse(proxyURL)
	if err == nil && parsedProxy.User != nil && proxyUsername == "" {
		proxyUsername = parsedProxy.User.Username()
		if password, set := parsedProxy.User.Password(); set {
			proxyPassword = password
		}
		parsedProxy.User = nil
		proxyURL = parsedProxy.String()
	}
	userAgent := o.userAgent
	if userAgent == "randomize" {
		userAgent = utils.GetRandomUserAgent()
	}
	return utils.HTTPClientConfig{
		Timeout:       o.timeout,
		KATimeout:     o.kaTimeout,
		ProxyURL:      proxyURL,
		ProxyUsername: proxyUsername,
		ProxyPassword: proxyPassword,
		UserAgent:     userAgent,
		Headers:       utils.ParseHeaderArgs(o.headers),
	}
}

func (o *options) job(url string) utils.FutJob {
	return utils.FutJob{
		ID:               utils.NewJobID(),
		URL:              url,
		Destination:      o.dest,
		Threads:          o.threads,
		ChunkSize:        o.chunkSize,
		Threshold:        o.threshold,
		BarSize:          o.barSize,
		ForceSingle:      o.forceSingle,
		Verbose:          o.verbose,
		Status:           o.status,
		HTTPClientConfig: o.httpConfig(),
	}
}

// applyEnvDefaults sets flags the user did not pass from FUTLOAD_* variables,
// read from the environment or envFile.
func applyEnvDefaults(flags *pflag.FlagSet, envFile string) error {
	defaults, err := utils.LoadEnvDefaults(envFile)
	if err != nil {
		return err
	}
	for name, value := range defaults {
		flag := flags.Lookup(name)
		if flag == nil || flag.Changed {
			continue
		}
		if err := flags.Set(name, value); err != nil {
			return &utils.ConfigError{Field: name, Msg: fmt.Sprintf("bad environment value %q", value)}
		}
	}
	return nil
}
