package soccf

// Coverage collection settings
const (
	EnvCoveragePath          = "SOCCF_COVERAGE_PATH"           // destination of the snapshot file.
	EnvCoverageCompress      = "SOCCF_COVERAGE_COMPRESS"       // gzip the snapshot file. boolean, see strconv.ParseBool for valid values.
	EnvCoverageFlushInterval = "SOCCF_COVERAGE_FLUSH_INTERVAL" // periodic flush interval, disabled when zero.
	EnvSamplePeriod          = "SOCCF_SAMPLE_PERIOD"           // sampling period for the coverage sampler.
)

// Logging settings
const (
	EnvLogsDebug = "SOCCF_LOGS_DEBUG" // enable logging for debug statements. boolean, see strconv.ParseBool for valid values.
)

const (
	DefaultCoveragePath     = "soccf.cov.gz"
	DefaultCoverageCompress = true
)
