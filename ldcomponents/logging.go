package ldcomponents

import (
	"time"

	"github.com/launchdarkly/go-server-sdk-sub010/interfaces"
	"github.com/launchdarkly/go-server-sdk-sub010/ldlog"
)

// DefaultLogDataSourceOutageAsErrorAfter is the default value for
// LoggingConfigurationBuilder.LogDataSourceOutageAsErrorAfter.
const DefaultLogDataSourceOutageAsErrorAfter = time.Minute

// LoggingConfigurationBuilder configures the SDK's logging behavior.
//
//	config := ld.Config{
//	    Logging: ldcomponents.Logging().MinLevel(ldlog.Warn),
//	}
type LoggingConfigurationBuilder struct {
	loggers                         ldlog.Loggers
	logDataSourceOutageAsErrorAfter time.Duration
	logEvaluationErrors             bool
	logContextKeyInErrors           bool
}

// Logging returns a configuration builder with default logging settings enabled.
func Logging() *LoggingConfigurationBuilder {
	return &LoggingConfigurationBuilder{
		loggers:                         ldlog.NewDefaultLoggers(),
		logDataSourceOutageAsErrorAfter: DefaultLogDataSourceOutageAsErrorAfter,
	}
}

// Loggers specifies a preconfigured ldlog.Loggers instance to use.
func (b *LoggingConfigurationBuilder) Loggers(loggers ldlog.Loggers) *LoggingConfigurationBuilder {
	b.loggers = loggers
	return b
}

// MinLevel sets the minimum level for log output; messages below this level are suppressed.
func (b *LoggingConfigurationBuilder) MinLevel(level ldlog.LogLevel) *LoggingConfigurationBuilder {
	b.loggers.SetMinLevel(level)
	return b
}

// LogDataSourceOutageAsErrorAfter sets how long a data source outage must persist before the SDK
// escalates its log level from Warn to Error. Zero disables the escalation.
func (b *LoggingConfigurationBuilder) LogDataSourceOutageAsErrorAfter(
	after time.Duration,
) *LoggingConfigurationBuilder {
	b.logDataSourceOutageAsErrorAfter = after
	return b
}

// LogEvaluationErrors sets whether a warning is logged whenever a flag cannot be evaluated.
func (b *LoggingConfigurationBuilder) LogEvaluationErrors(log bool) *LoggingConfigurationBuilder {
	b.logEvaluationErrors = log
	return b
}

// LogContextKeyInErrors sets whether error log messages may include the evaluation context's key.
// By default they do not, since the key may be considered privileged information.
func (b *LoggingConfigurationBuilder) LogContextKeyInErrors(log bool) *LoggingConfigurationBuilder {
	b.logContextKeyInErrors = log
	return b
}

// CreateLoggingConfiguration is called internally by the SDK.
func (b *LoggingConfigurationBuilder) CreateLoggingConfiguration(
	basic interfaces.BasicConfiguration,
) (interfaces.LoggingConfiguration, error) {
	return interfaces.LoggingConfiguration{
		Loggers:                         b.loggers,
		LogEvaluationErrors:             b.logEvaluationErrors,
		LogContextKeyInErrors:           b.logContextKeyInErrors,
		LogDataSourceOutageAsErrorAfter: b.logDataSourceOutageAsErrorAfter,
	}, nil
}

// NoLogging returns a configuration factory that disables all SDK logging.
func NoLogging() interfaces.LoggingConfigurationFactory {
	return noLoggingConfigurationFactory{}
}

type noLoggingConfigurationFactory struct{}

func (f noLoggingConfigurationFactory) CreateLoggingConfiguration(
	basic interfaces.BasicConfiguration,
) (interfaces.LoggingConfiguration, error) {
	return interfaces.LoggingConfiguration{Loggers: ldlog.NewDisabledLoggers()}, nil
}
