package internal

import (
	"github.com/launchdarkly/go-server-sdk-sub010/interfaces"
	"github.com/launchdarkly/go-server-sdk-sub010/ldevents"
)

// clientContextImpl is the SDK's standard implementation of interfaces.ClientContext.
type clientContextImpl struct {
	basic   interfaces.BasicConfiguration
	http    interfaces.HTTPConfiguration
	logging interfaces.LoggingConfiguration
	// diagnosticsManager is shared between the event processor and any data source that reports
	// stream-init timing, so it is threaded through the context rather than constructed twice.
	diagnosticsManager *ldevents.DiagnosticsManager
}

// HasDiagnosticsManager is implemented only by the SDK's own ClientContext implementation, so that
// component factories which need it (the streaming data source) can retrieve it with a type
// assertion without it being part of the public interface.
type HasDiagnosticsManager interface {
	GetDiagnosticsManager() *ldevents.DiagnosticsManager
}

// NewClientContextImpl creates the SDK's standard implementation of interfaces.ClientContext.
func NewClientContextImpl(
	sdkKey string,
	http interfaces.HTTPConfiguration,
	logging interfaces.LoggingConfiguration,
	offline bool,
	diagnosticsManager *ldevents.DiagnosticsManager,
) interfaces.ClientContext {
	return &clientContextImpl{
		basic:              interfaces.BasicConfiguration{SDKKey: sdkKey, Offline: offline},
		http:               http,
		logging:            logging,
		diagnosticsManager: diagnosticsManager,
	}
}

func (c *clientContextImpl) GetBasic() interfaces.BasicConfiguration { return c.basic }

func (c *clientContextImpl) GetHTTP() interfaces.HTTPConfiguration { return c.http }

func (c *clientContextImpl) GetLogging() interfaces.LoggingConfiguration { return c.logging }

func (c *clientContextImpl) GetDiagnosticsManager() *ldevents.DiagnosticsManager {
	return c.diagnosticsManager
}
