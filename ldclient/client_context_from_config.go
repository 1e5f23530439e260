package ldclient

import (
	"errors"

	"github.com/launchdarkly/go-server-sdk-sub010/interfaces"
	"github.com/launchdarkly/go-server-sdk-sub010/internal"
	"github.com/launchdarkly/go-server-sdk-sub010/ldcomponents"
	"github.com/launchdarkly/go-server-sdk-sub010/ldevents"
)

func newClientContextFromConfig(
	sdkKey string,
	config Config,
	diagnosticsManager *ldevents.DiagnosticsManager,
) (interfaces.ClientContext, error) {
	if !stringIsValidHTTPHeaderValue(sdkKey) {
		// The SDK key is sent in an Authorization header on every request, so a key with control
		// characters would produce baffling transport errors; fail fast instead.
		return nil, errors.New("SDK key contains invalid characters")
	}

	basicConfig := interfaces.BasicConfiguration{SDKKey: sdkKey, Offline: config.Offline}

	httpFactory := config.HTTP
	if httpFactory == nil {
		httpFactory = ldcomponents.HTTPConfiguration()
	}
	http, err := httpFactory.CreateHTTPConfiguration(basicConfig)
	if err != nil {
		return nil, err
	}

	loggingFactory := config.Logging
	if loggingFactory == nil {
		loggingFactory = ldcomponents.Logging()
	}
	logging, err := loggingFactory.CreateLoggingConfiguration(basicConfig)
	if err != nil {
		return nil, err
	}

	return internal.NewClientContextImpl(sdkKey, http, logging, config.Offline, diagnosticsManager), nil
}

func stringIsValidHTTPHeaderValue(s string) bool {
	for _, ch := range s {
		if ch < 32 || ch > 127 {
			return false
		}
	}
	return true
}
