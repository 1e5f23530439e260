package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gregjones/httpcache"

	"github.com/launchdarkly/go-server-sdk-sub010/interfaces"
	"github.com/launchdarkly/go-server-sdk-sub010/ldlog"
	"github.com/launchdarkly/go-server-sdk-sub010/ldmodel"
)

// SDK polling endpoints.
const (
	LatestFlagsPath    = "/sdk/latest-flags"
	LatestSegmentsPath = "/sdk/latest-segments"
	LatestAllPath      = "/sdk/latest-all"
)

type allData struct {
	Flags    map[string]*ldmodel.FeatureFlag `json:"flags"`
	Segments map[string]*ldmodel.Segment     `json:"segments"`
}

// requestor is the interface implemented by requestorImpl, abstracted out so tests can substitute
// a fake one.
type requestor interface {
	requestAll() (data allData, cached bool, err error)
	requestResource(kind interfaces.StoreDataKind, key string) (interfaces.StoreItemDescriptor, error)
}

// requestorImpl fetches flag/segment data from the LaunchDarkly polling endpoints, with an
// in-memory HTTP cache so that an unchanged poll response (304) does not cause a redundant data
// store write.
type requestorImpl struct {
	httpClient *http.Client
	baseURI    string
	headers    http.Header
	loggers    ldlog.Loggers
}

type malformedJSONError struct {
	innerError error
}

func (e malformedJSONError) Error() string {
	return e.innerError.Error()
}

func newRequestorImpl(
	context interfaces.ClientContext,
	httpClient *http.Client,
	baseURI string,
	withCache bool,
) requestor {
	httpClientToUse := httpClient
	if httpClientToUse == nil {
		httpClientToUse = context.GetHTTP().CreateHTTPClient()
	}
	if withCache {
		modifiedClient := *httpClientToUse
		modifiedClient.Transport = &httpcache.Transport{
			Cache:               httpcache.NewMemoryCache(),
			MarkCachedResponses: true,
			Transport:           httpClientToUse.Transport,
		}
		httpClientToUse = &modifiedClient
	}

	return &requestorImpl{
		httpClient: httpClientToUse,
		baseURI:    baseURI,
		headers:    context.GetHTTP().GetDefaultHeaders(),
		loggers:    context.GetLogging().Loggers,
	}
}

func (r *requestorImpl) requestAll() (allData, bool, error) {
	if r.loggers.IsDebugEnabled() {
		r.loggers.Debug("Polling LaunchDarkly for feature flag updates")
	}

	var data allData
	body, cached, err := r.makeRequest(LatestAllPath)
	if err != nil {
		return allData{}, false, err
	}
	if cached {
		return allData{}, true, nil
	}
	if jsonErr := json.Unmarshal(body, &data); jsonErr != nil {
		return allData{}, false, malformedJSONError{jsonErr}
	}
	return data, cached, nil
}

func (r *requestorImpl) requestResource(
	kind interfaces.StoreDataKind,
	key string,
) (interfaces.StoreItemDescriptor, error) {
	var resource string
	switch kind.GetName() {
	case "segments":
		resource = LatestSegmentsPath + "/" + key
	case "features":
		resource = LatestFlagsPath + "/" + key
	default:
		return interfaces.StoreItemDescriptor{}, fmt.Errorf("unexpected item type: %s", kind.GetName())
	}
	body, _, err := r.makeRequest(resource)
	if err != nil {
		return interfaces.StoreItemDescriptor{}, err
	}
	item, err := kind.Deserialize(body)
	if err != nil {
		return item, malformedJSONError{err}
	}
	return item, nil
}

func (r *requestorImpl) makeRequest(resource string) ([]byte, bool, error) {
	req, reqErr := http.NewRequest("GET", r.baseURI+resource, nil)
	if reqErr != nil {
		return nil, false, reqErr
	}
	url := req.URL.String()

	for k, vv := range r.headers {
		req.Header[k] = vv
	}

	res, resErr := r.httpClient.Do(req)
	if resErr != nil {
		return nil, false, resErr
	}
	defer func() {
		_, _ = io.ReadAll(res.Body)
		_ = res.Body.Close()
	}()

	if err := checkForHTTPError(res.StatusCode, url); err != nil {
		return nil, false, err
	}

	cached := res.Header.Get(httpcache.XFromCache) != ""

	body, ioErr := io.ReadAll(res.Body)
	if ioErr != nil {
		return nil, false, ioErr
	}
	return body, cached, nil
}

// makeAllStoreData converts a polling response into the collections DataSourceUpdates.Init wants.
func makeAllStoreData(
	flags map[string]*ldmodel.FeatureFlag,
	segments map[string]*ldmodel.Segment,
) []interfaces.StoreCollection {
	flagsColl := make([]interfaces.StoreKeyedItemDescriptor, 0, len(flags))
	for key, flag := range flags {
		flagsColl = append(flagsColl, interfaces.StoreKeyedItemDescriptor{
			Key:  key,
			Item: interfaces.StoreItemDescriptor{Version: flag.Version, Item: flag},
		})
	}
	segmentsColl := make([]interfaces.StoreKeyedItemDescriptor, 0, len(segments))
	for key, segment := range segments {
		segmentsColl = append(segmentsColl, interfaces.StoreKeyedItemDescriptor{
			Key:  key,
			Item: interfaces.StoreItemDescriptor{Version: segment.Version, Item: segment},
		})
	}
	return []interfaces.StoreCollection{
		{Kind: interfaces.DataKindFeatures(), Items: flagsColl},
		{Kind: interfaces.DataKindSegments(), Items: segmentsColl},
	}
}
