// Package tr064 implements a minimal SOAP 1.1 client for TR-064 / UPnP
// control points. It performs a single request / response exchange per
// action and classifies failures into a closed set of error kinds.
package tr064

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DefaultEndpoint is the SOAP control point of an AVM FRITZ!Box on its
// default IGD port.
const DefaultEndpoint = "http://fritz.box:49000"

// DefaultTimeout bounds a single SOAP exchange.
const DefaultTimeout = 5 * time.Second

// Service identifies a SOAP service below the control point.
type Service struct {
	URN        string
	ControlURL string
}

// ClientConfig holds the Client configuration.
type ClientConfig struct {
	// Endpoint is the base URL of the control point, without trailing
	// slash (e.g. http://fritz.box:49000).
	Endpoint string

	// Timeout for a single SOAP exchange. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Client performs SOAP actions against a fixed control point. The
// endpoint is immutable after construction and the client keeps no state
// between calls; it is safe for concurrent use.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a Client.
func NewClient(conf ClientConfig) *Client {
	if conf.Endpoint == "" {
		conf.Endpoint = DefaultEndpoint
	}
	if conf.Timeout == 0 {
		conf.Timeout = DefaultTimeout
	}

	return &Client{
		endpoint: strings.TrimSuffix(conf.Endpoint, "/"),
		httpClient: &http.Client{
			Timeout: conf.Timeout,
		},
	}
}

// Endpoint returns the configured control point base URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Call performs the given SOAP action and returns the parsed response.
// It sends exactly one HTTP POST, does not retry and returns a *Error
// for every transport, status or parse failure.
func (c *Client) Call(ctx context.Context, svc Service, action string) (*Response, error) {
	body := soapEnvelope(svc.URN, action)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+svc.ControlURL, strings.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "tr064: new request error")
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SoapAction", fmt.Sprintf("%s#%s", svc.URN, action))

	log.WithFields(log.Fields{
		"action": action,
		"url":    c.endpoint + svc.ControlURL,
	}).Debug("tr064: performing soap action")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNoResponse, Action: action, Err: err}
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNoResponse, Action: action, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Kind: KindHTTPStatus, Action: action, StatusCode: resp.StatusCode}
	}

	r, err := parseResponse(b)
	if err != nil {
		return nil, &Error{Kind: KindMalformedResponse, Action: action, Err: err}
	}

	return r, nil
}
