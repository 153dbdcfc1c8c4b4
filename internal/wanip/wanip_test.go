package wanip

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fritzbox-tools/fritzbox-wanctl/internal/tr064"
)

func soapResponse(action string, args map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<?xml version="1.0"?><s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body>`)
	fmt.Fprintf(&b, `<u:%sResponse xmlns:u="%s">`, action, WANIPConnection1.URN)
	for k, v := range args {
		fmt.Fprintf(&b, "<%s>%s</%s>", k, v, k)
	}
	fmt.Fprintf(&b, `</u:%sResponse></s:Body></s:Envelope>`, action)
	return b.String()
}

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	tc := tr064.NewClient(tr064.ClientConfig{Endpoint: server.URL})
	return NewClient(tc, WANIPConnection1), server
}

func TestExternalIPAddress(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		assert := require.New(t)

		c, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(soapResponse("GetExternalIPAddress", map[string]string{
				"NewExternalIPAddress": "198.51.100.4",
			})))
		})
		defer server.Close()

		ip, err := c.ExternalIPAddress(context.Background())
		assert.NoError(err)
		assert.Equal("198.51.100.4", ip)
	})

	t.Run("MissingElement", func(t *testing.T) {
		assert := require.New(t)

		c, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(soapResponse("GetExternalIPAddress", nil)))
		})
		defer server.Close()

		_, err := c.ExternalIPAddress(context.Background())
		assert.Error(err)
		assert.Equal(tr064.KindMalformedResponse, tr064.KindOf(err))
	})

	t.Run("HTTPError", func(t *testing.T) {
		assert := require.New(t)

		c, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		defer server.Close()

		_, err := c.ExternalIPAddress(context.Background())
		assert.Error(err)
		assert.Equal(tr064.KindHTTPStatus, tr064.KindOf(err))
	})
}

func TestStatusInfo(t *testing.T) {
	t.Run("Full", func(t *testing.T) {
		assert := require.New(t)

		c, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(soapResponse("GetStatusInfo", map[string]string{
				"NewConnectionStatus":    "Connected",
				"NewLastConnectionError": "ERROR_NONE",
				"NewUptime":              "7200",
			})))
		})
		defer server.Close()

		si, err := c.StatusInfo(context.Background())
		assert.NoError(err)
		assert.Equal(StatusConnected, si.ConnectionStatus)
		assert.Equal("ERROR_NONE", si.LastConnectionError)
		assert.Equal(2*time.Hour, si.Uptime)
	})

	t.Run("StatusOnly", func(t *testing.T) {
		assert := require.New(t)

		c, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(soapResponse("GetStatusInfo", map[string]string{
				"NewConnectionStatus": "PendingDisconnect",
			})))
		})
		defer server.Close()

		si, err := c.StatusInfo(context.Background())
		assert.NoError(err)
		assert.Equal(StatusPendingDisconnect, si.ConnectionStatus)
		assert.Equal(time.Duration(0), si.Uptime)
	})

	t.Run("VendorSpecificStatus", func(t *testing.T) {
		assert := require.New(t)

		c, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(soapResponse("GetStatusInfo", map[string]string{
				"NewConnectionStatus": "Authenticating",
			})))
		})
		defer server.Close()

		si, err := c.StatusInfo(context.Background())
		assert.NoError(err)
		assert.False(si.ConnectionStatus.Known())
		assert.Equal("Authenticating", si.ConnectionStatus.String())
	})
}

func TestForceTermination(t *testing.T) {
	assert := require.New(t)

	var requests int64
	c, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
		assert.Equal(WANIPConnection1.URN+"#ForceTermination", r.Header.Get("SoapAction"))
		w.Write([]byte(soapResponse("ForceTermination", nil)))
	})
	defer server.Close()

	err := c.ForceTermination(context.Background())
	assert.NoError(err)

	// one request, no verification polling
	assert.Equal(int64(1), atomic.LoadInt64(&requests))
}

func TestReconnect(t *testing.T) {
	conf := ReconnectConfig{
		SettleDelay:  time.Millisecond,
		PollInterval: time.Millisecond,
		MaxWait:      time.Second,
	}

	t.Run("ConnectedAfterPolls", func(t *testing.T) {
		assert := require.New(t)

		statuses := []string{"Disconnecting", "Disconnected", "Connecting", "Connected"}
		var polls int64

		c, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.Header.Get("SoapAction"), "#ForceTermination") {
				w.Write([]byte(soapResponse("ForceTermination", nil)))
				return
			}

			i := atomic.AddInt64(&polls, 1) - 1
			if i >= int64(len(statuses)) {
				i = int64(len(statuses)) - 1
			}
			w.Write([]byte(soapResponse("GetStatusInfo", map[string]string{
				"NewConnectionStatus": statuses[i],
			})))
		})
		defer server.Close()

		err := c.Reconnect(context.Background(), conf)
		assert.NoError(err)
		assert.Equal(int64(len(statuses)), atomic.LoadInt64(&polls))
	})

	t.Run("Timeout", func(t *testing.T) {
		assert := require.New(t)

		c, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.Header.Get("SoapAction"), "#ForceTermination") {
				w.Write([]byte(soapResponse("ForceTermination", nil)))
				return
			}
			w.Write([]byte(soapResponse("GetStatusInfo", map[string]string{
				"NewConnectionStatus": "Disconnected",
			})))
		})
		defer server.Close()

		err := c.Reconnect(context.Background(), ReconnectConfig{
			SettleDelay:  time.Millisecond,
			PollInterval: time.Millisecond,
			MaxWait:      20 * time.Millisecond,
		})
		assert.ErrorIs(err, ErrReconnectTimeout)
	})

	t.Run("TerminationRejected", func(t *testing.T) {
		assert := require.New(t)

		var polls int64
		c, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.Header.Get("SoapAction"), "#ForceTermination") {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			atomic.AddInt64(&polls, 1)
		})
		defer server.Close()

		err := c.Reconnect(context.Background(), conf)
		assert.Error(err)
		assert.Equal(tr064.KindHTTPStatus, tr064.KindOf(err))

		// a rejected termination must not start the polling phase
		assert.Equal(int64(0), atomic.LoadInt64(&polls))
	})

	t.Run("ContextCancelled", func(t *testing.T) {
		assert := require.New(t)

		c, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.Header.Get("SoapAction"), "#ForceTermination") {
				w.Write([]byte(soapResponse("ForceTermination", nil)))
				return
			}
			w.Write([]byte(soapResponse("GetStatusInfo", map[string]string{
				"NewConnectionStatus": "Connecting",
			})))
		})
		defer server.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		err := c.Reconnect(ctx, ReconnectConfig{
			SettleDelay:  time.Millisecond,
			PollInterval: time.Millisecond,
			MaxWait:      time.Minute,
		})
		assert.ErrorIs(err, context.DeadlineExceeded)
	})
}
