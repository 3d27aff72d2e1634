package shelly

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// deviceAddr strips the scheme so the test server can stand in for a
// Shelly on the local network.
func deviceAddr(ts *httptest.Server) string {
	return strings.TrimPrefix(ts.URL, "http://")
}

func TestClient_RelayStatus(t *testing.T) {
	t.Parallel()
	var gotPath, gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"id":0,"output":true,"apower":48.2,"voltage":231.1}`))
	}))
	defer ts.Close()

	c := NewClient(time.Second)
	st, err := c.RelayStatus(context.Background(), deviceAddr(ts), 0)
	require.NoError(t, err)

	assert.Equal(t, "/rpc/Switch.GetStatus", gotPath)
	assert.Equal(t, "id=0", gotQuery)
	assert.True(t, st.On)
	assert.InDelta(t, 48.2, st.PowerWatts, 0.001)
}

func TestClient_SetRelay(t *testing.T) {
	t.Parallel()
	var gotPath string
	var gotQuery map[string][]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{"was_on":false}`))
	}))
	defer ts.Close()

	c := NewClient(time.Second)
	require.NoError(t, c.SetRelay(context.Background(), deviceAddr(ts), 1, true))

	assert.Equal(t, "/rpc/Switch.Set", gotPath)
	assert.Equal(t, []string{"1"}, gotQuery["id"])
	assert.Equal(t, []string{"true"}, gotQuery["on"])
}

func TestClient_SensorValue(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rpc/BTHomeSensor.GetStatus", r.URL.Path)
		assert.Equal(t, "200", r.URL.Query().Get("id"))
		_, _ = w.Write([]byte(`{"id":200,"value":19.4,"last_updated_ts":1736161200}`))
	}))
	defer ts.Close()

	c := NewClient(time.Second)
	reading, err := c.SensorValue(context.Background(), deviceAddr(ts), 200)
	require.NoError(t, err)

	assert.InDelta(t, 19.4, reading.ValueC, 0.001)
	assert.Equal(t, time.Unix(1736161200, 0).UTC(), reading.At)
}

func TestClient_SensorValue_NullValue(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// A sensor the device knows about but has never heard from.
		_, _ = w.Write([]byte(`{"id":200,"value":null,"last_updated_ts":0}`))
	}))
	defer ts.Close()

	c := NewClient(time.Second)
	_, err := c.SensorValue(context.Background(), deviceAddr(ts), 200)
	assert.ErrorIs(t, err, ErrSensorNotFound)
}

func TestClient_SensorValue_UnknownComponent(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()

	c := NewClient(time.Second)
	_, err := c.SensorValue(context.Background(), deviceAddr(ts), 999)
	assert.ErrorIs(t, err, ErrSensorNotFound)
}

func TestClient_RelayStatus_HTTPErrorIsUnreachable(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := NewClient(time.Second)
	_, err := c.RelayStatus(context.Background(), deviceAddr(ts), 0)
	assert.ErrorIs(t, err, ErrDeviceUnreachable)
}

func TestClient_MalformedJSONIsUnreachable(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer ts.Close()

	c := NewClient(time.Second)
	_, err := c.RelayStatus(context.Background(), deviceAddr(ts), 0)
	assert.ErrorIs(t, err, ErrDeviceUnreachable)
}

func TestClient_SlowDeviceIsTimeout(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer ts.Close()
	defer close(release)

	c := NewClient(50 * time.Millisecond)
	_, err := c.RelayStatus(context.Background(), deviceAddr(ts), 0)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestClient_ConnectionRefusedIsUnreachable(t *testing.T) {
	t.Parallel()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := deviceAddr(ts)
	ts.Close() // nobody listening anymore

	c := NewClient(time.Second)
	err := c.SetRelay(context.Background(), addr, 0, true)
	assert.ErrorIs(t, err, ErrDeviceUnreachable)
}
