// Package shelly talks to Shelly Gen2+ devices over their local
// RPC-over-HTTP interface: plain GET requests against
// http://<addr>/rpc/<Component>.<Method>?id=<n>.
package shelly

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"radiator_heating"
)

// Failure classes callers branch on with errors.Is.
var (
	ErrDeviceUnreachable = errors.New("device unreachable")
	ErrTimeout           = errors.New("device call timed out")
	ErrSensorNotFound    = errors.New("sensor not found on device")
)

const defaultCallTimeout = 3 * time.Second

// Client issues independent, per-call-bounded HTTP requests to relay
// and sensor devices. Safe for concurrent use.
type Client struct {
	http    *http.Client
	timeout time.Duration
}

// NewClient builds a transport with the given per-call timeout;
// non-positive values fall back to the default.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// switchStatus is the subset of Switch.GetStatus we consume.
type switchStatus struct {
	ID     int     `json:"id"`
	Output bool    `json:"output"` // true if the output channel is currently on
	Apower float64 `json:"apower"` // instantaneous active power in Watts
}

// bthomeStatus is the subset of BTHomeSensor.GetStatus we consume.
// Value is a pointer: the device reports null when no sample has been
// received from the Bluetooth sensor yet.
type bthomeStatus struct {
	ID            int      `json:"id"`
	Value         *float64 `json:"value"`
	LastUpdatedTs int64    `json:"last_updated_ts"`
}

// RelayStatus reads the current on/off state and power draw of one
// relay channel.
func (c *Client) RelayStatus(ctx context.Context, address string, relay int) (radiator_heating.RelayStatus, error) {
	var st switchStatus
	err := c.call(ctx, address, "Switch.GetStatus", url.Values{"id": {strconv.Itoa(relay)}}, &st)
	if err != nil {
		return radiator_heating.RelayStatus{}, err
	}
	return radiator_heating.RelayStatus{On: st.Output, PowerWatts: st.Apower}, nil
}

// SetRelay switches one relay channel on or off.
func (c *Client) SetRelay(ctx context.Context, address string, relay int, on bool) error {
	params := url.Values{
		"id": {strconv.Itoa(relay)},
		"on": {strconv.FormatBool(on)},
	}
	return c.call(ctx, address, "Switch.Set", params, &struct{}{})
}

// SensorValue reads one temperature sample from a BTHome sensor
// component. ErrSensorNotFound covers both an unknown component id and
// a sensor that has not reported a value yet.
func (c *Client) SensorValue(ctx context.Context, address string, sensor int) (radiator_heating.SensorReading, error) {
	var st bthomeStatus
	err := c.call(ctx, address, "BTHomeSensor.GetStatus", url.Values{"id": {strconv.Itoa(sensor)}}, &st)
	if err != nil {
		return radiator_heating.SensorReading{}, err
	}
	if st.Value == nil {
		return radiator_heating.SensorReading{}, fmt.Errorf("%w: component %d has no value", ErrSensorNotFound, sensor)
	}
	return radiator_heating.SensorReading{
		ValueC: *st.Value,
		At:     time.Unix(st.LastUpdatedTs, 0).UTC(),
	}, nil
}

// call performs one GET against the device RPC endpoint and decodes
// the JSON reply into out.
func (c *Client) call(ctx context.Context, address, method string, params url.Values, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := fmt.Sprintf("http://%s/rpc/%s?%s", address, method, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", method, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyNetErr(address, method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return classifyNetErr(address, method, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusNotFound && method == "BTHomeSensor.GetStatus":
		return fmt.Errorf("%w: %s on %s", ErrSensorNotFound, method, address)
	default:
		return fmt.Errorf("%w: %s on %s returned HTTP %d", ErrDeviceUnreachable, method, address, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s on %s returned malformed JSON: %v", ErrDeviceUnreachable, method, address, err)
	}
	return nil
}

// classifyNetErr maps raw network errors onto the transport's failure
// classes so callers never have to inspect net internals.
func classifyNetErr(address, method string, err error) error {
	var nerr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
		return fmt.Errorf("%w: %s on %s: %v", ErrTimeout, method, address, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %s on %s: %v", ErrDeviceUnreachable, method, address, err)
}
