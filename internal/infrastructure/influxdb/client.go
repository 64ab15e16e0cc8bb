package influxdb

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/lampdirector/internal/infrastructure/config"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultPingTimeout    = 5 * time.Second

	// requestTimeout bounds a single HTTP write so a stalled server only
	// holds the forwarder for this long per batch.
	requestTimeout uint = 5 // seconds

	// closeTimeout is how long Close waits for queued points to be handed
	// to the write API before giving up on them.
	closeTimeout = 5 * time.Second

	defaultBatchSize     = 100
	defaultFlushInterval = 10 // seconds
	defaultQueueSize     = 1024
)

// Client sends lamp telemetry to InfluxDB v2.
//
// Points are queued in memory and handed to the library's batching write
// API by a single forwarder goroutine. Writers never wait on the network:
// when the queue is full the point is dropped and counted.
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI

	queue   chan *write.Point
	dropped atomic.Uint64
	done    chan struct{}

	// mu guards closed and onError. Senders hold the read lock so Close
	// cannot close the queue underneath them.
	mu      sync.RWMutex
	closed  bool
	onError func(err error)
}

// Connect pings the server and starts the telemetry forwarder.
//
// ctx bounds the initial ping together with defaultConnectTimeout.
// ErrDisabled is returned when cfg.Enabled is false and ErrConnectionFailed
// when the server cannot be reached.
func Connect(ctx context.Context, cfg config.InfluxDBConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	batchSize := positiveOr(cfg.BatchSize, defaultBatchSize)
	flushInterval := positiveOr(cfg.FlushInterval, defaultFlushInterval)
	queueSize := positiveOr(cfg.QueueSize, defaultQueueSize)

	// #nosec G115 -- both values are positive
	client := influxdb2.NewClientWithOptions(
		cfg.URL,
		cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(uint(batchSize)).
			SetFlushInterval(uint(flushInterval)*uint(time.Second/time.Millisecond)).
			SetHTTPRequestTimeout(requestTimeout),
	)

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	healthy, err := client.Ping(pingCtx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping failed: %w", ErrConnectionFailed, err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("%w: server not healthy", ErrConnectionFailed)
	}

	c := &Client{
		client:   client,
		writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket),
		queue:    make(chan *write.Point, queueSize),
		done:     make(chan struct{}),
	}

	go c.forward()
	go c.handleWriteErrors(c.writeAPI.Errors())

	return c, nil
}

func positiveOr(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

// forward hands queued points to the write API until the queue is closed.
// WritePoint may block while the library's batch pipeline is stuck on a
// slow server; only this goroutine waits when it does.
func (c *Client) forward() {
	defer close(c.done)
	for p := range c.queue {
		c.writeAPI.WritePoint(p)
	}
}

func (c *Client) handleWriteErrors(errorsCh <-chan error) {
	for err := range errorsCh {
		c.mu.RLock()
		callback := c.onError
		c.mu.RUnlock()

		if callback != nil {
			callback(err)
		}
	}
}

// enqueue queues a point without blocking.
func (c *Client) enqueue(p *write.Point) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.queue == nil || c.closed {
		return
	}

	select {
	case c.queue <- p:
	default:
		c.dropped.Add(1)
	}
}

// Dropped returns how many points were discarded because the queue was full.
func (c *Client) Dropped() uint64 {
	return c.dropped.Load()
}

// Close stops accepting points, waits up to closeTimeout for the queue to
// drain and then flushes and closes the underlying client.
//
// When the server is still stalled after closeTimeout the underlying client
// is left open and an error is returned; its pending batches are lost.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.queue)
	c.mu.Unlock()

	select {
	case <-c.done:
	case <-time.After(closeTimeout):
		return fmt.Errorf("influxdb: %d queued points not written within %v", len(c.queue), closeTimeout)
	}

	c.client.Close()
	return nil
}

// HealthCheck pings the server. It returns ErrNotConnected after Close.
func (c *Client) HealthCheck(ctx context.Context) error {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()

	if c.client == nil || closed {
		return ErrNotConnected
	}

	checkCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	healthy, err := c.client.Ping(checkCtx)
	if err != nil {
		return fmt.Errorf("influxdb health check failed: %w", err)
	}
	if !healthy {
		return fmt.Errorf("influxdb health check failed: server not healthy")
	}

	return nil
}

// SetOnError sets a callback for asynchronous write failures.
func (c *Client) SetOnError(callback func(err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = callback
}
