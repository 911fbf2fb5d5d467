// Package bus is the concrete ZeroMQ-backed implementation of the
// core.Bus/Inlet/Outlet streaming contract, built on
// github.com/zeromq/goczmq the same way the teacher's publish_data.go
// uses czmq.NewPubChanneler for its trigger/summary streams.
package bus

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"sync"

	czmq "github.com/zeromq/goczmq"

	"github.com/es-ude/denspp.online/internal/core"
)

// basePort anchors the deterministic name->port mapping; stream names
// hash onto a fixed range above it so every process participating in the
// pipeline can resolve the same stream to the same TCP endpoint without
// a separate naming service.
const basePort = 6000

func portForStream(name string) int {
	h := fnv.New32a()
	h.Write([]byte(name))
	return basePort + int(h.Sum32()%1000)
}

// ZMQBus resolves named streams to ZeroMQ pub/sub endpoints on a fixed
// host. Publishers bind; subscribers connect.
type ZMQBus struct {
	host string

	mu       sync.Mutex
	resolved map[string]core.StreamInfo
}

// NewZMQBus builds a bus that subscribes against the given host (e.g.
// "localhost" or a peer's address) and binds publishers on all
// interfaces.
func NewZMQBus(host string) *ZMQBus {
	return &ZMQBus{host: host, resolved: make(map[string]core.StreamInfo)}
}

func (b *ZMQBus) Resolve(name string) (core.StreamInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	info, ok := b.resolved[name]
	if !ok {
		return core.StreamInfo{}, &core.StreamError{StreamName: name, Err: fmt.Errorf("no matching stream")}
	}
	return info, nil
}

// Publish binds a publisher for info.Name and registers it for Resolve.
func (b *ZMQBus) Publish(info core.StreamInfo) (core.Outlet, error) {
	endpoint := fmt.Sprintf("tcp://*:%d", portForStream(info.Name))
	ch := czmq.NewPubChanneler(endpoint)
	if ch == nil {
		return nil, &core.StreamError{StreamName: info.Name, Err: fmt.Errorf("failed to bind publisher at %s", endpoint)}
	}
	b.mu.Lock()
	b.resolved[info.Name] = info
	b.mu.Unlock()
	return &outlet{info: info, ch: ch}, nil
}

// Subscribe connects an inlet to the named stream.
func (b *ZMQBus) Subscribe(name string) (core.Inlet, error) {
	endpoint := fmt.Sprintf("tcp://%s:%d", b.host, portForStream(name))
	ch := czmq.NewSubChanneler(endpoint, "")
	if ch == nil {
		return nil, &core.StreamError{StreamName: name, Err: fmt.Errorf("failed to connect subscriber at %s", endpoint)}
	}
	return &inlet{info: core.StreamInfo{Name: name}, ch: ch}, nil
}

// toInt16 rounds and saturates a sample to the range the wire format
// actually carries; stream_info.format is "int16" (spec contract), so
// values outside that range are clipped rather than silently wrapped.
func toInt16(v float64) int16 {
	r := math.Round(v)
	switch {
	case r >= math.MaxInt16:
		return math.MaxInt16
	case r <= math.MinInt16:
		return math.MinInt16
	default:
		return int16(r)
	}
}

type outlet struct {
	info core.StreamInfo
	ch   *czmq.Channeler
	ivec []int16 // scratch, reused across PushSample calls
	once sync.Once
}

func (o *outlet) StreamInfo() core.StreamInfo { return o.info }

// PushSample never blocks: if the channeler's send buffer is full it
// reports the failure rather than stalling the caller's sample loop or
// dropping the sample with no trace. Samples are quantized to int16 on
// the wire, matching the declared stream_info format.
func (o *outlet) PushSample(vec []float64) error {
	if o.ivec == nil {
		o.ivec = make([]int16, len(vec))
	}
	for i, v := range vec {
		o.ivec[i] = toInt16(v)
	}
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, o.ivec); err != nil {
		return err
	}
	select {
	case o.ch.SendChan <- [][]byte{buf.Bytes()}:
		return nil
	default:
		return fmt.Errorf("outlet %q: send buffer full", o.info.Name)
	}
}

func (o *outlet) Close() error {
	o.once.Do(o.ch.Destroy)
	return nil
}

type inlet struct {
	info core.StreamInfo
	ch   *czmq.Channeler
	ivec []int16 // scratch, reused across PullSample calls
	once sync.Once
}

func (i *inlet) StreamInfo() core.StreamInfo { return i.info }

// PullSample decodes the int16-quantized wire samples back into out as
// float64, matching the declared stream_info format.
func (i *inlet) PullSample(out []float64) (bool, error) {
	msg, ok := <-i.ch.RecvChan
	if !ok {
		return false, nil
	}
	if len(msg) == 0 {
		return false, &core.StreamError{StreamName: i.info.Name, Err: fmt.Errorf("empty message")}
	}
	if i.ivec == nil {
		i.ivec = make([]int16, len(out))
	}
	r := bytes.NewReader(msg[0])
	if err := binary.Read(r, binary.LittleEndian, i.ivec); err != nil {
		return false, &core.StreamError{StreamName: i.info.Name, Err: err}
	}
	for idx, v := range i.ivec {
		out[idx] = float64(v)
	}
	return true, nil
}

func (i *inlet) Close() error {
	i.once.Do(i.ch.Destroy)
	return nil
}
