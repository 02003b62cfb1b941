// Copyright (c) 2024 UIO register access for UIOuHAL.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at:
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package uio

import (
	"errors"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gopkg.in/tomb.v1"

	"github.com/tswilliams/UIOuHAL/sigbus"
	"github.com/tswilliams/UIOuHAL/transport"
)

const (
	// TransportID is the identifier the client registers under.
	TransportID = "uioaxi-1.0"
	// DefaultClientName is used for identifying the client in logs.
	DefaultClientName = "uiouhal"
)

var (
	// DefaultSysfsRoot is where UIO devices are described.
	DefaultSysfsRoot = "/sys/class/uio"
	// DefaultDevRoot is where UIO device nodes live.
	DefaultDevRoot = "/dev"
	// DefaultMaxBlockWords limits the words returned by one block read.
	DefaultMaxBlockWords uint32 = 1 << 20
)

var (
	debug = strings.Contains(os.Getenv("DEBUG_UIOUHAL"), "uio")

	log logrus.FieldLogger
)

// SetLogger sets global logger.
func SetLogger(logger logrus.FieldLogger) {
	log = logger
}

func init() {
	logger := logrus.New()
	if debug {
		logger.Level = logrus.DebugLevel
		logger.Debug("uiouhal: debug level enabled for uio")
	}
	log = logger.WithField("logger", "uiouhal/uio")

	transport.Register(TransportID, func(target string) (transport.Transport, error) {
		if target == "" {
			return nil, errors.New(TransportID + ": device map file required")
		}
		configs, err := ReadDeviceMapFile(target)
		if err != nil {
			return nil, err
		}
		c := NewClient()
		for _, cfg := range configs {
			if err := c.AddDevice(cfg); err != nil {
				return nil, err
			}
		}
		return c, nil
	})
}

// Client is a UIO register transport.
type Client struct {
	clientName string
	sysfsRoot  string
	devRoot    string

	maxBlockWords uint32

	configs  []DeviceConfig
	attached []*Device
	devices  *Registry

	primeCallback transport.PrimeCallback
	pending       pendingBuffer

	// mu guards the connection state below against Disconnect.
	mu   sync.RWMutex
	reqs chan request
	tomb *tomb.Tomb
}

// request is an access executed on the access thread.
type request struct {
	fn   func() error
	done chan error
}

// NewClient returns a new Client without devices.
func NewClient() *Client {
	return &Client{
		clientName: DefaultClientName,
		sysfsRoot:  DefaultSysfsRoot,
		devRoot:    DefaultDevRoot,

		maxBlockWords: DefaultMaxBlockWords,
		primeCallback: func() {
			log.Debugf("no prime callback set, results wait for an explicit Dispatch")
		},
	}
}

// SetClientName sets a client name used for identification.
func (c *Client) SetClientName(name string) {
	c.clientName = name
}

// SetSysfsRoot sets the directory searched for UIO device descriptions.
func (c *Client) SetSysfsRoot(dir string) {
	c.sysfsRoot = dir
}

// SetDevRoot sets the directory holding UIO device nodes.
func (c *Client) SetDevRoot(dir string) {
	c.devRoot = dir
}

// SetMaxBlockWords sets the largest count accepted by ReadBlock.
func (c *Client) SetMaxBlockWords(words uint32) {
	c.maxBlockWords = words
}

// SetPrimeCallback sets the callback invoked when results wait for dispatch.
func (c *Client) SetPrimeCallback(cb transport.PrimeCallback) {
	log.Debug("SetPrimeCallback")
	c.primeCallback = cb
}

// AddDevice adds a device to be mapped by Connect.
func (c *Client) AddDevice(cfg DeviceConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tomb != nil {
		return ErrRegistrySealed
	}
	if cfg.Name == "" {
		return errors.New("device name required")
	}
	c.configs = append(c.configs, cfg)
	return nil
}

// AttachDevice places an already mapped window at base. The caller keeps
// ownership of w; Disconnect does not close it.
func (c *Client) AttachDevice(name string, base uint32, w Window) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tomb != nil {
		return ErrRegistrySealed
	}
	if name == "" {
		return errors.New("device name required")
	}
	c.attached = append(c.attached, &Device{
		Name:   name,
		Base:   base,
		Size:   w.Len(),
		window: w,
	})
	return nil
}

// Devices returns the connected devices in address order.
func (c *Client) Devices() []Device {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.devices == nil {
		return nil
	}
	return c.devices.Devices()
}

// Connect maps all devices, seals the registry and starts the access thread.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tomb != nil {
		return errors.New("already connected")
	}

	devices, err := c.mapDevices()
	if err != nil {
		return err
	}
	devices.Seal()

	t := new(tomb.Tomb)
	reqs := make(chan request)
	started := make(chan error, 1)
	go c.accessLoop(t, reqs, started)

	if err := <-started; err != nil {
		t.Wait()
		devices.Close()
		return err
	}

	c.devices = devices
	c.reqs = reqs
	c.tomb = t

	log.Debugf("%s connected with %d devices", c.clientName, devices.Len())
	return nil
}

// Disconnect stops the access thread and unmaps all devices. Results not
// yet dispatched never become valid.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tomb == nil {
		return nil
	}
	log.Debugf("Disconnecting..")

	c.tomb.Kill(nil)
	if err := c.tomb.Wait(); err != nil {
		log.Debugf("access loop failed: %v", err)
	}
	c.tomb = nil
	c.reqs = nil
	c.pending.reset()

	err := c.devices.Close()
	c.devices = nil
	return err
}

func (c *Client) mapDevices() (*Registry, error) {
	mapped := make([]*Device, len(c.configs))

	var g errgroup.Group
	for i, cfg := range c.configs {
		i, cfg := i, cfg
		g.Go(func() error {
			d, err := c.openDevice(cfg)
			if err != nil {
				return err
			}
			mapped[i] = d
			return nil
		})
	}
	err := g.Wait()

	devices := NewRegistry()
	if err == nil {
		for _, d := range append(mapped, c.attached...) {
			if err = devices.Add(d); err != nil {
				break
			}
		}
	}
	if err != nil {
		for _, d := range mapped {
			if d != nil {
				d.window.Close()
			}
		}
		return nil, err
	}
	return devices, nil
}

// accessLoop runs every access on one OS thread that keeps SIGBUS blocked.
func (c *Client) accessLoop(t *tomb.Tomb, reqs <-chan request, started chan<- error) {
	defer t.Done()
	defer log.Debugf("access loop done")

	runtime.LockOSThread()
	if err := sigbus.BlockSignal(); err != nil {
		// the thread stays locked and is discarded with the goroutine
		started <- err
		t.Kill(err)
		return
	}
	started <- nil

	for {
		select {
		case <-t.Dying():
			if err := sigbus.UnblockSignal(); err != nil {
				log.Debugf("Failed to unblock SIGBUS: %v", err)
				return
			}
			runtime.UnlockOSThread()
			return
		case req := <-reqs:
			req.done <- req.fn()
		}
	}
}

// exec runs fn on the access thread and waits for its result.
func (c *Client) exec(fn func() error) error {
	c.mu.RLock()
	t, reqs := c.tomb, c.reqs
	c.mu.RUnlock()
	if t == nil {
		return ErrNotConnected
	}

	req := request{fn: fn, done: make(chan error, 1)}
	select {
	case reqs <- req:
	case <-t.Dying():
		return ErrNotConnected
	}
	return <-req.done
}
