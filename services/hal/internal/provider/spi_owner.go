package provider

import (
	"time"

	"dac80501-go/errcode"
	"dac80501-go/services/hal/internal/core"

	"tinygo.org/x/drivers"
)

// spiTx is the subset of a hardware SPI controller the owner drives.
type spiTx interface {
	Tx(w, r []byte) error
}

// request posted to the per-bus worker
type spiReq struct {
	w, r []byte
	done chan error // buffered(1); worker replies best-effort
}

// per-bus owner that hosts a single worker goroutine
type spiOwner struct {
	id   core.ResourceID
	hw   spiTx
	reqs chan spiReq
	quit chan struct{}
}

func newSPIOwner(id core.ResourceID, hw spiTx) *spiOwner {
	o := &spiOwner{
		id:   id,
		hw:   hw,
		reqs: make(chan spiReq, 16),
		quit: make(chan struct{}),
	}
	go o.loop()
	return o
}

func (o *spiOwner) loop() {
	for {
		select {
		case req := <-o.reqs:
			err := o.hw.Tx(req.w, req.r)
			select {
			case req.done <- err:
			default:
			}
		case <-o.quit:
			return
		}
	}
}

func (o *spiOwner) stop() { close(o.quit) }

// driversSPI adapts the owner to tinygo.org/x/drivers.SPI.
// It posts a request and optionally enforces a per-call timeout.
type driversSPI struct {
	o       *spiOwner
	timeout time.Duration // 0 => no deadline
}

var _ drivers.SPI = (*driversSPI)(nil)

func (d *driversSPI) Tx(w, r []byte) error {
	// The worker may still hold the request after a timeout; never hand it
	// the caller's write buffer.
	req := spiReq{w: append([]byte(nil), w...), r: r, done: make(chan error, 1)}

	if d.timeout <= 0 {
		d.o.reqs <- req
		return <-req.done
	}

	t := time.NewTimer(d.timeout)
	select {
	case d.o.reqs <- req:
		if !t.Stop() {
			<-t.C
		}
	case <-t.C:
		return errcode.Busy
	}

	t = time.NewTimer(d.timeout)
	defer t.Stop()
	select {
	case err := <-req.done:
		return err
	case <-t.C:
		return errcode.Timeout
	}
}

func (d *driversSPI) Transfer(b byte) (byte, error) {
	var r [1]byte
	err := d.Tx([]byte{b}, r[:])
	return r[0], err
}
