package bus

import (
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"
)

const (
	RequestWrite = iota + 1
	RequestWriteRead
)

var ErrSequencerClosed = errors.New("i2c sequencer is closed")

type Request struct {
	Type      int
	Addr      byte
	DataWrite []byte
	DataRead  []byte
	Error     error

	done bool
	wait *sync.Cond
}

func (r *Request) init() {
	r.wait = &sync.Cond{L: new(sync.Mutex)}
}

func (r *Request) Wait() {
	r.wait.L.Lock()
	defer r.wait.L.Unlock()
	for !r.done {
		r.wait.Wait()
	}
}

func (r *Request) notifyDone() {
	r.wait.L.Lock()
	defer r.wait.L.Unlock()
	r.done = true
	r.wait.Broadcast()
}

// Sequencer serializes all transactions through one goroutine, which is the only user of
// the underlying bus. Requests are queued and executed in submission order.
type Sequencer struct {
	bus   I2cBus
	queue chan *Request

	lock   sync.RWMutex
	closed bool
	stop   sync.WaitGroup
}

func NewSequencer(bus I2cBus, queueSize int) *Sequencer {
	s := &Sequencer{
		bus:   bus,
		queue: make(chan *Request, queueSize),
	}
	s.stop.Add(1)
	go s.handleRequests()
	return s
}

func (s *Sequencer) handleRequests() {
	defer s.stop.Done()
	for req := range s.queue {
		switch req.Type {
		case RequestWrite:
			req.Error = s.bus.I2cWrite(req.Addr, req.DataWrite...)
		case RequestWriteRead:
			req.Error = s.bus.I2cWriteRead(req.Addr, req.DataWrite, req.DataRead)
		default:
			log.Errorln("Ignoring invalid I2C request with type", req.Type)
		}
		req.notifyDone()
	}
}

// Queue submits the request without waiting for it. Use req.Wait() to wait for the result.
func (s *Sequencer) Queue(req *Request) {
	req.init()
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.closed {
		req.Error = ErrSequencerClosed
		req.done = true
		return
	}
	s.queue <- req
}

func (s *Sequencer) Execute(req *Request) {
	s.Queue(req)
	req.Wait()
}

func (s *Sequencer) I2cWrite(addr byte, data ...byte) error {
	req := &Request{
		Type:      RequestWrite,
		Addr:      addr,
		DataWrite: data,
	}
	s.Execute(req)
	return req.Error
}

func (s *Sequencer) I2cWriteRead(addr byte, out, in []byte) error {
	req := &Request{
		Type:      RequestWriteRead,
		Addr:      addr,
		DataWrite: out,
		DataRead:  in,
	}
	s.Execute(req)
	return req.Error
}

// Close waits for all queued requests to finish. Later requests fail with ErrSequencerClosed.
func (s *Sequencer) Close() {
	s.lock.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.lock.Unlock()
	s.stop.Wait()
}
