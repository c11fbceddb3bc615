package notify

import (
	"errors"
	"sync"

	"github.com/stenhardvara/zephyr/internal/ble"
)

// Kind classifies a notification node.
type Kind uint8

const (
	// KindSync reports the outcome of a synchronization attempt; Status
	// distinguishes establishment from host cancellation.
	KindSync Kind = iota

	// KindSyncLost reports a supervision timeout on an established sync.
	KindSyncLost
)

// Notification status codes, HCI encoding.
const (
	StatusSuccess         byte = 0x00
	StatusCancelledByHost byte = 0x44
)

// HandleNone marks a notification not bound to a live handle.
const HandleNone uint16 = 0xFFFF

// Link is the queue token that accompanies a node through the delivery
// queue; it is allocated and released independently of the node. The id
// gives each link a distinct identity and address.
type Link struct {
	id uint16
}

// Node is one receive notification.
type Node struct {
	Kind   Kind
	Handle uint16
	Link   *Link

	Status   byte
	Interval uint16
	PHY      ble.PHY
	SCA      uint8

	Param any
}

var (
	// ErrForeign indicates a release of an object the pool does not own.
	ErrForeign = errors.New("FOREIGN_OBJECT")

	// ErrDoubleRelease indicates an object released twice.
	ErrDoubleRelease = errors.New("DOUBLE_RELEASE")
)

// Pool is a fixed-capacity allocator of nodes and links.
type Pool struct {
	mu sync.Mutex

	nodes     []Node
	nodeFree  []*Node
	nodeInUse map[*Node]bool

	links     []Link
	linkFree  []*Link
	linkInUse map[*Link]bool
}

// NewPool creates a pool with the given node and link capacities.
func NewPool(nodes, links int) *Pool {
	p := &Pool{
		nodes:     make([]Node, nodes),
		nodeInUse: make(map[*Node]bool, nodes),
		links:     make([]Link, links),
		linkInUse: make(map[*Link]bool, links),
	}
	for i := range p.nodes {
		p.nodeFree = append(p.nodeFree, &p.nodes[i])
	}
	for i := range p.links {
		p.links[i].id = uint16(i)
		p.linkFree = append(p.linkFree, &p.links[i])
	}
	return p
}

// AllocNode returns a zeroed node, or nil on exhaustion.
func (p *Pool) AllocNode() *Node {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.nodeFree) == 0 {
		return nil
	}
	n := p.nodeFree[len(p.nodeFree)-1]
	p.nodeFree = p.nodeFree[:len(p.nodeFree)-1]
	p.nodeInUse[n] = true
	*n = Node{}
	return n
}

// ReleaseNode returns a node to the pool. Exactly one release per
// allocation; anything else is reported as an error.
func (p *Pool) ReleaseNode(n *Node) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.owns(n) {
		return ErrForeign
	}
	if !p.nodeInUse[n] {
		return ErrDoubleRelease
	}
	delete(p.nodeInUse, n)
	p.nodeFree = append(p.nodeFree, n)
	return nil
}

// AllocLink returns a queue link, or nil on exhaustion.
func (p *Pool) AllocLink() *Link {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.linkFree) == 0 {
		return nil
	}
	l := p.linkFree[len(p.linkFree)-1]
	p.linkFree = p.linkFree[:len(p.linkFree)-1]
	p.linkInUse[l] = true
	return l
}

// ReleaseLink returns a link to the pool.
func (p *Pool) ReleaseLink(l *Link) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.ownsLink(l) {
		return ErrForeign
	}
	if !p.linkInUse[l] {
		return ErrDoubleRelease
	}
	delete(p.linkInUse, l)
	p.linkFree = append(p.linkFree, l)
	return nil
}

func (p *Pool) owns(n *Node) bool {
	if n == nil || len(p.nodes) == 0 {
		return false
	}
	for i := range p.nodes {
		if &p.nodes[i] == n {
			return true
		}
	}
	return false
}

func (p *Pool) ownsLink(l *Link) bool {
	if l == nil {
		return false
	}
	for i := range p.links {
		if &p.links[i] == l {
			return true
		}
	}
	return false
}

// FreeNodes returns the number of unallocated nodes.
func (p *Pool) FreeNodes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.nodeFree)
}

// FreeLinks returns the number of unallocated links.
func (p *Pool) FreeLinks() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.linkFree)
}

// Queue is the host-facing delivery queue.
type Queue struct {
	mu    sync.Mutex
	nodes []*Node
	sched func()
}

// NewQueue creates a queue; sched, if non-nil, is invoked by Sched to wake
// the consuming layer.
func NewQueue(sched func()) *Queue {
	return &Queue{sched: sched}
}

// Put appends a finished node to the queue.
func (q *Queue) Put(n *Node) {
	q.mu.Lock()
	q.nodes = append(q.nodes, n)
	q.mu.Unlock()
}

// Sched signals the consumer that nodes are pending.
func (q *Queue) Sched() {
	if q.sched != nil {
		q.sched()
	}
}

// Drain removes and returns all pending nodes, oldest first.
func (q *Queue) Drain() []*Node {
	q.mu.Lock()
	defer q.mu.Unlock()
	nodes := q.nodes
	q.nodes = nil
	return nodes
}

// Len returns the number of pending nodes.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.nodes)
}
