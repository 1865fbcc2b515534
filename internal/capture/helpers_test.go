package capture

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/bugtrap/api/schemas"
)

// -- Mock DOM --

// fakeNode is an in-memory Node used to drive the selector and resource logic
// without a browser.
type fakeNode struct {
	nodeType NodeType
	local    string
	id       string
	class    string
	outer    string
	attrs    map[string]string
	prev     *fakeNode
	// panicOn makes the named accessor panic, simulating a broken DOM binding.
	panicOn string
}

func element(local, id, class, outer string) *fakeNode {
	return &fakeNode{nodeType: ElementNode, local: local, id: id, class: class, outer: outer}
}

func text() *fakeNode {
	return &fakeNode{nodeType: TextNode}
}

// document and window nodes carry no name and no markup.
func document() *fakeNode { return &fakeNode{nodeType: DocumentNode} }
func window() *fakeNode   { return &fakeNode{} }

// siblings links nodes in order so each one's PreviousSibling is the one before it.
func siblings(nodes ...*fakeNode) {
	for i := 1; i < len(nodes); i++ {
		nodes[i].prev = nodes[i-1]
	}
}

func (n *fakeNode) check(accessor string) {
	if n.panicOn == accessor {
		panic("broken accessor: " + accessor)
	}
}

func (n *fakeNode) NodeType() NodeType { return n.nodeType }
func (n *fakeNode) LocalName() string  { n.check("LocalName"); return n.local }
func (n *fakeNode) TagName() string    { return strings.ToUpper(n.local) }
func (n *fakeNode) ID() string         { return n.id }
func (n *fakeNode) ClassName() string  { return n.class }
func (n *fakeNode) OuterHTML() string  { n.check("OuterHTML"); return n.outer }
func (n *fakeNode) Attr(name string) string {
	return n.attrs[name]
}
func (n *fakeNode) PreviousSibling() Node {
	if n.prev == nil {
		return nil
	}
	return n.prev
}

// path converts fake nodes to the Node slice an event carries.
func path(nodes ...*fakeNode) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n
	}
	return out
}

// -- Reporter Doubles --

// recordingReporter keeps every delivered message.
type recordingReporter struct {
	mu       sync.Mutex
	messages []schemas.Message
}

func (r *recordingReporter) Report(msg schemas.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *recordingReporter) all() []schemas.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]schemas.Message(nil), r.messages...)
}

// single asserts exactly one message was delivered and returns it.
func (r *recordingReporter) single(t *testing.T) schemas.Message {
	t.Helper()
	msgs := r.all()
	require.Len(t, msgs, 1, "expected exactly one reported message")
	return msgs[0]
}

// newTestClient builds a client with a recording reporter and an observed
// diagnostics logger.
func newTestClient(initialized bool) (*Client, *recordingReporter, *observer.ObservedLogs) {
	state := NewState()
	if initialized {
		state.MarkInitialized()
	}
	core, logs := observer.New(zapcore.ErrorLevel)
	reporter := &recordingReporter{}
	client := NewClient(state, reporter, zap.NewNop(), WithDiagnostics(zap.New(core)))
	return client, reporter, logs
}
