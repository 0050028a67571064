package thread

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/VitaminP8/tweed/internal/apperr"
)

// ErrCorruptTree is returned when a persisted tree does not describe a single
// rooted tree.
var ErrCorruptTree = errors.New("corrupt thread tree")

// Node is the persisted form of one post reference: the post id and the ids
// of its direct replies in reply order.
type Node struct {
	PostID  string   `json:"post_id"`
	Replies []string `json:"replies,omitempty"`
}

type node struct {
	replies []string
}

// Tree is the reply structure of one thread. Nodes live in a flat map keyed by
// post id, each holding the ordered ids of its children, so the tree owns no
// nested structures and post entities are referenced by id only.
//
// A Tree is not safe for concurrent use. Concurrent writers are serialized by
// the storage through Version.
type Tree struct {
	ID      string
	Version int64

	root  string
	nodes map[string]*node
}

func New() *Tree {
	return &Tree{nodes: make(map[string]*node)}
}

func (t *Tree) Root() (string, bool) {
	return t.root, t.root != ""
}

func (t *Tree) Len() int {
	return len(t.nodes)
}

func (t *Tree) Contains(postID string) bool {
	_, ok := t.nodes[postID]
	return ok
}

// Replies returns the direct replies of postID in insertion order, or nil when
// the post is not in the tree.
func (t *Tree) Replies(postID string) []string {
	n, ok := t.nodes[postID]
	if !ok {
		return nil
	}
	out := make([]string, len(n.replies))
	copy(out, n.replies)
	return out
}

// AttachRoot sets the root of an empty tree. Attaching the current root again
// is a no-op.
func (t *Tree) AttachRoot(postID string) error {
	if postID == "" {
		return apperr.Invalid("post_id", "must not be empty")
	}
	if t.root != "" {
		if t.root == postID {
			return nil
		}
		return &apperr.AlreadyRootedError{ThreadID: t.ID, RootID: t.root, PostID: postID}
	}
	if t.nodes == nil {
		t.nodes = make(map[string]*node)
	}
	t.root = postID
	t.nodes[postID] = &node{}
	return nil
}

// InsertReply appends postID to the replies of parentPostID. Inserting a post
// that is already in the tree succeeds without changes, which makes a retried
// insert safe. The tree is left untouched on failure.
func (t *Tree) InsertReply(postID, parentPostID string) error {
	if postID == "" {
		return apperr.Invalid("post_id", "must not be empty")
	}
	if parentPostID == "" {
		return apperr.Invalid("parent_post_id", "must not be empty")
	}
	if _, ok := t.nodes[postID]; ok {
		return nil
	}

	parent, ok := t.nodes[parentPostID]
	if !ok {
		return &apperr.ParentNotFoundError{ParentID: parentPostID, ThreadID: t.ID}
	}
	parent.replies = append(parent.replies, postID)
	t.nodes[postID] = &node{}
	return nil
}

// FindPath returns the post ids from the root down to postID inclusive. The
// result is empty when the tree has no root or postID is not in it.
//
// The search is breadth-first and every queue entry carries the whole path to
// its node, so the first match is the shallowest one and no second pass is
// needed to rebuild the chain. Siblings are visited oldest reply first.
func (t *Tree) FindPath(postID string) []string {
	if t.root == "" || postID == "" {
		return []string{}
	}

	queue := [][]string{{t.root}}
	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]

		last := path[len(path)-1]
		if last == postID {
			return path
		}

		n, ok := t.nodes[last]
		if !ok {
			continue
		}
		for _, reply := range n.replies {
			next := make([]string, len(path), len(path)+1)
			copy(next, path)
			queue = append(queue, append(next, reply))
		}
	}
	return []string{}
}

// Nodes returns a snapshot of the tree in breadth-first order, root first.
func (t *Tree) Nodes() []Node {
	if t.root == "" {
		return []Node{}
	}

	out := make([]Node, 0, len(t.nodes))
	queue := []string{t.root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		n := t.nodes[id]
		var replies []string
		if len(n.replies) > 0 {
			replies = make([]string, len(n.replies))
			copy(replies, n.replies)
		}
		out = append(out, Node{PostID: id, Replies: replies})
		queue = append(queue, n.replies...)
	}
	return out
}

// Clone returns a deep copy of the tree.
func (t *Tree) Clone() *Tree {
	c := &Tree{
		ID:      t.ID,
		Version: t.Version,
		root:    t.root,
		nodes:   make(map[string]*node, len(t.nodes)),
	}
	for id, n := range t.nodes {
		replies := make([]string, len(n.replies))
		copy(replies, n.replies)
		c.nodes[id] = &node{replies: replies}
	}
	return c
}

// Restore rebuilds a tree from its persisted form. It rejects snapshots that
// have duplicate ids, dangling replies, nodes with two parents or nodes that
// cannot be reached from the root.
func Restore(id string, version int64, root string, nodes []Node) (*Tree, error) {
	t := &Tree{ID: id, Version: version, nodes: make(map[string]*node, len(nodes))}
	if root == "" {
		if len(nodes) > 0 {
			return nil, fmt.Errorf("%w: thread %s has nodes but no root", ErrCorruptTree, id)
		}
		return t, nil
	}

	for _, n := range nodes {
		if n.PostID == "" {
			return nil, fmt.Errorf("%w: thread %s has a node without post id", ErrCorruptTree, id)
		}
		if _, dup := t.nodes[n.PostID]; dup {
			return nil, fmt.Errorf("%w: post %s appears twice in thread %s", ErrCorruptTree, n.PostID, id)
		}
		replies := make([]string, len(n.Replies))
		copy(replies, n.Replies)
		t.nodes[n.PostID] = &node{replies: replies}
	}
	if _, ok := t.nodes[root]; !ok {
		return nil, fmt.Errorf("%w: root %s missing from thread %s", ErrCorruptTree, root, id)
	}

	seen := map[string]bool{root: true}
	queue := []string{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, reply := range t.nodes[cur].replies {
			if _, ok := t.nodes[reply]; !ok {
				return nil, fmt.Errorf("%w: reply %s of %s missing from thread %s", ErrCorruptTree, reply, cur, id)
			}
			if seen[reply] {
				return nil, fmt.Errorf("%w: post %s has more than one parent in thread %s", ErrCorruptTree, reply, id)
			}
			seen[reply] = true
			queue = append(queue, reply)
		}
	}
	if len(seen) != len(t.nodes) {
		return nil, fmt.Errorf("%w: thread %s has %d unreachable nodes", ErrCorruptTree, id, len(t.nodes)-len(seen))
	}

	t.root = root
	return t, nil
}

type document struct {
	ID      string `json:"id"`
	Version int64  `json:"version"`
	Root    string `json:"root,omitempty"`
	Nodes   []Node `json:"nodes"`
}

func (t *Tree) MarshalJSON() ([]byte, error) {
	return json.Marshal(document{
		ID:      t.ID,
		Version: t.Version,
		Root:    t.root,
		Nodes:   t.Nodes(),
	})
}

func (t *Tree) UnmarshalJSON(data []byte) error {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	restored, err := Restore(doc.ID, doc.Version, doc.Root, doc.Nodes)
	if err != nil {
		return err
	}
	*t = *restored
	return nil
}
