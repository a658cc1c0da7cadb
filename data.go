package xmlsecgo

// SPDX-License-Identifier: MIT
//
// Data is the tagged variant flowing through a TransformChain:
// NodeSetData, OctetStreamData, SubTreeData, and an internal Apache-style
// carrier. Modelled as a small closed interface with unexported
// implementations.

import "github.com/beevik/etree"

// Data is the value flowing through a TransformChain.
type Data interface {
	isData()
}

// NodeSetData is an explicit set of nodes from a single owning document.
type nodeSetData struct {
	nodes []*etree.Element
}

func (*nodeSetData) isData() {}

// NewNodeSetData builds a Data value over an explicit node set.
func NewNodeSetData(nodes []*etree.Element) Data {
	return &nodeSetData{nodes: append([]*etree.Element{}, nodes...)}
}

// Nodes returns the underlying node set.
func (d *nodeSetData) Nodes() []*etree.Element { return d.nodes }

// octetStreamData is raw bytes, optionally tagged with their source URI and
// MIME type.
type octetStreamData struct {
	bytes     []byte
	sourceURI string
	mimeType  string
}

func (*octetStreamData) isData() {}

// NewOctetStreamData builds a Data value over a raw octet stream.
func NewOctetStreamData(data []byte, sourceURI, mimeType string) Data {
	return &octetStreamData{bytes: data, sourceURI: sourceURI, mimeType: mimeType}
}

func (d *octetStreamData) Bytes() []byte     { return d.bytes }
func (d *octetStreamData) SourceURI() string { return d.sourceURI }
func (d *octetStreamData) MimeType() string  { return d.mimeType }

// subTreeData is a whole subtree rooted at root, with a flag for whether
// the canonicalizer should exclude comment nodes.
type subTreeData struct {
	root            *etree.Element
	excludeComments bool
}

func (*subTreeData) isData() {}

// NewSubTreeData builds a Data value over a subtree rooted at root.
func NewSubTreeData(root *etree.Element, excludeComments bool) Data {
	return &subTreeData{root: root, excludeComments: excludeComments}
}

func (d *subTreeData) Root() *etree.Element  { return d.root }
func (d *subTreeData) ExcludeComments() bool { return d.excludeComments }

// apacheData is an implementation-internal carrier: a typed value that
// may already hold canonicalized bytes alongside
// its source element, avoiding re-canonicalization when a transform chain
// hands off between node-set-producing and octet-stream-producing
// transforms. Mirrors Apache Santuario's XMLSignatureInput.
type apacheData struct {
	element   *etree.Element
	bytes     []byte
	isNodeSet bool
}

func (*apacheData) isData() {}

func newApacheDataFromElement(el *etree.Element) Data {
	return &apacheData{element: el, isNodeSet: true}
}

// dataNodes converts any Data variant to a flat node list for filtering;
// octet-stream data has no nodes and returns nil.
func dataNodes(d Data) []*etree.Element {
	switch v := d.(type) {
	case *nodeSetData:
		return v.nodes
	case *subTreeData:
		return flattenSubtree(v.root)
	case *apacheData:
		if v.isNodeSet && v.element != nil {
			return flattenSubtree(v.element)
		}
	}
	return nil
}

func flattenSubtree(root *etree.Element) []*etree.Element {
	var out []*etree.Element
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		out = append(out, el)
		for _, c := range el.ChildElements() {
			walk(c)
		}
	}
	walk(root)
	return out
}

// dataToBytes materializes octet-stream-shaped Data into raw bytes. It does
// not canonicalize node-set Data; use the Canonicalizer for that.
func dataToBytes(d Data) ([]byte, bool) {
	switch v := d.(type) {
	case *octetStreamData:
		return v.bytes, true
	case *apacheData:
		if !v.isNodeSet {
			return v.bytes, true
		}
	}
	return nil, false
}
