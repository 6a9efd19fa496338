// Package classifier trains a gradient-boosted ensemble of shallow
// regression trees on TF-IDF features plus the sentiment score, predicting a
// binary satisfaction label under logistic loss.
package classifier

import (
	"math"
	"sort"
)

// leafSentinel marks a Node with no split.
const leafSentinel = -1

// regLambda is the L2 regularization on leaf weights.
const regLambda = 1.0

// minSplitGain rejects splits whose loss reduction is numerically zero.
const minSplitGain = 1e-12

// Node is one node of a regression tree, stored in slice form so trees
// serialize directly.  Feature == -1 marks a leaf; Cover is the number of
// training rows that reached the node and backs the expected-value
// computation used by attribution.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
	Cover     float64 `json:"cover"`
}

// IsLeaf reports whether the node carries a value instead of a split.
func (n Node) IsLeaf() bool { return n.Feature == leafSentinel }

// Tree is a single regression tree.  Nodes[0] is the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Predict returns the leaf value for x, routing rows with feature value
// <= threshold to the left child.
func (t *Tree) Predict(x func(feature int) float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.IsLeaf() {
			return n.Value
		}
		if x(n.Feature) <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// ExpectedValue is the cover-weighted mean leaf value, i.e. the tree's
// output expectation over its training distribution.
func (t *Tree) ExpectedValue() float64 {
	return t.expected(0)
}

func (t *Tree) expected(i int) float64 {
	n := t.Nodes[i]
	if n.IsLeaf() {
		return n.Value
	}
	lc := t.Nodes[n.Left].Cover
	rc := t.Nodes[n.Right].Cover
	total := lc + rc
	if total == 0 {
		return 0
	}
	return (lc*t.expected(n.Left) + rc*t.expected(n.Right)) / total
}

// treeBuilder grows one tree against the current gradient/hessian state.
type treeBuilder struct {
	matrix   *matrix
	grad     []float64
	hess     []float64
	maxDepth int
	shrink   float64

	nodes []Node
	// gain accumulates per-feature split gain for importance reporting.
	gain map[int]float64
}

// build grows a depth-bounded tree over rows considering only the features
// in cols, and returns it with learning-rate-scaled leaf values.
func (b *treeBuilder) build(rows []int, cols []int) Tree {
	// Each tree gets its own backing array; the builder is reused across
	// boosting rounds.
	b.nodes = nil
	b.grow(rows, cols, 0)
	return Tree{Nodes: b.nodes}
}

func (b *treeBuilder) grow(rows []int, cols []int, depth int) int {
	idx := len(b.nodes)
	b.nodes = append(b.nodes, Node{
		Feature: leafSentinel,
		Cover:   float64(len(rows)),
	})

	var sumG, sumH float64
	for _, r := range rows {
		sumG += b.grad[r]
		sumH += b.hess[r]
	}

	if depth < b.maxDepth && len(rows) > 1 {
		if feat, thr, ok := b.bestSplit(rows, cols, sumG, sumH); ok {
			left, right := partition(b.matrix, rows, feat, thr)
			b.nodes[idx].Feature = feat
			b.nodes[idx].Threshold = thr
			b.nodes[idx].Left = b.grow(left, cols, depth+1)
			b.nodes[idx].Right = b.grow(right, cols, depth+1)
			return idx
		}
	}

	// Newton step: leaf weight = G / (H + lambda), shrunk by the
	// learning rate at build time so predictions are a plain sum.
	b.nodes[idx].Value = b.shrink * sumG / (sumH + regLambda)
	return idx
}

// bestSplit scans the candidate features in ascending index order and every
// midpoint between consecutive distinct values, keeping the first split with
// the strictly highest gain.  The fixed scan order makes tree growth
// deterministic for a given row/column sample.
func (b *treeBuilder) bestSplit(rows []int, cols []int, sumG, sumH float64) (int, float64, bool) {
	parentScore := score(sumG, sumH)

	bestGain := minSplitGain
	bestFeat := leafSentinel
	bestThr := 0.0

	vals := make([]rowValue, 0, len(rows))
	for _, feat := range cols {
		vals = vals[:0]
		for _, r := range rows {
			vals = append(vals, rowValue{row: r, val: b.matrix.at(r, feat)})
		}
		sort.Slice(vals, func(i, j int) bool { return vals[i].val < vals[j].val })
		if vals[0].val == vals[len(vals)-1].val {
			continue
		}

		var leftG, leftH float64
		for i := 0; i < len(vals)-1; i++ {
			leftG += b.grad[vals[i].row]
			leftH += b.hess[vals[i].row]
			if vals[i].val == vals[i+1].val {
				continue
			}
			gain := score(leftG, leftH) + score(sumG-leftG, sumH-leftH) - parentScore
			if gain > bestGain {
				bestGain = gain
				bestFeat = feat
				bestThr = (vals[i].val + vals[i+1].val) / 2
			}
		}
	}

	if bestFeat == leafSentinel {
		return 0, 0, false
	}
	b.gain[bestFeat] += bestGain
	return bestFeat, bestThr, true
}

type rowValue struct {
	row int
	val float64
}

// score is the regularized structure score G^2 / (H + lambda).
func score(g, h float64) float64 {
	return g * g / (h + regLambda)
}

func partition(m *matrix, rows []int, feat int, thr float64) (left, right []int) {
	for _, r := range rows {
		if m.at(r, feat) <= thr {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	return left, right
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
