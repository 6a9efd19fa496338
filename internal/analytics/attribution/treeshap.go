// Package attribution decomposes individual predictions of the boosted
// ensemble into additive per-feature contributions.  The decomposition is
// exact for tree ensembles: it walks every root-to-leaf path and weights leaf
// values by the conditional probability of reaching them with and without
// each feature, so the attributions always sum to the raw model output minus
// the baseline, independent of feature ordering.
package attribution

import (
	"github.com/turtacn/BrandPulse-Analytics/internal/analytics/classifier"
	"github.com/turtacn/BrandPulse-Analytics/internal/analytics/features"
)

// Engine computes attributions against one trained model.  It holds only
// read-only state and is safe for concurrent use.
type Engine struct {
	model    *classifier.Model
	baseline float64
}

// NewEngine builds an Engine for model.  The baseline (model output expected
// over the training distribution) is fixed at construction.
func NewEngine(model *classifier.Model) *Engine {
	base := model.BaseScore
	for i := range model.Trees {
		base += model.Trees[i].ExpectedValue()
	}
	return &Engine{model: model, baseline: base}
}

// Baseline returns the expected raw model output; attributions for any
// instance sum to Margin(instance) - Baseline().
func (e *Engine) Baseline() float64 { return e.baseline }

// Attribute returns the additive contribution of every feature to the raw
// model output for one instance.  Features that never occur on a decision
// path of the instance are absent from the result (contribution zero).
func (e *Engine) Attribute(vec features.Vector, sentiment float64) map[int]float64 {
	x := func(feature int) float64 {
		if feature == e.model.SentimentIndex {
			return sentiment
		}
		return vec[feature]
	}

	phi := make(map[int]float64)
	for i := range e.model.Trees {
		w := walker{nodes: e.model.Trees[i].Nodes, x: x, phi: phi}
		w.recurse(0, nil, 1, 1, -1)
	}
	return phi
}

// pathElem is one entry of the feature path maintained by the recursion:
// the feature split on, the proportion of subsets flowing down when the
// feature is unknown (zero) versus known (one), and the permutation weight.
type pathElem struct {
	feature int
	zero    float64
	one     float64
	weight  float64
}

type walker struct {
	nodes []classifier.Node
	x     func(int) float64
	phi   map[int]float64
}

func (w *walker) recurse(j int, path []pathElem, pz, po float64, pf int) {
	path = extend(path, pz, po, pf)
	n := w.nodes[j]

	if n.IsLeaf() {
		for i := 1; i < len(path); i++ {
			el := path[i]
			w.phi[el.feature] += unwoundSum(path, i) * (el.one - el.zero) * n.Value
		}
		return
	}

	hot, cold := n.Left, n.Right
	if w.x(n.Feature) > n.Threshold {
		hot, cold = n.Right, n.Left
	}

	// A feature split on twice along one path keeps a single entry:
	// undo the earlier extension before descending.
	iz, io := 1.0, 1.0
	if k := findFeature(path, n.Feature); k >= 0 {
		iz, io = path[k].zero, path[k].one
		path = unwind(path, k)
	}

	hotFrac := w.nodes[hot].Cover / n.Cover
	coldFrac := w.nodes[cold].Cover / n.Cover
	w.recurse(hot, path, iz*hotFrac, io, n.Feature)
	w.recurse(cold, path, iz*coldFrac, 0, n.Feature)
}

// extend appends a feature to the path and grows the permutation weights.
// It copies, so sibling branches of the recursion never share state.
func extend(path []pathElem, pz, po float64, pf int) []pathElem {
	l := len(path)
	out := make([]pathElem, l+1)
	copy(out, path)

	w := 0.0
	if l == 0 {
		w = 1.0
	}
	out[l] = pathElem{feature: pf, zero: pz, one: po, weight: w}

	for i := l - 1; i >= 0; i-- {
		out[i+1].weight += po * out[i].weight * float64(i+1) / float64(l+1)
		out[i].weight = pz * out[i].weight * float64(l-i) / float64(l+1)
	}
	return out
}

// unwind removes the path entry at index k, redistributing its permutation
// weights.  It returns a fresh slice.
func unwind(path []pathElem, k int) []pathElem {
	l := len(path) - 1
	out := make([]pathElem, len(path))
	copy(out, path)

	oneFrac := out[k].one
	zeroFrac := out[k].zero
	next := out[l].weight

	if oneFrac != 0 {
		for i := l - 1; i >= 0; i-- {
			tmp := out[i].weight
			out[i].weight = next * float64(l+1) / (float64(i+1) * oneFrac)
			next = tmp - out[i].weight*zeroFrac*float64(l-i)/float64(l+1)
		}
	} else {
		for i := l - 1; i >= 0; i-- {
			out[i].weight = out[i].weight * float64(l+1) / (zeroFrac * float64(l-i))
		}
	}

	for i := k; i < l; i++ {
		out[i].feature = out[i+1].feature
		out[i].zero = out[i+1].zero
		out[i].one = out[i+1].one
	}
	return out[:l]
}

// unwoundSum is the total permutation weight of the path with entry i
// removed, without materializing the removal.
func unwoundSum(path []pathElem, i int) float64 {
	l := len(path) - 1
	oneFrac := path[i].one
	zeroFrac := path[i].zero

	total := 0.0
	if oneFrac != 0 {
		next := path[l].weight
		for j := l - 1; j >= 0; j-- {
			tmp := next / (float64(j+1) * oneFrac)
			total += tmp
			next = path[j].weight - tmp*zeroFrac*float64(l-j)
		}
	} else {
		for j := l - 1; j >= 0; j-- {
			total += path[j].weight / (zeroFrac * float64(l-j))
		}
	}
	return total * float64(l+1)
}

func findFeature(path []pathElem, feature int) int {
	// Index 0 is the root placeholder, never a real feature.
	for i := 1; i < len(path); i++ {
		if path[i].feature == feature {
			return i
		}
	}
	return -1
}
