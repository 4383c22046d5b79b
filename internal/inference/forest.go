package inference

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

const leaf = -1

// treeFile mirrors the arrays of a fitted sklearn tree_. Value holds one
// class-count (or class-fraction) row per node.
type treeFile struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

type tree struct {
	left, right []int
	feature     []int
	threshold   []float64
	proba       [][]float64
}

// forest averages the leaf distributions of its trees. A decision tree is a
// forest of one.
type forest struct {
	kind      string
	nFeatures int
	classes   []int
	trees     []tree
}

func newForest(f modelFile) (*forest, error) {
	if len(f.Trees) == 0 {
		return nil, fmt.Errorf("%s has no trees", f.Kind)
	}
	if f.Kind == KindDecisionTree && len(f.Trees) != 1 {
		return nil, fmt.Errorf("decision_tree must have exactly one tree, got %d", len(f.Trees))
	}
	fo := &forest{kind: f.Kind, nFeatures: f.NFeatures, classes: f.Classes, trees: make([]tree, len(f.Trees))}
	for i, tf := range f.Trees {
		t, err := newTree(tf, f.NFeatures, len(f.Classes))
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		fo.trees[i] = t
	}
	return fo, nil
}

func newTree(tf treeFile, nFeatures, nClasses int) (tree, error) {
	n := len(tf.ChildrenLeft)
	if n == 0 {
		return tree{}, fmt.Errorf("empty tree")
	}
	if len(tf.ChildrenRight) != n || len(tf.Feature) != n || len(tf.Threshold) != n || len(tf.Value) != n {
		return tree{}, fmt.Errorf("node arrays disagree in length")
	}
	proba := make([][]float64, n)
	for i := range n {
		l, r := tf.ChildrenLeft[i], tf.ChildrenRight[i]
		if l == leaf {
			if r != leaf {
				return tree{}, fmt.Errorf("node %d has only one child", i)
			}
		} else {
			if l <= i || l >= n || r <= i || r >= n {
				return tree{}, fmt.Errorf("node %d has child out of range", i)
			}
			if f := tf.Feature[i]; f < 0 || f >= nFeatures {
				return tree{}, fmt.Errorf("node %d splits on feature %d of %d", i, f, nFeatures)
			}
		}
		if len(tf.Value[i]) != nClasses {
			return tree{}, fmt.Errorf("node %d has %d class values, want %d", i, len(tf.Value[i]), nClasses)
		}
		proba[i] = normalize(tf.Value[i])
	}
	return tree{
		left:      tf.ChildrenLeft,
		right:     tf.ChildrenRight,
		feature:   tf.Feature,
		threshold: tf.Threshold,
		proba:     proba,
	}, nil
}

func normalize(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x
	}
	out := make([]float64, len(v))
	if sum == 0 {
		return out
	}
	for i, x := range v {
		out[i] = x / sum
	}
	return out
}

// leafProba walks from the root; samples with x[feature] <= threshold go left.
// Features are compared at float32 precision, as the trees were fitted.
// Children always have a larger index than their parent, so the walk terminates.
func (t tree) leafProba(x []float64) []float64 {
	node := 0
	for t.left[node] != leaf {
		if float64(float32(x[t.feature[node]])) <= t.threshold[node] {
			node = t.left[node]
		} else {
			node = t.right[node]
		}
	}
	return t.proba[node]
}

func (f *forest) Kind() string     { return f.kind }
func (f *forest) NumFeatures() int { return f.nFeatures }
func (f *forest) Classes() []int   { return f.classes }

func (f *forest) PredictProba(x mat.Matrix) *mat.Dense {
	rows, cols := x.Dims()
	out := mat.NewDense(rows, len(f.classes), nil)
	sample := make([]float64, cols)
	weight := 1 / float64(len(f.trees))
	for i := range rows {
		mat.Row(sample, i, x)
		for _, t := range f.trees {
			for k, p := range t.leafProba(sample) {
				out.Set(i, k, out.At(i, k)+p*weight)
			}
		}
	}
	return out
}
