package scoring

import "fmt"

// ==========================
// Test Collaborators
// ==========================

type fakeClassifier struct {
	width int
	dist  []float64
	err   error
	panic bool
}

func (c *fakeClassifier) NFeatures() int { return c.width }

func (c *fakeClassifier) PredictProba(row []float64) ([]float64, error) {
	if c.panic {
		panic("model exploded")
	}
	if c.err != nil {
		return nil, c.err
	}
	return c.dist, nil
}

type fakeRegressor struct {
	width int
	value float64
	err   error
	panic bool
}

func (r *fakeRegressor) NFeatures() int { return r.width }

func (r *fakeRegressor) Predict(row []float64) (float64, error) {
	if r.panic {
		panic("regressor missing attribute")
	}
	if r.err != nil {
		return 0, r.err
	}
	return r.value, nil
}

var errModel = fmt.Errorf("attribute incompatibility")
