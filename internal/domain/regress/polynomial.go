package regress

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Polynomial is y = sum c[i] * x^i in a single input.
type Polynomial struct {
	Coeffs []float64 `json:"coeffs"`
}

// FitPolynomial returns the least-squares polynomial of the given degree
// through (x, y), solved by QR decomposition.
func FitPolynomial(degree int, x, y []float64) (*Polynomial, error) {
	n := len(x)
	if n != len(y) || n < degree+1 || degree < 0 {
		return nil, fmt.Errorf("degree %d fit over %d points: %w", degree, n, ErrInsufficientData)
	}

	a := mat.NewDense(n, degree+1, nil)
	for i, xi := range x {
		v := 1.0
		for j := 0; j <= degree; j++ {
			a.Set(i, j, v)
			v *= xi
		}
	}
	b := mat.NewVecDense(n, append([]float64(nil), y...))

	var qr mat.QR
	qr.Factorize(a)
	c := mat.NewDense(degree+1, 1, nil)
	if err := qr.SolveTo(c, false, b); err != nil {
		return nil, fmt.Errorf("polynomial least squares: %w", err)
	}
	return &Polynomial{Coeffs: mat.Col(nil, 0, c)}, nil
}

// Eval evaluates the polynomial by Horner's rule.
func (p *Polynomial) Eval(x float64) float64 {
	var v float64
	for i := len(p.Coeffs) - 1; i >= 0; i-- {
		v = v*x + p.Coeffs[i]
	}
	return v
}

// Predict implements emulator.Predictor.
func (p *Polynomial) Predict(in []float64) ([]float64, error) {
	if len(in) != 1 {
		return nil, fmt.Errorf("polynomial got %d inputs, want 1: %w", len(in), ErrDimension)
	}
	return []float64{p.Eval(in[0])}, nil
}
