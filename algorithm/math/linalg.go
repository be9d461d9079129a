package math

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/wyfcoding/quant/xerrors"
)

// Matrix 行优先存储的稠密矩阵，用于小规模回归与二次型计算.
type Matrix struct {
	Data []float64
	Rows int
	Cols int
}

// NewMatrix 创建一个 r x c 的零矩阵.
func NewMatrix(rows, cols int) *Matrix {
	return &Matrix{
		Rows: rows,
		Cols: cols,
		Data: make([]float64, rows*cols),
	}
}

// NewMatrixFromData 从二维切片创建矩阵.
func NewMatrixFromData(data [][]float64) (*Matrix, error) {
	rows := len(data)
	if rows == 0 {
		return nil, xerrors.ErrEmptyData
	}

	cols := len(data[0])
	m := NewMatrix(rows, cols)
	for i := range rows {
		if len(data[i]) != cols {
			return nil, xerrors.ErrDimMismatch.With(nil, "row %d has %d columns, want %d", i, len(data[i]), cols)
		}
		copy(m.Data[i*cols:(i+1)*cols], data[i])
	}
	return m, nil
}

// Get 获取元素 (i, j).
func (m *Matrix) Get(row, col int) float64 {
	return m.Data[row*m.Cols+col]
}

// Set 设置元素 (i, j).
func (m *Matrix) Set(row, col int, val float64) {
	m.Data[row*m.Cols+col] = val
}

// Transpose 矩阵转置.
func (m *Matrix) Transpose() *Matrix {
	res := NewMatrix(m.Cols, m.Rows)
	for i := range m.Rows {
		for j := range m.Cols {
			res.Set(j, i, m.Get(i, j))
		}
	}
	return res
}

// MultiplyVector 矩阵向量乘法: y = A * x.
func (m *Matrix) MultiplyVector(vec []float64) ([]float64, error) {
	if len(vec) != m.Cols {
		return nil, xerrors.ErrDimMismatch
	}

	res := make([]float64, m.Rows)
	for i := range m.Rows {
		var sum float64
		row := m.Data[i*m.Cols : (i+1)*m.Cols]
		for j, v := range row {
			sum += v * vec[j]
		}
		res[i] = sum
	}
	return res, nil
}

// Multiply 矩阵乘法: C = A * B.
func (m *Matrix) Multiply(other *Matrix) (*Matrix, error) {
	if m.Cols != other.Rows {
		return nil, xerrors.ErrDimMismatch
	}

	res := NewMatrix(m.Rows, other.Cols)
	for i := range m.Rows {
		for k := range m.Cols {
			a := m.Data[i*m.Cols+k]
			for j := range other.Cols {
				res.Data[i*res.Cols+j] += a * other.Data[k*other.Cols+j]
			}
		}
	}
	return res, nil
}

// QuadraticForm 计算 vᵀ·M·v.
func (m *Matrix) QuadraticForm(v []float64) (float64, error) {
	if m.Rows != m.Cols || len(v) != m.Rows {
		return 0, xerrors.ErrDimMismatch.With(nil, "quadratic form %dx%d with vector %d", m.Rows, m.Cols, len(v))
	}
	mv, err := m.MultiplyVector(v)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i, x := range v {
		sum += x * mv[i]
	}
	return sum, nil
}

// Cholesky 分解: A = L * L^T.
func (m *Matrix) Cholesky() (*Matrix, error) {
	if m.Rows != m.Cols {
		return nil, xerrors.ErrNotSquare
	}

	n := m.Rows
	res := NewMatrix(n, n)
	for i := range n {
		for j := range i + 1 {
			var sum float64
			for k := range j {
				sum += res.Get(i, k) * res.Get(j, k)
			}
			if i == j {
				val := m.Get(i, i) - sum
				if val <= 0 {
					return nil, xerrors.ErrNotPositiveDefinite
				}
				res.Set(i, j, math.Sqrt(val))
			} else {
				res.Set(i, j, (m.Get(i, j)-sum)/res.Get(j, j))
			}
		}
	}
	return res, nil
}

// SolveCholesky 对称正定矩阵求解 Mx = b：先解 Ly = b，再解 Lᵀx = y.
func (m *Matrix) SolveCholesky(b []float64) ([]float64, error) {
	if len(b) != m.Rows {
		return nil, xerrors.ErrDimMismatch
	}
	l, err := m.Cholesky()
	if err != nil {
		return nil, err
	}

	n := m.Rows
	y := make([]float64, n)
	for i := range n {
		var sum float64
		for j := range i {
			sum += l.Get(i, j) * y[j]
		}
		y[i] = (b[i] - sum) / l.Get(i, i)
	}

	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		var sum float64
		for j := i + 1; j < n; j++ {
			sum += l.Get(j, i) * x[j]
		}
		x[i] = (y[i] - sum) / l.Get(i, i)
	}
	return x, nil
}

// Dense 转换为 gonum 稠密矩阵，共享底层数据.
func (m *Matrix) Dense() *mat.Dense {
	return mat.NewDense(m.Rows, m.Cols, m.Data)
}

// Inverse 返回逆矩阵.
func (m *Matrix) Inverse() (*Matrix, error) {
	if m.Rows != m.Cols {
		return nil, xerrors.ErrNotSquare
	}
	var inv mat.Dense
	if err := invert(&inv, m.Dense()); err != nil {
		return nil, err
	}
	out := NewMatrix(m.Rows, m.Cols)
	for i := range m.Rows {
		for j := range m.Cols {
			out.Set(i, j, inv.At(i, j))
		}
	}
	return out, nil
}

// Tridiagonal 由下、主、上对角线构造 n x n 矩阵，lower[i] 位于 (i, i-1)，upper[i] 位于 (i, i+1).
func Tridiagonal(lower, diag, upper []float64) *Matrix {
	n := len(diag)
	m := NewMatrix(n, n)
	for i := range n {
		m.Set(i, i, diag[i])
		if i > 0 {
			m.Set(i, i-1, lower[i])
		}
		if i < n-1 {
			m.Set(i, i+1, upper[i])
		}
	}
	return m
}
