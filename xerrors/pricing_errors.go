package xerrors

var (
	// ErrEmptyData 输入数据为空。
	ErrEmptyData = New(ErrInvalidArg, 400001, "empty data", "input data must not be empty", nil)
	// ErrInvalidInput 输入格式错误。
	ErrInvalidInput = New(ErrInvalidArg, 400002, "invalid input", "check your input parameters", nil)
	// ErrInvalidOptionType 无效的期权类型。
	ErrInvalidOptionType = New(ErrInvalidArg, 400004, "invalid option type", "supported types: call, put", nil)
	// ErrInvalidConfig 配置错误。
	ErrInvalidConfig = New(ErrInvalidArg, 400005, "invalid config", "pricing config failed validation", nil)
	// ErrDimMismatch 维度不匹配.
	ErrDimMismatch = New(ErrInvalidArg, 400007, "dimension mismatch", "matrix or vector dimensions do not match", nil)
	// ErrNotSquare 不是方阵.
	ErrNotSquare = New(ErrInvalidArg, 400008, "matrix must be square", "input matrix is not square", nil)
	// ErrNotPositiveDefinite 不是正定矩阵.
	ErrNotPositiveDefinite = New(ErrInvalidArg, 400009, "matrix is not positive definite", "input matrix must be positive definite", nil)
	// ErrInvalidOption 期权合约参数不合法。
	ErrInvalidOption = New(ErrInvalidArg, 400020, "invalid option", "spot, strike, maturity and volatility must be positive", nil)
	// ErrInvalidSurface 波动率曲面不合法。
	ErrInvalidSurface = New(ErrInvalidArg, 400021, "invalid volatility surface", "surface shape must match its knots", nil)
	// ErrInvalidMethod 插值或外推方法不存在。
	ErrInvalidMethod = New(ErrInvalidArg, 400022, "invalid interpolation method", "supported: nature, nak, tangent, horizontal", nil)
	// ErrMethodNotFound 期权不支持所请求的定价方法。
	ErrMethodNotFound = New(ErrNotFound, 404001, "pricing method not found", "the option has no such analytic method", nil)
	// ErrUnsupported 计算器不支持该操作。
	ErrUnsupported = New(ErrNotImplemented, 501001, "unsupported method", "the calculator cannot evaluate this option", nil)
	// ErrMathConvergence 数学计算未收敛。
	ErrMathConvergence = New(ErrInternal, 500002, "math convergence failed", "algorithm failed to converge", nil)
	// ErrMaxIteration 迭代达到上限，结果可能未收敛。
	ErrMaxIteration = New(ErrInternal, 500003, "reached max iteration", "iteration cap hit before tolerance", nil)
	// ErrSingular 迭代中出现零导数或非有限值。
	ErrSingular = New(ErrInternal, 500004, "singular iteration", "zero derivative or non-finite value", nil)
	// ErrNaNResult 计算结果为 NaN。
	ErrNaNResult = New(ErrInternal, 500008, "result is NaN", "a pricing formula produced NaN", nil)
	// ErrCalculation 定价过程失败。
	ErrCalculation = New(ErrInternal, 500009, "calculation failed", "pricing routine returned an error", nil)
	// ErrPoolFull 工作池已满，任务被拒绝。
	ErrPoolFull = New(ErrLimitExceeded, 429001, "worker pool is full", "monte carlo batch rejected", nil)
	// ErrProviderUnavailable 历史行情源不可用。
	ErrProviderUnavailable = New(ErrUnavailable, 503001, "price provider unavailable", "history source returned no data", nil)
)
