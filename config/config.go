// Package config 提供了统一的配置加载与管理能力.
// 定价参数以不可变结构体的形式传入各计算器，不存在全局可变的默认值.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/wyfcoding/quant/logging"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config 全局顶级配置结构.
type Config struct {
	Version string        `mapstructure:"version" toml:"version"`
	Log     LogConfig     `mapstructure:"log"     toml:"log"`
	Metrics MetricsConfig `mapstructure:"metrics" toml:"metrics"`
	Tracing TracingConfig `mapstructure:"tracing" toml:"tracing"`
	Pricing PricingConfig `mapstructure:"pricing" toml:"pricing"`
}

// LogConfig 定义日志输出与切割策略.
type LogConfig struct {
	Level      string `mapstructure:"level"       toml:"level"       validate:"oneof=debug info warn error"`
	File       string `mapstructure:"file"        toml:"file"`
	MaxSize    int    `mapstructure:"max_size"    toml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" toml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"     toml:"max_age"`
	Compress   bool   `mapstructure:"compress"    toml:"compress"`
	Stdout     bool   `mapstructure:"stdout"      toml:"stdout"`
}

// MetricsConfig 定义指标暴露参数.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" toml:"enabled"`
	Port    string `mapstructure:"port"    toml:"port"`
}

// TracingConfig 定义链路追踪参数. 未配置 Endpoint 且未注入导出器时 span 只用于日志关联.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"      toml:"enabled"`
	ServiceName string  `mapstructure:"service_name" toml:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio" toml:"sample_ratio" validate:"gte=0,lte=1"`
	Endpoint    string  `mapstructure:"endpoint"     toml:"endpoint"` // OTLP gRPC 地址，为空时不导出
	Insecure    bool    `mapstructure:"insecure"     toml:"insecure"`
}

// PricingConfig 汇总定价内核的全部数值参数.
type PricingConfig struct {
	Greek            GreekConfig            `mapstructure:"greek"             toml:"greek"`
	Newton           NewtonConfig           `mapstructure:"newton"            toml:"newton"`
	MonteCarlo       MonteCarloConfig       `mapstructure:"montecarlo"        toml:"montecarlo"`
	FiniteDifference FiniteDifferenceConfig `mapstructure:"finite_difference" toml:"finite_difference"`
	Heston           HestonConfig           `mapstructure:"heston"            toml:"heston"`
	Series           SeriesConfig           `mapstructure:"series"            toml:"series"`
	Worker           WorkerConfig           `mapstructure:"worker"            toml:"worker"`
	History          HistoryConfig          `mapstructure:"history"           toml:"history"`
}

// GreekConfig 希腊值的相对扰动幅度.
type GreekConfig struct {
	Spot     float64 `mapstructure:"spot"     toml:"spot"     validate:"gt=0,lt=1"`
	Vol      float64 `mapstructure:"vol"      toml:"vol"      validate:"gt=0,lt=1"`
	Time     float64 `mapstructure:"time"     toml:"time"     validate:"gt=0,lt=1"`
	Rate     float64 `mapstructure:"rate"     toml:"rate"     validate:"gt=0,lt=1"`
	Dividend float64 `mapstructure:"dividend" toml:"dividend" validate:"gt=0,lt=1"`
}

// NewtonConfig 牛顿/二分混合求根参数.
type NewtonConfig struct {
	Iterations int     `mapstructure:"iterations"  toml:"iterations"  validate:"min=1,max=10000"`
	Tolerance  float64 `mapstructure:"tolerance"   toml:"tolerance"   validate:"gt=0"`
	InitialVol float64 `mapstructure:"initial_vol" toml:"initial_vol" validate:"gt=0"`
	LowerVol   float64 `mapstructure:"lower_vol"   toml:"lower_vol"   validate:"gt=0"`
	UpperVol   float64 `mapstructure:"upper_vol"   toml:"upper_vol"   validate:"gtfield=LowerVol"`
}

// MonteCarloConfig 蒙特卡洛路径参数.
type MonteCarloConfig struct {
	Nodes           int     `mapstructure:"nodes"            toml:"nodes"            validate:"min=1,max=10000"`
	PathSize        int     `mapstructure:"path_size"        toml:"path_size"        validate:"min=1,max=500000"`
	ErrorMultiplier float64 `mapstructure:"error_multiplier" toml:"error_multiplier" validate:"gt=0"`
	Batches         int     `mapstructure:"batches"          toml:"batches"          validate:"min=1"`
	Seed            int64   `mapstructure:"seed"             toml:"seed"`
	LocalVol        bool    `mapstructure:"local_vol"        toml:"local_vol"`
}

// FiniteDifferenceConfig 有限差分网格参数.
type FiniteDifferenceConfig struct {
	TimePoints       int  `mapstructure:"time_points"        toml:"time_points"        validate:"min=3"`
	LowerPricePoints int  `mapstructure:"lower_price_points" toml:"lower_price_points" validate:"min=3"`
	LocalVol         bool `mapstructure:"local_vol"          toml:"local_vol"`
}

// HestonConfig Heston 积分参数.
type HestonConfig struct {
	Blocks   int     `mapstructure:"blocks"   toml:"blocks"   validate:"min=1,max=1000000"`
	Accuracy float64 `mapstructure:"accuracy" toml:"accuracy" validate:"gte=0.000001"`
}

// SeriesConfig 双障碍级数截断参数.
type SeriesConfig struct {
	MaxIteration int     `mapstructure:"max_iteration" toml:"max_iteration" validate:"min=1"`
	Tolerance    float64 `mapstructure:"tolerance"     toml:"tolerance"     validate:"gt=0"`
}

// WorkerConfig 进程级蒙特卡洛工作池参数.
type WorkerConfig struct {
	Size      int `mapstructure:"size"       toml:"size"       validate:"min=1"`
	QueueSize int `mapstructure:"queue_size" toml:"queue_size" validate:"min=1"`
}

// HistoryConfig 历史行情提供方的保护参数.
type HistoryConfig struct {
	RatePerSecond  float64       `mapstructure:"rate_per_second"  toml:"rate_per_second"  validate:"gt=0"`
	Burst          int           `mapstructure:"burst"            toml:"burst"            validate:"min=1"`
	MaxFailures    uint32        `mapstructure:"max_failures"     toml:"max_failures"     validate:"min=1"`
	OpenTimeout    time.Duration `mapstructure:"open_timeout"     toml:"open_timeout"`
	Retries        int           `mapstructure:"retries"          toml:"retries"          validate:"min=0,max=10"`
	Backoff        time.Duration `mapstructure:"backoff"          toml:"backoff"`
	TradingDays    float64       `mapstructure:"trading_days"     toml:"trading_days"     validate:"gt=0"`
	ProviderAPIKey string        `mapstructure:"provider_api_key" toml:"provider_api_key"`
}

// Default 返回内置默认配置，配置文件因此是可选的.
func Default() Config {
	return Config{
		Version: "dev",
		Log:     LogConfig{Level: "info", Stdout: true},
		Metrics: MetricsConfig{Port: "9090"},
		Tracing: TracingConfig{ServiceName: "quant-pricing", SampleRatio: 1},
		Pricing: DefaultPricing(),
	}
}

// DefaultPricing 返回定价内核的默认参数.
func DefaultPricing() PricingConfig {
	return PricingConfig{
		Greek:            GreekConfig{Spot: 1e-4, Vol: 1e-4, Time: 1e-4, Rate: 1e-4, Dividend: 1e-4},
		Newton:           NewtonConfig{Iterations: 1000, Tolerance: 1e-12, InitialVol: 0.2, LowerVol: 0.001, UpperVol: 4},
		MonteCarlo:       MonteCarloConfig{Nodes: 500, PathSize: 10000, ErrorMultiplier: 3, Batches: 50},
		FiniteDifference: FiniteDifferenceConfig{TimePoints: 501, LowerPricePoints: 100},
		Heston:           HestonConfig{Blocks: 10000, Accuracy: 1e-4},
		Series:           SeriesConfig{MaxIteration: 50, Tolerance: 1e-8},
		Worker:           WorkerConfig{Size: 8, QueueSize: 256},
		History:          HistoryConfig{RatePerSecond: 5, Burst: 5, MaxFailures: 3, OpenTimeout: 30 * time.Second, Retries: 2, Backoff: 200 * time.Millisecond, TradingDays: 252},
	}
}

// Normalized 返回夹紧到允许区间后的副本.
func (p PricingConfig) Normalized() PricingConfig {
	const minBump = 2.220446049250313e-16
	floor := func(v, lo, def float64) float64 {
		if v == 0 {
			return def
		}
		if v < lo {
			return lo
		}
		return v
	}
	d := DefaultPricing()
	p.Greek.Spot = floor(p.Greek.Spot, minBump, d.Greek.Spot)
	p.Greek.Vol = floor(p.Greek.Vol, minBump, d.Greek.Vol)
	p.Greek.Time = floor(p.Greek.Time, minBump, d.Greek.Time)
	p.Greek.Rate = floor(p.Greek.Rate, minBump, d.Greek.Rate)
	p.Greek.Dividend = floor(p.Greek.Dividend, minBump, d.Greek.Dividend)

	p.Newton.Iterations = clampInt(p.Newton.Iterations, 1, 10000, d.Newton.Iterations)
	// 显式设置的容差不低于 1e-10，默认值 1e-12 保持不变
	if p.Newton.Tolerance != d.Newton.Tolerance {
		p.Newton.Tolerance = floor(p.Newton.Tolerance, 1e-10, d.Newton.Tolerance)
	}
	p.Newton.InitialVol = floor(p.Newton.InitialVol, 1e-4, d.Newton.InitialVol)
	p.Newton.LowerVol = floor(p.Newton.LowerVol, 1e-6, d.Newton.LowerVol)
	if p.Newton.UpperVol <= p.Newton.LowerVol {
		p.Newton.UpperVol = d.Newton.UpperVol
	}

	p.MonteCarlo.Nodes = clampInt(p.MonteCarlo.Nodes, 1, 10000, d.MonteCarlo.Nodes)
	p.MonteCarlo.PathSize = clampInt(p.MonteCarlo.PathSize, 1, 500000, d.MonteCarlo.PathSize)
	p.MonteCarlo.Batches = clampInt(p.MonteCarlo.Batches, 1, p.MonteCarlo.PathSize, d.MonteCarlo.Batches)
	p.MonteCarlo.ErrorMultiplier = floor(p.MonteCarlo.ErrorMultiplier, 1e-6, d.MonteCarlo.ErrorMultiplier)

	p.FiniteDifference.TimePoints = clampInt(p.FiniteDifference.TimePoints, 3, 100000, d.FiniteDifference.TimePoints)
	p.FiniteDifference.LowerPricePoints = clampInt(p.FiniteDifference.LowerPricePoints, 3, 10000, d.FiniteDifference.LowerPricePoints)

	p.Heston.Blocks = clampInt(p.Heston.Blocks, 1, 1000000, d.Heston.Blocks)
	p.Heston.Accuracy = floor(p.Heston.Accuracy, 1e-6, d.Heston.Accuracy)

	p.Series.MaxIteration = clampInt(p.Series.MaxIteration, 1, 10000, d.Series.MaxIteration)
	p.Series.Tolerance = floor(p.Series.Tolerance, minBump, d.Series.Tolerance)

	p.Worker.Size = clampInt(p.Worker.Size, 1, 4096, d.Worker.Size)
	p.Worker.QueueSize = clampInt(p.Worker.QueueSize, 1, 1<<20, d.Worker.QueueSize)
	// 一次模拟的全部批次必须能同时入队
	p.Worker.QueueSize = max(p.Worker.QueueSize, p.MonteCarlo.Batches)
	return p
}

func clampInt(v, lo, hi, def int) int {
	switch {
	case v == 0:
		return def
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}

var (
	vInstance = viper.New()
	hookMu    sync.Mutex
	onReload  []func(*Config)
	validate  = validator.New()
)

// RegisterReloadHook 注册配置热更新回调。
func RegisterReloadHook(hook func(*Config)) {
	if hook == nil {
		return
	}
	hookMu.Lock()
	onReload = append(onReload, hook)
	hookMu.Unlock()
}

// Validate 按结构体标签校验配置.
func Validate(conf *Config) error {
	if err := validate.Struct(conf); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Load 读取 toml 配置文件并叠加 APP_ 前缀的环境变量，未出现的键保留默认值.
// 加载成功后监听文件变化并热更新日志级别与注册的回调.
func Load(path string, conf *Config) error {
	*conf = Default()

	vInstance.SetConfigFile(path)
	vInstance.SetConfigType("toml")

	vInstance.SetEnvPrefix("APP")
	vInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vInstance.AutomaticEnv()

	if err := vInstance.ReadInConfig(); err != nil {
		return fmt.Errorf("read config error: %w", err)
	}

	if err := vInstance.Unmarshal(conf); err != nil {
		return fmt.Errorf("unmarshal config error: %w", err)
	}

	if err := Validate(conf); err != nil {
		return err
	}

	vInstance.WatchConfig()
	vInstance.OnConfigChange(func(event fsnotify.Event) {
		slog.Info("detecting config change", "file", event.Name)
		const debounceTimeout = 500 * time.Millisecond
		time.Sleep(debounceTimeout)

		next := Default()
		if unmarshalErr := vInstance.Unmarshal(&next); unmarshalErr != nil {
			slog.Error("reload config unmarshal failed", "error", unmarshalErr)
			return
		}
		if validateErr := Validate(&next); validateErr != nil {
			slog.Error("reload config validation failed", "error", validateErr)
			return
		}

		logging.SetLevel(next.Log.Level)
		slog.Info("config hot-reloaded and validated successfully")
		notifyReload(&next)
	})

	return nil
}

func notifyReload(cfg *Config) {
	hookMu.Lock()
	hooks := append([]func(*Config){}, onReload...)
	hookMu.Unlock()
	for _, hook := range hooks {
		hook(cfg)
	}
}

// GetViper 返回底层 viper 实例，便于读取扩展键.
func GetViper() *viper.Viper {
	return vInstance
}

// LoggingConfig 将日志配置转换为 logging.Config.
func (c *Config) LoggingConfig(service string) logging.Config {
	return logging.Config{
		Service:    service,
		Module:     "pricing",
		Level:      c.Log.Level,
		File:       c.Log.File,
		MaxSize:    c.Log.MaxSize,
		MaxBackups: c.Log.MaxBackups,
		MaxAge:     c.Log.MaxAge,
		Compress:   c.Log.Compress,
		Stdout:     c.Log.Stdout,
	}
}

// PrintWithMask 脱敏打印当前配置.
func PrintWithMask(conf any) {
	masked, err := MaskedJSON(conf)
	if err != nil {
		slog.Error("failed to mask config for printing", "error", err)
		return
	}
	slog.Info("Current effective configuration", "config", masked)
}

// MaskedJSON 返回敏感字段被替换后的缩进 JSON.
func MaskedJSON(conf any) (string, error) {
	data, err := json.Marshal(conf)
	if err != nil {
		return "", err
	}

	var configMap map[string]any
	if err := json.Unmarshal(data, &configMap); err != nil {
		return "", err
	}

	mask(configMap)

	maskedJSON, err := json.MarshalIndent(configMap, "  ", "  ")
	if err != nil {
		return "", err
	}
	return string(maskedJSON), nil
}

func mask(configMap map[string]any) {
	sensitiveKeys := []string{"password", "secret", "dsn", "key", "token"}

	for key, val := range configMap {
		if subMap, ok := val.(map[string]any); ok {
			mask(subMap)
			continue
		}

		if slice, ok := val.([]any); ok {
			for _, item := range slice {
				if itemMap, ok := item.(map[string]any); ok {
					mask(itemMap)
				}
			}
			continue
		}

		for _, sensitiveKey := range sensitiveKeys {
			if strings.Contains(strings.ToLower(key), sensitiveKey) {
				configMap[key] = "******"
				break
			}
		}
	}
}
