package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config はアプリケーション全体の設定を保持する構造体
// 起動時に一度だけ解決され、以降は変更されない
type Config struct {
	Experiment ExperimentConfig `yaml:"experiment"`
	Camera     CameraConfig     `yaml:"camera"`
	Storage    StorageConfig    `yaml:"storage"`
	Git        GitConfig        `yaml:"git"`
	Server     ServerConfig     `yaml:"server"`
}

// ExperimentConfig は実験セッションの設定
type ExperimentConfig struct {
	Name     string `yaml:"name"`     // 実験名（出力ディレクトリ名に使われる）
	Interval int    `yaml:"interval"` // 撮影間隔（秒、1以上）
}

// CameraConfig はカメラ関連の設定
type CameraConfig struct {
	Device      string `yaml:"device"`       // デバイスパス (例: /dev/video0)
	Width       int    `yaml:"width"`        // 画像幅
	Height      int    `yaml:"height"`       // 画像高さ
	JPEGQuality int    `yaml:"jpeg_quality"` // JPEG品質 (1-100)
}

// StorageConfig はローカルストレージの設定
type StorageConfig struct {
	OutputRoot           string  `yaml:"output_root"`            // セッションディレクトリの親
	DiskThresholdPercent float64 `yaml:"disk_threshold_percent"` // ディスク使用率の閾値 (%)
	MountPoint           string  `yaml:"mount_point"`            // 使用率を計測するマウントポイント
	SafeDelete           bool    `yaml:"safe_delete"`            // 同期失敗時にローカル画像を保持する
}

// GitConfig はリポジトリ同期の設定
type GitConfig struct {
	Enabled bool   `yaml:"enabled"`  // 同期の有効/無効
	RepoDir string `yaml:"repo_dir"` // gitリポジトリのディレクトリ
}

// ServerConfig はステータスAPIサーバーの設定
type ServerConfig struct {
	Enabled bool   `yaml:"enabled"` // サーバーの有効/無効
	Host    string `yaml:"host"`    // リッスンするホスト
	Port    int    `yaml:"port"`    // リッスンするポート番号

	// タイムアウト設定
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // 読み込みタイムアウト
	WriteTimeout time.Duration `yaml:"write_timeout"` // 書き込みタイムアウト
}

// Load はデフォルト値と環境変数から設定を読み込む
// 実験名と撮影間隔はコマンドライン引数で与えられるため、
// 検証(Validate)は呼び出し側が引数を反映した後に行う
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile は設定ファイル(YAML)を重ねて設定を読み込む
// 優先順位: 環境変数 > 設定ファイル > デフォルト値
func LoadFile(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("設定ファイルの解析に失敗: %w", err)
		}
	}

	applyEnv(cfg)

	return cfg, nil
}

// defaultConfig はデフォルト設定を作成する
func defaultConfig() *Config {
	return &Config{
		Experiment: ExperimentConfig{},
		Camera: CameraConfig{
			Device:      "/dev/video0",
			Width:       1280,
			Height:      720,
			JPEGQuality: 90,
		},
		Storage: StorageConfig{
			OutputRoot:           "images",
			DiskThresholdPercent: 80,
			MountPoint:           "/",
			SafeDelete:           false,
		},
		Git: GitConfig{
			Enabled: true,
			RepoDir: ".",
		},
		Server: ServerConfig{
			Enabled:      false,
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// applyEnv は環境変数による上書きを適用する
func applyEnv(cfg *Config) {
	cfg.Camera.Device = getEnvOrDefault("TEITEN_DEVICE", cfg.Camera.Device)
	cfg.Storage.OutputRoot = getEnvOrDefault("TEITEN_OUTPUT_ROOT", cfg.Storage.OutputRoot)
	cfg.Storage.MountPoint = getEnvOrDefault("TEITEN_MOUNT_POINT", cfg.Storage.MountPoint)
	cfg.Storage.DiskThresholdPercent = getEnvAsFloatOrDefault("TEITEN_DISK_THRESHOLD", cfg.Storage.DiskThresholdPercent)
	cfg.Git.RepoDir = getEnvOrDefault("TEITEN_REPO_DIR", cfg.Git.RepoDir)
	cfg.Server.Host = getEnvOrDefault("SERVER_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvAsIntOrDefault("PORT", cfg.Server.Port)
}

// Validate は設定の妥当性を検証する
func (c *Config) Validate() error {
	// 実験設定の検証
	if c.Experiment.Name == "" {
		return fmt.Errorf("実験名が設定されていません")
	}
	if strings.ContainsAny(c.Experiment.Name, "/\\") || strings.Contains(c.Experiment.Name, "..") {
		return fmt.Errorf("実験名にパス要素を含めることはできません: %s", c.Experiment.Name)
	}
	if c.Experiment.Interval <= 0 {
		return fmt.Errorf("無効な撮影間隔: %d", c.Experiment.Interval)
	}

	// ストレージ設定の検証
	if c.Storage.DiskThresholdPercent <= 0 || c.Storage.DiskThresholdPercent > 100 {
		return fmt.Errorf("無効なディスク使用率閾値: %.1f", c.Storage.DiskThresholdPercent)
	}
	if c.Storage.OutputRoot == "" {
		return fmt.Errorf("出力先ディレクトリが設定されていません")
	}

	// カメラ設定の検証
	if c.Camera.Device == "" {
		return fmt.Errorf("カメラデバイスが設定されていません")
	}
	if c.Camera.JPEGQuality < 1 || c.Camera.JPEGQuality > 100 {
		return fmt.Errorf("無効なJPEG品質: %d", c.Camera.JPEGQuality)
	}

	// サーバー設定の検証
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("無効なポート番号: %d", c.Server.Port)
	}

	return nil
}

// IntervalDuration は撮影間隔をtime.Durationで返す
func (c *Config) IntervalDuration() time.Duration {
	return time.Duration(c.Experiment.Interval) * time.Second
}

// ServerAddress はサーバーのリッスンアドレスを返す
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// getEnvOrDefault は環境変数を取得し、設定されていない場合はデフォルト値を返す
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault は環境変数を整数として取得し、設定されていない場合はデフォルト値を返す
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvAsFloatOrDefault は環境変数を実数として取得し、設定されていない場合はデフォルト値を返す
func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var floatVal float64
		if _, err := fmt.Sscanf(value, "%g", &floatVal); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
