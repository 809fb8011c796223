package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// validConfig はテスト用の正常な設定を作成する
func validConfig() *Config {
	cfg, _ := Load()
	cfg.Experiment.Name = "trial1"
	cfg.Experiment.Interval = 5
	return cfg
}

// TestConfigLoad は設定の読み込みをテストする
func TestConfigLoad(t *testing.T) {
	// 設定を読み込む
	cfg, err := Load()
	if err != nil {
		t.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	// 基本的な設定値を検証
	if cfg == nil {
		t.Fatal("設定がnilです")
	}

	// カメラ設定の検証
	if cfg.Camera.Device == "" {
		t.Error("カメラデバイスが設定されていません")
	}
	if cfg.Camera.Width <= 0 || cfg.Camera.Height <= 0 {
		t.Error("デフォルト解像度が設定されていません")
	}
	if cfg.Camera.JPEGQuality < 1 || cfg.Camera.JPEGQuality > 100 {
		t.Errorf("無効なJPEG品質: %d", cfg.Camera.JPEGQuality)
	}

	// ストレージ設定の検証
	if cfg.Storage.OutputRoot == "" {
		t.Error("出力先ディレクトリが設定されていません")
	}
	if cfg.Storage.DiskThresholdPercent <= 0 || cfg.Storage.DiskThresholdPercent > 100 {
		t.Errorf("無効なディスク使用率閾値: %.1f", cfg.Storage.DiskThresholdPercent)
	}
	if cfg.Storage.MountPoint == "" {
		t.Error("マウントポイントが設定されていません")
	}
	// SafeDelete はデフォルトで無効（元の挙動の再現）
	if cfg.Storage.SafeDelete {
		t.Error("safe_deleteのデフォルトは無効であるべきです")
	}

	// サーバー設定の検証
	if cfg.Server.Enabled {
		t.Error("サーバーのデフォルトは無効であるべきです")
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		t.Errorf("無効なポート番号: %d", cfg.Server.Port)
	}
}

// TestLoadFile は設定ファイルの読み込みをテストする
func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
camera:
  device: /dev/video2
  jpeg_quality: 75
storage:
  disk_threshold_percent: 70
  safe_delete: true
git:
  enabled: false
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("設定ファイルの作成に失敗しました: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("設定ファイルの読み込みに失敗しました: %v", err)
	}

	if cfg.Camera.Device != "/dev/video2" {
		t.Errorf("カメラデバイスが反映されていません: got %s", cfg.Camera.Device)
	}
	if cfg.Camera.JPEGQuality != 75 {
		t.Errorf("JPEG品質が反映されていません: got %d", cfg.Camera.JPEGQuality)
	}
	if cfg.Storage.DiskThresholdPercent != 70 {
		t.Errorf("ディスク使用率閾値が反映されていません: got %.1f", cfg.Storage.DiskThresholdPercent)
	}
	if !cfg.Storage.SafeDelete {
		t.Error("safe_deleteが反映されていません")
	}
	if cfg.Git.Enabled {
		t.Error("git.enabledが反映されていません")
	}

	// ファイルに無い項目はデフォルト値のまま
	if cfg.Storage.OutputRoot != "images" {
		t.Errorf("出力先ディレクトリのデフォルト値が失われています: got %s", cfg.Storage.OutputRoot)
	}
}

// TestLoadFileNotFound は存在しない設定ファイルの扱いをテストする
func TestLoadFileNotFound(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Error("エラーが期待されましたが、エラーが発生しませんでした")
	}
}

// TestConfigValidation は設定の検証をテストする
func TestConfigValidation(t *testing.T) {
	testCases := []struct {
		name      string
		mutate    func(cfg *Config)
		expectErr bool
	}{
		{
			name:      "正常な設定",
			mutate:    func(cfg *Config) {},
			expectErr: false,
		},
		{
			name:      "実験名なし",
			mutate:    func(cfg *Config) { cfg.Experiment.Name = "" },
			expectErr: true,
		},
		{
			name:      "実験名にパス区切り",
			mutate:    func(cfg *Config) { cfg.Experiment.Name = "a/b" },
			expectErr: true,
		},
		{
			name:      "実験名に親ディレクトリ参照",
			mutate:    func(cfg *Config) { cfg.Experiment.Name = ".." },
			expectErr: true,
		},
		{
			name:      "撮影間隔ゼロ",
			mutate:    func(cfg *Config) { cfg.Experiment.Interval = 0 },
			expectErr: true,
		},
		{
			name:      "撮影間隔が負",
			mutate:    func(cfg *Config) { cfg.Experiment.Interval = -1 },
			expectErr: true,
		},
		{
			name:      "閾値が100超",
			mutate:    func(cfg *Config) { cfg.Storage.DiskThresholdPercent = 120 },
			expectErr: true,
		},
		{
			name:      "閾値がゼロ",
			mutate:    func(cfg *Config) { cfg.Storage.DiskThresholdPercent = 0 },
			expectErr: true,
		},
		{
			name:      "カメラデバイスなし",
			mutate:    func(cfg *Config) { cfg.Camera.Device = "" },
			expectErr: true,
		},
		{
			name:      "無効なJPEG品質",
			mutate:    func(cfg *Config) { cfg.Camera.JPEGQuality = 0 },
			expectErr: true,
		},
		{
			name:      "無効なポート番号",
			mutate:    func(cfg *Config) { cfg.Server.Port = 99999 },
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)

			err := cfg.Validate()
			if tc.expectErr && err == nil {
				t.Error("エラーが期待されましたが、エラーが発生しませんでした")
			}
			if !tc.expectErr && err != nil {
				t.Errorf("予期しないエラーが発生しました: %v", err)
			}
		})
	}
}

// TestIntervalDuration は撮影間隔の変換をテストする
func TestIntervalDuration(t *testing.T) {
	cfg := validConfig()
	cfg.Experiment.Interval = 5

	if cfg.IntervalDuration() != 5*time.Second {
		t.Errorf("撮影間隔が一致しません: got %v, want 5s", cfg.IntervalDuration())
	}
}

// TestServerAddress はサーバーアドレスの生成をテストする
func TestServerAddress(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{
			Host: "192.168.1.100",
			Port: 9090,
		},
	}

	expected := "192.168.1.100:9090"
	actual := cfg.ServerAddress()

	if actual != expected {
		t.Errorf("サーバーアドレスが一致しません: got %s, want %s", actual, expected)
	}
}

// TestEnvironmentVariables は環境変数の処理をテストする
// 注意: このテストは環境変数を変更するため、parallelは使わない
func TestEnvironmentVariables(t *testing.T) {
	// テスト用の環境変数を設定
	originalDevice := os.Getenv("TEITEN_DEVICE")
	originalThreshold := os.Getenv("TEITEN_DISK_THRESHOLD")
	originalHost := os.Getenv("SERVER_HOST")

	defer func() {
		// テスト後に環境変数を復元
		_ = os.Setenv("TEITEN_DEVICE", originalDevice)
		_ = os.Setenv("TEITEN_DISK_THRESHOLD", originalThreshold)
		_ = os.Setenv("SERVER_HOST", originalHost)
	}()

	// 環境変数を設定
	_ = os.Setenv("TEITEN_DEVICE", "/dev/video9")
	_ = os.Setenv("TEITEN_DISK_THRESHOLD", "65.5")
	_ = os.Setenv("SERVER_HOST", "test.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	if cfg.Camera.Device != "/dev/video9" {
		t.Errorf("環境変数のデバイスが反映されていません: got %s, want /dev/video9", cfg.Camera.Device)
	}
	if cfg.Storage.DiskThresholdPercent != 65.5 {
		t.Errorf("環境変数の閾値が反映されていません: got %.1f, want 65.5", cfg.Storage.DiskThresholdPercent)
	}
	if cfg.Server.Host != "test.example.com" {
		t.Errorf("環境変数のホストが反映されていません: got %s, want test.example.com", cfg.Server.Host)
	}
}
