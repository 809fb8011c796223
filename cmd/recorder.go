// Package main は定点撮影レコーダーコマンドの実装です
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"teiten/internal/camera"
	"teiten/internal/config"
	"teiten/internal/diskguard"
	"teiten/internal/gitsync"
	"teiten/internal/recorder"
	"teiten/internal/server"
)

func main() {
	// コマンドラインオプション
	var (
		configPath = flag.String("config", "", "設定ファイル(YAML)のパス")
		device     = flag.String("device", "", "カメラデバイス (デフォルト: /dev/video0)")
		threshold  = flag.Float64("threshold", 0, "ディスク使用率の閾値% (デフォルト: 80)")
		safeDelete = flag.Bool("safe-delete", false, "同期失敗時にローカル画像を保持する")
		noGit      = flag.Bool("no-git", false, "リポジトリ同期を無効にする")
		serve      = flag.Bool("serve", false, "ステータスAPIサーバーを起動する")
		host       = flag.String("host", "", "サーバーのホスト (デフォルト: 0.0.0.0)")
		port       = flag.Int("port", 0, "サーバーのポート (デフォルト: 8080)")
		help       = flag.Bool("help", false, "ヘルプを表示")
	)

	flag.Parse()

	// ヘルプ表示
	if *help {
		fmt.Println("Teiten - 定点撮影レコーダー")
		fmt.Println()
		fmt.Println("使用方法:")
		fmt.Println("  recorder [オプション] <実験名> <撮影間隔(秒)>")
		fmt.Println()
		fmt.Println("オプション:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "使用方法: recorder [オプション] <実験名> <撮影間隔(秒)>")
		os.Exit(1)
	}

	interval, err := strconv.Atoi(args[1])
	if err != nil {
		log.Fatalf("撮影間隔は整数で指定してください: %v", err)
	}

	// 設定を読み込む
	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	// コマンドラインオプションで設定を上書き
	cfg.Experiment.Name = args[0]
	cfg.Experiment.Interval = interval
	if *device != "" {
		cfg.Camera.Device = *device
	}
	if *threshold != 0 {
		cfg.Storage.DiskThresholdPercent = *threshold
	}
	if *safeDelete {
		cfg.Storage.SafeDelete = true
	}
	if *noGit {
		cfg.Git.Enabled = false
	}
	if *serve {
		cfg.Server.Enabled = true
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("設定の検証に失敗しました: %v", err)
	}

	// シグナルで停止できるコンテキストを作成
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// セッションを初期化
	session := recorder.NewSession(cfg.Experiment.Name, cfg.Storage.OutputRoot, time.Now())
	if err := session.Bootstrap(); err != nil {
		log.Fatalf("セッションの初期化に失敗しました: %v", err)
	}

	// カメラを初期化（失敗したら起動しない）
	source := camera.NewV4L2Still(cfg.Camera.Device, cfg.Camera.Width, cfg.Camera.Height)
	if err := source.Start(ctx); err != nil {
		log.Fatalf("カメラの初期化に失敗しました: %v", err)
	}

	// リポジトリ同期を準備
	var gateway gitsync.Gateway = gitsync.Nop{}
	if cfg.Git.Enabled {
		cli := gitsync.NewCLI(cfg.Git.RepoDir)
		// 現在のブランチを明示的に固定する（失敗しても続行）
		if branch, err := cli.CurrentBranch(ctx); err != nil {
			log.Printf("現在のブランチの取得に失敗しました: %v", err)
		} else if branch != "" {
			if err := cli.Checkout(ctx, branch); err != nil {
				log.Printf("ブランチのチェックアウトに失敗しました: %v", err)
			}
		}
		gateway = cli
	}

	guard := diskguard.New(cfg.Storage.MountPoint, cfg.Storage.DiskThresholdPercent)
	rec := recorder.New(cfg, session, source, gateway, guard)

	// ステータスAPIサーバーを起動
	if cfg.Server.Enabled {
		srv := server.New(cfg, rec)
		go func() {
			if err := srv.Start(ctx); err != nil {
				log.Printf("ステータスAPIサーバーが停止しました: %v", err)
			}
		}()
	}

	// 撮影ループを開始
	if err := rec.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("撮影ループが停止しました: %v", err)
	}

	log.Println("レコーダーを終了します")
}
