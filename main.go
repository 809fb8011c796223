// Package main は定点撮影レコーダーの最小エントリポイント
// 詳細なオプションを持つエントリは cmd/ 以下にある
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"teiten/internal/camera"
	"teiten/internal/config"
	"teiten/internal/diskguard"
	"teiten/internal/gitsync"
	"teiten/internal/recorder"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "使用方法: %s <実験名> <撮影間隔(秒)>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) != 2 {
		flag.Usage()
		os.Exit(1)
	}

	interval, err := strconv.Atoi(args[1])
	if err != nil {
		log.Fatalf("撮影間隔は整数で指定してください: %v", err)
	}

	// 設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}
	cfg.Experiment.Name = args[0]
	cfg.Experiment.Interval = interval

	if err := cfg.Validate(); err != nil {
		log.Fatalf("設定の検証に失敗しました: %v", err)
	}

	// コンテキストを作成
	ctx := context.Background()

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

	// 撮影ループを開始
	guard := diskguard.New(cfg.Storage.MountPoint, cfg.Storage.DiskThresholdPercent)
	rec := recorder.New(cfg, session, source, gateway, guard)
	if err := rec.Run(ctx); err != nil {
		log.Fatalf("撮影ループが停止しました: %v", err)
	}
}
