// Package gitsync は撮影成果物のgitリポジトリへの同期を担う
//
// 画像とメタデータ台帳をステージ・コミット・プッシュする一連の操作を
// Gatewayインターフェースとして提供する。撮影ループはこのインターフェースだけに
// 依存するため、テストではモック実装に差し替えられる
package gitsync

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Gateway はバージョン管理リポジトリへの同期操作を表す
type Gateway interface {
	// Sync は指定されたファイルをステージし、コミットしてプッシュする
	Sync(ctx context.Context, paths []string, message string) error
}

// CLI はgitコマンドを実行するGateway実装
// 全ての操作は "git -C <repoDir>" で対象リポジトリに向けられる
type CLI struct {
	repoDir string
}

// NewCLI は指定ディレクトリのリポジトリを対象とするCLIを作成する
func NewCLI(repoDir string) *CLI {
	return &CLI{repoDir: repoDir}
}

// RepoDir は対象リポジトリのディレクトリを返す
func (c *CLI) RepoDir() string {
	return c.repoDir
}

// Sync はadd・commit・pushを順に実行する
// いずれかが失敗した時点でエラーを返す。呼び出し側はエラーを記録するだけで
// リトライや中断は行わない
func (c *CLI) Sync(ctx context.Context, paths []string, message string) error {
	addArgs := append([]string{"add"}, paths...)
	if _, err := c.run(ctx, addArgs...); err != nil {
		return err
	}
	if _, err := c.run(ctx, "commit", "-m", message); err != nil {
		return err
	}
	if _, err := c.run(ctx, "push"); err != nil {
		return err
	}
	return nil
}

// CurrentBranch は現在チェックアウトされているブランチ名を返す
func (c *CLI) CurrentBranch(ctx context.Context) (string, error) {
	output, err := c.run(ctx, "branch", "--show-current")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// Checkout は指定ブランチをチェックアウトする
// 起動時に現在のブランチを明示的に固定するために使う
func (c *CLI) Checkout(ctx context.Context, branch string) error {
	_, err := c.run(ctx, "checkout", branch)
	return err
}

// run はgitコマンドを実行して標準出力を返す
// 標準エラー出力は失敗時のエラーメッセージに含める
func (c *CLI) run(ctx context.Context, args ...string) (string, error) {
	fullArgs := append([]string{"-C", c.repoDir}, args...)
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", fullArgs...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s の実行に失敗: %w (stderr: %s)",
			strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Nop は何も行わないGateway実装
// 同期が無効な構成やテストで使う
type Nop struct{}

// Sync は常に成功する
func (Nop) Sync(_ context.Context, _ []string, _ string) error {
	return nil
}
