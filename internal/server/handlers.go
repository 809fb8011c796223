package server

import (
	"net/http"
	"strconv"
	"time"

	"teiten/internal/diskguard"
	"teiten/internal/recorder"

	"github.com/gin-gonic/gin"
)

// StatusProvider はレコーダーの状態参照操作を表す
// 全て参照専用であり、撮影ループの状態を変更することはない
type StatusProvider interface {
	Status() recorder.Status
	LatestFrame() []byte
	LedgerTail(n int) ([]recorder.Entry, error)
}

// HealthResponse はヘルスチェックのレスポンス
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// ServerInfo はサーバー情報
type ServerInfo struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// DiskInfo はディスク使用状況
type DiskInfo struct {
	TotalBytes  uint64  `json:"total_bytes"`
	UsedBytes   uint64  `json:"used_bytes"`
	FreeBytes   uint64  `json:"free_bytes"`
	UsedPercent float64 `json:"used_percent"`
}

// StatusResponse はシステム状態のレスポンス
type StatusResponse struct {
	Status    string          `json:"status"`
	Server    ServerInfo      `json:"server"`
	Session   recorder.Status `json:"session"`
	Disk      *DiskInfo       `json:"disk,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// LedgerResponse は台帳エントリのレスポンス
type LedgerResponse struct {
	Entries []recorder.Entry `json:"entries"`
}

// ErrorResponse はエラーレスポンス
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// handleHealth はヘルスチェックエンドポイントの実装
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
	})
}

// handleStatus はシステム状態取得エンドポイントの実装
func (s *Server) handleStatus(c *gin.Context) {
	response := StatusResponse{
		Status: "running",
		Server: ServerInfo{
			Host: s.config.Server.Host,
			Port: s.config.Server.Port,
		},
		Session:   s.provider.Status(),
		Timestamp: time.Now(),
	}

	// ディスク使用状況を取得できた場合だけ含める
	if usage, err := diskguard.StatfsUsage(s.config.Storage.MountPoint); err == nil {
		response.Disk = &DiskInfo{
			TotalBytes:  usage.TotalBytes,
			UsedBytes:   usage.UsedBytes,
			FreeBytes:   usage.FreeBytes,
			UsedPercent: usage.UsedPercent(),
		}
	}

	c.JSON(http.StatusOK, response)
}

// handleSession はセッション情報取得エンドポイントの実装
func (s *Server) handleSession(c *gin.Context) {
	c.JSON(http.StatusOK, s.provider.Status())
}

// handleLedger は台帳の末尾エントリ取得エンドポイントの実装
func (s *Server) handleLedger(c *gin.Context) {
	n, err := strconv.Atoi(c.DefaultQuery("n", "20"))
	if err != nil || n < 1 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     "invalid_parameter",
			Message:   "パラメータnは正の整数で指定してください",
			Timestamp: time.Now(),
		})
		return
	}

	entries, err := s.provider.LedgerTail(n)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:     "ledger_read_failed",
			Message:   "台帳の読み取りに失敗しました",
			Timestamp: time.Now(),
		})
		return
	}

	if entries == nil {
		entries = []recorder.Entry{}
	}
	c.JSON(http.StatusOK, LedgerResponse{Entries: entries})
}

// handleLatestFrame は最新フレーム取得エンドポイントの実装
func (s *Server) handleLatestFrame(c *gin.Context) {
	frame := s.provider.LatestFrame()
	if frame == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:     "no_frame",
			Message:   "まだ画像が撮影されていません",
			Timestamp: time.Now(),
		})
		return
	}

	c.Data(http.StatusOK, "image/jpeg", frame)
}
