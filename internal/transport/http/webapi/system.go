package webapi

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// systemStatus 管理面板展示的运行状态
type systemStatus struct {
	Hostname      string  `json:"hostname"`
	OS            string  `json:"os"`
	UptimeSeconds uint64  `json:"uptimeSeconds"`
	CPUPercent    float64 `json:"cpuPercent"`
	MemoryPercent float64 `json:"memoryPercent"`
	MemoryUsedMB  uint64  `json:"memoryUsedMb"`
	MemoryTotalMB uint64  `json:"memoryTotalMb"`
	Goroutines    int     `json:"goroutines"`
	Sessions      int     `json:"sessions"`
}

// handleAdminStatus 返回主机与进程的运行指标
func (s *Service) handleAdminStatus(c *gin.Context) {
	status := systemStatus{
		OS:         runtime.GOOS,
		Goroutines: runtime.NumGoroutine(),
	}

	if info, err := host.Info(); err == nil {
		status.Hostname = info.Hostname
		status.UptimeSeconds = info.Uptime
	}
	if percents, err := cpu.Percent(200*time.Millisecond, false); err == nil && len(percents) > 0 {
		status.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		status.MemoryPercent = vm.UsedPercent
		status.MemoryUsedMB = vm.Used / 1024 / 1024
		status.MemoryTotalMB = vm.Total / 1024 / 1024
	}
	if ids, err := s.auth.Sessions(c.Request.Context()); err == nil {
		status.Sessions = len(ids)
	}

	s.respondSuccess(c, http.StatusOK, status, "")
}
