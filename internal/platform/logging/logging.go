package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Config captures logging configuration options.
type Config struct {
	Level    string
	Dir      string
	Filename string
}

// Logger 同时输出控制台彩色文本与文件JSON日志
type Logger struct {
	textLogger *slog.Logger
	jsonLogger *slog.Logger
	logFile    *os.File
	mu         sync.RWMutex
}

var (
	colorReset = "\x1b[0m"
	colorTime  = "\x1b[90m" // 时间：灰色
	colorDebug = "\x1b[36m" // DEBUG：青色
	colorInfo  = "\x1b[32m" // INFO：绿色
	colorWarn  = "\x1b[33m" // WARN：黄色
	colorError = "\x1b[31m" // ERROR：红色
)

// 模块标签颜色
var tagColors = map[string]string{
	"引导":   "\x1b[96m", // 引导：亮青色
	"HTTP": "\x1b[95m", // HTTP：亮品红
	"认证":   "\x1b[94m", // 认证：亮蓝色
	"存储":   "\x1b[92m", // 存储：亮绿色
	"事件":   "\x1b[93m", // 事件：亮黄色
}

// textHandler 自定义文本处理器，支持彩色输出和模块标签
type textHandler struct {
	writer io.Writer
	level  slog.Level
	mu     sync.Mutex
}

func (h *textHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *textHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	timeStr := r.Time.Format("2006-01-02 15:04:05.000")

	var levelColor string
	switch r.Level {
	case slog.LevelDebug:
		levelColor = colorDebug
	case slog.LevelWarn:
		levelColor = colorWarn
	case slog.LevelError:
		levelColor = colorError
	default:
		levelColor = colorInfo
	}

	msg := r.Message
	var output string
	if tagColor, ok := tagColorOf(msg); ok {
		// 模块日志格式: [时间] [模块] 消息
		output = fmt.Sprintf("%s[%s]%s %s%s%s\n",
			colorTime, timeStr, colorReset,
			tagColor, msg, colorReset)
	} else {
		// 普通日志格式: [时间] [级别] 消息
		output = fmt.Sprintf("%s[%s]%s %s[%s]%s %s\n",
			colorTime, timeStr, colorReset,
			levelColor, r.Level.String(), colorReset,
			msg)
	}

	_, err := h.writer.Write([]byte(output))
	return err
}

func (h *textHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *textHandler) WithGroup(string) slog.Handler      { return h }

func tagColorOf(msg string) (string, bool) {
	if !strings.HasPrefix(msg, "[") {
		return "", false
	}
	end := strings.Index(msg, "]")
	if end < 0 {
		return "", false
	}
	color, ok := tagColors[msg[1:end]]
	return color, ok
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a Logger writing colored text to stdout and JSON to the
// configured log file. The file output is skipped when Dir is empty.
func New(cfg Config) (*Logger, error) {
	level := parseLevel(cfg.Level)

	l := &Logger{
		textLogger: slog.New(&textHandler{writer: os.Stdout, level: level}),
	}

	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		filename := cfg.Filename
		if filename == "" {
			filename = "server.log"
		}
		file, err := os.OpenFile(
			filepath.Join(cfg.Dir, filename),
			os.O_CREATE|os.O_WRONLY|os.O_APPEND,
			0644,
		)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		l.logFile = file
		l.jsonLogger = slog.New(slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level}))
	}

	return l, nil
}

func (l *Logger) log(level slog.Level, format string, args ...interface{}) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	l.textLogger.Log(context.Background(), level, msg)
	if l.jsonLogger != nil {
		l.jsonLogger.Log(context.Background(), level, msg)
	}
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(slog.LevelDebug, format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.log(slog.LevelInfo, format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(slog.LevelWarn, format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.log(slog.LevelError, format, args...)
}

// InfoTag 输出带模块标签的日志，例如 InfoTag("HTTP", "路由注册完成")
func (l *Logger) InfoTag(tag string, format string, args ...interface{}) {
	l.log(slog.LevelInfo, "["+tag+"] "+format, args...)
}

// ErrorTag 输出带模块标签的错误日志
func (l *Logger) ErrorTag(tag string, format string, args ...interface{}) {
	l.log(slog.LevelError, "["+tag+"] "+format, args...)
}

// Slog exposes the structured logger for new integrations.
func (l *Logger) Slog() *slog.Logger {
	return l.textLogger
}

// Close releases the log file handle.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.logFile != nil {
		err := l.logFile.Close()
		l.logFile = nil
		l.jsonLogger = nil
		return err
	}
	return nil
}
