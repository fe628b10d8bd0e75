// Package logger пишет логи с префиксом сервиса через асинхронную очередь,
// чтобы запись лога никогда не блокировала обработку запроса.
package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

const asyncBufferSize = 8192

// slowCallThreshold: на уровне info LogDuration пишет только вызовы медленнее порога.
const slowCallThreshold = 100 * time.Millisecond

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	prefix   string
	logLevel = LevelInfo
	ch       chan string
	once     sync.Once
	mu       sync.RWMutex
)

// ParseLevel понимает debug|trace|info|warn|error; всё остальное даёт info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	}
	return LevelInfo
}

func initWorker() {
	mu.Lock()
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		logLevel = ParseLevel(v)
	}
	mu.Unlock()
	ch = make(chan string, asyncBufferSize)
	go func() {
		for msg := range ch {
			log.Print(msg)
		}
	}()
}

func enqueue(lvl Level, msg string) {
	once.Do(initWorker)
	if lvl < currentLevel() {
		return
	}
	select {
	case ch <- msg:
	default:
		// буфер полон, лог теряется, запрос не ждёт
	}
}

func currentLevel() Level {
	mu.RLock()
	defer mu.RUnlock()
	return logLevel
}

// SetPrefix задаёт префикс для всех последующих логов (например "api").
func SetPrefix(p string) {
	mu.Lock()
	prefix = p
	mu.Unlock()
}

// SetLevel переопределяет уровень, заданный LOG_LEVEL.
func SetLevel(l Level) {
	once.Do(initWorker)
	mu.Lock()
	logLevel = l
	mu.Unlock()
}

func tag() string {
	mu.RLock()
	defer mu.RUnlock()
	if prefix == "" {
		return ""
	}
	return "[" + prefix + "] "
}

func Debugf(format string, v ...any) {
	enqueue(LevelDebug, tag()+"DEBUG: "+fmt.Sprintf(format, v...))
}

func Info(v ...any) {
	enqueue(LevelInfo, tag()+fmt.Sprint(v...))
}

func Infof(format string, v ...any) {
	enqueue(LevelInfo, tag()+fmt.Sprintf(format, v...))
}

func Warnf(format string, v ...any) {
	enqueue(LevelWarn, tag()+"WARN: "+fmt.Sprintf(format, v...))
}

func Error(v ...any) {
	enqueue(LevelError, tag()+"ERROR: "+fmt.Sprint(v...))
}

func Errorf(format string, v ...any) {
	enqueue(LevelError, tag()+"ERROR: "+fmt.Sprintf(format, v...))
}

// Entry: логгер с набором полей key=value, добавляемых к каждой строке.
type Entry struct {
	fields string
}

// With возвращает Entry с полями: logger.With("chat", id, "actor", uid).Errorf(...).
func With(kv ...any) Entry {
	return Entry{}.With(kv...)
}

func (e Entry) With(kv ...any) Entry {
	var b strings.Builder
	b.WriteString(e.fields)
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, "%v=%v ", kv[i], kv[i+1])
	}
	return Entry{fields: b.String()}
}

func (e Entry) Debugf(format string, v ...any) {
	enqueue(LevelDebug, tag()+"DEBUG: "+e.fields+fmt.Sprintf(format, v...))
}

func (e Entry) Infof(format string, v ...any) {
	enqueue(LevelInfo, tag()+e.fields+fmt.Sprintf(format, v...))
}

func (e Entry) Warnf(format string, v ...any) {
	enqueue(LevelWarn, tag()+"WARN: "+e.fields+fmt.Sprintf(format, v...))
}

func (e Entry) Errorf(format string, v ...any) {
	enqueue(LevelError, tag()+"ERROR: "+e.fields+fmt.Sprintf(format, v...))
}

// LogDuration логирует имя функции и время выполнения в миллисекундах.
// На уровне info пишутся только вызовы дольше 100ms, на debug все.
func LogDuration(fn string, start time.Time) {
	elapsed := time.Since(start)
	if currentLevel() == LevelDebug || elapsed >= slowCallThreshold {
		enqueue(LevelInfo, fmt.Sprintf("%sfn=%s duration_ms=%d", tag(), fn, elapsed.Milliseconds()))
	}
}

// DeferLogDuration для вызова в defer: defer logger.DeferLogDuration("chat.Get", time.Now())().
func DeferLogDuration(fn string, start time.Time) func() {
	return func() { LogDuration(fn, start) }
}
