package main

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"
)

// -------------------- 延迟统计 --------------------

// LatencyStats 并发安全的延迟统计
type LatencyStats struct {
	mu        sync.Mutex
	succeeded int
	failed    int
	samples   []time.Duration
}

// Add 记录一次请求
func (s *LatencyStats) Add(success bool, latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !success {
		s.failed++
		return
	}
	s.succeeded++
	s.samples = append(s.samples, latency)
}

// Summary 统计结果
type Summary struct {
	Total, Succeeded, Failed int
	Min, Max, Avg, P50, P95  time.Duration
}

// Summary 计算汇总
func (s *LatencyStats) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := Summary{Total: s.succeeded + s.failed, Succeeded: s.succeeded, Failed: s.failed}
	if len(s.samples) == 0 {
		return out
	}
	sorted := append([]time.Duration(nil), s.samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum time.Duration
	for _, d := range sorted {
		sum += d
	}
	out.Min = sorted[0]
	out.Max = sorted[len(sorted)-1]
	out.Avg = sum / time.Duration(len(sorted))
	out.P50 = percentile(sorted, 50)
	out.P95 = percentile(sorted, 95)
	return out
}

func percentile(sorted []time.Duration, p int) time.Duration {
	idx := (len(sorted)*p + 99) / 100
	if idx < 1 {
		idx = 1
	}
	if idx > len(sorted) {
		idx = len(sorted)
	}
	return sorted[idx-1]
}

func (s Summary) Print(name string, took time.Duration) {
	fmt.Printf("\n=== %s ===\n", name)
	fmt.Printf("总数: %d 成功: %d 失败: %d\n", s.Total, s.Succeeded, s.Failed)
	fmt.Printf("延迟 平均: %v P50: %v P95: %v 最大: %v 最小: %v\n", s.Avg, s.P50, s.P95, s.Max, s.Min)
	if took > 0 {
		fmt.Printf("吞吐: %.2f/s\n", float64(s.Succeeded)/took.Seconds())
	}
	if s.Total > 0 {
		fmt.Printf("成功率: %.2f%%\n", float64(s.Succeeded)/float64(s.Total)*100)
	}
}

// -------------------- 进程监控 --------------------

// SystemStats 一次采样
type SystemStats struct {
	Timestamp  time.Time
	HeapAlloc  uint64
	Sys        uint64
	Goroutines int
}

// Monitor 定时采样当前进程的内存与协程数
type Monitor struct {
	mu       sync.Mutex
	stats    []SystemStats
	interval time.Duration
	stopChan chan struct{}
	once     sync.Once
}

func NewMonitor(interval time.Duration) *Monitor {
	return &Monitor{
		stats:    make([]SystemStats, 0, 512),
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

func (m *Monitor) collect() SystemStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	s := SystemStats{
		Timestamp:  time.Now(),
		HeapAlloc:  ms.HeapAlloc,
		Sys:        ms.Sys,
		Goroutines: runtime.NumGoroutine(),
	}
	m.mu.Lock()
	m.stats = append(m.stats, s)
	m.mu.Unlock()
	return s
}

func (m *Monitor) Start() {
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s := m.collect()
				fmt.Printf("[%s] 堆: %.1fMB | 系统: %.1fMB | Goroutines: %d\n",
					s.Timestamp.Format("15:04:05"),
					float64(s.HeapAlloc)/1024/1024, float64(s.Sys)/1024/1024, s.Goroutines)
			case <-m.stopChan:
				return
			}
		}
	}()
}

func (m *Monitor) Stop() { m.once.Do(func() { close(m.stopChan) }) }

// SaveToFile 以CSV格式保存采样
func (m *Monitor) SaveToFile(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := f.WriteString("Timestamp,HeapAlloc,Sys,Goroutines\n"); err != nil {
		return err
	}
	for _, s := range m.stats {
		line := fmt.Sprintf("%s,%d,%d,%d\n", s.Timestamp.Format("2006-01-02 15:04:05"), s.HeapAlloc, s.Sys, s.Goroutines)
		if _, err := f.WriteString(line); err != nil {
			return err
		}
	}
	return nil
}
