package main

import (
	"context"
	"flag"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"time-capsule/pkg/realtime"
)

func main() {
	base := flag.String("base", "http://localhost:8080", "服务地址")
	pairs := flag.Int("pairs", 5, "并发的好友对数量")
	messages := flag.Int("messages", 20, "每对发送的消息数")
	monitorEvery := flag.Duration("monitor", time.Second, "采样间隔")
	flag.Parse()

	fmt.Println("=== 时间胶囊 私信与实时推送压测 ===")
	fmt.Printf("开始时间: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Printf("目标: %s 好友对: %d 每对消息: %d\n", *base, *pairs, *messages)

	mon := NewMonitor(*monitorEvery)
	mon.Start()

	sendStats := &LatencyStats{}
	refetchStats := &LatencyStats{}
	var refetches, received int64
	var wg sync.WaitGroup
	start := time.Now()

	runID := time.Now().UnixNano()
	for i := 0; i < *pairs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := runPair(*base, fmt.Sprintf("%d-%d", runID, i), *messages, sendStats, refetchStats, &refetches, &received)
			if err != nil {
				fmt.Printf("好友对 %d 失败: %v\n", i, err)
			}
		}(i)
	}
	wg.Wait()
	took := time.Since(start)
	mon.Stop()

	sendStats.Summary().Print("发送消息", took)
	refetchStats.Summary().Print("接收方重新拉取", took)
	fmt.Printf("\n收到变更: %d 实际重新拉取: %d\n", atomic.LoadInt64(&received), atomic.LoadInt64(&refetches))

	if err := mon.SaveToFile("system_monitor.csv"); err != nil {
		fmt.Println("保存监控数据失败:", err)
	} else {
		fmt.Println("监控数据已保存: system_monitor.csv")
	}
	fmt.Println("\n=== 测试完成 ===")
}

// runPair 注册两个账号并互加好友，接收方订阅实时变更并在收到变更后重新拉取会话
func runPair(base, tag string, n int, sendStats, refetchStats *LatencyStats, refetches, received *int64) error {
	sender, receiver := newAPIClient(base), newAPIClient(base)
	if err := sender.register("bench-a-"+tag+"@example.com", "bench-pass"); err != nil {
		return err
	}
	if err := receiver.register("bench-b-"+tag+"@example.com", "bench-pass"); err != nil {
		return err
	}
	if err := sender.befriend(receiver); err != nil {
		return err
	}

	conn, err := receiver.dialRealtime(sender.id)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var lastCount int64
	resync := realtime.NewResyncer(func(context.Context) error {
		t := time.Now()
		count, err := receiver.thread(sender.id)
		refetchStats.Add(err == nil, time.Since(t))
		atomic.AddInt64(refetches, 1)
		atomic.StoreInt64(&lastCount, int64(count))
		return err
	})
	resync.OnError(func(err error) { fmt.Println("重新拉取失败:", err) })
	go func() { _ = resync.Run(ctx) }()

	go func() {
		for {
			var frame struct {
				Type string `json:"type"`
			}
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			if frame.Type == "change" {
				atomic.AddInt64(received, 1)
				resync.Notify()
			}
		}
	}()

	for i := 0; i < n; i++ {
		t := time.Now()
		err := sender.send(receiver.id, fmt.Sprintf("bench message %d", i))
		sendStats.Add(err == nil, time.Since(t))
	}

	// 等待接收方看到全部消息
	deadline := time.Now().Add(10 * time.Second)
	for atomic.LoadInt64(&lastCount) < int64(n) && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if got := atomic.LoadInt64(&lastCount); got < int64(n) {
		return fmt.Errorf("receiver saw %d of %d messages", got, n)
	}
	return nil
}
