package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/rl1809/kitchen-relay/internal/adapter/relayclient"
	"github.com/rl1809/kitchen-relay/internal/core/domain"
)

func main() {
	relayAddr := pflag.String("relay-addr", "localhost:50051", "relay endpoint")
	subscribers := pflag.Int("subscribers", 10, "number of listening stations")
	submitters := pflag.Int("submitters", 20, "number of concurrent submitters")
	perSubmitter := pflag.Int("orders", 5, "orders sent by each submitter")
	settle := pflag.Duration("settle", 2*time.Second, "time to wait for deliveries after the last submit")
	pflag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect listeners; Subscribe returns once the relay has registered them.
	var delivered atomic.Int64
	var listeners sync.WaitGroup
	for i := 0; i < *subscribers; i++ {
		client, err := relayclient.Dial(*relayAddr, fmt.Sprintf("loadgen-listener-%d", i))
		if err != nil {
			log.Fatalf("dial relay: %v", err)
		}
		defer client.Close()

		stream, err := client.Subscribe(ctx)
		if err != nil {
			log.Fatalf("subscribe listener %d: %v", i, err)
		}

		listeners.Add(1)
		go func() {
			defer listeners.Done()
			for {
				ev, err := stream.Recv()
				if err != nil {
					return
				}
				if ev.Name == domain.EventReceiveOrder {
					delivered.Add(1)
				}
			}
		}()
	}

	sender, err := relayclient.Dial(*relayAddr, "loadgen-sender")
	if err != nil {
		log.Fatalf("dial relay: %v", err)
	}
	defer sender.Close()

	var successCount atomic.Int32
	var failCount atomic.Int32

	// Spawn concurrent submitters
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < *submitters; i++ {
		wg.Add(1)
		go func(table int) {
			defer wg.Done()
			for n := 0; n < *perSubmitter; n++ {
				err := sender.SubmitOrder(ctx, uuid.NewString(), fmt.Sprintf("T%d", table), fmt.Sprintf("item-%d", n))
				if err == nil {
					successCount.Add(1)
				} else {
					failCount.Add(1)
				}
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)
	time.Sleep(*settle)

	success := successCount.Load()
	fail := failCount.Load()
	expected := int64(success) * int64(*subscribers)
	got := delivered.Load()

	fmt.Println("========== RELAY LOAD RESULTS ==========")
	fmt.Printf("Subscribers:      %d\n", *subscribers)
	fmt.Printf("Submitted:        %d\n", success)
	fmt.Printf("Failed:           %d\n", fail)
	fmt.Printf("Submit Duration:  %v\n", elapsed)
	fmt.Printf("Delivered:        %d / %d\n", got, expected)
	fmt.Println("=========================================")

	cancel()
	listeners.Wait()

	if fail == 0 && got == expected {
		fmt.Println("PASS: every broadcast reached every subscriber")
		return
	}
	fmt.Printf("FAIL: %d submits failed, %d deliveries missing\n", fail, expected-got)
	os.Exit(1)
}
