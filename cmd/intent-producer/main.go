package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/IBM/sarama"

	"github.com/ensured/skate-deck-sub000/internal/domain"
)

// All intents share one key so they land on one partition, in order
const partitionKey = "game"

var skaterNames = []string{
	"Rodney", "Elissa", "Nyjah", "Leticia", "Tony", "Lizzie", "Daewon", "Sky",
	"Ishod", "Rayssa", "Chris", "Alexis", "Mark", "Vanessa", "Eric", "Yuto",
}

// simulator generates intents for a plausible game. It does not track the
// engine's state, so some intents will be rejected; the engine skips those.
type simulator struct {
	rng        *rand.Rand
	players    int
	missChance float64
}

func (s *simulator) setup() []domain.Intent {
	intents := []domain.Intent{{Type: domain.IntentNewGame}}
	for i := 0; i < s.players; i++ {
		name := skaterNames[(s.rng.Intn(len(skaterNames))+i)%len(skaterNames)]
		intents = append(intents, domain.Intent{
			Type: domain.IntentAddPlayer,
			Name: fmt.Sprintf("%s%d", name, i+1),
		})
	}
	return append(intents, domain.Intent{Type: domain.IntentStartGame})
}

func (s *simulator) next() domain.Intent {
	// Player ids restart at 1 after new_game
	if s.rng.Float64() < 0.05 {
		return domain.Intent{
			Type:     domain.IntentActivatePowerUp,
			PlayerID: s.rng.Intn(s.players) + 1,
			PowerUp:  domain.PowerUpShield,
		}
	}

	result := domain.ResultLanded
	if s.rng.Float64() < s.missChance {
		result = domain.ResultMissed
	}
	return domain.Intent{Type: domain.IntentSubmitResult, Result: result}
}

func main() {
	// Command line flags
	brokers := flag.String("brokers", "localhost:9094", "Kafka brokers (comma-separated)")
	topic := flag.String("topic", "skate-intents", "Kafka topic")
	players := flag.Int("players", 4, "Number of players to seat")
	rate := flag.Int("rate", 2, "Intents per second")
	missChance := flag.Float64("miss", 0.35, "Chance that a submitted trick is missed")
	seed := flag.Int64("seed", 0, "Random seed (0 = time based)")
	duration := flag.Duration("duration", 0, "Duration to run (0 = forever)")
	flag.Parse()

	if *players < 2 {
		log.Fatalf("need at least 2 players, got %d", *players)
	}
	if *rate < 1 {
		*rate = 1
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	brokerList := strings.Split(*brokers, ",")

	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println("  🛹 S.K.A.T.E Intent Producer")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("  Brokers:          %s\n", *brokers)
	fmt.Printf("  Topic:            %s\n", *topic)
	fmt.Printf("  Players:          %d\n", *players)
	fmt.Printf("  Intents/sec:      %d\n", *rate)
	fmt.Printf("  Miss chance:      %.2f\n", *missChance)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	// Configure Sarama producer
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 100 * time.Millisecond
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(brokerList, config)
	if err != nil {
		log.Fatalf("Failed to create producer: %v", err)
	}

	var successCount, errorCount int64
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for range producer.Successes() {
			atomic.AddInt64(&successCount, 1)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for err := range producer.Errors() {
			atomic.AddInt64(&errorCount, 1)
			log.Printf("Producer error: %v", err)
		}
	}()

	send := func(in domain.Intent) {
		data, err := json.Marshal(in)
		if err != nil {
			log.Printf("Failed to marshal intent: %v", err)
			return
		}
		producer.Input() <- &sarama.ProducerMessage{
			Topic: *topic,
			Key:   sarama.StringEncoder(partitionKey),
			Value: sarama.ByteEncoder(data),
		}
	}

	shutdown := func() {
		producer.AsyncClose()
		wg.Wait()
		fmt.Printf("\n✓ Completed. Sent: %d, Errors: %d\n", atomic.LoadInt64(&successCount), atomic.LoadInt64(&errorCount))
	}

	sim := &simulator{
		rng:        rand.New(rand.NewSource(*seed)),
		players:    *players,
		missChance: *missChance,
	}

	for _, in := range sim.setup() {
		send(in)
	}
	fmt.Printf("✓ Seated %d players and started the game\n\n", *players)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second / time.Duration(*rate))
	defer ticker.Stop()

	statsTicker := time.NewTicker(5 * time.Second)
	defer statsTicker.Stop()

	var endTime time.Time
	if *duration > 0 {
		endTime = time.Now().Add(*duration)
	}

	for {
		select {
		case <-sigChan:
			fmt.Println("\n\nShutting down...")
			shutdown()
			return

		case <-ticker.C:
			if *duration > 0 && time.Now().After(endTime) {
				fmt.Println("\n\nDuration reached, shutting down...")
				shutdown()
				return
			}
			send(sim.next())

		case <-statsTicker.C:
			fmt.Printf("  Sent: %d  Errors: %d\n", atomic.LoadInt64(&successCount), atomic.LoadInt64(&errorCount))
		}
	}
}
