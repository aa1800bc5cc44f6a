package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/yixuan-h/pagemate/internal/ai"
	"github.com/yixuan-h/pagemate/internal/chat"
	"github.com/yixuan-h/pagemate/internal/config"
	"github.com/yixuan-h/pagemate/internal/db"
	"github.com/yixuan-h/pagemate/internal/store/rabbitmq"
)

// summaryPrompt frames the one-shot background summarization request.
const summaryPrompt = "Analyze this webpage screenshot and the extracted text below. Provide a comprehensive summary of the content I am seeing, including any visual insights (like charts or layout) if relevant.\n\n"

// maxAttempts bounds redelivery of transient remote failures; the final
// attempt's error is recorded on the job and the delivery goes to the DLQ.
const maxAttempts = 3

type jobMsg struct {
	JobID string `json:"job_id"`
}

func workerConcurrency() int {
	v := os.Getenv("WORKER_CONCURRENCY")
	if v == "" {
		return 2
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 2
	}
	if n > 50 {
		return 50
	}
	return n
}

func main() {
	cfg := config.Load()

	if cfg.GeminiAPIKey == "" {
		log.Fatal("GEMINI_API_KEY is required")
	}

	gdb := db.Connect(cfg.DBPath)
	repo := chat.NewJobRepo(gdb)
	remote := ai.NewGemini(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("rabbit dial: %v", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("rabbit channel: %v", err)
	}
	defer ch.Close()

	if err := rabbitmq.DeclareTopology(ch, cfg.RabbitQueue); err != nil {
		log.Fatalf("queue declare: %v", err)
	}

	concurrency := workerConcurrency()

	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("worker started, queue=%s concurrency=%d", cfg.RabbitQueue, concurrency)

	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				var m jobMsg
				if err := json.Unmarshal(d.Body, &m); err != nil || m.JobID == "" {
					log.Printf("worker=%d bad message: %v", workerID, err)
					_ = d.Nack(false, false)
					continue
				}

				start := time.Now()
				err := handleJob(ctx, repo, remote, m.JobID)
				if err == nil {
					if err := d.Ack(false); err != nil {
						log.Printf("worker=%d ack failed job=%s err=%v", workerID, m.JobID, err)
					}
					continue
				}

				attempt := rabbitmq.AttemptFrom(d.Headers)
				if retryable(err) && attempt < maxAttempts {
					log.Printf("worker=%d job %s attempt=%d parked for retry cost=%s err=%v",
						workerID, m.JobID, attempt, time.Since(start), err)
					if perr := rabbitmq.PublishRetry(ctx, ch, cfg.RabbitQueue, d.Body, attempt+1); perr == nil {
						_ = d.Ack(false)
						continue
					} else {
						log.Printf("worker=%d retry publish failed job=%s err=%v", workerID, m.JobID, perr)
					}
				}

				log.Printf("worker=%d job %s failed attempt=%d cost=%s err=%v",
					workerID, m.JobID, attempt, time.Since(start), err)
				_ = repo.MarkJobFailed(ctx, m.JobID, chat.UserFacingMessage(err))
				_ = d.Nack(false, false)
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			log.Printf("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Printf("delivery channel closed")
				time.Sleep(1 * time.Second)
				continue
			}
			jobs <- d
		}
	}
}

// retryable reports whether a failure is worth another delivery. Quota and
// transport failures clear on their own; everything else (bad job, protocol
// mismatch) fails the same way every time.
func retryable(err error) bool {
	switch chat.KindOf(err) {
	case chat.KindQuota, chat.KindConnectivity:
		return true
	}
	return false
}

// handleJob runs one summarize job to completion. Failure handling belongs
// to the caller: the job stays unfailed here so a parked retry can still
// succeed.
func handleJob(ctx context.Context, repo *chat.JobRepo, remote *ai.Gemini, jobID string) error {
	start := time.Now()

	_ = repo.UpdateJobStatusRunning(ctx, jobID)

	j, err := repo.GetJobByID(ctx, jobID)
	if err != nil {
		return err
	}

	contents := []chat.Message{{
		Role: chat.RoleUser,
		Parts: []chat.Part{
			chat.TextPart(summaryPrompt + j.PageText),
			chat.ImagePart("image/jpeg", j.Screenshot),
		},
	}}

	result, err := remote.GenerateContent(ctx, contents)
	if err != nil {
		return err
	}

	if err := repo.MarkJobSucceeded(ctx, jobID, result); err != nil {
		return err
	}

	if cost := time.Since(start); cost > 2*time.Second {
		log.Printf("job_timing job=%s total=%s", jobID, cost)
	}
	return nil
}
