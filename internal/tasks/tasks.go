package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"log"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/nfnt/resize"
	"github.com/redis/go-redis/v9"

	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/config"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/email"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/storage"
)

// Task types.
const (
	TypeEmailDelivery = "email:deliver"
	TypeImageProcess  = "image:process"
	TypeImageCleanup  = "image:cleanup"
)

// EmailTaskPayload carries one outbound message.
type EmailTaskPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// ImageTaskPayload names one stored object to normalize.
type ImageTaskPayload struct {
	Key string `json:"key"`
}

// ImageCleanupPayload names stored objects to remove.
type ImageCleanupPayload struct {
	Keys []string `json:"keys"`
}

// NewClient builds an asynq client sharing the app's Redis connection
// options.
func NewClient(rdb *redis.Client) *asynq.Client {
	return asynq.NewClient(asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	})
}

// Dispatcher enqueues side-effect tasks. It implements
// services.SideEffectDispatcher.
type Dispatcher struct {
	client *asynq.Client
}

// NewDispatcher wraps an asynq client as the services' side-effect outbox.
func NewDispatcher(client *asynq.Client) *Dispatcher {
	return &Dispatcher{client: client}
}

func (d *Dispatcher) EnqueueEmail(ctx context.Context, to, subject, body string) error {
	payload, err := json.Marshal(EmailTaskPayload{To: to, Subject: subject, Body: body})
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}
	task := asynq.NewTask(TypeEmailDelivery, payload)
	_, err = d.client.EnqueueContext(ctx, task, asynq.Queue("default"), asynq.MaxRetry(5))
	if err != nil {
		return fmt.Errorf("failed to enqueue email task: %w", err)
	}
	return nil
}

func (d *Dispatcher) EnqueueImageProcess(ctx context.Context, key string) error {
	payload, err := json.Marshal(ImageTaskPayload{Key: key})
	if err != nil {
		return fmt.Errorf("failed to marshal image payload: %w", err)
	}
	task := asynq.NewTask(TypeImageProcess, payload)
	_, err = d.client.EnqueueContext(ctx, task, asynq.Queue("images"), asynq.MaxRetry(3))
	if err != nil {
		return fmt.Errorf("failed to enqueue image process task: %w", err)
	}
	return nil
}

func (d *Dispatcher) EnqueueImageCleanup(ctx context.Context, keys []string) error {
	payload, err := json.Marshal(ImageCleanupPayload{Keys: keys})
	if err != nil {
		return fmt.Errorf("failed to marshal cleanup payload: %w", err)
	}
	task := asynq.NewTask(TypeImageCleanup, payload)
	_, err = d.client.EnqueueContext(ctx, task, asynq.Queue("low"), asynq.MaxRetry(5))
	if err != nil {
		return fmt.Errorf("failed to enqueue image cleanup task: %w", err)
	}
	return nil
}

// TaskProcessor holds the dependencies shared by task handlers.
type TaskProcessor struct {
	cfg         *config.Config
	emailSender email.Sender
	images      storage.IImageStorage
}

func NewTaskProcessor(cfg *config.Config, emailSender email.Sender, images storage.IImageStorage) *TaskProcessor {
	return &TaskProcessor{cfg: cfg, emailSender: emailSender, images: images}
}

// SetupServer configures the asynq server and its handler mux. The caller
// starts it with srv.Start(mux) and stops it with srv.Shutdown().
func SetupServer(rdb *redis.Client, processor *TaskProcessor) (*asynq.Server, *asynq.ServeMux) {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     rdb.Options().Addr,
			Password: rdb.Options().Password,
			DB:       rdb.Options().DB,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 5,
				"images":  3,
				"low":     1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("[asynq] task %s failed: %v (payload: %s)", task.Type(), err, task.Payload())
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeEmailDelivery, processor.HandleEmailDeliveryTask)
	mux.HandleFunc(TypeImageProcess, processor.HandleImageProcessTask)
	mux.HandleFunc(TypeImageCleanup, processor.HandleImageCleanupTask)

	return srv, mux
}

// HandleEmailDeliveryTask renders the raw message with headers and hands it
// to the configured sender. Transport errors are retryable; a malformed
// payload is not.
func (p *TaskProcessor) HandleEmailDeliveryTask(ctx context.Context, t *asynq.Task) error {
	var payload EmailTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal email payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.To == "" {
		return fmt.Errorf("email payload has no recipient: %w", asynq.SkipRetry)
	}

	from := p.cfg.SmtpFromAddress
	if from == "" {
		from = "noreply@" + strings.ToLower(p.cfg.AppName) + ".example"
	}

	var sb strings.Builder
	sb.WriteString("To: " + payload.To + "\r\n")
	sb.WriteString("From: " + from + "\r\n")
	sb.WriteString("Subject: " + payload.Subject + "\r\n")
	sb.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(payload.Body)
	sb.WriteString("\r\n")

	if err := p.emailSender.Send(ctx, []string{payload.To}, payload.Subject, []byte(sb.String())); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", payload.To, err)
	}
	return nil
}

// HandleImageProcessTask downloads a stored image, shrinks it to the
// configured maximum dimension and writes it back in place as JPEG. Images
// already within bounds are left untouched.
func (p *TaskProcessor) HandleImageProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ImageTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal image payload: %v: %w", err, asynq.SkipRetry)
	}

	data, _, err := p.images.Download(ctx, payload.Key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			log.Printf("image %s no longer exists, skipping", payload.Key)
			return nil
		}
		return fmt.Errorf("failed to download image %s: %w", payload.Key, err)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		// Corrupt or unsupported upload: remove it rather than retry.
		log.Printf("image %s is not decodable (%v), deleting", payload.Key, err)
		if delErr := p.images.Delete(ctx, payload.Key); delErr != nil {
			return fmt.Errorf("failed to delete undecodable image %s: %w", payload.Key, delErr)
		}
		return nil
	}

	maxDim := p.cfg.ImageMaxDimension
	if img.Bounds().Dx() <= maxDim && img.Bounds().Dy() <= maxDim && format == "jpeg" {
		return nil
	}

	resized := resize.Thumbnail(uint(maxDim), uint(maxDim), img, resize.Lanczos3)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
		return fmt.Errorf("failed to encode resized image %s: %w", payload.Key, err)
	}

	if err := p.overwrite(ctx, payload.Key, &buf); err != nil {
		return err
	}
	log.Printf("normalized image %s (%s %dx%d -> jpeg %dx%d)",
		payload.Key, format, img.Bounds().Dx(), img.Bounds().Dy(), resized.Bounds().Dx(), resized.Bounds().Dy())
	return nil
}

func (p *TaskProcessor) overwrite(ctx context.Context, key string, body io.Reader) error {
	if err := p.images.Put(ctx, key, "image/jpeg", body); err != nil {
		return fmt.Errorf("failed to write processed image %s: %w", key, err)
	}
	return nil
}

// HandleImageCleanupTask removes stored objects that no record references
// any more. Missing objects are fine; any other delete error retries the
// whole batch, so deletes must stay idempotent.
func (p *TaskProcessor) HandleImageCleanupTask(ctx context.Context, t *asynq.Task) error {
	var payload ImageCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal cleanup payload: %v: %w", err, asynq.SkipRetry)
	}

	var lastErr error
	for _, key := range payload.Keys {
		if err := p.images.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			log.Printf("failed to delete image %s: %v", key, err)
			lastErr = err
		}
	}
	return lastErr
}
