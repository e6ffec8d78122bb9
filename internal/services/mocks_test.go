package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/cache"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/config"
	"github.com/monicaSernaS/guarani-host-backend-sub000/internal/storage"
)

// fakeStorage is an in-memory IImageStorage for service tests.
type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}}
}

func (f *fakeStorage) Upload(ctx context.Context, folder, filename, contentType string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s/%s_%s", folder, uuid.NewString(), filename)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return key, nil
}

func (f *fakeStorage) Put(ctx context.Context, key, contentType string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeStorage) Download(ctx context.Context, key string) ([]byte, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", storage.ErrObjectNotFound, key)
	}
	return data, "application/octet-stream", nil
}

func (f *fakeStorage) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

// fakeDispatcher records enqueued side effects instead of hitting Redis.
type fakeDispatcher struct {
	mu       sync.Mutex
	emails   []fakeEmail
	images   []string
	cleanups [][]string
}

type fakeEmail struct {
	To      string
	Subject string
	Body    string
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{}
}

func (f *fakeDispatcher) EnqueueEmail(ctx context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emails = append(f.emails, fakeEmail{To: to, Subject: subject, Body: body})
	return nil
}

func (f *fakeDispatcher) EnqueueImageProcess(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images = append(f.images, key)
	return nil
}

func (f *fakeDispatcher) EnqueueImageCleanup(ctx context.Context, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleanups = append(f.cleanups, keys)
	return nil
}

func (f *fakeDispatcher) sentEmails() []fakeEmail {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fakeEmail(nil), f.emails...)
}

// fakeLocker is a single-process Locker so service tests need no Redis.
type fakeLocker struct {
	mu    sync.Mutex
	held  map[string]bool
	calls int
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: map[string]bool{}}
}

func (f *fakeLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.held[key] {
		return nil, fmt.Errorf("%w: %s", cache.ErrLockHeld, key)
	}
	f.held[key] = true
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.held, key)
	}, nil
}

func newObjectID() primitive.ObjectID {
	return primitive.NewObjectID()
}

func testConfig() *config.Config {
	return &config.Config{
		MongoDbName:         "guaranihost_test",
		MaxGuestsPerBooking: 20,
		BookingLockTTL:      10 * time.Second,
		AppName:             "GuaraniHost",
	}
}

func imageUpload(name string) ImageUpload {
	return ImageUpload{
		Filename:    name,
		ContentType: "image/jpeg",
		Body:        bytes.NewReader([]byte("fake image bytes")),
	}
}
