package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"retail-backoffice/utils"
)

// FakeDocumentModel returns a canned extraction response.
type FakeDocumentModel struct {
	mu       sync.Mutex
	Response string
	Err      error
	Delay    time.Duration
	Calls    int
}

func (f *FakeDocumentModel) ProcessDocumentWithPrompt(ctx context.Context, fileBytes []byte, mimeType string, prompt string) (string, error) {
	f.mu.Lock()
	f.Calls++
	resp, err, delay := f.Response, f.Err, f.Delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return resp, err
}

func (f *FakeDocumentModel) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls
}

// FakeTextModel replays Responses in order, repeating the last one.
type FakeTextModel struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	Delay     time.Duration
	Prompts   []string
}

func (f *FakeTextModel) GenerateText(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.Prompts = append(f.Prompts, prompt)
	call := len(f.Prompts) - 1
	err, delay := f.Err, f.Delay
	var resp string
	if len(f.Responses) > 0 {
		if call >= len(f.Responses) {
			call = len(f.Responses) - 1
		}
		resp = f.Responses[call]
	}
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return resp, err
}

func (f *FakeTextModel) SetResponses(responses ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Responses = responses
}

func (f *FakeTextModel) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Prompts)
}

// MemoryBlobStore keeps documents in a map.
type MemoryBlobStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	UploadErr error
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{objects: make(map[string][]byte)}
}

func (m *MemoryBlobStore) Upload(ctx context.Context, src io.Reader, objectName, contentType string) (utils.BlobLocator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UploadErr != nil {
		return utils.BlobLocator{}, m.UploadErr
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return utils.BlobLocator{}, err
	}
	m.objects[objectName] = data
	return utils.BlobLocator{PublicID: objectName, URL: "memory://" + objectName}, nil
}

func (m *MemoryBlobStore) Download(ctx context.Context, publicID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[publicID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", utils.ErrBlobNotFound, publicID)
	}
	return bytes.Clone(data), nil
}

func (m *MemoryBlobStore) Delete(ctx context.Context, publicID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, publicID)
	return nil
}

func (m *MemoryBlobStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
