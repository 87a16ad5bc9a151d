package controllers

import (
	"context"
	"errors"
	"sync"

	"github.com/Tributary-ai-services/gamma-operator/pkg/gamma"
)

type statusCheck struct {
	snap gamma.StatusSnapshot
	err  error
}

// fakeGamma scripts the Gamma API. Status checks repeat the last entry once
// the script runs out.
type fakeGamma struct {
	mu sync.Mutex

	apiKey    string
	params    gamma.GenerateParams
	submitErr error
	submits   int

	checks    []statusCheck
	checkIdx  int
	checkedID string

	export      []byte
	exportType  string
	downloadErr error
	downloads   int
}

func (f *fakeGamma) Submit(_ context.Context, p gamma.GenerateParams) (gamma.GenerationHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits++
	f.params = p
	if _, err := gamma.BuildRequest(p, gamma.Defaults{}); err != nil {
		return gamma.GenerationHandle{}, err
	}
	if f.submitErr != nil {
		return gamma.GenerationHandle{}, f.submitErr
	}
	return gamma.GenerationHandle{ID: "gen-1", Status: gamma.StatusPending, Message: "Generation request submitted successfully"}, nil
}

func (f *fakeGamma) CheckStatus(_ context.Context, id string) (gamma.StatusSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkedID = id
	if len(f.checks) == 0 {
		return gamma.StatusSnapshot{ID: id, Status: gamma.StatusPending}, nil
	}
	c := f.checks[min(f.checkIdx, len(f.checks)-1)]
	f.checkIdx++
	return c.snap, c.err
}

func (f *fakeGamma) DownloadExport(context.Context, string) ([]byte, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloads++
	if f.downloadErr != nil {
		return nil, "", f.downloadErr
	}
	return f.export, f.exportType, nil
}

func (f *fakeGamma) factory(opts gamma.Options) (GammaAPI, error) {
	if opts.APIKey == "" {
		return nil, gamma.ErrInvalidAPIKey
	}
	f.mu.Lock()
	f.apiKey = opts.APIKey
	f.mu.Unlock()
	return f, nil
}

type storedObject struct {
	data        []byte
	contentType string
}

type fakeStore struct {
	mu        sync.Mutex
	objects   map[string]storedObject
	deleted   []string
	uploadErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string]storedObject{}}
}

func (s *fakeStore) Upload(_ context.Context, bucket, key string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	s.objects[bucket+"/"+key] = storedObject{data: data, contentType: contentType}
	return "http://minio:9000/" + bucket + "/" + key, nil
}

func (s *fakeStore) Delete(_ context.Context, bucket, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[bucket+"/"+key]; !ok {
		return errors.New("object not found")
	}
	delete(s.objects, bucket+"/"+key)
	s.deleted = append(s.deleted, bucket+"/"+key)
	return nil
}
