package cron

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name string
}

func (s *stubJob) Name() string              { return s.name }
func (s *stubJob) Run(context.Context) error { return nil }

func TestRegistryKeepsOrderAndCopies(t *testing.T) {
	jobA := &stubJob{name: "orphaned-blob-sweep"}
	jobB := &stubJob{name: "notification-cleanup"}
	registry, err := NewRegistry(jobA, nil, jobB)
	require.NoError(t, err)

	jobs := registry.Jobs()
	require.Len(t, jobs, 2)
	assert.Same(t, jobA, jobs[0])
	assert.Same(t, jobB, jobs[1])

	jobs[0] = nil
	assert.NotNil(t, registry.Jobs()[0])
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	_, err := NewRegistry(&stubJob{name: "sweep"}, &stubJob{name: "sweep"})
	require.Error(t, err)

	var registry Registry
	require.NoError(t, registry.Register(&stubJob{name: "a"}))
	require.Error(t, registry.Register(&stubJob{name: "a"}))
}
