package connector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ArticleHunter/internal/domain"
	"ArticleHunter/internal/ports"
)

type namedConnector string

func (n namedConnector) Name() string { return string(n) }

func (n namedConnector) Poll(context.Context, []domain.Keyword) ([]domain.RawItem, error) {
	return nil, nil
}

func TestRegistryBuild(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register("stub", func(spec Spec) (ports.Connector, error) {
		return namedConnector(spec.Name), nil
	})

	conns, err := reg.Build([]Spec{{Name: "a", Kind: "stub"}, {Name: "b", Kind: "stub"}})
	require.NoError(t, err)
	require.Len(t, conns, 2)
	assert.Equal(t, "a", conns[0].Name())
	assert.Equal(t, "b", conns[1].Name())
}

func TestRegistryUnknownKind(t *testing.T) {
	t.Parallel()

	_, err := NewRegistry().Resolve(Spec{Name: "x", Kind: "ftp"})
	assert.ErrorContains(t, err, "ftp is not registered")
}

func TestRegistryFactoryError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	reg := NewRegistry()
	reg.Register("bad", func(Spec) (ports.Connector, error) { return nil, boom })

	_, err := reg.Build([]Spec{{Name: "x", Kind: "bad"}})
	assert.ErrorIs(t, err, boom)
}
