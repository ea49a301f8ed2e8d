package mcp

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil document service returns error", func(t *testing.T) {
		ports := &Ports{}
		server, err := NewServer(ports, "1.0.0")
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingDocumentService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		ports := &Ports{
			Documents: &mockDocumentService{},
		}
		server, err := NewServer(ports, "")
		require.NoError(t, err)
		assert.NotNil(t, server)
		assert.NotNil(t, server.Handler())
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("nil document service returns error", func(t *testing.T) {
		ports := &Ports{}
		err := ports.Validate()
		assert.ErrorIs(t, err, ErrMissingDocumentService)
	})

	t.Run("documents only is valid", func(t *testing.T) {
		ports := &Ports{
			Documents: &mockDocumentService{},
		}
		assert.NoError(t, ports.Validate())
	})

	t.Run("all ports is valid", func(t *testing.T) {
		ports := &Ports{
			Classifier: &mockClassifier{},
			Ingest:     &mockIngest{},
			Corpus:     &mockCorpus{},
			Documents:  &mockDocumentService{},
		}
		assert.NoError(t, ports.Validate())
	})
}

func TestServer_ListsTools(t *testing.T) {
	ctx := context.Background()
	server, err := NewServer(&Ports{Documents: &mockDocumentService{records: testRecords()}}, "test")
	require.NoError(t, err)

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	require.NoError(t, err)

	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"classify_document", "ask_documents", "search_documents", "list_documents"}, names)
}
