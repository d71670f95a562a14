package v1

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/dashmart-ai/dashmart/pkg/errors"
	"github.com/dashmart-ai/dashmart/pkg/i18n"
	"github.com/dashmart-ai/dashmart/pkg/types"
)

func TestReindexableRejectsProcessingDocument(t *testing.T) {
	err := reindexable(&types.KnowledgeDocument{ID: "d1", Status: types.INGEST_STATUS_PROCESSING})
	require.Error(t, err)
	ce, ok := err.(*pkgerrors.CustomizedError)
	require.True(t, ok)
	assert.Equal(t, i18n.ERROR_DOCUMENT_NOTREADY, ce.Message())
	assert.Equal(t, http.StatusConflict, ce.GetCode())

	assert.NoError(t, reindexable(&types.KnowledgeDocument{ID: "d1", Status: types.INGEST_STATUS_READY}))
	assert.NoError(t, reindexable(&types.KnowledgeDocument{ID: "d1", Status: types.INGEST_STATUS_FAILED}))
}
