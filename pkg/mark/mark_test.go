package mark_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dashmart-ai/dashmart/pkg/mark"
)

func TestMaskAndRestoreContacts(t *testing.T) {
	w := mark.NewPIIWorker()

	masked := w.Do("reach me at jane@example.com or +44 1234 567890 please")
	assert.NotContains(t, masked, "jane@example.com")
	assert.NotContains(t, masked, "+44 1234 567890")
	assert.Len(t, w.Map(), 2)

	restored := w.Undo(masked)
	assert.Equal(t, "reach me at jane@example.com or +44 1234 567890 please", restored)
}

func TestMaskLeavesPlainTextAlone(t *testing.T) {
	w := mark.NewPIIWorker()
	assert.Equal(t, "where is my order", w.Do("where is my order"))
	assert.Empty(t, w.Map())
}

func TestMaskAcrossMultipleTexts(t *testing.T) {
	w := mark.NewPIIWorker()
	first := w.Do("a@b.io")
	second := w.Do("c@d.io")
	assert.NotEqual(t, first, second)
	assert.Equal(t, "a@b.io", w.Undo(first))
	assert.Equal(t, "c@d.io", w.Undo(second))
}
