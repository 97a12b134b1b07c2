package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/apidrift/driftwatch/internal/domain/model"
)

func TestNewDriftVerdict(t *testing.T) {
	t.Run("no records means no drift", func(t *testing.T) {
		assert.Equal(t, model.DriftVerdict{}, model.NewDriftVerdict(nil))
	})

	t.Run("files are distinct and sorted", func(t *testing.T) {
		changes := []model.ChangeRecord{
			{File: "b/routes.py", RawLine: "+x", Category: model.CategoryTypedField, Confidence: model.ConfidenceHigh},
			{File: "a/models.py", RawLine: "+y", Category: model.CategoryTypedField, Confidence: model.ConfidenceHigh},
			{File: "b/routes.py", RawLine: "+z", Category: model.CategoryTypedField, Confidence: model.ConfidenceHigh},
		}

		v := model.NewDriftVerdict(changes)

		assert.True(t, v.HasDrift)
		assert.Equal(t, []string{"a/models.py", "b/routes.py"}, v.ChangedFiles)
		assert.Equal(t, changes, v.Changes)
	})
}

func TestChangeRecordString(t *testing.T) {
	c := model.ChangeRecord{File: "backend/app/api/routes/items.py", RawLine: `+@router.post("/items/")`}
	assert.Equal(t, `[backend/app/api/routes/items.py] +@router.post("/items/")`, c.String())
}
