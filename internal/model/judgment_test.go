package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabelValid(t *testing.T) {
	t.Parallel()

	for _, l := range Labels {
		assert.True(t, l.Valid(), "label %s", l)
	}
	assert.False(t, Label("maybe").Valid())
	assert.False(t, Label("").Valid())
	assert.False(t, Label("Accept").Valid(), "labels are lowercase on the wire")
}

func TestLabelAgreement(t *testing.T) {
	t.Parallel()

	assert.True(t, LabelAccept.Agreement())
	assert.True(t, LabelSomewhatAccept.Agreement())
	assert.False(t, LabelReject.Agreement())
	assert.False(t, LabelUnsure.Agreement())
	assert.False(t, LabelCorrected.Agreement())
}

func TestJudgmentKey(t *testing.T) {
	t.Parallel()

	a := FieldJudgment{RecordID: "p1.png", Field: "patient.name", Reviewer: "maarten", Label: LabelAccept}
	b := FieldJudgment{RecordID: "p1.png", Field: "patient.name", Reviewer: "maarten", Label: LabelReject}
	c := FieldJudgment{RecordID: "p1.png", Field: "patient.name", Reviewer: "signe", Label: LabelAccept}

	assert.Equal(t, a.Key(), b.Key(), "label does not affect identity")
	assert.NotEqual(t, a.Key(), c.Key(), "reviewer does")
}
