package model

import "time"

// Label is the reviewer's mark for one field of one record.
type Label string

const (
	LabelAccept         Label = "accept"
	LabelSomewhatAccept Label = "somewhat_accept"
	LabelReject         Label = "reject"
	LabelUnsure         Label = "unsure"
	LabelCorrected      Label = "corrected"
)

// Labels lists all labels in display order.
var Labels = []Label{LabelAccept, LabelSomewhatAccept, LabelReject, LabelUnsure, LabelCorrected}

// Valid reports whether l is a known label.
func (l Label) Valid() bool {
	switch l {
	case LabelAccept, LabelSomewhatAccept, LabelReject, LabelUnsure, LabelCorrected:
		return true
	}
	return false
}

// Agreement folds a label to the binary verdict used for accuracy.
// Accept and somewhat-accept count as agreement with the model output;
// reject, unsure and corrected do not.
func (l Label) Agreement() bool {
	return l == LabelAccept || l == LabelSomewhatAccept
}

// FieldJudgment is one reviewer's verdict on one field of one record.
// Judgments are append-only: a mistake is captured as a new judgment in
// a later session, never an in-place edit.
type FieldJudgment struct {
	RecordID       string    `json:"file_name"`
	Field          string    `json:"column_name"`
	Label          Label     `json:"label"`
	CorrectedValue *string   `json:"corrected_field,omitempty"`
	DatasetFile    string    `json:"dataset_file"`
	Reviewer       string    `json:"validator_id"`
	DecidedAt      time.Time `json:"decided_at"`
}

// Key identifies the (record, field, reviewer) triple a judgment covers.
func (j FieldJudgment) Key() JudgmentKey {
	return JudgmentKey{RecordID: j.RecordID, Field: j.Field, Reviewer: j.Reviewer}
}

// JudgmentKey is the uniqueness key for judgments within one log.
type JudgmentKey struct {
	RecordID string
	Field    string
	Reviewer string
}
