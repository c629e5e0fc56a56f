package inquiry

import (
	"time"

	apperrors "github.com/hrygo/repairdesk/internal/errors"
	"github.com/hrygo/repairdesk/server/gateway"
)

// State is the inquiry form state.
type State int

const (
	StateEditing State = iota
	StateSubmitting
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateEditing:
		return "editing"
	case StateSubmitting:
		return "submitting"
	case StateSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// DiagnosisResult is free-form text, a structured diagnosis, or both.
type DiagnosisResult struct {
	Text       string
	Structured *gateway.StructuredDiagnosis
}

// CostRange is an inclusive yen range.
type CostRange struct {
	Min int64
	Max int64
}

type CostEstimate struct {
	WorkHours         float64
	Difficulty        string
	DiagnosisFee      int64
	Labor             CostRange
	Parts             CostRange
	Total             CostRange
	Reasoning         string
	SimilarCasesCount int
}

// Deal is a successfully submitted inquiry.
type Deal struct {
	ID string
	// Draft is the form as it was submitted.
	Draft Draft
}

// Note is a follow-up message sent for a deal.
type Note struct {
	DealID string
	Text   string
	SentAt time.Time
}

type NoteResult struct {
	Success bool
	Error   string
}

// StepStatus is the loading and error indicator of one operation.
type StepStatus struct {
	Loading bool
	Err     *apperrors.AppError
}

// Snapshot is a copy of the orchestrator state for rendering.
type Snapshot struct {
	State State
	Draft Draft

	Diagnosis       *DiagnosisResult
	DiagnosisStatus StepStatus
	Estimate        *CostEstimate
	EstimateStatus  StepStatus
	SubmitStatus    StepStatus

	Deal *Deal
	// FieldsReset is set once the editable fields returned to their defaults
	// after a successful submission.
	FieldsReset bool

	// PendingNote is the note text not yet sent successfully.
	PendingNote string
	NoteStatus  StepStatus
	Notes       []Note
}

func toDiagnosis(reply *gateway.DiagnoseReply) *DiagnosisResult {
	res := &DiagnosisResult{}
	if reply == nil {
		return res
	}
	res.Structured = reply.Diagnosis
	res.Text = reply.Response
	if res.Text == "" {
		res.Text = reply.Message
	}
	return res
}

func toEstimate(reply *gateway.EstimateReply) *CostEstimate {
	if reply == nil {
		return &CostEstimate{}
	}
	return &CostEstimate{
		WorkHours:         reply.EstimatedWorkHours,
		Difficulty:        reply.Difficulty,
		DiagnosisFee:      reply.DiagnosisFee,
		Labor:             CostRange{Min: reply.LaborCostMin, Max: reply.LaborCostMax},
		Parts:             CostRange{Min: reply.PartsCostMin, Max: reply.PartsCostMax},
		Total:             CostRange{Min: reply.TotalCostMin, Max: reply.TotalCostMax},
		Reasoning:         reply.Reasoning,
		SimilarCasesCount: reply.SimilarCasesCount,
	}
}
