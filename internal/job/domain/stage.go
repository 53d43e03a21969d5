package domain

import "strings"

// Stage is a step in the job workflow.
type Stage string

const (
	StageReceived      Stage = "Received"
	StageDesign        Stage = "Design"
	StageProof         Stage = "Proof"
	StageProduction    Stage = "Production"
	StageInstallPickup Stage = "Install / Pickup"
	StageCompleted     Stage = "Completed"
)

// Stages is the workflow order. Any stage may move to any other stage;
// only membership is enforced.
var Stages = []Stage{
	StageReceived,
	StageDesign,
	StageProof,
	StageProduction,
	StageInstallPickup,
	StageCompleted,
}

func ParseStage(value string) (Stage, error) {
	trimmed := strings.TrimSpace(value)
	for _, stage := range Stages {
		if string(stage) == trimmed {
			return stage, nil
		}
	}
	return "", ErrInvalidStage
}

func (s Stage) Index() int {
	for i, stage := range Stages {
		if stage == s {
			return i
		}
	}
	return -1
}

func (s Stage) IsTerminal() bool {
	return s == StageCompleted
}

// Progress is the share of the workflow done, 0..100. Unknown stages report 0.
func Progress(s Stage) int {
	idx := s.Index()
	if idx <= 0 || len(Stages) < 2 {
		return 0
	}
	return idx * 100 / (len(Stages) - 1)
}
