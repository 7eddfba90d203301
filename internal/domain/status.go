package domain

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleRequester Role = "requester"
	RoleReviewer  Role = "reviewer"
	RoleExecutive Role = "executive"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleRequester, RoleReviewer, RoleExecutive:
		return true
	}
	return false
}

type Urgency string

const (
	UrgencyLow      Urgency = "LOW"
	UrgencyMedium   Urgency = "MEDIUM"
	UrgencyHigh     Urgency = "HIGH"
	UrgencyCritical Urgency = "CRITICAL"
)

// Urgencies lists every urgency, lowest first.
var Urgencies = []Urgency{UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical}

func (u Urgency) IsValid() bool {
	for _, v := range Urgencies {
		if u == v {
			return true
		}
	}
	return false
}

// CaseStatus is the lifecycle state of a case.
type CaseStatus string

const (
	CaseNew                 CaseStatus = "NEW"
	CaseInAssessment        CaseStatus = "IN_ASSESSMENT"
	CaseRevision            CaseStatus = "REVISION"
	CaseWaitingExecDecision CaseStatus = "WAITING_EXEC_DECISION"
	CaseInExecution         CaseStatus = "IN_EXECUTION"
	CaseApproved            CaseStatus = "APPROVED" // legacy
	CaseRejected            CaseStatus = "REJECTED"
	CaseCompleted           CaseStatus = "COMPLETED"
)

// CaseStatuses lists every case status in lifecycle order.
var CaseStatuses = []CaseStatus{
	CaseNew,
	CaseInAssessment,
	CaseRevision,
	CaseWaitingExecDecision,
	CaseInExecution,
	CaseApproved,
	CaseRejected,
	CaseCompleted,
}

func (s CaseStatus) IsValid() bool {
	for _, v := range CaseStatuses {
		if s == v {
			return true
		}
	}
	return false
}

func (s CaseStatus) String() string {
	return string(s)
}

// InAssessmentPhase is true while divisions may still propose and finalize.
func (s CaseStatus) InAssessmentPhase() bool {
	switch s {
	case CaseNew, CaseInAssessment, CaseRevision, CaseWaitingExecDecision:
		return true
	}
	return false
}

// InExecutionPhase is true while execution progress may be recorded.
func (s CaseStatus) InExecutionPhase() bool {
	return s == CaseInExecution || s == CaseApproved
}

// IsArchived is true for the states listed in the knowledge base.
func (s CaseStatus) IsArchived() bool {
	return s == CaseCompleted || s == CaseRejected || s == CaseApproved
}

// TaskStatus is the state of one division's subtask.
type TaskStatus string

const (
	TaskPending    TaskStatus = "PENDING"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskOK         TaskStatus = "OK"
	TaskNO         TaskStatus = "NO"
	TaskRevision   TaskStatus = "REVISION"
	TaskDone       TaskStatus = "DONE" // legacy alias of OK
)

func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskOK, TaskNO, TaskRevision, TaskDone:
		return true
	}
	return false
}

func (s TaskStatus) String() string {
	return string(s)
}

// IsFinal reports whether the division has declared an outcome.
func (s TaskStatus) IsFinal() bool {
	return s == TaskOK || s == TaskNO || s == TaskDone
}

// IsPositive counts DONE as OK.
func (s TaskStatus) IsPositive() bool {
	return s == TaskOK || s == TaskDone
}

type ExecutiveDecision string

const (
	DecisionApprove               ExecutiveDecision = "APPROVE"
	DecisionApproveWithConditions ExecutiveDecision = "APPROVE_WITH_CONDITIONS"
	DecisionRevision              ExecutiveDecision = "REVISION"
	DecisionReject                ExecutiveDecision = "REJECT"
)

func (d ExecutiveDecision) IsValid() bool {
	switch d {
	case DecisionApprove, DecisionApproveWithConditions, DecisionRevision, DecisionReject:
		return true
	}
	return false
}

// Outcome maps a decision onto the case status it produces.
func (d ExecutiveDecision) Outcome() CaseStatus {
	switch d {
	case DecisionApprove, DecisionApproveWithConditions:
		return CaseInExecution
	case DecisionReject:
		return CaseRejected
	case DecisionRevision:
		return CaseRevision
	}
	return CaseInAssessment
}
