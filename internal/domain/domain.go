package domain

// DivisionCode is the short uppercase identifier other entities use to
// reference a DivisionConfig.
type DivisionCode string

// TargetAll addresses a collaboration note to every division on a case.
const TargetAll DivisionCode = "ALL"

type DivisionConfig struct {
	ID          string       `json:"id"`
	Code        DivisionCode `json:"code" validate:"required,uppercase,alphanum,max=8"`
	Name        string       `json:"name" validate:"required"`
	Description string       `json:"description,omitempty"`
}

type User struct {
	ID       string       `json:"id" validate:"required"`
	Name     string       `json:"name" validate:"required"`
	Role     Role         `json:"role" validate:"required,oneof=admin requester reviewer executive"`
	Division DivisionCode `json:"division,omitempty"`
	Avatar   string       `json:"avatar,omitempty"`
}

// Actor is the acting user for one engine call. It is supplied by the
// session layer and never persisted.
type Actor struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Role     Role         `json:"role"`
	Division DivisionCode `json:"division,omitempty"`
}

// ActorFromUser builds the acting identity for a stored user.
func ActorFromUser(u User) Actor {
	return Actor{ID: u.ID, Name: u.Name, Role: u.Role, Division: u.Division}
}

type CaseTemplate struct {
	ID                string         `json:"id" yaml:"id"`
	Name              string         `json:"name" yaml:"name"`
	Description       string         `json:"description" yaml:"description"`
	RequiredDivisions []DivisionCode `json:"requiredDivisions" yaml:"required"`
	OptionalDivisions []DivisionCode `json:"optionalDivisions" yaml:"optional"`
}

// CustomTemplateID marks a case that was not created from the catalog.
const CustomTemplateID = "custom"

type Case struct {
	ID                string            `json:"id"`
	Title             string            `json:"title"`
	Description       string            `json:"description"`
	Location          string            `json:"location"`
	Urgency           Urgency           `json:"urgency"`
	TargetDate        string            `json:"targetDate"`
	Justification     string            `json:"justification"`
	AttachmentURL     string            `json:"attachmentUrl,omitempty"`
	ExecutiveDecision ExecutiveDecision `json:"executiveDecision,omitempty"`
	ExecutiveNote     string            `json:"executiveNote,omitempty"`
	TemplateID        string            `json:"templateId"`
	RequesterID       string            `json:"requesterId"`
	RequesterName     string            `json:"requesterName"`
	Status            CaseStatus        `json:"status"`
	CreatedAt         string            `json:"createdAt"`
	UpdatedAt         string            `json:"updatedAt"`
}

type Subtask struct {
	ID           string       `json:"id"`
	CaseID       string       `json:"caseId"`
	Division     DivisionCode `json:"division"`
	Status       TaskStatus   `json:"status"`
	Description  string       `json:"description"`
	Solutions    []Solution   `json:"solutions"`
	RevisionNote string       `json:"revisionNote,omitempty"`
	UpdatedAt    string       `json:"updatedAt"`
}

type Solution struct {
	ID              string                `json:"id"`
	SubtaskID       string                `json:"subtaskId"`
	Title           string                `json:"title"`
	Description     string                `json:"description"`
	IsFeasible      bool                  `json:"isFeasible"`
	AttachmentURL   string                `json:"attachmentUrl,omitempty"`
	CurrentProgress int                   `json:"currentProgress"`
	ProgressLogs    []SolutionProgressLog `json:"progressLogs"`
	CreatedAt       string                `json:"createdAt"`
	CreatedBy       string                `json:"createdBy"`
}

type SolutionProgressLog struct {
	ID              string `json:"id"`
	SolutionID      string `json:"solutionId"`
	ProgressPercent int    `json:"progressPercent"`
	Note            string `json:"note"`
	EvidenceURL     string `json:"evidenceUrl,omitempty"`
	Timestamp       string `json:"timestamp"`
	CreatedBy       string `json:"createdBy"`
}

type CollaborationNote struct {
	ID             string       `json:"id"`
	CaseID         string       `json:"caseId"`
	SenderDivision DivisionCode `json:"senderDivision"`
	TargetDivision DivisionCode `json:"targetDivision"`
	Content        string       `json:"content"`
	Timestamp      string       `json:"timestamp"`
	SenderName     string       `json:"senderName"`
}

type Log struct {
	ID        string `json:"id"`
	CaseID    string `json:"caseId"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	Action    string `json:"action"`
	Details   string `json:"details,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Snapshot is the whole durable state, stored and replaced as one document.
type Snapshot struct {
	Cases              []Case              `json:"cases"`
	Subtasks           []Subtask           `json:"subtasks"`
	Logs               []Log               `json:"logs"`
	CollaborationNotes []CollaborationNote `json:"collaborationNotes"`
	Users              []User              `json:"users"`
	Divisions          []DivisionConfig    `json:"divisions"`
}

// SubtasksOf returns the subtasks belonging to caseID in stored order.
func SubtasksOf(caseID string, subtasks []Subtask) []Subtask {
	var res []Subtask
	for _, t := range subtasks {
		if t.CaseID == caseID {
			res = append(res, t)
		}
	}
	return res
}

func (s *Snapshot) CaseIndex(id string) int {
	for i := range s.Cases {
		if s.Cases[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Snapshot) SubtaskIndex(id string) int {
	for i := range s.Subtasks {
		if s.Subtasks[i].ID == id {
			return i
		}
	}
	return -1
}

// SolutionIndex locates a solution by id, returning the owning subtask index
// and the solution index within it.
func (s *Snapshot) SolutionIndex(id string) (int, int) {
	for i := range s.Subtasks {
		for j := range s.Subtasks[i].Solutions {
			if s.Subtasks[i].Solutions[j].ID == id {
				return i, j
			}
		}
	}
	return -1, -1
}

func (s *Snapshot) UserIndex(id string) int {
	for i := range s.Users {
		if s.Users[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Snapshot) DivisionIndex(id string) int {
	for i := range s.Divisions {
		if s.Divisions[i].ID == id {
			return i
		}
	}
	return -1
}

// HasDivision reports whether code names a configured division.
func (s *Snapshot) HasDivision(code DivisionCode) bool {
	for _, d := range s.Divisions {
		if d.Code == code {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can mutate it without touching s.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Cases:              append([]Case(nil), s.Cases...),
		Logs:               append([]Log(nil), s.Logs...),
		CollaborationNotes: append([]CollaborationNote(nil), s.CollaborationNotes...),
		Users:              append([]User(nil), s.Users...),
		Divisions:          append([]DivisionConfig(nil), s.Divisions...),
	}
	if s.Subtasks != nil {
		out.Subtasks = make([]Subtask, len(s.Subtasks))
		for i, t := range s.Subtasks {
			out.Subtasks[i] = t.Clone()
		}
	}
	return out
}

// Clone copies the subtask with its solutions and progress logs.
func (t Subtask) Clone() Subtask {
	if t.Solutions == nil {
		return t
	}
	sols := make([]Solution, len(t.Solutions))
	for i, sol := range t.Solutions {
		sol.ProgressLogs = append([]SolutionProgressLog(nil), sol.ProgressLogs...)
		sols[i] = sol
	}
	t.Solutions = sols
	return t
}

// Normalize replaces missing nested collections with empty ones so the
// document always serializes lists, never nulls.
func (s *Snapshot) Normalize() {
	if s.Cases == nil {
		s.Cases = []Case{}
	}
	if s.Subtasks == nil {
		s.Subtasks = []Subtask{}
	}
	if s.Logs == nil {
		s.Logs = []Log{}
	}
	if s.CollaborationNotes == nil {
		s.CollaborationNotes = []CollaborationNote{}
	}
	if s.Users == nil {
		s.Users = []User{}
	}
	if s.Divisions == nil {
		s.Divisions = []DivisionConfig{}
	}
	for i := range s.Subtasks {
		if s.Subtasks[i].Solutions == nil {
			s.Subtasks[i].Solutions = []Solution{}
		}
		for j := range s.Subtasks[i].Solutions {
			if s.Subtasks[i].Solutions[j].ProgressLogs == nil {
				s.Subtasks[i].Solutions[j].ProgressLogs = []SolutionProgressLog{}
			}
		}
	}
}
