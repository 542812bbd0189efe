package commonModels

import "time"

// Document is one ingested source file. It always belongs to exactly one
// tenant; department and division are optional narrowings inside it.
type Document struct {
	Id           string    `json:"document_id"`
	TenantId     string    `json:"tenant_id"`
	DepartmentId string    `json:"department_id,omitempty"`
	DivisionId   string    `json:"division_id,omitempty"`
	OwnerId      string    `json:"owner_id"`
	Title        string    `json:"title"`
	Category     string    `json:"category,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	Text         string    `json:"-"`
	ContentHash  string    `json:"content_hash,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Chunk is a contiguous, possibly overlapping slice of a document's text.
// Chunks of one document are ordered by Index and cover the full source text.
type Chunk struct {
	Id         string `json:"chunk_id"`
	DocumentId string `json:"document_id"`
	Index      int    `json:"chunk_index"`
	Text       string `json:"content"`
	CharCount  int    `json:"char_count"`
}

type Role string

const (
	RoleSuperAdmin   Role = "superadmin"
	RoleTenantAdmin  Role = "tenant_admin"
	RoleDeptManager  Role = "dept_manager"
	RoleDivisionLead Role = "division_lead"
	RoleMember       Role = "member"
)

// Identity is the already-authenticated caller, as handed over by the auth
// layer in front of this service.
type Identity struct {
	UserId       string `json:"user_id"`
	TenantId     string `json:"tenant_id"`
	DepartmentId string `json:"department_id,omitempty"`
	DivisionId   string `json:"division_id,omitempty"`
	Role         Role   `json:"role"`
}

// AccessScope is the resolved visibility filter for one request. An empty
// field means "unconstrained" for that dimension; DenyAll short-circuits to
// zero matches regardless of the other fields.
type AccessScope struct {
	DenyAll      bool
	TenantId     string
	DepartmentId string
	DivisionId   string
	OwnerId      string
}

// CandidateFilter narrows a candidate fetch further inside the scope. Every
// set field is applied as an additional AND condition; filters can never
// widen the scope.
type CandidateFilter struct {
	DepartmentId  string
	DivisionId    string
	Category      string
	Tags          []string
	CreatedAfter  time.Time
	CreatedBefore time.Time
	DocumentIds   []string
}

// Candidate pairs a stored chunk with its document metadata and embedding,
// as returned from the chunk store for ranking.
type Candidate struct {
	Chunk          Chunk
	DocumentTitle  string
	EmbeddingModel string
	Vector         []float32
}

// SearchResult is the ephemeral ranked pairing of chunk, document and score
// for one query. Not persisted.
type SearchResult struct {
	Chunk         Chunk   `json:"chunk"`
	DocumentId    string  `json:"document_id"`
	DocumentTitle string  `json:"document_title"`
	Score         float64 `json:"score"`
}
