package domain

// AnnotationTask — задача аннотации клеточных типов для одного образца.
//
// Создаётся только для RNA образцов с поддерживаемым организмом,
// потребляется Annotation Stage ровно один раз.
type AnnotationTask struct {
	SampleID     string    `json:"sample_id"`
	Organism     string    `json:"organism"`
	OrganismName string    `json:"organism_name,omitempty"`
	Chemistry    Chemistry `json:"chemistry"`
	Flowcell     string    `json:"flowcell"`
	Tissue       string    `json:"tissue,omitempty"`
	Description  string    `json:"description,omitempty"`
}

// NewAnnotationTask создаёт задачу из строки run sheet.
func NewAnnotationTask(s *Sample) AnnotationTask {
	return AnnotationTask{
		SampleID:     s.SampleID,
		Organism:     s.Reference,
		OrganismName: s.OrganismName,
		Chemistry:    s.Chemistry,
		Flowcell:     s.Flowcell,
		Tissue:       s.Tissue,
		Description:  s.Description,
	}
}

// AnnotationResult — результат аннотации (sample id, успех, сообщение).
type AnnotationResult struct {
	SampleID string `json:"sample_id"`
	Success  bool   `json:"success"`
	Message  string `json:"message"`
}
